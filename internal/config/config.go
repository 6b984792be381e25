//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads flowforge settings from YAML, defaults and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/autorpa/flowforge/log"
)

// Environment overrides.
const (
	EnvAddr     = "FLOWFORGE_ADDR"
	EnvAgentURL = "FLOWFORGE_AGENT_URL"
	EnvLogLevel = "FLOWFORGE_LOG_LEVEL"
)

// Config is the full flowforge configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Agent     Agent     `yaml:"agent"`
	Log       Log       `yaml:"log"`
	Telemetry Telemetry `yaml:"telemetry"`
	Batch     Batch     `yaml:"batch"`
}

// Server configures the designer service.
type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// Agent locates the execution agent.
type Agent struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Log configures the default logger.
type Log struct {
	Level string `yaml:"level"`
	Trace bool   `yaml:"trace"`
}

// Telemetry enables OTLP export when Endpoint is set.
type Telemetry struct {
	Endpoint    string `yaml:"endpoint"`
	Protocol    string `yaml:"protocol"`
	ServiceName string `yaml:"service_name"`
}

// Enabled reports whether an exporter endpoint is configured.
func (t Telemetry) Enabled() bool { return t.Endpoint != "" }

// Batch sizes the CLI worker pool.
type Batch struct {
	Workers int `yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Agent: Agent{
			BaseURL: "http://localhost:5000",
			Timeout: 30 * time.Second,
		},
		Log: Log{Level: "info"},
		Telemetry: Telemetry{
			Protocol:    "http",
			ServiceName: "flowforge",
		},
		Batch: Batch{Workers: runtime.NumCPU()},
	}
}

// Load reads path (optional), fills unset fields from Default and applies
// environment overrides.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, err
		}
	}
	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Config{}, fmt.Errorf("merge config defaults: %w", err)
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// Parse decodes YAML without applying defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers)
	}
	switch c.Telemetry.Protocol {
	case "http", "grpc":
	default:
		return fmt.Errorf("telemetry.protocol must be http or grpc, got %q", c.Telemetry.Protocol)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Agent.Timeout < 0 {
		return fmt.Errorf("agent.timeout must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvAgentURL); v != "" {
		cfg.Agent.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}
