//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package main is flowctl, the command line companion of the designer:
//
//	flowctl validate  [flags] <pattern>...
//	flowctl transform [flags] <pattern>...
//	flowctl vars      [flags] <pattern>...
//	flowctl export    [flags] <pattern>...
//	flowctl import    [flags] <pattern>...
//
// Patterns accept doublestar globs such as "flows/**/*.json". Every command
// prints one JSON object per input file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
