//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package tabular loads CSV and spreadsheet files that loops iterate over
// and keeps them in a registry addressed by id or by source name.
package tabular

import (
	"path/filepath"
	"regexp"
	"time"
)

// PreviewRows is the number of data rows kept in memory per source.
const PreviewRows = 10

// MaxFileSize is the largest accepted upload.
const MaxFileSize = 10 << 20

// Row is one data row keyed by column name.
type Row map[string]string

// Source is a loaded rectangular dataset.
type Source struct {
	// ID is assigned by the registry.
	ID string `json:"id"`

	// Name is the file name without its extension. Loops reference the
	// source by this name and variables are prefixed with it.
	Name string `json:"name"`

	// FileName is the uploaded file name, extension included.
	FileName string `json:"fileName"`

	// FilePath is where the execution agent finds the file.
	FilePath string `json:"filePath"`

	SheetName string `json:"sheetName,omitempty"`

	// Columns keeps the header order of the file.
	Columns []string `json:"headers"`

	// Rows holds at most PreviewRows rows.
	Rows []Row `json:"rows"`

	// RowCount counts every data row, not only the preview.
	RowCount int `json:"totalRows"`

	Delimiter         string    `json:"delimiter,omitempty"`
	FirstRowAsHeaders bool      `json:"firstRowAsHeaders"`
	LoadedAt          time.Time `json:"loadedAt"`
	SyncedWithAgent   bool      `json:"syncedWithAgent"`
}

var extPattern = regexp.MustCompile(`(?i)\.(csv|xlsx|xls)$`)

// SourceName strips a .csv, .xlsx or .xls extension, ignoring case.
func SourceName(fileName string) string {
	return extPattern.ReplaceAllString(filepath.Base(fileName), "")
}
