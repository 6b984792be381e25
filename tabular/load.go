//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package tabular

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// LoadOptions controls Load.
type LoadOptions struct {
	// NoHeaders treats the first row as data.
	NoHeaders bool
	// Delimiter overrides CSV delimiter detection.
	Delimiter rune
	// SheetName selects a workbook sheet, the first one by default.
	SheetName string
	// FilePath is the agent-side location, temp/<file name> by default.
	FilePath string
	// SyncedWithAgent marks files already stored on the agent machine.
	SyncedWithAgent bool
}

// CheckFile validates the extension and size of an upload.
func CheckFile(fileName string, size int64) error {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".xlsx", ".xls":
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, fileName, size)
	}
	return nil
}

// Load parses an uploaded file into a Source holding a row preview.
func Load(fileName string, content []byte, opts LoadOptions) (*Source, error) {
	if err := CheckFile(fileName, int64(len(content))); err != nil {
		return nil, err
	}
	src := &Source{
		Name:              SourceName(fileName),
		FileName:          filepath.Base(fileName),
		FilePath:          opts.FilePath,
		FirstRowAsHeaders: !opts.NoHeaders,
		LoadedAt:          time.Now(),
		SyncedWithAgent:   opts.SyncedWithAgent,
	}
	if src.FilePath == "" {
		src.FilePath = "temp/" + src.FileName
	}

	var table *Table
	if strings.EqualFold(filepath.Ext(fileName), ".csv") {
		text, err := DecodeText(content)
		if err != nil {
			return nil, err
		}
		delim := opts.Delimiter
		if delim == 0 {
			delim = DetectDelimiter(text)
		}
		table, err = ParseCSV(text, ParseOptions{FirstRowAsHeaders: src.FirstRowAsHeaders, Delimiter: delim})
		if err != nil {
			return nil, err
		}
		src.Delimiter = string(delim)
	} else {
		var err error
		table, src.SheetName, err = ParseSheet(content, opts.SheetName, src.FirstRowAsHeaders)
		if err != nil {
			return nil, err
		}
	}

	src.Columns = table.Columns
	src.RowCount = len(table.Rows)
	if len(table.Rows) > PreviewRows {
		src.Rows = table.Rows[:PreviewRows]
	} else {
		src.Rows = table.Rows
	}
	return src, nil
}
