//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package tabular

import "errors"

var (
	// ErrUnsupportedFormat is returned for files that are not CSV or spreadsheets.
	ErrUnsupportedFormat = errors.New("tabular: unsupported format, use .xlsx, .xls or .csv")
	// ErrTooLarge is returned when a file exceeds MaxFileSize.
	ErrTooLarge = errors.New("tabular: file larger than 10MB")
	// ErrSheetNotFound is returned when the requested sheet does not exist.
	ErrSheetNotFound = errors.New("tabular: sheet not found")
	// ErrNotFound is returned by the registry for unknown ids.
	ErrNotFound = errors.New("tabular: source not found")
)
