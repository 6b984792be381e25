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
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var delimiters = []rune{',', ';', '\t', '|'}

// DetectDelimiter returns the candidate delimiter that occurs most often on
// the first line. Ties go to the earlier candidate and the default is ','.
func DetectDelimiter(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	best, most := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(first, string(d)); n > most {
			best, most = d, n
		}
	}
	return best
}

// ParseOptions controls CSV parsing.
type ParseOptions struct {
	FirstRowAsHeaders bool
	// Delimiter is detected when zero.
	Delimiter rune
}

// Table is a fully parsed CSV or sheet.
type Table struct {
	Columns []string
	Rows    []Row
}

// ParseCSV parses text. Headers are trimmed and NFC normalised; without a
// header row the columns are named Columna1..N. Blank lines are skipped and
// missing cells become empty strings.
func ParseCSV(text string, opts ParseOptions) (*Table, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(text)
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if blank(rec) {
			continue
		}
		records = append(records, rec)
	}
	return buildTable(records, opts.FirstRowAsHeaders), nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func buildTable(records [][]string, firstRowAsHeaders bool) *Table {
	t := &Table{Columns: []string{}, Rows: []Row{}}
	if len(records) == 0 {
		return t
	}
	data := records
	if firstRowAsHeaders {
		for _, h := range records[0] {
			t.Columns = append(t.Columns, norm.NFC.String(strings.TrimSpace(h)))
		}
		data = records[1:]
	} else {
		for i := range records[0] {
			t.Columns = append(t.Columns, fmt.Sprintf("Columna%d", i+1))
		}
	}
	for _, rec := range data {
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns content as UTF-8. Content that is not valid UTF-8 is
// read as Windows-1252, the usual encoding of spreadsheets exported on
// Spanish-locale desktops.
func DecodeText(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return string(out), nil
}
