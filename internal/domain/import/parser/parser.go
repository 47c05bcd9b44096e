// Package parser decodes uploaded spreadsheets into raw string tables.
// CSV is the primary format; uploads that are not valid UTF-8 are read as
// Latin-1. XLSX workbooks are read from their transaction sheet.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encodings reported in RawTable.Encoding.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
	EncodingXLSX   = "xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoHeader is wrapped in a DecodeError when the file has no header row.
var ErrNoHeader = errors.New("no header row")

// DecodeError reports that an upload could not be read as tabular data.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// RawTable is a decoded upload: a header and string rows. A row may be
// shorter than the header; missing trailing cells read as null.
type RawTable struct {
	Header   []string
	Rows     [][]string
	Encoding string
}

// Index returns the position of the named column, or -1 when absent.
func (t *RawTable) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at column idx of row. ok is false for a null cell:
// an absent column, a missing trailing cell or an empty string.
func (t *RawTable) Cell(row []string, idx int) (value string, ok bool) {
	if idx < 0 || idx >= len(row) || row[idx] == "" {
		return "", false
	}
	return row[idx], true
}

// IsExcel reports whether filename names a workbook rather than a CSV file.
func IsExcel(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Decode reads the whole upload and dispatches on the file extension.
func Decode(r io.Reader, filename string) (*RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Format: "upload", Err: err}
	}
	if IsExcel(filename) {
		return ReadXLSX(bytes.NewReader(data))
	}
	return ReadCSV(data)
}

// ReadCSV decodes comma-separated bytes, falling back to Latin-1 when the
// content is not valid UTF-8.
func ReadCSV(data []byte) (*RawTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	encoding := EncodingUTF8
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
		if err != nil {
			return nil, &DecodeError{Format: "csv", Err: fmt.Errorf("latin-1 fallback: %w", err)}
		}
		data = decoded
		encoding = EncodingLatin1
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &DecodeError{Format: "csv", Err: err}
	}
	if len(records) == 0 {
		return nil, &DecodeError{Format: "csv", Err: ErrNoHeader}
	}

	table, err := newRawTable(records[0], records[1:])
	if err != nil {
		return nil, &DecodeError{Format: "csv", Err: err}
	}
	table.Encoding = encoding
	return table, nil
}

// newRawTable cleans the header and checks that no row is wider than it.
func newRawTable(header []string, rows [][]string) (*RawTable, error) {
	header = cleanHeader(header)
	for i, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf("data row %d: expected %d fields, saw %d", i+1, len(header), len(row))
		}
	}
	return &RawTable{Header: header, Rows: rows}, nil
}

// cleanHeader trims names, labels blank ones by position and suffixes repeats
// ("valor", "valor.1") so every column stays addressable.
func cleanHeader(raw []string) []string {
	header := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		used[name] = true
		header[i] = name
	}
	return header
}
