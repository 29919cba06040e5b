// Package sheet reads and writes the spreadsheets used for bulk import and
// export of translation and corpus entries.
package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// KeyColumn names the column holding the entry key. Every other column is a language.
const KeyColumn = "key"

// Row is one spreadsheet line keyed by header name. Empty cells are left out.
type Row map[string]string

var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ParseFormat accepts "xlsx" or "csv" in any case; "" means xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// FormatFromName picks the format from a file extension.
func FormatFromName(filename string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	return ParseFormat(ext)
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Read parses the first sheet of an XLSX file or a CSV file. The first row is the header.
func Read(filename string, r io.Reader) ([]Row, error) {
	format, err := FormatFromName(filename)
	if err != nil {
		return nil, err
	}
	var records [][]string
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	case FormatCSV:
		records, err = readCSV(r)
	}
	if err != nil {
		return nil, err
	}
	return toRows(records), nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, errors.New("xlsx has no sheets")
	}
	return f.GetRows(name)
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func toRows(records [][]string) []Row {
	if len(records) == 0 {
		return []Row{}
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if strings.EqualFold(h, KeyColumn) {
			h = KeyColumn
		}
		header[i] = h
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := Row{}
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" || cell == "" {
				continue
			}
			row[header[i]] = cell
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// Write emits rows under the given columns. sheetName names the XLSX sheet
// and is ignored for CSV.
func Write(w io.Writer, format Format, sheetName string, columns []string, rows []Row) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, sheetName, columns, rows)
	case FormatCSV:
		return writeCSV(w, columns, rows)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

func writeXLSX(w io.Writer, sheetName string, columns []string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cells := make([]any, len(columns))
		for j, c := range columns {
			cells[j] = row[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func writeCSV(w io.Writer, columns []string, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for j, c := range columns {
			record[j] = row[c]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
