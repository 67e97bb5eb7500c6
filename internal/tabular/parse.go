// Package tabular decodes uploaded spreadsheets into record sets and encodes
// record sets back into CSV and XLSX files.
//
// Every value produced by Parse is a string. The first non-blank row is the
// header. After it, only lines with no fields at all are skipped: a CSV line
// such as "," and an XLSX row stored without values are records whose cells
// are all "". Rows whose width differs from the header are still loaded and
// reported in ParseResult.Errors.
package tabular

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/sheetcheck/internal/core"
)

// DetectFormat maps a file name to its format by extension.
func DetectFormat(filename string) (core.SourceFormat, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return core.FormatCSV, true
	case ".xlsx", ".xls":
		return core.FormatXLSX, true
	default:
		return "", false
	}
}

// Parse decodes r according to the extension of filename.
func Parse(filename string, r io.Reader) (core.ParseResult, error) {
	format, ok := DetectFormat(filename)
	if !ok {
		return core.ParseResult{}, &SourceFormatError{
			File: filename,
			Err:  fmt.Errorf("%w %q", ErrUnsupportedFormat, filepath.Ext(filename)),
		}
	}

	var (
		rows [][]string
		err  error
	)
	switch format {
	case core.FormatCSV:
		rows, err = readCSV(r)
	case core.FormatXLSX:
		rows, err = readXLSX(r)
	}
	if err != nil {
		return core.ParseResult{}, &SourceFormatError{File: filename, Format: format, Err: err}
	}

	res, err := buildRecords(rows, format)
	if err != nil {
		return core.ParseResult{}, fmt.Errorf("%w: %s", err, filename)
	}
	return res, nil
}

// buildRecords turns raw rows into records keyed by the header row.
func buildRecords(rows [][]string, format core.SourceFormat) (core.ParseResult, error) {
	headerAt := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return core.ParseResult{}, ErrEmptyFile
	}

	header := normalizeHeader(rows[headerAt])
	res := core.ParseResult{
		Records: core.RecordSet{},
		Columns: header,
		Format:  format,
	}

	for _, row := range rows[headerAt+1:] {
		if format == core.FormatCSV && isEmptyLine(row) {
			continue
		}

		if format == core.FormatCSV && len(row) != len(header) {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: expected %d fields, got %d",
				len(res.Records)+1, len(header), len(row)))
		}

		rec := make(core.Record, len(header))
		for i, col := range header {
			switch {
			case i < len(row):
				rec[col] = row[i]
			case format == core.FormatXLSX:
				// Trailing empty cells are not stored in the sheet.
				rec[col] = ""
			}
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}

// normalizeHeader trims header cells and makes every name unique and non-empty.
func normalizeHeader(row []string) []string {
	out := make([]string, len(row))
	seen := make(map[string]int, len(row))

	for i, h := range row {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		out[i] = name
	}
	return out
}

// isEmptyLine reports whether a CSV line carried no delimiter and no text.
func isEmptyLine(row []string) bool {
	return len(row) == 0 || (len(row) == 1 && row[0] == "")
}

// isBlankRow reports whether every cell is empty or whitespace.
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
