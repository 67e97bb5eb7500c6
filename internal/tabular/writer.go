package tabular

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetcheck/internal/core"
)

// XLSXSheetName is the worksheet written by WriteXLSX.
const XLSXSheetName = "Data"

// Write encodes records in the given format.
func Write(w io.Writer, format core.SourceFormat, columns []string, records core.RecordSet) error {
	switch format {
	case core.FormatCSV:
		return WriteCSV(w, columns, records)
	case core.FormatXLSX:
		return WriteXLSX(w, columns, records)
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
}

// WriteCSV writes a header row followed by one line per record.
// A nil columns slice derives the column order from the records.
func WriteCSV(w io.Writer, columns []string, records core.RecordSet) error {
	columns = core.Columns(records, columns)

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	line := make([]string, len(columns))
	for i, rec := range records {
		for j, col := range columns {
			line[j] = core.FormatValue(rec[col])
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a single "Data" sheet.
// Numbers and booleans are stored as typed cells, everything else as text.
func WriteXLSX(w io.Writer, columns []string, records core.RecordSet) error {
	columns = core.Columns(records, columns)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), XLSXSheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(XLSXSheetName)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(columns))
		for j, col := range columns {
			row[j] = xlsxValue(rec[col])
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush xlsx: %w", err)
	}
	return f.Write(w)
}

func xlsxValue(v any) any {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, bool:
		return v
	default:
		return core.FormatValue(v)
	}
}
