package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads every row of the first worksheet as displayed text.
// Rows the sheet stores without values come back as zero-length slices and
// are kept, including trailing ones.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read sheet %q row %d: %w", sheets[0], len(out)+1, err)
		}
		out = append(out, cells)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return out, nil
}
