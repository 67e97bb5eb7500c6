package tabular

import (
	"encoding/csv"
	"io"
)

// readCSV reads every row. Field counts may vary per row.
func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(cleanReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}
