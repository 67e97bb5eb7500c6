package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Record is one row of imported data keyed by column name.
// Values are scalars: string, numbers, bool or nil.
type Record map[string]any

// RecordSet is the ordered collection of records loaded in a session.
// The position of a record is its row index.
type RecordSet []Record

// SourceFormat identifies the file format a record set was decoded from.
type SourceFormat string

const (
	FormatCSV  SourceFormat = "csv"
	FormatXLSX SourceFormat = "xlsx"
)

// ParseResult is what the parsing collaborator delivers for one file.
// Errors are format-level problems and are kept apart from the error map.
type ParseResult struct {
	Records RecordSet
	Columns []string
	Format  SourceFormat
	Errors  []string
}

// Clone returns a shallow copy of the record. Scalar values need no deeper copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Lookup returns the value of field and whether the field is present.
func (r Record) Lookup(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}

// Clone copies every record so callers can not mutate the original set.
func (rs RecordSet) Clone() RecordSet {
	if rs == nil {
		return nil
	}
	out := make(RecordSet, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}

// Columns returns a stable column order for records.
// Columns listed in preferred come first (when at least one record or the
// header carries them), followed by any other keys in first-seen order.
// Keys first seen in the same record are sorted for determinism.
func Columns(records RecordSet, preferred []string) []string {
	seen := make(map[string]bool, len(preferred))
	cols := make([]string, 0, len(preferred))

	for _, c := range preferred {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cols = append(cols, c)
	}

	for _, r := range records {
		var extra []string
		for k := range r {
			if !seen[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			seen[k] = true
			cols = append(cols, k)
		}
	}

	return cols
}

// FormatValue renders a scalar for text encodings such as CSV.
// nil renders as an empty string; integral floats render without exponent.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return FormatValue(float64(t))
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// isScalar reports whether v is a value a record cell may hold.
func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// CheckScalars returns an error naming the first record that is nil (a JSON
// null row) or the first cell that holds a non-scalar value (for example a
// nested JSON object).
func CheckScalars(records RecordSet) error {
	for i, r := range records {
		if r == nil {
			return fmt.Errorf("%w: row %d is null", ErrNonScalarValue, i)
		}
		for k, v := range r {
			if !isScalar(v) {
				return fmt.Errorf("%w: row %d field %q holds %T", ErrNonScalarValue, i, k, v)
			}
		}
	}
	return nil
}
