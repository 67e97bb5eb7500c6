package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CellKey addresses one cell of a record set.
type CellKey struct {
	Row   int
	Field string
}

// String renders the key in the "<row>-<field>" form used by grid clients.
func (k CellKey) String() string {
	return strconv.Itoa(k.Row) + "-" + k.Field
}

// ParseCellKey reverses CellKey.String. The field part may itself contain '-'.
func ParseCellKey(s string) (CellKey, error) {
	i := strings.IndexByte(s, '-')
	if i <= 0 {
		return CellKey{}, fmt.Errorf("invalid cell key %q", s)
	}
	row, err := strconv.Atoi(s[:i])
	if err != nil || row < 0 {
		return CellKey{}, fmt.Errorf("invalid cell key %q", s)
	}
	return CellKey{Row: row, Field: s[i+1:]}, nil
}

// ErrorMap is a sparse lookup from cell to validation message.
// A missing key means the cell is valid.
type ErrorMap map[CellKey]string

// FieldError is one entry of an ErrorMap in list form.
type FieldError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BuildErrorMap validates every record against schema and checks identity
// uniqueness across the whole set. Schema violations are written first;
// duplicate identity messages are written second and overwrite any message
// already stored for the identity cell of that row.
func BuildErrorMap(records RecordSet, schema Schema) ErrorMap {
	return buildErrorMap(records, schema, FindDuplicates(records, schema.IdentityField()))
}

func buildErrorMap(records RecordSet, schema Schema, dups DuplicateSet) ErrorMap {
	m := make(ErrorMap)
	idField := schema.IdentityField()

	for row, rec := range records {
		for _, v := range ValidateRecord(rec, schema) {
			m[CellKey{Row: row, Field: v.Field}] = v.Message
		}
	}

	if dups.Len() == 0 {
		return m
	}

	for row, rec := range records {
		if dups.ContainsRecord(rec, idField) {
			m[CellKey{Row: row, Field: idField}] = DuplicateIDMessage
		}
	}

	return m
}

// Get returns the message for a cell and whether the cell is invalid.
func (m ErrorMap) Get(row int, field string) (string, bool) {
	msg, ok := m[CellKey{Row: row, Field: field}]
	return msg, ok
}

// Entries lists the map sorted by row, then field.
func (m ErrorMap) Entries() []FieldError {
	out := make([]FieldError, 0, len(m))
	for k, msg := range m {
		out = append(out, FieldError{Row: k.Row, Field: k.Field, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// RowsWithErrors returns the sorted distinct row indices that carry an error.
func (m ErrorMap) RowsWithErrors() []int {
	seen := make(map[int]bool)
	var rows []int
	for k := range m {
		if !seen[k.Row] {
			seen[k.Row] = true
			rows = append(rows, k.Row)
		}
	}
	sort.Ints(rows)
	return rows
}

// Clone returns an independent copy.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the map as {"<row>-<field>": message}.
func (m ErrorMap) MarshalJSON() ([]byte, error) {
	flat := make(map[string]string, len(m))
	for k, v := range m {
		flat[k.String()] = v
	}
	return json.Marshal(flat)
}

// UnmarshalJSON decodes the {"<row>-<field>": message} form.
func (m *ErrorMap) UnmarshalJSON(data []byte) error {
	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	out := make(ErrorMap, len(flat))
	for s, msg := range flat {
		k, err := ParseCellKey(s)
		if err != nil {
			return err
		}
		out[k] = msg
	}
	*m = out
	return nil
}
