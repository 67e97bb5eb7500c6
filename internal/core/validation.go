package core

// validation.go checks one record against an explicit schema.
//
// Validation is pure and total: it never fails, it only reports. Missing
// and empty values on a required field produce the same stable message so
// that two passes over equal input yield equal output. Fields the schema
// does not mention are never flagged.

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FieldConstraint defines the rules for one record field.
type FieldConstraint struct {
	Name      string // Record key, matched exactly
	Label     string // Display name used in messages (defaults to Name)
	Required  bool   // Absent, nil and "" are violations
	MinLength int    // Minimum rune count for string values (0 or 1 = non-empty)
	Message   string // Required-field message; defaults to "<Label> is required"
}

// Schema is an ordered list of field constraints.
// The first constraint names the identity field.
type Schema []FieldConstraint

// IdentityField returns the name of the field used for duplicate detection.
func (s Schema) IdentityField() string {
	if len(s) == 0 {
		return DefaultIdentityField
	}
	return s[0].Name
}

// DefaultIdentityField is the identity column of the default schema.
const DefaultIdentityField = "id"

// DuplicateIDMessage is the error map message for duplicated identity values.
const DuplicateIDMessage = "Duplicate ID"

// DefaultSchema returns the id/name schema every imported sheet must satisfy.
// A new slice is returned on each call.
func DefaultSchema() Schema {
	return Schema{
		{Name: "id", Label: "ID", Required: true, MinLength: 1, Message: "ID is required"},
		{Name: "name", Label: "Name", Required: true, MinLength: 1, Message: "Name is required"},
	}
}

// Violation is a single failing constraint for one field of a record.
type Violation struct {
	Field   string // Record key
	Value   any    // The offending value (nil when absent)
	Message string // Human-readable message
}

func (v Violation) Error() string {
	if v.Field != "" {
		return fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return v.Message
}

// ValidateRecord checks rec against schema and returns all violations in
// schema declaration order. An empty result means the record is valid.
func ValidateRecord(rec Record, schema Schema) []Violation {
	var out []Violation

	for _, c := range schema {
		if msg, ok := c.check(rec); !ok {
			v, _ := rec.Lookup(c.Name)
			out = append(out, Violation{Field: c.Name, Value: v, Message: msg})
		}
	}

	return out
}

// check evaluates one constraint and returns the message when it fails.
func (c FieldConstraint) check(rec Record) (string, bool) {
	v, present := rec.Lookup(c.Name)

	if !present || v == nil {
		if c.Required {
			return c.requiredMessage(), false
		}
		return "", true
	}

	s, isString := v.(string)
	if !isString {
		return fmt.Sprintf("%s must be text", c.label()), false
	}

	if s == "" {
		if c.Required || c.MinLength > 0 {
			return c.requiredMessage(), false
		}
		return "", true
	}

	if c.MinLength > 1 && utf8.RuneCountInString(s) < c.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", c.label(), c.MinLength), false
	}

	return "", true
}

func (c FieldConstraint) label() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

func (c FieldConstraint) requiredMessage() string {
	if c.Message != "" {
		return c.Message
	}
	return c.label() + " is required"
}

// Summarize produces a flat list of human-readable problems: one line per
// invalid record ("Row N: msg, msg", 1-based) followed by a single line
// listing duplicated identity values when there are any.
func Summarize(records RecordSet, schema Schema, dups DuplicateSet) []string {
	var lines []string

	for i, rec := range records {
		violations := ValidateRecord(rec, schema)
		if len(violations) == 0 {
			continue
		}
		msgs := make([]string, len(violations))
		for j, v := range violations {
			msgs[j] = v.Message
		}
		lines = append(lines, fmt.Sprintf("Row %d: %s", i+1, strings.Join(msgs, ", ")))
	}

	if dups.Len() > 0 {
		vals := dups.Values()
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = FormatValue(v)
		}
		lines = append(lines, "Duplicate IDs found: "+strings.Join(parts, ", "))
	}

	return lines
}
