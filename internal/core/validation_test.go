package core

import (
	"reflect"
	"testing"
)

func TestValidateRecord_DefaultSchema(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want []Violation
	}{
		{
			name: "valid record",
			rec:  Record{"id": "1", "name": "Alice"},
			want: nil,
		},
		{
			name: "extra fields are never flagged",
			rec:  Record{"id": "1", "name": "Alice", "client": "", "worker": nil},
			want: nil,
		},
		{
			name: "missing id",
			rec:  Record{"name": "Alice"},
			want: []Violation{{Field: "id", Message: "ID is required"}},
		},
		{
			name: "empty id",
			rec:  Record{"id": "", "name": "Alice"},
			want: []Violation{{Field: "id", Value: "", Message: "ID is required"}},
		},
		{
			name: "nil name",
			rec:  Record{"id": "1", "name": nil},
			want: []Violation{{Field: "name", Message: "Name is required"}},
		},
		{
			name: "both missing in schema order",
			rec:  Record{},
			want: []Violation{
				{Field: "id", Message: "ID is required"},
				{Field: "name", Message: "Name is required"},
			},
		},
		{
			name: "numeric id is not text",
			rec:  Record{"id": float64(7), "name": "Bob"},
			want: []Violation{{Field: "id", Value: float64(7), Message: "ID must be text"}},
		},
		{
			name: "whitespace is not empty",
			rec:  Record{"id": " ", "name": " "},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateRecord(tt.rec, DefaultSchema())
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ValidateRecord() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestValidateRecord_MessageIndependentOfOtherFields(t *testing.T) {
	schema := DefaultSchema()
	others := []Record{
		{"name": "A"},
		{"name": ""},
		{"name": "A", "worker": "W1", "task": "T9"},
		{},
	}

	for _, rec := range others {
		v := ValidateRecord(rec, schema)
		if len(v) == 0 || v[0].Field != "id" || v[0].Message != "ID is required" {
			t.Errorf("ValidateRecord(%v) first violation = %+v, want id required", rec, v)
		}
	}
}

func TestValidateRecord_CustomSchema(t *testing.T) {
	schema := Schema{
		{Name: "code", Required: true, MinLength: 3},
		{Name: "note", MinLength: 2},
	}

	tests := []struct {
		name string
		rec  Record
		want []string
	}{
		{"valid", Record{"code": "ABC", "note": "ok"}, nil},
		{"default required message", Record{}, []string{"code is required"}},
		{"too short", Record{"code": "AB"}, []string{"code must be at least 3 characters"}},
		{"optional absent", Record{"code": "ABCD"}, nil},
		{"optional empty still fails min length", Record{"code": "ABCD", "note": ""}, []string{"note is required"}},
		{"rune count not bytes", Record{"code": "äöü"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, v := range ValidateRecord(tt.rec, schema) {
				got = append(got, v.Message)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("messages = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchema_IdentityField(t *testing.T) {
	if got := DefaultSchema().IdentityField(); got != "id" {
		t.Errorf("DefaultSchema().IdentityField() = %q, want id", got)
	}
	if got := (Schema{{Name: "sku"}}).IdentityField(); got != "sku" {
		t.Errorf("IdentityField() = %q, want sku", got)
	}
	if got := (Schema{}).IdentityField(); got != DefaultIdentityField {
		t.Errorf("empty schema IdentityField() = %q, want %q", got, DefaultIdentityField)
	}
}

func TestDefaultSchema_ReturnsFreshCopy(t *testing.T) {
	a := DefaultSchema()
	a[0].Message = "changed"
	if DefaultSchema()[0].Message != "ID is required" {
		t.Error("DefaultSchema() shares state between calls")
	}
}

func TestSummarize(t *testing.T) {
	records := RecordSet{
		{"id": "1", "name": "A"},
		{"id": "1", "name": "B"},
		{"id": "", "name": ""},
	}
	schema := DefaultSchema()

	got := Summarize(records, schema, FindDuplicates(records, "id"))
	want := []string{
		"Row 3: ID is required, Name is required",
		"Duplicate IDs found: 1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Summarize() = %q, want %q", got, want)
	}
}

func TestSummarize_Clean(t *testing.T) {
	records := RecordSet{{"id": "1", "name": "A"}, {"id": "2", "name": "B"}}
	if got := Summarize(records, DefaultSchema(), FindDuplicates(records, "id")); len(got) != 0 {
		t.Errorf("Summarize() = %q, want empty", got)
	}
}

func TestViolation_Error(t *testing.T) {
	v := Violation{Field: "id", Message: "ID is required"}
	if got := v.Error(); got != "id: ID is required" {
		t.Errorf("Error() = %q", got)
	}
	if got := (Violation{Message: "bad"}).Error(); got != "bad" {
		t.Errorf("Error() = %q", got)
	}
}
