package core

import (
	"reflect"
	"testing"
)

func TestFindDuplicates(t *testing.T) {
	tests := []struct {
		name    string
		records RecordSet
		want    []any
	}{
		{
			name:    "empty set",
			records: nil,
			want:    []any{},
		},
		{
			name:    "all unique",
			records: RecordSet{{"id": "1"}, {"id": "2"}, {"id": "3"}},
			want:    []any{},
		},
		{
			name:    "one duplicate",
			records: RecordSet{{"id": "1"}, {"id": "2"}, {"id": "1"}},
			want:    []any{"1"},
		},
		{
			name:    "reported once per value",
			records: RecordSet{{"id": "1"}, {"id": "1"}, {"id": "1"}},
			want:    []any{"1"},
		},
		{
			name:    "empty strings are duplicates",
			records: RecordSet{{"id": ""}, {"id": ""}},
			want:    []any{""},
		},
		{
			name:    "absent ids are duplicates",
			records: RecordSet{{"name": "a"}, {"name": "b"}},
			want:    []any{nil},
		},
		{
			name:    "absent and empty differ",
			records: RecordSet{{"name": "a"}, {"id": ""}},
			want:    []any{},
		},
		{
			name:    "no coercion between string and number",
			records: RecordSet{{"id": "1"}, {"id": float64(1)}},
			want:    []any{},
		},
		{
			name:    "second occurrence order",
			records: RecordSet{{"id": "b"}, {"id": "a"}, {"id": "a"}, {"id": "b"}},
			want:    []any{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindDuplicates(tt.records, "id").Values()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Values() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDuplicateSet_Contains(t *testing.T) {
	records := RecordSet{{"id": "x"}, {"id": "x"}, {"id": "y"}, {}, {}}
	dups := FindDuplicates(records, "id")

	if !dups.Contains("x") {
		t.Error("Contains(x) = false, want true")
	}
	if dups.Contains("y") {
		t.Error("Contains(y) = true, want false")
	}
	if !dups.ContainsRecord(Record{}, "id") {
		t.Error("ContainsRecord(absent) = false, want true")
	}
	if dups.Contains(nil) {
		t.Error("Contains(nil) = true, want false: absent is not nil")
	}
	if dups.Len() != 2 {
		t.Errorf("Len() = %d, want 2", dups.Len())
	}
}

func TestFindDuplicates_NonComparableValue(t *testing.T) {
	records := RecordSet{{"id": []string{"a"}}, {"id": []string{"a"}}}
	if got := FindDuplicates(records, "id").Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}
