package core

import (
	"reflect"
	"testing"
)

func TestExtractDimensions(t *testing.T) {
	records := RecordSet{
		{"id": "E1", "worker": "Ann", "client": "ACME", "task": "Audit"},
		{"id": "E2", "name": "Ben", "client": "Globex", "task": "Audit"},
		{"id": "E3", "client": "ACME", "task": ""},
		{"worker": "", "name": "", "id": ""},
		{"worker": "Ann", "client": nil, "task": 42.0},
	}

	got := ExtractDimensions(records)
	want := Dimensions{
		Workers: []string{"Ann", "Ben", "E3"},
		Clients: []string{"ACME", "Globex"},
		Tasks:   []string{"Audit", "42"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractDimensions() = %+v, want %+v", got, want)
	}
}

func TestExtractDimensions_Empty(t *testing.T) {
	got := ExtractDimensions(nil)

	if got.Workers == nil || got.Clients == nil || got.Tasks == nil {
		t.Errorf("expected non-nil empty slices, got %+v", got)
	}
	if len(got.Workers)+len(got.Clients)+len(got.Tasks) != 0 {
		t.Errorf("expected no values, got %+v", got)
	}
}
