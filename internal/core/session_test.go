package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedSession(t *testing.T, records RecordSet) *Session {
	t.Helper()
	s := NewSession("s1", DefaultSchema(), nil)
	err := s.OnParsed("tasks.csv", ParseResult{
		Records: records,
		Columns: []string{"id", "name", "client"},
		Format:  FormatCSV,
	})
	require.NoError(t, err)
	return s
}

func TestSession_OnParsedBuildsErrorMap(t *testing.T) {
	s := loadedSession(t, RecordSet{
		{"id": "1", "name": "A", "client": "ACME"},
		{"id": "1", "name": "B", "client": "ACME"},
		{"id": "", "name": "C"},
	})

	snap := s.Snapshot()
	assert.Equal(t, "tasks.csv", snap.FileName)
	assert.Equal(t, FormatCSV, snap.Format)
	assert.Equal(t, []string{"id", "name", "client"}, snap.Columns)
	assert.Equal(t, ErrorMap{
		{Row: 0, Field: "id"}: DuplicateIDMessage,
		{Row: 1, Field: "id"}: DuplicateIDMessage,
		{Row: 2, Field: "id"}: "ID is required",
	}, snap.Errors)
	assert.False(t, snap.Valid())
	assert.Equal(t, []string{"Row 3: ID is required", "Duplicate IDs found: 1"}, snap.Summary)
}

func TestSession_ParseErrorsStayOutOfErrorMap(t *testing.T) {
	s := NewSession("s1", DefaultSchema(), nil)
	err := s.OnParsed("bad.csv", ParseResult{
		Records: RecordSet{{"id": "1", "name": "A"}},
		Format:  FormatCSV,
		Errors:  []string{"Row 3: expected 2 fields, got 3"},
	})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Empty(t, snap.Errors)
	assert.Equal(t, []string{"Row 3: expected 2 fields, got 3"}, snap.ParseErrors)
	assert.False(t, snap.Valid())
}

func TestSession_OnParsedRejectsNonScalar(t *testing.T) {
	s := NewSession("s1", DefaultSchema(), nil)
	err := s.OnParsed("x.json", ParseResult{
		Records: RecordSet{{"id": "1", "name": map[string]any{"first": "A"}}},
	})
	assert.ErrorIs(t, err, ErrNonScalarValue)
	assert.Empty(t, s.Snapshot().Records)
}

func TestSession_UpdateCellRevalidatesEverything(t *testing.T) {
	s := loadedSession(t, RecordSet{
		{"id": "1", "name": "A"},
		{"id": "1", "name": "B"},
	})
	require.Len(t, s.Snapshot().Errors, 2)

	require.NoError(t, s.UpdateCell(1, "id", "2"))

	snap := s.Snapshot()
	assert.Empty(t, snap.Errors)
	assert.True(t, snap.Valid())
	assert.Equal(t, "2", snap.Records[1]["id"])

	require.NoError(t, s.UpdateCell(0, "name", ""))
	assert.Equal(t, ErrorMap{{Row: 0, Field: "name"}: "Name is required"}, s.Snapshot().Errors)
}

func TestSession_UpdateCellErrors(t *testing.T) {
	s := loadedSession(t, RecordSet{{"id": "1", "name": "A"}})
	before := s.Snapshot()

	err := s.UpdateCell(5, "id", "2")
	assert.True(t, errors.Is(err, ErrRowOutOfRange))

	err = s.UpdateCell(-1, "id", "2")
	assert.ErrorIs(t, err, ErrRowOutOfRange)

	err = s.UpdateCell(0, "id", []string{"x"})
	assert.ErrorIs(t, err, ErrNonScalarValue)

	err = s.UpdateCell(0, "", "x")
	assert.Error(t, err)

	assert.Equal(t, before.Records, s.Snapshot().Records)
}

func TestSession_ReplaceRecords(t *testing.T) {
	s := loadedSession(t, RecordSet{{"id": "1", "name": "A"}})

	next := RecordSet{
		{"id": "7", "name": "X"},
		{"id": "7"},
	}
	require.NoError(t, s.ReplaceRecords(next))

	// Mutating the caller's slice must not leak into the session.
	next[0]["id"] = "changed"

	snap := s.Snapshot()
	assert.Equal(t, "7", snap.Records[0]["id"])
	assert.Equal(t, ErrorMap{
		{Row: 0, Field: "id"}:   DuplicateIDMessage,
		{Row: 1, Field: "id"}:   DuplicateIDMessage,
		{Row: 1, Field: "name"}: "Name is required",
	}, snap.Errors)
}

func TestSession_ReplaceRecordsEmpty(t *testing.T) {
	s := loadedSession(t, RecordSet{{"id": "1"}})
	require.NoError(t, s.ReplaceRecords(RecordSet{}))

	snap := s.Snapshot()
	assert.Empty(t, snap.Errors)
	assert.Empty(t, snap.Summary)
	assert.NotNil(t, snap.Records)
}

func TestSession_ReplaceRecordsRejectsNullRow(t *testing.T) {
	s := loadedSession(t, RecordSet{{"id": "1", "name": "A"}})
	before := s.Snapshot()

	var next RecordSet
	require.NoError(t, json.Unmarshal([]byte(`[null, {"id": "1", "name": "A"}]`), &next))

	err := s.ReplaceRecords(next)
	assert.True(t, errors.Is(err, ErrNonScalarValue), "got %v", err)
	assert.Equal(t, before.Records, s.Snapshot().Records)

	// The previous records are still editable.
	assert.NotPanics(t, func() {
		require.NoError(t, s.UpdateCell(0, "id", "2"))
	})
	assert.Equal(t, "2", s.Snapshot().Records[0]["id"])
}

func TestSession_RulesSurviveReload(t *testing.T) {
	s := loadedSession(t, RecordSet{{"id": "1", "name": "A"}})

	r, err := s.AddRule(KindNoWorkerOnTask, RuleParams{Worker: "W1", Task: "T1"})
	require.NoError(t, err)

	err = s.OnParsed("other.csv", ParseResult{Records: RecordSet{{"id": "2", "name": "B"}}, Format: FormatCSV})
	require.NoError(t, err)

	rules := s.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, r.ID, rules[0].ID)

	s.RemoveRule(r.ID)
	assert.Empty(t, s.Rules())
}

func TestSession_AddRuleFailureLeavesRules(t *testing.T) {
	s := NewSession("s1", DefaultSchema(), nil)
	_, err := s.AddRule(KindMaxTasksPerWorker, RuleParams{Worker: "W1"})
	assert.ErrorIs(t, err, ErrInvalidRuleParameters)
	assert.Empty(t, s.Rules())
}

func TestSession_ReplaceRules(t *testing.T) {
	s := NewSession("s1", DefaultSchema(), nil)
	err := s.ReplaceRules([]Rule{{ID: "a", Kind: KindNoWorkerForClient, Worker: "W", Client: "C"}})
	require.NoError(t, err)
	assert.Len(t, s.Rules(), 1)

	err = s.ReplaceRules([]Rule{{ID: "b", Kind: "bogus", Worker: "W"}})
	assert.ErrorIs(t, err, ErrInvalidRuleParameters)
	assert.Equal(t, "a", s.Rules()[0].ID)
}

func TestSession_Filter(t *testing.T) {
	s := loadedSession(t, RecordSet{
		{"id": "1", "name": "Alice", "client": "ACME"},
		{"id": "2", "name": "Bob", "client": "Globex"},
		{"id": "3", "name": "Carol", "client": "acme east"},
	})

	rows := s.Filter("acme")
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, 2, rows[1].Index)

	rows[0].Record["name"] = "changed"
	assert.Equal(t, "Alice", s.Snapshot().Records[0]["name"])
}

func TestSession_SnapshotIsDeepCopy(t *testing.T) {
	s := loadedSession(t, RecordSet{{"id": "1", "name": "A"}, {"id": "1", "name": "B"}})

	snap := s.Snapshot()
	snap.Records[0]["id"] = "zzz"
	delete(snap.Errors, CellKey{Row: 0, Field: "id"})
	snap.Columns[0] = "x"

	again := s.Snapshot()
	assert.Equal(t, "1", again.Records[0]["id"])
	assert.Len(t, again.Errors, 2)
	assert.Equal(t, "id", again.Columns[0])
}

func TestSession_SnapshotDimensions(t *testing.T) {
	s := loadedSession(t, RecordSet{
		{"id": "1", "name": "Ann", "client": "ACME", "task": "Audit"},
		{"id": "2", "name": "Ben", "client": "ACME", "task": "Review"},
	})

	dims := s.Snapshot().Dimensions
	assert.Equal(t, []string{"Ann", "Ben"}, dims.Workers)
	assert.Equal(t, []string{"ACME"}, dims.Clients)
	assert.Equal(t, []string{"Audit", "Review"}, dims.Tasks)
}
