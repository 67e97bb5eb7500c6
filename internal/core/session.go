package core

// session.go owns one loaded sheet and its rules.
//
// Every change to the record set replaces it wholesale and rebuilds the
// error map from scratch; no incremental error state is kept between passes.
// The mutex only serializes concurrent HTTP callers: each operation still
// runs to completion before the next one starts.

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID          string       `json:"id"`
	FileName    string       `json:"fileName,omitempty"`
	Format      SourceFormat `json:"format,omitempty"`
	Columns     []string     `json:"columns"`
	Records     RecordSet    `json:"records"`
	Errors      ErrorMap     `json:"errorMap"`
	Summary     []string     `json:"validationErrors"`
	ParseErrors []string     `json:"parseErrors"`
	Rules       []Rule       `json:"rules"`
	Dimensions  Dimensions   `json:"dimensions"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Valid reports whether the snapshot has no cell errors and no parse errors.
func (s Snapshot) Valid() bool {
	return len(s.Errors) == 0 && len(s.ParseErrors) == 0
}

// RowView pairs a record with its index in the full record set.
type RowView struct {
	Index  int    `json:"index"`
	Record Record `json:"record"`
}

// Session holds one record set, its derived error map and a rule store.
type Session struct {
	id     string
	schema Schema
	logger *slog.Logger

	mu          sync.Mutex
	fileName    string
	format      SourceFormat
	columns     []string
	records     RecordSet
	parseErrors []string
	errors      ErrorMap
	summary     []string
	rules       *RuleStore
	createdAt   time.Time
	updatedAt   time.Time
	lastAccess  time.Time
}

// NewSession creates an empty session validated against schema.
// A nil logger falls back to slog.Default().
func NewSession(id string, schema Schema, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	return &Session{
		id:         id,
		schema:     schema,
		logger:     logger.With("session_id", id),
		errors:     make(ErrorMap),
		rules:      NewRuleStore(),
		createdAt:  now,
		updatedAt:  now,
		lastAccess: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// OnParsed loads the output of the parsing collaborator, replacing the
// current records. Rules are kept. Parse errors are stored verbatim and
// never merged into the error map.
func (s *Session) OnParsed(fileName string, res ParseResult) error {
	if err := CheckScalars(res.Records); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fileName = fileName
	s.format = res.Format
	s.parseErrors = append([]string(nil), res.Errors...)
	s.columns = nil
	s.apply(res.Records.Clone(), res.Columns)

	s.logger.Info("sheet loaded",
		"file", fileName,
		"format", res.Format,
		"rows", len(res.Records),
		"parse_errors", len(res.Errors),
	)
	return nil
}

// ReplaceRecords swaps in an edited record set and revalidates it.
func (s *Session) ReplaceRecords(records RecordSet) error {
	if err := CheckScalars(records); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(records.Clone(), s.columns)
	return nil
}

// UpdateCell sets one cell and revalidates the whole record set.
func (s *Session) UpdateCell(row int, field string, value any) error {
	if field == "" {
		return fmt.Errorf("update cell: empty field name")
	}
	if !isScalar(value) {
		return fmt.Errorf("%w: field %q holds %T", ErrNonScalarValue, field, value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if row < 0 || row >= len(s.records) {
		return fmt.Errorf("%w: %d (rows: %d)", ErrRowOutOfRange, row, len(s.records))
	}

	next := s.records.Clone()
	next[row][field] = value
	s.apply(next, s.columns)
	return nil
}

// apply installs records and rebuilds every derived value. Caller holds mu.
func (s *Session) apply(records RecordSet, preferred []string) {
	start := time.Now()

	dups := FindDuplicates(records, s.schema.IdentityField())
	s.records = records
	s.columns = Columns(records, preferred)
	s.errors = buildErrorMap(records, s.schema, dups)
	s.summary = Summarize(records, s.schema, dups)
	s.updatedAt = time.Now()
	s.lastAccess = s.updatedAt

	s.logger.Debug("records revalidated",
		"rows", len(records),
		"cell_errors", len(s.errors),
		"duplicates", dups.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// AddRule creates a rule in the session's rule store.
func (s *Session) AddRule(kind RuleKind, params RuleParams) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.rules.Add(kind, params)
	if err != nil {
		return Rule{}, err
	}
	s.touchLocked()
	s.logger.Info("rule added", "rule_id", r.ID, "kind", r.Kind)
	return r, nil
}

// RemoveRule deletes a rule. Unknown ids are ignored.
func (s *Session) RemoveRule(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules.Remove(id)
	s.touchLocked()
}

// ReplaceRules installs an imported rule set, all or nothing.
func (s *Session) ReplaceRules(rules []Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rules.Replace(rules); err != nil {
		return err
	}
	s.touchLocked()
	s.logger.Info("rules imported", "count", len(rules))
	return nil
}

// Rules returns a copy of the session's rules.
func (s *Session) Rules() []Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules.List()
}

// Filter returns the rows matching text with their original indices.
func (s *Session) Filter(text string) []RowView {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := FilterRows(s.records, text)
	out := make([]RowView, len(idx))
	for i, row := range idx {
		out[i] = RowView{Index: row, Record: s.records[row].Clone()}
	}
	return out
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records.Clone()
	if records == nil {
		records = RecordSet{}
	}

	return Snapshot{
		ID:          s.id,
		FileName:    s.fileName,
		Format:      s.format,
		Columns:     append([]string{}, s.columns...),
		Records:     records,
		Errors:      s.errors.Clone(),
		Summary:     append([]string{}, s.summary...),
		ParseErrors: append([]string{}, s.parseErrors...),
		Rules:       s.rules.List(),
		Dimensions:  ExtractDimensions(s.records),
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.touchLocked()
	s.mu.Unlock()
}

func (s *Session) touchLocked() {
	s.lastAccess = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}
