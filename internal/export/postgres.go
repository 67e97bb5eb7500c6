package export

// postgres.go archives a session snapshot into PostgreSQL.
//
// One export is one transaction: a header row in sheet_exports, every record
// streamed with COPY into sheet_export_records (with that row's cell errors),
// and the rule set into sheet_export_rules. Either all three land or none do.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/sheetcheck/internal/core"
)

// ErrSinkDisabled is returned when no export database is configured.
var ErrSinkDisabled = errors.New("export sink not configured")

// DB is the subset of *pgxpool.Pool the sink needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sheet_exports (
	id          uuid PRIMARY KEY,
	session_id  text NOT NULL,
	file_name   text NOT NULL DEFAULT '',
	format      text NOT NULL DEFAULT '',
	columns     text[] NOT NULL,
	row_count   integer NOT NULL,
	error_count integer NOT NULL,
	created_at  timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS sheet_export_records (
	export_id  uuid NOT NULL REFERENCES sheet_exports(id) ON DELETE CASCADE,
	row_index  integer NOT NULL,
	data       jsonb NOT NULL,
	errors     jsonb,
	PRIMARY KEY (export_id, row_index)
);

CREATE TABLE IF NOT EXISTS sheet_export_rules (
	export_id   uuid NOT NULL REFERENCES sheet_exports(id) ON DELETE CASCADE,
	position    integer NOT NULL,
	rule_id     text NOT NULL,
	kind        text NOT NULL,
	worker      text NOT NULL,
	task        text,
	client      text,
	max_count   integer,
	description text,
	PRIMARY KEY (export_id, position)
);`

var (
	recordColumns = []string{"export_id", "row_index", "data", "errors"}
	ruleColumns   = []string{"export_id", "position", "rule_id", "kind", "worker", "task", "client", "max_count", "description"}
)

// ExportResult describes one completed export.
type ExportResult struct {
	ID        uuid.UUID `json:"exportId"`
	Records   int       `json:"records"`
	Rules     int       `json:"rules"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostgresSink writes snapshots to PostgreSQL.
// A nil *PostgresSink is valid and reports ErrSinkDisabled.
type PostgresSink struct {
	db     DB
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresSink creates a sink on db.
func NewPostgresSink(db DB, logger *slog.Logger) *PostgresSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSink{db: db, logger: logger, now: time.Now}
}

// Enabled reports whether exports can be written.
func (s *PostgresSink) Enabled() bool {
	return s != nil && s.db != nil
}

// EnsureSchema creates the export tables if they do not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if !s.Enabled() {
		return ErrSinkDisabled
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database export: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("database export: create schema: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database export: commit schema: %w", err)
	}
	return nil
}

// Export stores snap as a new export batch.
func (s *PostgresSink) Export(ctx context.Context, snap core.Snapshot) (ExportResult, error) {
	if !s.Enabled() {
		return ExportResult{}, ErrSinkDisabled
	}

	start := s.now()
	res := ExportResult{ID: uuid.New(), CreatedAt: start.UTC()}

	rows, err := recordRows(res.ID, snap)
	if err != nil {
		return ExportResult{}, fmt.Errorf("database export: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("database export: begin: %w", err)
	}
	defer tx.Rollback(ctx) // No-op after commit

	_, err = tx.Exec(ctx,
		`INSERT INTO sheet_exports (id, session_id, file_name, format, columns, row_count, error_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		res.ID, snap.ID, snap.FileName, string(snap.Format), snap.Columns,
		len(snap.Records), len(snap.Errors), res.CreatedAt,
	)
	if err != nil {
		return ExportResult{}, fmt.Errorf("database export: insert header: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"sheet_export_records"}, recordColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return ExportResult{}, fmt.Errorf("database export: copy records: %w", err)
	}
	res.Records = int(n)

	n, err = tx.CopyFrom(ctx, pgx.Identifier{"sheet_export_rules"}, ruleColumns, pgx.CopyFromRows(ruleRows(res.ID, snap.Rules)))
	if err != nil {
		return ExportResult{}, fmt.Errorf("database export: copy rules: %w", err)
	}
	res.Rules = int(n)

	if err := tx.Commit(ctx); err != nil {
		return ExportResult{}, fmt.Errorf("database export: commit: %w", err)
	}

	s.logger.Info("session exported to database",
		"session_id", snap.ID,
		"export_id", res.ID.String(),
		"records", res.Records,
		"rules", res.Rules,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func recordRows(exportID uuid.UUID, snap core.Snapshot) ([][]any, error) {
	rowErrors := make(map[int]map[string]string)
	for key, msg := range snap.Errors {
		if rowErrors[key.Row] == nil {
			rowErrors[key.Row] = make(map[string]string)
		}
		rowErrors[key.Row][key.Field] = msg
	}

	rows := make([][]any, len(snap.Records))
	for i, rec := range snap.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}

		var errs []byte
		if m := rowErrors[i]; m != nil {
			if errs, err = json.Marshal(m); err != nil {
				return nil, fmt.Errorf("encode errors of row %d: %w", i, err)
			}
		}

		rows[i] = []any{exportID, i, data, errs}
	}
	return rows, nil
}

func ruleRows(exportID uuid.UUID, rules []core.Rule) [][]any {
	rows := make([][]any, len(rules))
	for i, r := range rules {
		rows[i] = []any{
			exportID, i, r.ID, string(r.Kind), r.Worker,
			nullable(r.Task), nullable(r.Client), r.MaxCount, nullable(r.Description),
		}
	}
	return rows
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
