// Package core provides the validation and rule-definition engine for
// imported sheets.
//
// This package is the heart of the service, containing all domain logic
// independent of any UI, file format or transport layer. It can be used by
// web handlers, the CLI, or tests without modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Records: rows of imported data, modelled as maps so that arbitrary
//     extra columns survive editing and export.
//   - Schema: an explicit, ordered list of field constraints. There is no
//     package-level schema; callers pass one to every validation call.
//   - Error Map: a sparse (row, field) -> message lookup derived from the
//     schema violations and the identity uniqueness check.
//   - Rule Store: an ordered collection of typed business rules.
//   - Session: one loaded sheet plus its rules, replaced wholesale on
//     re-upload and discarded when the session ends.
//
// # Validation
//
// Validation is a full recomputation. Every edit replaces the whole record
// set and rebuilds the error map from scratch:
//
//	errs := core.BuildErrorMap(records, core.DefaultSchema())
//	if msg, ok := errs.Get(0, "id"); ok {
//	    // cell (0, "id") is invalid
//	}
//
// Duplicate identity messages overwrite schema messages on the same cell.
//
// # Business Rules
//
// Rules are collected and exported but never evaluated against records:
//
//	store := core.NewRuleStore()
//	rule, err := store.Add(core.KindMaxTasksPerWorker, core.RuleParams{
//	    Worker:   "W1",
//	    MaxCount: core.IntPtr(3),
//	})
//
// Missing parameters fail with [ErrInvalidRuleParameters] and leave the store
// unchanged.
//
// # Error Handling
//
// Record and field problems are collected, never returned as errors. Only
// rule parameter problems, unknown sessions and source format problems are
// control-flow failures. Technical errors are mapped to user-friendly
// messages using [MapError]:
//
//   - VAL001-VAL004: Rule parameters, edit addressing, cell values, rule sets
//   - FILE001-FILE005: File errors (size, format, empty, missing)
//   - SES001-SES002: Session errors
//   - UPL001-UPL003: Upload errors (busy, cancelled, timeout)
//   - EXP001-EXP002: Database export errors
//   - REQ001: Undecodable request bodies
package core
