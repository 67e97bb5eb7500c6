package core

// rules.go holds the business rule definitions authored by users.
//
// Rules are a definition and export registry only: nothing in this package
// evaluates a rule against records, and rules may name workers, clients or
// tasks that do not appear in the current sheet. A rule's kind is fixed at
// creation; to change a rule, remove it and add a new one.

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RuleKind discriminates the rule union.
type RuleKind string

const (
	KindNoWorkerOnTask    RuleKind = "no_worker_on_task"
	KindNoWorkerForClient RuleKind = "no_worker_for_client"
	KindMaxTasksPerWorker RuleKind = "max_tasks_per_worker"
)

// RuleKindInfo describes a rule kind for authoring clients.
type RuleKindInfo struct {
	Kind   RuleKind `json:"value"`
	Label  string   `json:"label"`
	Fields []string `json:"fields"`
}

var ruleKinds = []RuleKindInfo{
	{Kind: KindNoWorkerOnTask, Label: "No worker on task", Fields: []string{"worker", "task"}},
	{Kind: KindNoWorkerForClient, Label: "No worker for client", Fields: []string{"worker", "client"}},
	{Kind: KindMaxTasksPerWorker, Label: "Max tasks per worker", Fields: []string{"worker", "maxCount"}},
}

// RuleKinds returns the supported rule kinds in display order.
func RuleKinds() []RuleKindInfo {
	out := make([]RuleKindInfo, len(ruleKinds))
	copy(out, ruleKinds)
	return out
}

// Valid reports whether k is a supported rule kind.
func (k RuleKind) Valid() bool {
	for _, info := range ruleKinds {
		if info.Kind == k {
			return true
		}
	}
	return false
}

// Label returns the display label of the kind, or the raw value if unknown.
func (k RuleKind) Label() string {
	for _, info := range ruleKinds {
		if info.Kind == k {
			return info.Label
		}
	}
	return string(k)
}

// Rule is one business rule definition.
// Only the parameters of its kind are set; the rest are zero.
type Rule struct {
	ID          string   `json:"id" yaml:"id"`
	Kind        RuleKind `json:"type" yaml:"type"`
	Worker      string   `json:"worker,omitempty" yaml:"worker,omitempty"`
	Task        string   `json:"task,omitempty" yaml:"task,omitempty"`
	Client      string   `json:"client,omitempty" yaml:"client,omitempty"`
	MaxCount    *int     `json:"maxCount,omitempty" yaml:"maxCount,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Params returns the parameters the rule was created with.
func (r Rule) Params() RuleParams {
	return RuleParams{
		Worker:      r.Worker,
		Task:        r.Task,
		Client:      r.Client,
		MaxCount:    r.MaxCount,
		Description: r.Description,
	}
}

// String renders the rule the way the authoring list shows it.
func (r Rule) String() string {
	var b strings.Builder
	b.WriteString(r.Kind.Label())
	b.WriteString(":")
	if r.Worker != "" {
		b.WriteString(" Worker: " + r.Worker)
	}
	if r.Client != "" {
		b.WriteString(" Client: " + r.Client)
	}
	if r.Task != "" {
		b.WriteString(" Task: " + r.Task)
	}
	if r.MaxCount != nil {
		fmt.Fprintf(&b, " Max: %d", *r.MaxCount)
	}
	if r.Description != "" {
		b.WriteString(" (" + r.Description + ")")
	}
	return b.String()
}

// RuleParams carries user-supplied rule parameters.
type RuleParams struct {
	Worker      string `json:"worker,omitempty"`
	Task        string `json:"task,omitempty"`
	Client      string `json:"client,omitempty"`
	MaxCount    *int   `json:"maxCount,omitempty"`
	Description string `json:"description,omitempty"`
}

// IntPtr returns a pointer to n, for building RuleParams literals.
func IntPtr(n int) *int {
	return &n
}

// ErrInvalidRuleParameters matches every *InvalidRuleParametersError.
var ErrInvalidRuleParameters = errors.New("invalid rule parameters")

// InvalidRuleParametersError reports why a rule could not be created.
type InvalidRuleParametersError struct {
	Kind    RuleKind
	Missing []string // Required parameters that were absent
	Reason  string   // Set for problems other than missing parameters
}

func (e *InvalidRuleParametersError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return fmt.Sprintf("invalid rule parameters for %q: %s", e.Kind, strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrInvalidRuleParameters) match.
func (e *InvalidRuleParametersError) Is(target error) bool {
	return target == ErrInvalidRuleParameters
}

// ruleInput is the shape checked by the validator for every kind.
type ruleInput struct {
	Kind     RuleKind `json:"type"`
	Worker   string   `json:"worker" validate:"required"`
	Task     string   `json:"task" validate:"required_if=Kind no_worker_on_task"`
	Client   string   `json:"client" validate:"required_if=Kind no_worker_for_client"`
	MaxCount *int     `json:"maxCount" validate:"required_if=Kind max_tasks_per_worker"`
}

var ruleValidator = newRuleValidator()

func newRuleValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateRuleParams checks params against the field set required by kind.
func validateRuleParams(kind RuleKind, params RuleParams) error {
	if !kind.Valid() {
		return &InvalidRuleParametersError{Kind: kind, Reason: "unknown rule kind"}
	}

	in := ruleInput{
		Kind:     kind,
		Worker:   params.Worker,
		Task:     params.Task,
		Client:   params.Client,
		MaxCount: params.MaxCount,
	}

	if err := ruleValidator.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate rule: %w", err)
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return &InvalidRuleParametersError{Kind: kind, Missing: missing}
	}

	if kind == KindMaxTasksPerWorker && *params.MaxCount < 0 {
		return &InvalidRuleParametersError{Kind: kind, Reason: "maxCount must not be negative"}
	}

	return nil
}

// newRule builds a rule that keeps only the parameters of its kind.
func newRule(id string, kind RuleKind, params RuleParams) Rule {
	r := Rule{ID: id, Kind: kind, Worker: params.Worker, Description: params.Description}
	switch kind {
	case KindNoWorkerOnTask:
		r.Task = params.Task
	case KindNoWorkerForClient:
		r.Client = params.Client
	case KindMaxTasksPerWorker:
		r.MaxCount = IntPtr(*params.MaxCount)
	}
	return r
}

// RuleStore is an ordered in-memory collection of rules.
// It is not safe for concurrent use; Session serializes access.
type RuleStore struct {
	rules []Rule
	newID func() string
}

// NewRuleStore creates an empty store that assigns random UUIDs.
func NewRuleStore() *RuleStore {
	return &RuleStore{newID: uuid.NewString}
}

// Add validates params for kind and appends a new rule.
// On failure the store is unchanged.
func (s *RuleStore) Add(kind RuleKind, params RuleParams) (Rule, error) {
	if err := validateRuleParams(kind, params); err != nil {
		return Rule{}, err
	}
	r := newRule(s.newID(), kind, params)
	s.rules = append(s.rules, r)
	return r, nil
}

// Remove deletes the rule with id. Unknown ids are ignored.
func (s *RuleStore) Remove(id string) {
	for i, r := range s.rules {
		if r.ID == id {
			s.rules = append(s.rules[:i:i], s.rules[i+1:]...)
			return
		}
	}
}

// Get returns the rule with id.
func (s *RuleStore) Get(id string) (Rule, bool) {
	for _, r := range s.rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// List returns a copy of the rules in insertion order.
func (s *RuleStore) List() []Rule {
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		if r.MaxCount != nil {
			r.MaxCount = IntPtr(*r.MaxCount)
		}
		out[i] = r
	}
	return out
}

// Len returns the number of stored rules.
func (s *RuleStore) Len() int {
	return len(s.rules)
}

// Replace swaps the whole collection for rules, typically an imported rule
// set. Every rule is validated first; rules without an id get a new one.
// Nothing changes unless all rules are valid and ids are unique.
func (s *RuleStore) Replace(rules []Rule) error {
	next := make([]Rule, 0, len(rules))
	seen := make(map[string]bool, len(rules))

	for i, r := range rules {
		if err := validateRuleParams(r.Kind, r.Params()); err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
		id := r.ID
		if id == "" {
			id = s.newID()
		}
		if seen[id] {
			return fmt.Errorf("rule %d: %w", i+1, &InvalidRuleParametersError{
				Kind:   r.Kind,
				Reason: fmt.Sprintf("duplicate rule id %q", id),
			})
		}
		seen[id] = true
		next = append(next, newRule(id, r.Kind, r.Params()))
	}

	s.rules = next
	return nil
}
