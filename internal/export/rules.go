// Package export writes session data out of the service: rule sets as JSON
// or YAML documents, and whole sessions into PostgreSQL.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/sheetcheck/internal/core"
)

// RuleFormat is a rule-set document format.
type RuleFormat string

const (
	RuleFormatJSON RuleFormat = "json"
	RuleFormatYAML RuleFormat = "yaml"
)

// ErrInvalidRuleSet is returned when a rule-set document can not be decoded.
var ErrInvalidRuleSet = errors.New("invalid rule set")

// ParseRuleFormat accepts "json", "yaml" or "yml". Empty means JSON.
func ParseRuleFormat(s string) (RuleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return RuleFormatJSON, nil
	case "yaml", "yml":
		return RuleFormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrInvalidRuleSet, s)
	}
}

// RuleFormatFromFilename picks the format from a file extension.
func RuleFormatFromFilename(name string) (RuleFormat, error) {
	return ParseRuleFormat(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ContentType returns the MIME type used when serving the format.
func (f RuleFormat) ContentType() string {
	if f == RuleFormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// FileName returns the download name for an exported rule set.
func (f RuleFormat) FileName() string {
	return "business_rules." + string(f)
}

// EncodeRules writes rules as an indented JSON array or a YAML sequence.
// A nil slice is written as an empty list.
func EncodeRules(w io.Writer, rules []core.Rule, format RuleFormat) error {
	if rules == nil {
		rules = []core.Rule{}
	}

	switch format {
	case RuleFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rules)
	case RuleFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rules); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidRuleSet, format)
	}
}

// DecodeRules reads a rule-set document. Rule parameters are not validated
// here; core.RuleStore.Replace does that.
func DecodeRules(r io.Reader, format RuleFormat) ([]core.Rule, error) {
	var rules []core.Rule

	switch format {
	case RuleFormatJSON:
		if err := json.NewDecoder(r).Decode(&rules); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
		}
	case RuleFormatYAML:
		if err := yaml.NewDecoder(r).Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidRuleSet, format)
	}

	if rules == nil {
		rules = []core.Rule{}
	}
	return rules, nil
}
