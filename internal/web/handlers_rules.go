package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetcheck/internal/core"
	"github.com/JonMunkholm/sheetcheck/internal/export"
	"github.com/JonMunkholm/sheetcheck/internal/logging"
)

func (s *Server) handleRuleKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.RuleKinds())
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Rules())
}

type addRuleRequest struct {
	Kind core.RuleKind `json:"type"`
	core.RuleParams
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req addRuleRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}

	rule, err := sess.AddRule(req.Kind, req.RuleParams)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// handleImportRules replaces the rule set with a JSON or YAML document.
// The format comes from ?format= or else the Content-Type.
func (s *Server) handleImportRules(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	name := r.URL.Query().Get("format")
	if name == "" && strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		name = string(export.RuleFormatYAML)
	}
	format, err := export.ParseRuleFormat(name)
	if err != nil {
		fail(w, r, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	rules, err := export.DecodeRules(body, format)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := sess.ReplaceRules(rules); err != nil {
		fail(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "session_id", sess.ID()).Info("rules imported",
		"format", format,
		"rules", len(rules),
	)
	writeJSON(w, http.StatusOK, sess.Rules())
}

// handleRemoveRule deletes a rule. Unknown ids still answer 204.
func (s *Server) handleRemoveRule(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).RemoveRule(chi.URLParam(r, "ruleID"))
	w.WriteHeader(http.StatusNoContent)
}
