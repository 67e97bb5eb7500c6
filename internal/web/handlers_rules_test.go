package web

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetcheck/internal/core"
)

func TestRuleKinds(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/rule-kinds", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	kinds := decode[[]core.RuleKindInfo](t, rec)
	require.Len(t, kinds, 3)
	assert.Equal(t, core.KindNoWorkerOnTask, kinds[0].Kind)
}

func TestAddRule(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)
	path := "/api/sessions/" + snap.ID + "/rules"

	rec := doJSON(t, s, http.MethodPost, path, map[string]any{
		"type":     "max_tasks_per_worker",
		"worker":   "Ann",
		"maxCount": 2,
		"task":     "ignored",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rule := decode[core.Rule](t, rec)
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, core.KindMaxTasksPerWorker, rule.Kind)
	require.NotNil(t, rule.MaxCount)
	assert.Equal(t, 2, *rule.MaxCount)
	assert.Empty(t, rule.Task)
}

func TestAddRule_MissingParameters(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)
	path := "/api/sessions/" + snap.ID + "/rules"

	rec := doJSON(t, s, http.MethodPost, path, map[string]any{"type": "no_worker_for_client", "worker": "Ann"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "VAL001", body.Code)
	assert.Equal(t, []string{"client"}, body.Fields)

	rec = do(t, s, http.MethodGet, path, nil, nil)
	assert.Empty(t, decode[[]core.Rule](t, rec), "failed add must not store a rule")
}

func TestRemoveRule(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)
	path := "/api/sessions/" + snap.ID + "/rules"

	rec := doJSON(t, s, http.MethodPost, path, map[string]any{"type": "no_worker_on_task", "worker": "Ann", "task": "Audit"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rule := decode[core.Rule](t, rec)

	rec = do(t, s, http.MethodDelete, path+"/"+rule.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, path+"/unknown", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, path, nil, nil)
	assert.Empty(t, decode[[]core.Rule](t, rec))
}

func TestImportRules_YAML(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)
	path := "/api/sessions/" + snap.ID + "/rules"

	doc := `
- type: no_worker_on_task
  worker: Ann
  task: Audit
- id: keep-me
  type: max_tasks_per_worker
  worker: Bob
  maxCount: 0
`
	rec := do(t, s, http.MethodPut, path, strings.NewReader(doc), http.Header{"Content-Type": {"application/yaml"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rules := decode[[]core.Rule](t, rec)
	require.Len(t, rules, 2)
	assert.NotEmpty(t, rules[0].ID)
	assert.Equal(t, "keep-me", rules[1].ID)
	require.NotNil(t, rules[1].MaxCount)
	assert.Equal(t, 0, *rules[1].MaxCount)
}

func TestImportRules_AllOrNothing(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)
	path := "/api/sessions/" + snap.ID + "/rules"

	rec := doJSON(t, s, http.MethodPost, path, map[string]any{"type": "no_worker_on_task", "worker": "Ann", "task": "Audit"})
	require.Equal(t, http.StatusCreated, rec.Code)

	doc := `[{"type":"no_worker_on_task","worker":"Bob","task":"Review"},{"type":"no_worker_for_client","worker":"Bob"}]`
	rec = do(t, s, http.MethodPut, path+"?format=json", strings.NewReader(doc), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodGet, path, nil, nil)
	rules := decode[[]core.Rule](t, rec)
	require.Len(t, rules, 1)
	assert.Equal(t, "Ann", rules[0].Worker)
}

func TestImportRules_Malformed(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)

	rec := do(t, s, http.MethodPut, "/api/sessions/"+snap.ID+"/rules", strings.NewReader("{not json"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL004", decode[ErrorResponse](t, rec).Code)
}
