package web

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/sheetcheck/internal/core"
)

func TestExportData_CSV(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)

	rec := do(t, s, http.MethodGet, "/api/sessions/"+snap.ID+"/export/data", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, csvContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="cleaned_data.csv"`)

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"id", "name", "worker", "client", "task"}, rows[0])
	assert.Equal(t, []string{"1", "", "Bob", "Globex", "Review"}, rows[2])
}

func TestExportData_XLSX(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)

	rec := do(t, s, http.MethodGet, "/api/sessions/"+snap.ID+"/export/data?format=xlsx", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="cleaned_data.xlsx"`)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Gamma", rows[3][1])
}

func TestExportData_UnknownFormat(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)

	rec := do(t, s, http.MethodGet, "/api/sessions/"+snap.ID+"/export/data?format=pdf", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE002", decode[ErrorResponse](t, rec).Code)
}

func TestExportRules(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)
	base := "/api/sessions/" + snap.ID

	rec := doJSON(t, s, http.MethodPost, base+"/rules", map[string]any{"type": "no_worker_for_client", "worker": "Ann", "client": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("json", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, base+"/export/rules", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="business_rules.json"`)

		rules := decode[[]core.Rule](t, rec)
		require.Len(t, rules, 1)
		assert.Equal(t, "Acme", rules[0].Client)
	})

	t.Run("yaml", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, base+"/export/rules?format=yaml", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="business_rules.yaml"`)

		var rules []core.Rule
		require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &rules))
		require.Len(t, rules, 1)
		assert.Equal(t, core.KindNoWorkerForClient, rules[0].Kind)
	})
}

func TestExportDB_Disabled(t *testing.T) {
	s := newTestServer(t, nil)
	snap := createSession(t, s, sampleCSV)

	rec := do(t, s, http.MethodPost, "/api/sessions/"+snap.ID+"/export/db", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "EXP001", decode[ErrorResponse](t, rec).Code)
}
