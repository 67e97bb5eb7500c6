package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetcheck/internal/core"
	"github.com/JonMunkholm/sheetcheck/internal/export"
	"github.com/JonMunkholm/sheetcheck/internal/logging"
	"github.com/JonMunkholm/sheetcheck/internal/tabular"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handleExportData downloads the current records as CSV (default) or XLSX.
func (s *Server) handleExportData(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Snapshot()

	var format core.SourceFormat
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "csv":
		format = core.FormatCSV
	case "xlsx":
		format = core.FormatXLSX
	default:
		fail(w, r, &tabular.SourceFormatError{
			File: "export",
			Err:  fmt.Errorf("%w %q", tabular.ErrUnsupportedFormat, r.URL.Query().Get("format")),
		})
		return
	}

	// Buffered so a failed encode can still be reported as an error.
	var buf bytes.Buffer
	if err := tabular.Write(&buf, format, snap.Columns, snap.Records); err != nil {
		fail(w, r, err)
		return
	}

	contentType := csvContentType
	if format == core.FormatXLSX {
		contentType = xlsxContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cleaned_data.%s"`, format))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleExportRules downloads the rule set as JSON (default) or YAML.
func (s *Server) handleExportRules(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseRuleFormat(r.URL.Query().Get("format"))
	if err != nil {
		fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.EncodeRules(&buf, sessionFrom(r.Context()).Rules(), format); err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.FileName()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleExportDB writes the session's records, errors and rules to the
// configured database.
func (s *Server) handleExportDB(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Snapshot()

	res, err := s.sink.Export(r.Context(), snap)
	if err != nil {
		fail(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "session_id", snap.ID).Info("database export complete",
		"export_id", res.ID.String(),
	)
	writeJSON(w, http.StatusCreated, res)
}
