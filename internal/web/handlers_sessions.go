package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetcheck/internal/core"
	"github.com/JonMunkholm/sheetcheck/internal/logging"
	"github.com/JonMunkholm/sheetcheck/internal/tabular"
	"github.com/JonMunkholm/sheetcheck/internal/web/templates"
)

var (
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large")
	errBadRequest   = errors.New("invalid request body")
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and part headers.
const multipartOverhead = 1 << 20

// errorsResponse is the validation state returned after every edit.
type errorsResponse struct {
	ErrorMap         core.ErrorMap `json:"errorMap"`
	ValidationErrors []string      `json:"validationErrors"`
	ParseErrors      []string      `json:"parseErrors"`
	Valid            bool          `json:"valid"`
}

func newErrorsResponse(snap core.Snapshot) errorsResponse {
	return errorsResponse{
		ErrorMap:         snap.Errors,
		ValidationErrors: snap.Summary,
		ParseErrors:      snap.ParseErrors,
		Valid:            snap.Valid(),
	}
}

// handleCreateSession opens a session. A multipart body with a "file" part
// is parsed and loaded; any other body creates an empty session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var (
		name   string
		res    core.ParseResult
		loaded bool
	)
	if isMultipart(r) {
		var err error
		name, res, err = s.readUpload(w, r)
		if err != nil {
			fail(w, r, err)
			return
		}
		loaded = true
	}

	sess, err := s.sessions.Create()
	if err != nil {
		fail(w, r, err)
		return
	}
	if loaded {
		if err := sess.OnParsed(name, res); err != nil {
			s.sessions.Delete(sess.ID())
			fail(w, r, err)
			return
		}
	}

	logging.FromContext(r.Context()).Info("session created",
		"session_id", sess.ID(),
		"file", name,
		"rows", len(res.Records),
	)
	w.Header().Set("Location", "/api/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := sessionFrom(r.Context()).ID()
	s.sessions.Delete(id)
	logging.FromContext(r.Context()).Info("session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleUpload replaces the session's records with a newly uploaded file.
// Rules are kept.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	name, res, err := s.readUpload(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := sess.OnParsed(name, res); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// readUpload reads the "file" form part and parses it while holding a
// parse slot.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, core.ParseResult, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var sizeErr *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile):
			return "", core.ParseResult{}, errNoFile
		case errors.As(err, &sizeErr):
			return "", core.ParseResult{}, fmt.Errorf("%w (limit %d bytes)", errFileTooLarge, maxSize)
		default:
			return "", core.ParseResult{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	defer file.Close()

	if header.Size > maxSize {
		return "", core.ParseResult{}, fmt.Errorf("%w: %s is %d bytes (limit %d)", errFileTooLarge, header.Filename, header.Size, maxSize)
	}

	if err := s.parses.Acquire(r.Context()); err != nil {
		return "", core.ParseResult{}, err
	}
	defer s.parses.Release()

	res, err := tabular.Parse(header.Filename, file)
	if err != nil {
		return "", core.ParseResult{}, err
	}
	return header.Filename, res, nil
}

func (s *Server) handleReplaceRecords(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var records core.RecordSet
	if err := s.decodeJSON(w, r, &records); err != nil {
		fail(w, r, err)
		return
	}
	if err := sess.ReplaceRecords(records); err != nil {
		fail(w, r, err)
		return
	}
	s.respondErrors(w, r, sess.Snapshot())
}

type updateCellRequest struct {
	Row   *int   `json:"row"`
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req updateCellRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.Row == nil || req.Field == "" {
		fail(w, r, fmt.Errorf("%w: row and field are required", errBadRequest))
		return
	}
	if err := sess.UpdateCell(*req.Row, req.Field, req.Value); err != nil {
		fail(w, r, err)
		return
	}
	s.respondErrors(w, r, sess.Snapshot())
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	s.respondErrors(w, r, sessionFrom(r.Context()).Snapshot())
}

// respondErrors writes the validation state as JSON, or as the summary and
// cell list fragments for HTMX.
func (s *Server) respondErrors(w http.ResponseWriter, r *http.Request, snap core.Snapshot) {
	if !isHTMX(r) {
		writeJSON(w, http.StatusOK, newErrorsResponse(snap))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ValidationSummary(snap.ParseErrors, snap.Summary, len(snap.Errors)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render validation summary", "error", err)
		return
	}
	if err := templates.CellErrors(snap.Errors).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render cell errors", "error", err)
	}
}

// handleRows returns the rows matching ?q=, with their original indices.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	rows := sessionFrom(r.Context()).Filter(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Snapshot().Dimensions)
}

// decodeJSON reads a size-limited JSON body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var sizeErr *http.MaxBytesError
		if errors.As(err, &sizeErr) {
			return fmt.Errorf("%w (limit %d bytes)", errFileTooLarge, s.cfg.Upload.MaxFileSize)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
