package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dm3k/dm3k/pkg/buildinfo"
	"github.com/dm3k/dm3k/pkg/document"
	apperr "github.com/dm3k/dm3k/pkg/errors"
	"github.com/dm3k/dm3k/pkg/layout"
	"github.com/dm3k/dm3k/pkg/model"
	"github.com/dm3k/dm3k/pkg/pipeline"
	"github.com/dm3k/dm3k/pkg/store"
)

// =============================================================================
// Request and Response Types
// =============================================================================

// problemRequest is the body of the solve, layout and diagram routes.
// Document accepts a bare document or an export wrapper.
type problemRequest struct {
	Document  json.RawMessage  `json:"document"`
	FullTrace *layout.Trace    `json:"full_trace,omitempty"`
	Options   pipeline.Options `json:"options"`
}

// documentRequest is the body of the document store routes.
type documentRequest struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
}

type versionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

type validateResponse struct {
	Valid           bool   `json:"valid"`
	DocumentHash    string `json:"document_hash"`
	ResourceClasses int    `json:"resource_classes"`
	ActivityClasses int    `json:"activity_classes"`
}

type layoutResponse struct {
	DocumentHash string             `json:"document_hash"`
	Layout       *layout.Layout     `json:"layout"`
	Cached       bool               `json:"cached"`
	CacheInfo    pipeline.CacheInfo `json:"cache_info"`
}

type createdResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
		Date:    buildinfo.Date,
	})
}

// handleValidate checks the document structure and that it imports into a
// model. Problems are reported as errors, not as valid=false.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	d, err := readDocument(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := document.Validate(d); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := document.Import(model.New(), d, document.WithLogger(s.logger)); err != nil {
		s.writeError(w, r, err)
		return
	}
	hash, err := document.Hash(d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:           true,
		DocumentHash:    hash,
		ResourceClasses: len(d.ResourceClasses),
		ActivityClasses: len(d.ActivityClasses),
	})
}

// handleRoundTrip imports the document and exports it again. With a
// ?dataset= query the result is wrapped in the export envelope.
func (s *Server) handleRoundTrip(w http.ResponseWriter, r *http.Request) {
	d, err := readDocument(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m := model.New()
	if err := document.Import(m, d, document.WithLogger(s.logger)); err != nil {
		s.writeError(w, r, err)
		return
	}
	out := document.Export(m)
	if name := r.URL.Query().Get("dataset"); name != "" {
		if err := apperr.ValidateName(name); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, document.Wrap(name, out))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	d, opts, _, err := s.readProblem(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sol, err := s.runner.Solve(r.Context(), d, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

// handleLayout computes the solution matrix. A request carrying full_trace
// skips the solver.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	d, opts, trace, err := s.readProblem(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := opts.ValidateForLayout(); err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid options"))
		return
	}
	hash, err := document.Hash(d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := layoutResponse{DocumentHash: hash}
	if trace == nil {
		sol, hit, err := s.runner.SolveWithCacheInfo(r.Context(), d, opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		trace = &sol.FullTrace
		resp.CacheInfo.SolveHit = hit
	}
	l, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), d, *trace, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp.Layout = l
	resp.Cached = hit
	resp.CacheInfo.LayoutHit = hit
	writeJSON(w, http.StatusOK, resp)
}

// handleDiagram draws the problem diagram. The single output format comes
// from ?format= (svg when absent) and overrides options.formats.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	d, opts, _, err := s.readProblem(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}
	if err := opts.ValidateForDiagram(); err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "invalid format"))
		return
	}
	artifacts, err := s.runner.Diagram(r.Context(), d, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// =============================================================================
// Document Store Handlers
// =============================================================================

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	s.saveDocument(w, r, "")
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.saveDocument(w, r, id)
}

func (s *Server) saveDocument(w http.ResponseWriter, r *http.Request, id string) {
	if !s.requireStore(w, r) {
		return
	}
	var req documentRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := apperr.ValidateName(req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := parseDocument(req.Document)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := document.Validate(d); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err = s.store.Put(r.Context(), store.Record{ID: id, Name: req.Name, Document: d})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	writeJSON(w, status, createdResponse{ID: id})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if s.store != nil {
		return true
	}
	s.writeError(w, r, apperr.New(apperr.ErrCodeUnsupported, "document store is disabled"))
	return false
}

// =============================================================================
// Helpers
// =============================================================================

// readProblem decodes a problem request and merges its options over the
// server defaults.
func (s *Server) readProblem(r *http.Request) (document.Document, pipeline.Options, *layout.Trace, error) {
	var req problemRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		return document.Document{}, pipeline.Options{}, nil, err
	}
	d, err := parseDocument(req.Document)
	if err != nil {
		return document.Document{}, pipeline.Options{}, nil, err
	}
	return d, s.mergeOptions(req.Options), req.FullTrace, nil
}

func (s *Server) mergeOptions(o pipeline.Options) pipeline.Options {
	if o.Algorithm == "" {
		o.Algorithm = s.defaults.Algorithm
	}
	if o.WidthFunc == "" {
		o.WidthFunc = s.defaults.WidthFunc
	}
	if o.FrameWidth == 0 {
		o.FrameWidth = s.defaults.FrameWidth
	}
	o.Logger = s.logger
	return o
}

func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}

func readDocument(body io.Reader) (document.Document, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return document.Document{}, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "read body")
	}
	return parseDocument(data)
}

func parseDocument(data []byte) (document.Document, error) {
	if len(data) == 0 {
		return document.Document{}, apperr.New(apperr.ErrCodeInvalidInput, "document is required")
	}
	d, err := document.ReadAny(data, document.FormatJSON)
	if errors.Is(err, document.ErrEmptyWrapper) {
		return document.Document{}, err
	}
	if err != nil {
		return document.Document{}, apperr.Wrap(apperr.ErrCodeInvalidDocument, err, "decode document")
	}
	return d, nil
}

// writeError classifies err and writes the JSON error body. Server-side
// failures are logged; client errors are not.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	err = apperr.FromDomain(err)
	code := apperr.GetCode(err)
	status := apperr.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", code,
			"error", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: string(code), Message: message(err)}})
}

// message prefers the wrapped cause, which names the offending class or
// field, over the generic code message.
func message(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Cause != nil {
		cause := e.Cause.Error()
		if strings.Contains(cause, e.Message) {
			return cause
		}
		return fmt.Sprintf("%s: %s", e.Message, cause)
	}
	return apperr.UserMessage(err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatPDF:
		return "application/pdf"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/octet-stream"
}
