package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/anupalankarta/internal/ingestion"
	"github.com/jonathan/anupalankarta/internal/llm"
	"github.com/jonathan/anupalankarta/internal/pipeline"
	"github.com/jonathan/anupalankarta/internal/rendering"
	"github.com/jonathan/anupalankarta/internal/types"
	"go.uber.org/zap"
)

// Response statuses.
const (
	StatusOK      = "ok"
	StatusNoInput = "no_input"
)

const noInputMessage = "Provide text, a URL or a file to evaluate."

// maxJSONBodyBytes bounds JSON request bodies, which may carry pasted policy text.
const maxJSONBodyBytes = 2 << 20

// FrameworkInfo describes one framework of the rule table.
type FrameworkInfo struct {
	Name  string            `json:"name"`
	Items []types.CheckItem `json:"items"`
}

// FrameworksResponse represents the response for /frameworks
type FrameworksResponse struct {
	Frameworks []FrameworkInfo `json:"frameworks"`
}

// CheckResponse represents the response for /check and /check/upload
type CheckResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Warning string          `json:"warning,omitempty"`
	Run     *types.CheckRun `json:"run,omitempty"`
}

// ReportResponse represents the response for /report
type ReportResponse struct {
	Status      string          `json:"status"`
	Message     string          `json:"message,omitempty"`
	RunID       string          `json:"run_id,omitempty"`
	Model       string          `json:"model,omitempty"`
	GeneratedAt *time.Time      `json:"generated_at,omitempty"`
	Report      string          `json:"report,omitempty"`
	Summaries   []types.Summary `json:"summaries,omitempty"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": StatusOK})
}

// handleFrameworks lists the rule table
func (s *Server) handleFrameworks(w http.ResponseWriter, _ *http.Request) {
	table := s.runner.Rules()
	names := table.Frameworks()
	resp := FrameworksResponse{Frameworks: make([]FrameworkInfo, len(names))}
	for i, name := range names {
		resp.Frameworks[i] = FrameworkInfo{Name: name, Items: table.Items(name)}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleCheck evaluates pasted text or a URL
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req types.CheckRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	outcome, err := s.runner.Check(r.Context(), ingestion.Input{Text: req.Text, URL: req.URL}, req.Frameworks)
	s.writeCheck(w, r, outcome, err)
}

// handleCheckUpload evaluates an uploaded .txt, .md or .pdf file
func (s *Server) handleCheckUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, r, err)
			return
		}
		s.errorResponse(w, r, &ErrValidation{Field: "file", Message: "expected multipart form data"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "file", Message: "file is required"})
		return
	}
	defer file.Close() //nolint:errcheck // read-only multipart file

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, r, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	frameworks := splitFrameworks(r.MultipartForm.Value["frameworks"])
	if _, err := s.runner.Rules().Select(frameworks); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	doc, err := ingestion.FromUpload(header.Filename, data)
	if err != nil {
		s.writeCheck(w, r, nil, err)
		return
	}

	outcome, err := s.runner.Evaluate(doc, frameworks)
	s.writeCheck(w, r, outcome, err)
}

func (s *Server) writeCheck(w http.ResponseWriter, r *http.Request, outcome *pipeline.CheckOutcome, err error) {
	if errors.Is(err, ingestion.ErrNoInput) {
		s.jsonResponse(w, http.StatusOK, CheckResponse{Status: StatusNoInput, Message: noInputMessage})
		return
	}
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, CheckResponse{
		Status:  StatusOK,
		Warning: outcome.Document.Warning,
		Run:     outcome.Run,
	})
}

// handleReport evaluates text or a URL and returns the generated narrative report
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	outcome, report, ok := s.generateReport(w, r)
	if !ok {
		return
	}

	generatedAt := report.GeneratedAt
	s.jsonResponse(w, http.StatusOK, ReportResponse{
		Status:      StatusOK,
		RunID:       outcome.Run.ID.String(),
		Model:       report.Model,
		GeneratedAt: &generatedAt,
		Report:      report.Narrative,
		Summaries:   report.Summaries,
	})
}

// handleReportDownload returns the generated report as a Markdown attachment
func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	_, report, ok := s.generateReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := rendering.Report(&buf, report.Document()); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", rendering.ReportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendering.ReportFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("failed to write report download", zap.Error(err))
	}
}

// generateReport runs the shared part of both report endpoints. It writes the response itself
// and returns false when there is no report to send.
func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) (*pipeline.CheckOutcome, *pipeline.ReportOutcome, bool) {
	var req types.ReportRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return nil, nil, false
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, r, err)
		return nil, nil, false
	}

	outcome, err := s.runner.Check(r.Context(), ingestion.Input{Text: req.Text, URL: req.URL}, req.Frameworks)
	if errors.Is(err, ingestion.ErrNoInput) {
		s.jsonResponse(w, http.StatusOK, ReportResponse{Status: StatusNoInput, Message: noInputMessage})
		return nil, nil, false
	}
	if err != nil {
		s.errorResponse(w, r, err)
		return nil, nil, false
	}

	var opts *llm.Options
	if req.MaxTokens > 0 {
		o := s.runner.LLMOptions()
		o.MaxTokens = req.MaxTokens
		opts = &o
	}

	report, err := s.runner.Report(r.Context(), outcome, opts)
	if err != nil {
		s.errorResponse(w, r, err)
		return nil, nil, false
	}
	return outcome, report, true
}

// decodeJSON decodes a bounded JSON body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil // empty body: nothing to evaluate
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// splitFrameworks accepts repeated form values and comma-separated lists.
func splitFrameworks(values []string) []string {
	var out []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
