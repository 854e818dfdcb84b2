// Package pipeline orchestrates one evaluation cycle: acquire text, evaluate it against the
// rule table, and optionally generate a narrative report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/anupalankarta/internal/ingestion"
	"github.com/jonathan/anupalankarta/internal/llm"
	"github.com/jonathan/anupalankarta/internal/narrative"
	"github.com/jonathan/anupalankarta/internal/observability"
	"github.com/jonathan/anupalankarta/internal/rendering"
	"github.com/jonathan/anupalankarta/internal/rules"
	"github.com/jonathan/anupalankarta/internal/types"
	"go.uber.org/zap"
)

// Step names reported through ProgressCallback.
const (
	StepAcquire  = "acquire"
	StepEvaluate = "evaluate"
	StepReport   = "report"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)

// ClientFactory opens a text-generation client for one report.
type ClientFactory func(ctx context.Context) (llm.Client, error)

// Options holds the collaborators of a Runner.
type Options struct {
	Rules         *rules.Table          // nil uses rules.Default()
	Fetcher       ingestion.TextFetcher // required for URL input
	NewClient     ClientFactory         // required for reports
	LLMOptions    *llm.Options          // nil uses llm.DefaultOptions()
	ReportTimeout time.Duration         // 0 uses llm.DefaultTimeout
	Logger        *zap.Logger
	OnProgress    ProgressCallback
}

// Runner evaluates documents and generates reports.
type Runner struct {
	rules         *rules.Table
	fetcher       ingestion.TextFetcher
	newClient     ClientFactory
	llmOptions    *llm.Options
	reportTimeout time.Duration
	logger        *zap.Logger
	onProgress    ProgressCallback
}

// CheckOutcome is the result of one evaluation.
type CheckOutcome struct {
	Run      *types.CheckRun
	Document *ingestion.Document
	// Results covers every framework in the table; Run holds only the selected ones.
	Results  types.FrameworkResults
	Selected []string
}

// ReportOutcome is a generated narrative report.
type ReportOutcome struct {
	Narrative   string
	Model       string
	GeneratedAt time.Time
	Summaries   []types.Summary
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Rules == nil {
		opts.Rules = rules.Default()
	}
	if opts.LLMOptions == nil {
		opts.LLMOptions = llm.DefaultOptions()
	}
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = llm.DefaultTimeout
	}
	return &Runner{
		rules:         opts.Rules,
		fetcher:       opts.Fetcher,
		newClient:     opts.NewClient,
		llmOptions:    opts.LLMOptions,
		reportTimeout: opts.ReportTimeout,
		logger:        observability.OrNop(opts.Logger),
		onProgress:    opts.OnProgress,
	}
}

// Rules returns the rule table the runner evaluates against.
func (r *Runner) Rules() *rules.Table {
	return r.rules
}

// LLMOptions returns a copy of the default sampling parameters.
func (r *Runner) LLMOptions() llm.Options {
	return *r.llmOptions
}

// Check acquires text from in and evaluates it. Framework names are validated before any
// text is fetched. Empty input yields an error wrapping ingestion.ErrNoInput.
func (r *Runner) Check(ctx context.Context, in ingestion.Input, frameworks []string) (*CheckOutcome, error) {
	selected, err := r.rules.Select(frameworks)
	if err != nil {
		return nil, err
	}

	r.emit(ProgressEvent{Step: StepAcquire, Message: "acquiring text"})
	doc, err := ingestion.Acquire(ctx, in, r.fetcher)
	if err != nil {
		return nil, err
	}

	return r.evaluate(doc, selected)
}

// Evaluate runs the rule table over an already acquired document.
func (r *Runner) Evaluate(doc *ingestion.Document, frameworks []string) (*CheckOutcome, error) {
	if doc == nil {
		return nil, ingestion.ErrNoInput
	}
	selected, err := r.rules.Select(frameworks)
	if err != nil {
		return nil, err
	}
	return r.evaluate(doc, selected)
}

func (r *Runner) evaluate(doc *ingestion.Document, selected []string) (*CheckOutcome, error) {
	results := r.rules.Evaluate(doc.Text)

	run, err := types.NewCheckRun(doc.Metadata.Source, results, selected)
	if err != nil {
		return nil, fmt.Errorf("failed to build check run: %w", err)
	}
	run.URL = doc.Metadata.URL
	run.FromCache = doc.Metadata.FromCache

	r.logger.Info("evaluated document", append(doc.Metadata.Fields(),
		zap.String("run_id", run.ID.String()),
		zap.Strings("frameworks", run.Results.Names()))...)
	r.emit(ProgressEvent{Step: StepEvaluate, Message: "evaluated document", RunID: run.ID.String(), Content: run.Summaries})

	return &CheckOutcome{
		Run:      run,
		Document: doc,
		Results:  results,
		Selected: selected,
	}, nil
}

// Report generates the narrative report for an evaluation. opts overrides the runner's
// sampling parameters when non-nil.
func (r *Runner) Report(ctx context.Context, outcome *CheckOutcome, opts *llm.Options) (*ReportOutcome, error) {
	if outcome == nil {
		return nil, errors.New("no evaluation to report on")
	}
	if r.newClient == nil {
		return nil, errors.New("no text-generation client configured")
	}
	if opts == nil {
		opts = r.llmOptions
	}

	ctx, cancel := context.WithTimeout(ctx, r.reportTimeout)
	defer cancel()

	client, err := r.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			r.logger.Warn("failed to close generation client", zap.Error(cerr))
		}
	}()

	r.emit(ProgressEvent{Step: StepReport, Message: "generating report with " + client.Model(), RunID: outcome.Run.ID.String()})
	text, err := narrative.Generate(ctx, client, outcome.Results, outcome.Selected, opts, r.logger)
	if err != nil {
		return nil, err
	}

	return &ReportOutcome{
		Narrative:   text,
		Model:       client.Model(),
		GeneratedAt: time.Now().UTC(),
		Summaries:   outcome.Run.Summaries,
	}, nil
}

// Document returns the report as a renderable document.
func (o *ReportOutcome) Document() *rendering.ReportDocument {
	return &rendering.ReportDocument{
		Narrative:   o.Narrative,
		Summaries:   o.Summaries,
		Model:       o.Model,
		GeneratedAt: o.GeneratedAt,
	}
}

// emit calls the progress callback if configured
func (r *Runner) emit(event ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}
