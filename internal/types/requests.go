package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CheckRequest is the body of a checklist evaluation request.
// Text and URL are mutually exclusive; an empty request means there is nothing to evaluate.
type CheckRequest struct {
	Text       string   `json:"text,omitempty" validate:"excluded_with=URL"`
	URL        string   `json:"url,omitempty" validate:"omitempty,http_url"`
	Frameworks []string `json:"frameworks,omitempty" validate:"omitempty,dive,required"`
}

// Validate validates the CheckRequest using the validator.
func (r *CheckRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ReportRequest is the body of a narrative report request.
type ReportRequest struct {
	CheckRequest
	MaxTokens int `json:"max_tokens,omitempty" validate:"omitempty,gt=0,lte=4096"`
}

// Validate validates the ReportRequest using the validator.
func (r *ReportRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// CheckRun is one evaluation cycle as returned to callers.
type CheckRun struct {
	ID        uuid.UUID        `json:"id"`
	Source    string           `json:"source"`
	URL       string           `json:"url,omitempty"`
	FromCache bool             `json:"from_cache"`
	CreatedAt time.Time        `json:"created_at"`
	Summaries []Summary        `json:"summaries"`
	Results   FrameworkResults `json:"results"`
}

// NewCheckRun creates a CheckRun for the selected frameworks.
func NewCheckRun(source string, results FrameworkResults, selected []string) (*CheckRun, error) {
	summaries, err := results.Summaries(selected)
	if err != nil {
		return nil, err
	}
	filtered, err := results.Select(selected)
	if err != nil {
		return nil, err
	}
	return &CheckRun{
		ID:        uuid.New(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Summaries: summaries,
		Results:   FrameworkResults{Frameworks: filtered},
	}, nil
}
