// Package types provides type definitions for structured data used throughout the compliance checker.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "fmt"

// CheckItem is one checklist requirement: a human label plus the pattern used to detect evidence.
type CheckItem struct {
	Label   string `json:"label" yaml:"label"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// CheckResult is the outcome of a single CheckItem against a document.
type CheckResult struct {
	Label  string `json:"label"`
	Passed bool   `json:"passed"`
}

// FrameworkResult holds the ordered results for one framework.
// Results[i] corresponds to the i-th CheckItem of that framework in the rule table.
type FrameworkResult struct {
	Framework string        `json:"framework"`
	Results   []CheckResult `json:"results"`
}

// Passed returns the number of passing items.
func (f FrameworkResult) Passed() int {
	n := 0
	for _, r := range f.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

// Total returns the number of items evaluated.
func (f FrameworkResult) Total() int {
	return len(f.Results)
}

// Progress returns passed/total in [0, 1]. A framework with no items reports 0.
func (f FrameworkResult) Progress() float64 {
	if len(f.Results) == 0 {
		return 0
	}
	return float64(f.Passed()) / float64(f.Total())
}

// FrameworkResults maps framework name to its results, in rule table order.
type FrameworkResults struct {
	Frameworks []FrameworkResult `json:"frameworks"`
}

// Get returns the results for a framework.
func (r FrameworkResults) Get(framework string) (FrameworkResult, bool) {
	for _, fr := range r.Frameworks {
		if fr.Framework == framework {
			return fr, true
		}
	}
	return FrameworkResult{}, false
}

// Names returns framework names in table order.
func (r FrameworkResults) Names() []string {
	names := make([]string, len(r.Frameworks))
	for i, fr := range r.Frameworks {
		names[i] = fr.Framework
	}
	return names
}

// Select returns the results for the given frameworks, in the order given.
func (r FrameworkResults) Select(frameworks []string) ([]FrameworkResult, error) {
	selected := make([]FrameworkResult, 0, len(frameworks))
	for _, name := range frameworks {
		fr, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown framework: %s", name)
		}
		selected = append(selected, fr)
	}
	return selected, nil
}

// Summary is the per-framework line of the checklist view.
type Summary struct {
	Framework string  `json:"framework"`
	Passed    int     `json:"passed"`
	Total     int     `json:"total"`
	Progress  float64 `json:"progress"`
}

// Summaries builds checklist summaries for the given frameworks.
func (r FrameworkResults) Summaries(frameworks []string) ([]Summary, error) {
	selected, err := r.Select(frameworks)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(selected))
	for i, fr := range selected {
		out[i] = Summary{
			Framework: fr.Framework,
			Passed:    fr.Passed(),
			Total:     fr.Total(),
			Progress:  fr.Progress(),
		}
	}
	return out, nil
}
