// Package prompts holds the embedded model prompt templates.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Template keys in report.json.
const (
	NarrativeReport = "narrative-report"
	ResultBullet    = "result-bullet"
)

//go:embed report.json
var reportJSON []byte

var loadReport = sync.OnceValues(func() (map[string]string, error) {
	var templates map[string]string
	if err := json.Unmarshal(reportJSON, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse report prompts: %w", err)
	}
	return templates, nil
})

// Get returns the report template stored under key.
func Get(key string) (string, error) {
	templates, err := loadReport()
	if err != nil {
		return "", err
	}
	tmpl, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found", key)
	}
	return tmpl, nil
}

// Format replaces {{.Key}} placeholders with values from data in a single pass, so values
// are never themselves expanded. Unknown placeholders are left as is.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
