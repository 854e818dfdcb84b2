package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jonathan/anupalankarta/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() types.FrameworkResults {
	return types.FrameworkResults{Frameworks: []types.FrameworkResult{
		{Framework: "GDPR", Results: []types.CheckResult{
			{Label: "Lawful basis documented", Passed: true},
			{Label: "Data-subject rights process", Passed: false},
		}},
		{Framework: "EU_AI_Act", Results: []types.CheckResult{
			{Label: "High-risk AI DPIA", Passed: true},
			{Label: "Training data governance", Passed: true},
		}},
	}}
}

func newTestPrinter(buf *bytes.Buffer) *Printer {
	p := NewPrinter(buf)
	p.SetColor(false)
	return p
}

func TestPrintChecklist(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf)

	require.NoError(t, p.PrintChecklist(sampleResults(), []string{"GDPR", "EU_AI_Act"}))

	out := buf.String()
	assert.Contains(t, out, "GDPR")
	assert.Contains(t, out, "1/2 passed")
	assert.Contains(t, out, "2/2 passed")
	assert.Contains(t, out, "✅ Lawful basis documented")
	assert.Contains(t, out, "❌ Data-subject rights process")
	assert.Less(t, strings.Index(out, "GDPR"), strings.Index(out, "EU_AI_Act"))
	assert.Equal(t, 2, strings.Count(out, "┌"))
}

func TestPrintChecklist_UnknownFramework(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf)

	assert.Error(t, p.PrintChecklist(sampleResults(), []string{"SOC2"}))
	assert.Empty(t, buf.String())
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf)

	summaries, err := sampleResults().Summaries([]string{"GDPR", "EU_AI_Act"})
	require.NoError(t, err)
	p.PrintSummary(summaries)

	out := buf.String()
	assert.Contains(t, out, "GDPR       1/2 passed (50%)")
	assert.Contains(t, out, "EU_AI_Act  2/2 passed (100%)")
	assert.NotContains(t, out, "\x1b[")
}

func TestPrintSummary_Color(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.SetColor(true)

	p.PrintSummary([]types.Summary{{Framework: "GDPR", Passed: 3, Total: 3, Progress: 1}})
	assert.Contains(t, buf.String(), "\x1b[32m")
}

func TestPrintNotice(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf)

	p.PrintNotice("nothing to evaluate: %s", "empty input")
	assert.Equal(t, "nothing to evaluate: empty input\n", buf.String())
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		fraction float64
		width    int
		expected string
	}{
		{0, 4, "[░░░░]"},
		{0.5, 4, "[██░░]"},
		{1, 4, "[████]"},
		{2, 2, "[██]"},
		{-1, 2, "[░░]"},
		{0.5, 0, "[]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ProgressBar(tt.fraction, tt.width))
	}
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab  ", pad("ab", 4))
	assert.Equal(t, "abcdefg...", pad(strings.Repeat("abcdefg", 3), 10))
}
