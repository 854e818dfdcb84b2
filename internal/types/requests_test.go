//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request CheckRequest
		wantErr bool
		errMsg  string
	}{
		{
			name:    "text only",
			request: CheckRequest{Text: "Our lawful basis is consent."},
		},
		{
			name:    "url only",
			request: CheckRequest{URL: "https://example.com/privacy"},
		},
		{
			name:    "empty request is left to the caller",
			request: CheckRequest{},
		},
		{
			name:    "text and url together",
			request: CheckRequest{Text: "policy", URL: "https://example.com"},
			wantErr: true,
			errMsg:  "excluded_with",
		},
		{
			name:    "url without scheme",
			request: CheckRequest{URL: "example.com/privacy"},
			wantErr: true,
			errMsg:  "http_url",
		},
		{
			name:    "blank framework name",
			request: CheckRequest{Text: "policy", Frameworks: []string{"GDPR", ""}},
			wantErr: true,
			errMsg:  "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReportRequest_Validation(t *testing.T) {
	valid := ReportRequest{CheckRequest: CheckRequest{Text: "policy"}, MaxTokens: 600}
	assert.NoError(t, valid.Validate())

	tooMany := ReportRequest{CheckRequest: CheckRequest{Text: "policy"}, MaxTokens: 10000}
	err := tooMany.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lte")

	both := ReportRequest{CheckRequest: CheckRequest{Text: "policy", URL: "https://example.com"}}
	assert.Error(t, both.Validate())
}

func TestNewCheckRun(t *testing.T) {
	run, err := NewCheckRun("text", sampleResults(), []string{"GDPR"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, "text", run.Source)
	require.Len(t, run.Summaries, 1)
	assert.Equal(t, 2, run.Summaries[0].Passed)
	assert.Equal(t, []string{"GDPR"}, run.Results.Names())
	assert.False(t, run.CreatedAt.IsZero())

	_, err = NewCheckRun("text", sampleResults(), []string{"SOC2"})
	assert.Error(t, err)
}
