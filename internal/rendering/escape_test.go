package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "Lawful basis documented", "Lawful basis documented"},
		{"underscores kept", "EU_AI_Act", "EU_AI_Act"},
		{"pipe", "A | B", `A \| B`},
		{"emphasis", "*bold* `code`", "\\*bold\\* \\`code\\`"},
		{"link brackets", "[x](y)", `\[x\](y)`},
		{"html", "<script>", `\<script\>`},
		{"backslash", `a\b`, `a\\b`},
		{"unicode untouched", "Datenschutz für Kunden ✅", "Datenschutz für Kunden ✅"},
		{"newlines flattened", "line1\nline2\r\n", "line1 line2 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeMarkdown(tt.input))
		})
	}
}
