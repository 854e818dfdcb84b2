package ingestion

import (
	"regexp"
	"strings"
)

var (
	spaceRun     = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)
	blankLineRun = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes pasted or uploaded policy text while keeping its Markdown shape:
// line endings become LF, runs of spaces inside a line collapse, headings lose leading
// indentation, list items keep theirs, and at most one blank line separates paragraphs.
// Evaluation patterns match on \s so none of this changes which checks pass.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(content)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	indent := strings.Repeat(" ", len(line)-len(trimmed))

	switch {
	case strings.HasPrefix(trimmed, "#"):
		return trimmed
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
		return indent + trimmed
	default:
		return indent + spaceRun.ReplaceAllString(trimmed, " ")
	}
}
