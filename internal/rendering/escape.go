package rendering

import "strings"

// markdownEscaper escapes characters that would break a table cell or start inline markup.
// Underscores are left alone so identifiers such as EU_AI_Act stay readable.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// EscapeMarkdown makes text safe for a single Markdown line or table cell.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
