package rendering

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jonathan/anupalankarta/internal/llm"
	"github.com/jonathan/anupalankarta/internal/types"
	"github.com/nao1215/markdown"
)

// ReportFilename is the download name of a narrative report.
const ReportFilename = "anupalankarta_report.md"

// ReportContentType is the media type of rendered documents.
const ReportContentType = "text/markdown; charset=utf-8"

// ChecklistDocument is the input of Checklist.
type ChecklistDocument struct {
	Results  types.FrameworkResults
	Selected []string
	// Source describes where the text came from, e.g. a URL or file name. Optional.
	Source string
}

// ReportDocument is the input of Report.
type ReportDocument struct {
	Narrative   string
	Summaries   []types.Summary
	Model       string
	GeneratedAt time.Time
	// StripFence removes a code fence wrapped around the whole narrative.
	StripFence bool
}

// Checklist writes the checklist view: a summary table, then one section per selected
// framework with a checkbox per item.
func Checklist(w io.Writer, doc *ChecklistDocument) error {
	summaries, err := doc.Results.Summaries(doc.Selected)
	if err != nil {
		return &RenderError{Document: DocChecklist, Message: "invalid framework selection", Cause: err}
	}
	selected, err := doc.Results.Select(doc.Selected)
	if err != nil {
		return &RenderError{Document: DocChecklist, Message: "invalid framework selection", Cause: err}
	}

	md := markdown.NewMarkdown(w)
	md.H1("Compliance Checklist")
	md.PlainText("")
	if doc.Source != "" {
		md.PlainTextf("Source: %s", EscapeMarkdown(doc.Source))
		md.PlainText("")
	}

	writeSummaryTable(md, summaries)

	for _, fr := range selected {
		md.H2f("%s (%d/%d passed)", fr.Framework, fr.Passed(), fr.Total())
		md.PlainText("")
		boxes := make([]markdown.CheckBoxSet, len(fr.Results))
		for i, r := range fr.Results {
			boxes[i] = markdown.CheckBoxSet{Checked: r.Passed, Text: EscapeMarkdown(r.Label)}
		}
		md.CheckBox(boxes)
		md.PlainText("")
	}

	if err := md.Build(); err != nil {
		return &RenderError{Document: DocChecklist, Message: "write failed", Cause: err}
	}
	return nil
}

// Report writes the downloadable narrative report. The generated narrative is kept verbatim
// unless StripFence is set; a checklist summary and generation note follow it when available.
func Report(w io.Writer, doc *ReportDocument) error {
	if doc == nil || doc.Narrative == "" {
		return &RenderError{Document: DocReport, Message: "narrative is empty"}
	}

	narrative := doc.Narrative
	if doc.StripFence {
		narrative = llm.CleanMarkdownBlock(narrative)
	}

	md := markdown.NewMarkdown(w)
	md.PlainText(narrative)
	md.PlainText("")

	if len(doc.Summaries) > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.H2("Checklist Summary")
		md.PlainText("")
		writeSummaryTable(md, doc.Summaries)
	}

	if doc.Model != "" || !doc.GeneratedAt.IsZero() {
		md.Note(generationNote(doc))
		md.PlainText("")
	}

	if err := md.Build(); err != nil {
		return &RenderError{Document: DocReport, Message: "write failed", Cause: err}
	}
	return nil
}

func writeSummaryTable(md *markdown.Markdown, summaries []types.Summary) {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.Framework,
			strconv.Itoa(s.Passed),
			strconv.Itoa(s.Total),
			fmt.Sprintf("%.0f%%", s.Progress*100),
		}
	}
	md.Table(markdown.TableSet{
		Header:    []string{"Framework", "Passed", "Total", "Progress"},
		Rows:      rows,
		Alignment: []markdown.TableAlignment{markdown.AlignLeft, markdown.AlignRight, markdown.AlignRight, markdown.AlignRight},
	})
	md.PlainText("")
}

func generationNote(doc *ReportDocument) string {
	note := "Generated automatically from pattern-based checks; review before relying on it."
	if doc.Model != "" {
		note += " Model: " + EscapeMarkdown(doc.Model) + "."
	}
	if !doc.GeneratedAt.IsZero() {
		note += " Generated at " + doc.GeneratedAt.UTC().Format(time.RFC3339) + "."
	}
	return note
}
