package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/anupalankarta/internal/ingestion"
	"github.com/jonathan/anupalankarta/internal/pipeline"
	"github.com/jonathan/anupalankarta/internal/rendering"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate policy text and print the compliance checklist",
	Long: `Evaluate policy text against every framework's checks and print the checklist for the
selected frameworks.

Formats:
  text  boxes with a progress bar and a mark per check (default)
  json  the evaluation run, including per-framework summaries
  md    a Markdown checklist document`,
	RunE: runCheck,
}

var (
	checkInput  inputFlags
	checkFormat string
	checkOut    string
)

func init() {
	checkInput.bind(checkCmd)
	checkCmd.Flags().StringVar(&checkFormat, "format", "text", "Output format: text, json or md")
	checkCmd.Flags().StringVarP(&checkOut, "out", "o", "", "Write output to this file instead of stdout")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	switch checkFormat {
	case "text", "json", "md":
	default:
		return fmt.Errorf("unknown format %q: use text, json or md", checkFormat)
	}

	runner, err := newRunner()
	if err != nil {
		return err
	}

	outcome, err := checkInput.check(cmd, runner)
	if errors.Is(err, ingestion.ErrNoInput) {
		printNoInput(cmd, err)
		return nil
	}
	if err != nil {
		return err
	}
	if outcome.Document.Warning != "" {
		newPrinter(cmd.ErrOrStderr(), true).PrintNotice("Warning: %s", outcome.Document.Warning)
	}

	data, err := formatCheck(outcome, checkFormat, checkInput.source(), checkOut == "")
	if err != nil {
		return err
	}
	return writeOutput(cmd, checkOut, data)
}

func formatCheck(outcome *pipeline.CheckOutcome, format, source string, color bool) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "json":
		data, err := json.MarshalIndent(outcome.Run, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode results: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	case "md":
		err := rendering.Checklist(&buf, &rendering.ChecklistDocument{
			Results:  outcome.Results,
			Selected: outcome.Selected,
			Source:   source,
		})
		if err != nil {
			return nil, err
		}
	default:
		p := newPrinter(&buf, color)
		if err := p.PrintChecklist(outcome.Results, outcome.Selected); err != nil {
			return nil, err
		}
		p.PrintSummary(outcome.Run.Summaries)
	}
	return buf.Bytes(), nil
}
