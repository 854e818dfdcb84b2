package main

import (
	"bytes"
	"errors"

	"github.com/jonathan/anupalankarta/internal/ingestion"
	"github.com/jonathan/anupalankarta/internal/rendering"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a narrative compliance report",
	Long: `Evaluate policy text, then ask the configured model for a short report summarizing the
checklist outcomes with prioritized next steps.

The Hugging Face provider reads its token from HF_TOKEN; Gemini reads GEMINI_API_KEY.`,
	RunE: runReport,
}

var (
	reportInput      inputFlags
	reportOut        string
	reportMaxTokens  int
	reportStripFence bool
)

func init() {
	reportInput.bind(reportCmd)
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Write the report to this file (e.g. "+rendering.ReportFilename+") instead of stdout")
	reportCmd.Flags().IntVar(&reportMaxTokens, "max-tokens", 0, "Maximum tokens to generate (default from config, 600)")

	reportCmd.Flags().BoolVar(&reportStripFence, "strip-fence", false, "Remove a code fence the model wrapped around the whole report")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	runner, err := newRunner()
	if err != nil {
		return err
	}

	outcome, err := reportInput.check(cmd, runner)
	if errors.Is(err, ingestion.ErrNoInput) {
		printNoInput(cmd, err)
		return nil
	}
	if err != nil {
		return err
	}

	opts := runner.LLMOptions()
	if reportMaxTokens > 0 {
		opts.MaxTokens = reportMaxTokens
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	report, err := runner.Report(cmd.Context(), outcome, &opts)
	if err != nil {
		return err
	}

	doc := report.Document()
	doc.StripFence = reportStripFence

	var buf bytes.Buffer
	if err := rendering.Report(&buf, doc); err != nil {
		return err
	}
	return writeOutput(cmd, reportOut, buf.Bytes())
}
