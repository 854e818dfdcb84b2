package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/anupalankarta/internal/cache"
	"github.com/jonathan/anupalankarta/internal/fetch"
	"github.com/jonathan/anupalankarta/internal/ingestion"
	"github.com/jonathan/anupalankarta/internal/llm"
	"github.com/jonathan/anupalankarta/internal/observability"
	"github.com/jonathan/anupalankarta/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRunner wires the cache, fetcher and report client from the loaded configuration.
func newRunner() (*pipeline.Runner, error) {
	store, err := cache.NewFileStore(appConfig.CacheOptions(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return pipeline.New(pipeline.Options{
		Fetcher: fetch.NewCachedFetcher(store, appConfig.FetcherConfig(logger)),
		NewClient: func(ctx context.Context) (llm.Client, error) {
			llmConfig := appConfig.LLMConfig()
			apiKey := appConfig.APIKey()
			logger.Debug("opening generation client",
				zap.String("provider", string(llmConfig.Provider)),
				observability.Secret(llmConfig.APIKeyEnv(), apiKey))
			return llm.NewClient(ctx, llmConfig, apiKey)
		},
		LLMOptions:    appConfig.LLMOptions(),
		ReportTimeout: appConfig.ReportTimeoutDuration(),
		Logger:        logger,
		OnProgress: func(e pipeline.ProgressEvent) {
			logger.Debug("progress", zap.String("step", e.Step), zap.String("message", e.Message))
		},
	}), nil
}

// inputFlags are the text source and framework selection shared by check and report.
type inputFlags struct {
	text       string
	textFile   string
	url        string
	file       string
	frameworks []string
}

func (f *inputFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.text, "text", "", "Policy text to evaluate (\"-\" reads stdin)")
	cmd.Flags().StringVarP(&f.textFile, "text-file", "t", "", "Path to a plain text file to evaluate")
	cmd.Flags().StringVarP(&f.url, "url", "u", "", "URL of a policy page to fetch and evaluate")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Path to a .txt, .md or .pdf document to evaluate")
	cmd.Flags().StringSliceVar(&f.frameworks, "framework", nil, "Framework to include (repeatable; default all)")
}

// source describes where the evaluated text came from.
func (f *inputFlags) source() string {
	switch {
	case f.url != "":
		return f.url
	case f.file != "":
		return f.file
	case f.textFile != "":
		return f.textFile
	default:
		return ""
	}
}

// check acquires text from the flags and evaluates it.
func (f *inputFlags) check(cmd *cobra.Command, runner *pipeline.Runner) (*pipeline.CheckOutcome, error) {
	set := 0
	for _, v := range []string{f.text, f.textFile, f.url, f.file} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return nil, errors.New("--text, --text-file, --url and --file are mutually exclusive; provide only one")
	}

	in := ingestion.Input{Text: f.text, URL: f.url, FilePath: f.file}
	switch {
	case f.text == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		in.Text = string(data)
	case f.textFile != "":
		data, err := os.ReadFile(f.textFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read text file: %w", err)
		}
		in.Text = ingestion.DecodeUpload(data)
	}

	return runner.Check(cmd.Context(), in, f.frameworks)
}

// writeOutput writes data to path, or to the command's stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

// newPrinter returns a Printer for w, colored only when allowed.
func newPrinter(w io.Writer, allowColor bool) *observability.Printer {
	p := observability.NewPrinter(w)
	if !allowColor || noColor {
		p.SetColor(false)
	}
	return p
}

// printNoInput tells the user there was nothing to evaluate.
func printNoInput(cmd *cobra.Command, err error) {
	msg := strings.TrimPrefix(err.Error(), ingestion.ErrNoInput.Error())
	msg = strings.TrimPrefix(msg, ": ")
	p := newPrinter(cmd.ErrOrStderr(), true)
	if msg == "" {
		p.PrintNotice("Nothing to evaluate: provide --text, --text-file, --url or --file.")
		return
	}
	p.PrintNotice("Nothing to evaluate: %s.", msg)
}
