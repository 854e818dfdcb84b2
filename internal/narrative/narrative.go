// Package narrative turns checklist outcomes into a prompt and asks a text-generation
// client for a consultant-style report.
package narrative

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/anupalankarta/internal/llm"
	"github.com/jonathan/anupalankarta/internal/prompts"
	"github.com/jonathan/anupalankarta/internal/types"
	"go.uber.org/zap"
)

// BuildPrompt renders the report prompt with one result bullet per selected framework,
// in selection order.
func BuildPrompt(results types.FrameworkResults, selected []string) (string, error) {
	summaries, err := results.Summaries(selected)
	if err != nil {
		return "", err
	}
	if len(summaries) == 0 {
		return "", fmt.Errorf("no frameworks selected")
	}

	bulletTemplate, err := prompts.Get(prompts.ResultBullet)
	if err != nil {
		return "", err
	}
	reportTemplate, err := prompts.Get(prompts.NarrativeReport)
	if err != nil {
		return "", err
	}

	bullets := make([]string, len(summaries))
	for i, s := range summaries {
		bullets[i] = prompts.Format(bulletTemplate, map[string]string{
			"Framework": s.Framework,
			"Passed":    strconv.Itoa(s.Passed),
			"Total":     strconv.Itoa(s.Total),
		})
	}

	return prompts.Format(reportTemplate, map[string]string{
		"Results": strings.Join(bullets, "\n"),
	}), nil
}

// Generator produces narrative reports through an llm.Client.
type Generator struct {
	client llm.Client
	opts   *llm.Options
	logger *zap.Logger
}

// NewGenerator creates a Generator. Nil opts means llm.DefaultOptions; nil logger means no logging.
func NewGenerator(client llm.Client, opts *llm.Options, logger *zap.Logger) *Generator {
	if opts == nil {
		opts = llm.DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, opts: opts, logger: logger}
}

// Generate builds the prompt for the selected frameworks and returns the generated report.
func (g *Generator) Generate(ctx context.Context, results types.FrameworkResults, selected []string) (string, error) {
	return Generate(ctx, g.client, results, selected, g.opts, g.logger)
}

// Generate builds the prompt for the selected frameworks and returns the generated report
// exactly as the client produced it. Client errors are returned unchanged.
func Generate(ctx context.Context, client llm.Client, results types.FrameworkResults, selected []string, opts *llm.Options, logger *zap.Logger) (string, error) {
	if client == nil {
		return "", fmt.Errorf("no text-generation client configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	prompt, err := BuildPrompt(results, selected)
	if err != nil {
		return "", fmt.Errorf("failed to build report prompt: %w", err)
	}

	logger.Debug("requesting narrative report",
		zap.String("model", client.Model()),
		zap.Strings("frameworks", selected),
		zap.Int("prompt_chars", len(prompt)))

	text, err := client.Generate(ctx, prompt, opts)
	if err != nil {
		logger.Warn("narrative report failed", zap.String("model", client.Model()), zap.Error(err))
		return "", err
	}

	logger.Info("narrative report generated",
		zap.String("model", client.Model()),
		zap.Int("chars", len(text)))
	return text, nil
}
