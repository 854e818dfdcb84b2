// Package main provides the command-line entry point for the compliance self-check tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/anupalankarta/internal/config"
	"github.com/jonathan/anupalankarta/internal/observability"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	cacheDir   string
	provider   string
	model      string
	useBrowser bool
	strict     bool
	noColor    bool

	appConfig *config.Config
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "compliance_agent",
	Short: "Compliance self-check for GDPR, the EU AI Act and ISO 27001",
	Long: `compliance_agent evaluates policy text against a fixed table of keyword checks per
framework, prints a pass/fail checklist, and can ask a hosted model for a short
consultant-style report.

Text comes from --text, --text-file, --url or --file. Fetched pages are cached on disk
for 12 hours by default.

Configuration can be loaded from a JSON file using --config or $ANUPALANKARTA_CONFIG.
Command-line flags override config file values.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appConfig = cfg

		logger, err = observability.NewLogger(cfg.Verbose)
		if err != nil {
			return err
		}
		logger.Debug("configuration loaded",
			zap.String("cache_dir", cfg.CacheDir),
			zap.String("cache_ttl", cfg.CacheTTL),
			zap.String("provider", cfg.Provider),
			zap.String("model", cfg.LLMConfig().GetModel()))
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config.json (defaults to $"+config.PathEnv+")")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&cacheDir, "cache-dir", "", "Directory for cached page text (default $XDG_CACHE_HOME/anupalankarta)")
	flags.StringVar(&provider, "provider", "", "Report provider: huggingface or gemini")
	flags.StringVar(&model, "model", "", "Model used for narrative reports")
	flags.BoolVar(&useBrowser, "use-browser", false, "Render pages with little paragraph text in a headless browser (requires Chrome)")
	flags.BoolVar(&strict, "strict", false, "Fail when a fetched page has no paragraph or list text")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// loadConfig applies flags over the config file over the defaults.
func loadConfig() (*config.Config, error) {
	fileCfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}

	flagCfg := config.Config{
		CacheDir:         cacheDir,
		Provider:         provider,
		Model:            model,
		UseBrowser:       useBrowser,
		StrictExtraction: strict,
		Verbose:          verbose,
	}
	merged := flagCfg.MergeWithDefaults(*fileCfg)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
