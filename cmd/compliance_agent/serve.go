package main

import (
	"fmt"

	"github.com/jonathan/anupalankarta/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the checklist and report endpoints:

  GET  /health
  GET  /frameworks
  POST /check            JSON {text|url, frameworks}
  POST /check/upload     multipart file + frameworks
  POST /report           JSON {text|url, frameworks, max_tokens}
  POST /report/download  same body, returns anupalankarta_report.md`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	runner, err := newRunner()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:   servePort,
		Runner: runner,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
