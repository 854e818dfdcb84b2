package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// getBinaryPath returns the path to the compliance_agent binary for testing
func getBinaryPath(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", "compliance_agent")
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'make build'", binaryPath)
	}

	return binaryPath
}

// resetFlags clears flag values left over from a previous in-process execution.
func resetFlags() {
	configPath, verbose, cacheDir, provider, model = "", false, "", "", ""
	useBrowser, strict, noColor = false, false, false
	checkInput, checkFormat, checkOut = inputFlags{}, "text", ""
	reportInput, reportOut, reportMaxTokens, reportStripFence = inputFlags{}, "", 0, false
	frameworksJSON = false
	servePort = 8080
}

// execute runs the root command in-process with a temporary cache and no color.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Setenv("ANUPALANKARTA_CONFIG", "")

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--cache-dir", t.TempDir(), "--no-color"}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
