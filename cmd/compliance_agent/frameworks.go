package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/anupalankarta/internal/rules"
	"github.com/jonathan/anupalankarta/internal/types"
	"github.com/spf13/cobra"
)

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "List the frameworks and checks in the rule table",
	RunE:  runFrameworks,
}

var frameworksJSON bool

func init() {
	frameworksCmd.Flags().BoolVar(&frameworksJSON, "json", false, "Print the rule table as JSON")
	rootCmd.AddCommand(frameworksCmd)
}

func runFrameworks(cmd *cobra.Command, _ []string) error {
	table := rules.Default()
	out := cmd.OutOrStdout()

	if frameworksJSON {
		type framework struct {
			Name  string            `json:"name"`
			Items []types.CheckItem `json:"items"`
		}
		list := make([]framework, 0, len(table.Frameworks()))
		for _, name := range table.Frameworks() {
			list = append(list, framework{Name: name, Items: table.Items(name)})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	for _, name := range table.Frameworks() {
		fmt.Fprintln(out, name)
		for _, item := range table.Items(name) {
			fmt.Fprintf(out, "  - %s  (%s)\n", item.Label, item.Pattern)
		}
	}
	return nil
}
