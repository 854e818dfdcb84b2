// Package rules holds the compliance rule table and evaluates it against document text.
//
// The table is immutable once loaded. Evaluation is a pure function of the text and the table:
// every item of every framework is tested, so each framework always yields exactly as many
// results as it has items, in table order.
package rules

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/jonathan/anupalankarta/internal/schemas"
	"github.com/jonathan/anupalankarta/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultTableYAML []byte

// Table is a compiled rule table: framework name to an ordered list of check items.
type Table struct {
	frameworks []framework
}

type framework struct {
	name     string
	items    []types.CheckItem
	patterns []*regexp.Regexp
}

type tableDocument struct {
	Frameworks []struct {
		Name  string            `yaml:"name"`
		Items []types.CheckItem `yaml:"items"`
	} `yaml:"frameworks"`
}

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return Load(defaultTableYAML)
})

// Default returns the built-in rule table. It panics if the embedded table is invalid,
// which can only happen if the embedded document was edited incorrectly.
func Default() *Table {
	table, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("failed to load built-in rule table: %v", err))
	}
	return table
}

// Load parses, validates and compiles a YAML rule table document.
func Load(data []byte) (*Table, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &TableError{Message: "failed to parse YAML", Cause: err}
	}
	if err := schemas.ValidateDocument(schemas.RuleTableSchema, raw); err != nil {
		return nil, &TableError{Message: "document does not match schema", Cause: err}
	}

	var doc tableDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &TableError{Message: "failed to decode table", Cause: err}
	}

	table := &Table{frameworks: make([]framework, 0, len(doc.Frameworks))}
	seen := make(map[string]bool, len(doc.Frameworks))
	for _, fw := range doc.Frameworks {
		if seen[fw.Name] {
			return nil, &TableError{Message: fmt.Sprintf("duplicate framework %q", fw.Name)}
		}
		seen[fw.Name] = true

		compiled := framework{
			name:     fw.Name,
			items:    make([]types.CheckItem, len(fw.Items)),
			patterns: make([]*regexp.Regexp, len(fw.Items)),
		}
		copy(compiled.items, fw.Items)
		for i, item := range fw.Items {
			re, err := regexp.Compile("(?i)" + item.Pattern)
			if err != nil {
				return nil, &TableError{
					Message: fmt.Sprintf("invalid pattern for %s / %q", fw.Name, item.Label),
					Cause:   err,
				}
			}
			compiled.patterns[i] = re
		}
		table.frameworks = append(table.frameworks, compiled)
	}

	return table, nil
}

// Frameworks returns the framework names in table order.
func (t *Table) Frameworks() []string {
	names := make([]string, len(t.frameworks))
	for i, fw := range t.frameworks {
		names[i] = fw.name
	}
	return names
}

// Items returns a copy of the check items for a framework, or nil if it is not defined.
func (t *Table) Items(name string) []types.CheckItem {
	for _, fw := range t.frameworks {
		if fw.name == name {
			items := make([]types.CheckItem, len(fw.items))
			copy(items, fw.items)
			return items
		}
	}
	return nil
}

// Select resolves a framework selection against the table.
// An empty selection means all frameworks in table order; duplicates are dropped.
func (t *Table) Select(names []string) ([]string, error) {
	if len(names) == 0 {
		return t.Frameworks(), nil
	}

	selected := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if t.Items(name) == nil {
			return nil, &UnknownFrameworkError{Name: name}
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, name)
	}
	return selected, nil
}

// Evaluate tests every item of every framework against text.
// An item passes when its pattern matches anywhere in the text, ignoring case.
func (t *Table) Evaluate(text string) types.FrameworkResults {
	text = foldSpace(text)
	results := types.FrameworkResults{Frameworks: make([]types.FrameworkResult, len(t.frameworks))}
	for i, fw := range t.frameworks {
		checks := make([]types.CheckResult, len(fw.items))
		for j, item := range fw.items {
			checks[j] = types.CheckResult{
				Label:  item.Label,
				Passed: fw.patterns[j].MatchString(text),
			}
		}
		results.Frameworks[i] = types.FrameworkResult{Framework: fw.name, Results: checks}
	}
	return results
}

// foldSpace maps whitespace that \s does not match in RE2, such as U+00A0 and \v, to an
// ASCII space so patterns written with \s accept it too.
func foldSpace(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\v' || (r >= 0x1c && r <= 0x1f) || (r > unicode.MaxASCII && unicode.IsSpace(r)) {
			return ' '
		}
		return r
	}, text)
}
