// Package column models table column specifications and loads them from
// YAML or JSON columns files, preserving declaration order.
package column

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	yaml "github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
)

// ErrColumns is the sentinel error for all columns-file failures.
// It allows error wrapping and consistent error checks using errors.Is().
var ErrColumns = errors.New("columns error")

// PatternPath is an ordered sequence of regular expressions, one per
// mapping nesting level. A single string in the columns file is
// treated as a one-element path.
type PatternPath []string

// UnmarshalYAML accepts both scalar and sequence forms:
//
//	pattern_path: "^title$"
//
// or:
//
//	pattern_path: ["^extras$", "^key$"]
func (p *PatternPath) UnmarshalYAML(node ast.Node) error {
	switch n := node.(type) {
	case *ast.StringNode:
		*p = PatternPath{n.Value}
		return nil
	case *ast.SequenceNode:
		out := make(PatternPath, 0, len(n.Values))
		for index, item := range n.Values {
			strNode, ok := item.(*ast.StringNode)
			if !ok {
				return fmt.Errorf("%w: pattern at index %d must be a string", ErrColumns, index)
			}
			out = append(out, strNode.Value)
		}
		*p = out
		return nil
	default:
		return fmt.Errorf("%w: pattern path must be a string or sequence of strings", ErrColumns)
	}
}

// Spec describes how to derive one table column from a record.
type Spec struct {
	PatternPath           PatternPath `yaml:"pattern_path"`
	Pattern               PatternPath `yaml:"pattern"`  // legacy alias, normalized away by Load
	JSONPath              string      `yaml:"jsonpath"` // standards-based selector alternative
	MaxLength             int         `yaml:"max_length"`
	Strip                 bool        `yaml:"strip"`
	CaseSensitive         bool        `yaml:"case_sensitive"`
	Unique                bool        `yaml:"unique"`
	Deduplicate           bool        `yaml:"deduplicate"`
	StringTransformations []string    `yaml:"string_transformations"`
	Hyperlink             bool        `yaml:"hyperlink"`
	ReturnMultipleColumns bool        `yaml:"return_multiple_columns"`
}

// Column pairs a declared column name with its specification.
type Column struct {
	Name string
	Spec Spec
}

// Columns is an ordered collection of column specifications.
type Columns []Column

// Load parses a columns document, preserving declaration order.
// The source identifier is included in error messages.
func Load(r io.Reader, source string) (Columns, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrColumns, source, err)
	}

	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrColumns, source, err)
	}

	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return nil, fmt.Errorf("%w: %s contains no columns", ErrColumns, source)
	}

	mapping, ok := file.Docs[0].Body.(*ast.MappingNode)
	if !ok {
		return nil, fmt.Errorf("%w: %s must contain a mapping of column names to specifications", ErrColumns, source)
	}

	columns := make(Columns, 0, len(mapping.Values))
	for _, pair := range mapping.Values {
		keyNode, ok := pair.Key.(*ast.StringNode)
		if !ok {
			return nil, fmt.Errorf("%w: %s: column name must be a string", ErrColumns, source)
		}

		// Legacy top-level options block, recognized but unsupported.
		if keyNode.Value == "__options" {
			continue
		}

		var spec Spec
		if err := yaml.NodeToValue(pair.Value, &spec, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %s: column %q: %v", ErrColumns, source, keyNode.Value, err)
		}

		if err := spec.normalize(); err != nil {
			return nil, fmt.Errorf("%w: %s: column %q: %v", ErrColumns, source, keyNode.Value, err)
		}

		columns = append(columns, Column{Name: keyNode.Value, Spec: spec})
	}

	return columns, nil
}

// normalize folds the legacy pattern alias into PatternPath and
// validates the specification.
func (s *Spec) normalize() error {
	if len(s.Pattern) > 0 {
		if len(s.PatternPath) > 0 {
			return errors.New(`must have either a "pattern" or a "pattern_path" but not both`)
		}
		s.PatternPath = s.Pattern
		s.Pattern = nil
	}

	if s.JSONPath != "" && len(s.PatternPath) > 0 {
		return errors.New(`"jsonpath" cannot be combined with a pattern path`)
	}
	if s.JSONPath == "" && len(s.PatternPath) == 0 {
		return errors.New(`missing "pattern_path" or "jsonpath"`)
	}

	if s.MaxLength < 0 {
		return fmt.Errorf("max_length must not be negative, got %d", s.MaxLength)
	}

	for _, name := range s.StringTransformations {
		if _, ok := Transformation(name); !ok {
			return fmt.Errorf("unknown string transformation %q", name)
		}
	}

	return nil
}

// transformations holds the named string transformations a column may
// request via string_transformations.
var transformations = map[string]func(string) string{
	"upper":      strings.ToUpper,
	"lower":      strings.ToLower,
	"capitalize": capitalize,
}

// Transformation returns the named string transformation.
func Transformation(name string) (func(string) string, bool) {
	fn, ok := transformations[name]
	return fn, ok
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
