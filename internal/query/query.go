// Package query matches pattern paths against nested records.
//
// A pattern path is an ordered sequence of regular expressions applied
// one per mapping nesting level: each mapping consumes the next pattern
// and descends into every value whose key matches it; sequences are
// transparent to path depth and fan the remaining path out over their
// elements; strings and other scalars terminate the descent.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/theory/jsonpath"

	"github.com/jacoelho/rex/internal/column"
	"github.com/jacoelho/rex/internal/record"
)

// Common sentinel errors for match operations.
// These errors support error wrapping and can be checked using errors.Is().
var (
	// ErrPathExhausted indicates the pattern path ran out of patterns
	// while the descent was still inside a mapping. The path is shorter
	// than the record's matched nesting, which is a columns-file mistake.
	ErrPathExhausted = errors.New("pattern path exhausted")

	// ErrPattern indicates a pattern in the path failed to compile.
	ErrPattern = errors.New("invalid pattern")

	// ErrJSONPath indicates a jsonpath selector failed to parse.
	ErrJSONPath = errors.New("invalid jsonpath")

	// ErrUnique indicates a column configured as unique matched more
	// than one value. Use errors.Is(err, ErrUnique) to detect it; the
	// concrete *UniqueError carries diagnostics.
	ErrUnique = errors.New("unique constraint violated")
)

// UniqueError reports a unique column that matched multiple values.
// It carries the pattern path and the offending record for diagnosis.
type UniqueError struct {
	PatternPath []string
	Record      any
}

func (e *UniqueError) Error() string {
	return fmt.Sprintf("%v: pattern_path: %v\n\n%s", ErrUnique, e.PatternPath, spew.Sdump(e.Record))
}

func (e *UniqueError) Unwrap() error { return ErrUnique }

// Match queries one record with one column specification.
//
// The result is nil when nothing matched, a bare value for a single
// match, a list for multiple matches, or, for return_multiple_columns
// specifications, an ordered mapping from flattened compound key to
// value.
func Match(spec column.Spec, rec any) (any, error) {
	m := &matcher{
		spec:       spec,
		transforms: buildTransforms(spec),
		compiled:   make(map[string]*regexp.Regexp),
	}

	if spec.JSONPath != "" {
		return m.selectJSONPath(rec)
	}

	// The spec's path is caller-owned; work on a copy.
	path := slices.Clone([]string(spec.PatternPath))

	res, err := m.node(path, rec)
	if err != nil {
		return nil, err
	}

	if res.mapping != nil {
		flat := flatten(res.mapping)
		if flat.Len() == 0 {
			return nil, nil
		}
		return flat, nil
	}

	return m.normalize(res.list, rec)
}

// normalize applies the top-level cardinality rules to a flat result list.
func (m *matcher) normalize(list []any, rec any) (any, error) {
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return list[0], nil
	}

	if m.spec.Unique {
		return nil, &UniqueError{PatternPath: m.spec.PatternPath, Record: rec}
	}
	if m.spec.Deduplicate {
		list = deduplicate(list)
	}
	return list, nil
}

type matcher struct {
	spec       column.Spec
	transforms []func(string) string
	compiled   map[string]*regexp.Regexp
}

// result is the outcome of matching one node: a flat value list, or,
// under return_multiple_columns, an ordered key-to-result mapping.
type result struct {
	list    []any
	mapping *record.Map
}

func (m *matcher) node(path []string, value any) (result, error) {
	switch v := value.(type) {
	case *record.Map:
		return m.mappingNode(path, v)
	case []any:
		return m.sequenceNode(path, v)
	case string:
		return result{list: []any{m.transform(v)}}, nil
	default:
		// Non-string scalars pass through untouched. Any patterns left
		// in the path are simply ignored at a leaf.
		return result{list: []any{v}}, nil
	}
}

// sequenceNode applies the still-unconsumed path to every element and
// concatenates the results in element order. Sequences never consume
// path depth.
func (m *matcher) sequenceNode(path []string, items []any) (result, error) {
	var out result
	for _, item := range items {
		r, err := m.node(path, item)
		if err != nil {
			return result{}, err
		}
		if r.mapping != nil {
			// Mappings inside a sequence merge key-wise in element
			// order, later elements overwriting earlier ones.
			if out.mapping == nil {
				out.mapping = record.NewMap()
			}
			for _, key := range r.mapping.Keys() {
				value, _ := r.mapping.Get(key)
				out.mapping.Set(key, value)
			}
			continue
		}
		out.list = append(out.list, r.list...)
	}
	return out, nil
}

// mappingNode consumes one pattern and descends into every value whose
// key matches it, in the mapping's insertion order.
func (m *matcher) mappingNode(path []string, node *record.Map) (result, error) {
	if len(path) == 0 {
		return result{}, fmt.Errorf("%w: pattern_path %v is shorter than the record's matched nesting", ErrPathExhausted, m.spec.PatternPath)
	}

	re, err := m.compile(path[0])
	if err != nil {
		return result{}, err
	}
	rest := path[1:]

	if m.spec.ReturnMultipleColumns {
		out := record.NewMap()
		for _, key := range node.Keys() {
			if !re.MatchString(key) {
				continue
			}
			value, _ := node.Get(key)
			r, err := m.node(rest, value)
			if err != nil {
				return result{}, err
			}
			if r.mapping != nil {
				out.Set(key, r.mapping)
			} else {
				out.Set(key, r.list)
			}
		}
		return result{mapping: out}, nil
	}

	var out result
	for _, key := range node.Keys() {
		if !re.MatchString(key) {
			continue
		}
		value, _ := node.Get(key)
		r, err := m.node(rest, value)
		if err != nil {
			return result{}, err
		}
		out.list = append(out.list, r.list...)
	}
	return out, nil
}

// compile compiles a pattern for unanchored search, case-insensitive
// unless the column says otherwise. Compiled patterns are cached for
// the duration of one match.
func (m *matcher) compile(pattern string) (*regexp.Regexp, error) {
	expr := pattern
	if !m.spec.CaseSensitive {
		expr = "(?i)" + pattern
	}

	if re, ok := m.compiled[expr]; ok {
		return re, nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrPattern, pattern, err)
	}
	m.compiled[expr] = re
	return re, nil
}

// selectJSONPath queries the record with the column's jsonpath selector
// instead of a pattern path. Results go through the same string
// transformations and cardinality rules.
func (m *matcher) selectJSONPath(rec any) (any, error) {
	path, err := jsonpath.Parse(m.spec.JSONPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrJSONPath, m.spec.JSONPath, err)
	}

	selected := path.Select(record.Plain(rec))

	list := make([]any, 0, len(selected))
	for _, value := range selected {
		if s, ok := value.(string); ok {
			value = m.transform(s)
		}
		list = append(list, value)
	}

	return m.normalize(list, rec)
}

// transform runs a string leaf through the column's pipeline: strip,
// then named transformations, then truncation, then hyperlink wrapping.
func (m *matcher) transform(s string) string {
	if m.spec.Strip {
		s = strings.TrimSpace(s)
	}
	for _, fn := range m.transforms {
		s = fn(s)
	}
	return s
}

func buildTransforms(spec column.Spec) []func(string) string {
	var transforms []func(string) string

	for _, name := range spec.StringTransformations {
		if fn, ok := column.Transformation(name); ok {
			transforms = append(transforms, fn)
		}
	}

	if spec.MaxLength > 0 {
		maxLength := spec.MaxLength
		transforms = append(transforms, func(s string) string {
			return truncate(s, maxLength)
		})
	}

	if spec.Hyperlink {
		transforms = append(transforms, func(s string) string {
			return fmt.Sprintf(`=HYPERLINK("%s")`, s)
		})
	}

	return transforms
}

// truncate cuts a string to at most n characters, not bytes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// flatten joins nested mapping keys into compound underscore-separated
// keys, producing one flat ordered mapping. It is a no-op on mappings
// that are already flat.
func flatten(m *record.Map) *record.Map {
	out := record.NewMap()
	flattenInto(out, "", m)
	return out
}

func flattenInto(out *record.Map, prefix string, m *record.Map) {
	for _, key := range m.Keys() {
		compound := key
		if prefix != "" {
			compound = prefix + "_" + key
		}
		value, _ := m.Get(key)
		if nested, ok := value.(*record.Map); ok {
			flattenInto(out, compound, nested)
			continue
		}
		out.Set(compound, value)
	}
}

// deduplicate collapses a list to its unique values, keeping first
// occurrences in order. Result elements are always scalars, so direct
// comparison is safe.
func deduplicate(list []any) []any {
	out := make([]any, 0, len(list))
	for _, item := range list {
		if !slices.Contains(out, item) {
			out = append(out, item)
		}
	}
	return out
}
