package graph

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

// TableEnv is the environment a filter expression is evaluated against.
// For example: Owner == "OE" && Name startsWith "PRODUCT_REF"
type TableEnv struct {
	Owner   string
	Name    string
	Columns int
}

// Filter excludes tables matching a boolean expression
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles an exclusion expression. An empty source yields a
// filter that excludes nothing.
func CompileFilter(source string) (*Filter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return &Filter{}, nil
	}

	program, err := expr.Compile(source, expr.Env(TableEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid exclude expression %q: %w", source, err)
	}
	return &Filter{source: source, program: program}, nil
}

// String returns the expression source
func (f *Filter) String() string {
	return f.source
}

// Matches reports whether t satisfies the expression
func (f *Filter) Matches(t *catalog.Table) (bool, error) {
	if f == nil || f.program == nil {
		return false, nil
	}

	out, err := expr.Run(f.program, TableEnv{
		Owner:   t.Owner,
		Name:    t.Name,
		Columns: len(t.Columns),
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate %q on %s: %w", f.source, t.Ref(), err)
	}

	matched, _ := out.(bool)
	return matched, nil
}

// Exclude returns the tables that do not match, preserving order
func (f *Filter) Exclude(tables []*catalog.Table) ([]*catalog.Table, error) {
	if f == nil || f.program == nil {
		return tables, nil
	}

	kept := make([]*catalog.Table, 0, len(tables))
	for _, t := range tables {
		matched, err := f.Matches(t)
		if err != nil {
			return nil, err
		}
		if !matched {
			kept = append(kept, t)
		}
	}
	return kept, nil
}
