// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/KDE/krita-sub040/bundle"
	"github.com/KDE/krita-sub040/meta"
)

const (
	// MaxFilterLength is the maximum allowed length of a filter expression.
	MaxFilterLength = 4096

	// FilterCostLimit is the runtime cost limit for evaluating a filter
	// against one bundle.
	FilterCostLimit = 100000
)

// filterEnv declares the single "bundle" variable filters are evaluated against.
var filterEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("bundle", cel.MapType(cel.StringType, cel.DynType)),
	)
})

// Filter is a compiled bundle filter expression.
//
// The expression sees a map named "bundle" with the keys name, author,
// license, description, website, created and updated (strings), tags,
// categories and files (lists of strings) and installed and valid (bools):
//
//	"ink" in bundle.tags && !bundle.installed
type Filter struct {
	source  string
	program cel.Program
}

// CompileFilter parses and type checks expr.
// Syntax errors yield a *FilterError of kind ErrKindParse, type errors one of kind ErrKindCheck.
func CompileFilter(expr string) (*Filter, error) {
	if len(expr) > MaxFilterLength {
		return nil, fmt.Errorf("%w: expression length %d exceeds maximum of %d",
			ErrFilterCheck, len(expr), MaxFilterLength)
	}

	env, err := filterEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to get CEL environment: %w", err)
	}

	parsed, issues := env.Parse(expr)
	if issues.Err() != nil {
		return nil, newFilterError(ErrKindParse, expr, issues)
	}
	checked, issues := env.Check(parsed)
	if issues.Err() != nil {
		return nil, newFilterError(ErrKindCheck, expr, issues)
	}
	if out := checked.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q yields %s, not bool", ErrFilterCheck, expr, out)
	}

	program, err := env.Program(checked, cel.CostLimit(FilterCostLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program for %q: %w", expr, err)
	}
	return &Filter{source: expr, program: program}, nil
}

// Source returns the expression text.
func (f *Filter) Source() string {
	return f.source
}

// Match evaluates the filter against b.
func (f *Filter) Match(b *bundle.Bundle) (bool, error) {
	out, _, err := f.program.Eval(map[string]any{"bundle": filterVars(b)})
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrFilterEval, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected bool, got %T", ErrFilterResult, out.Value())
	}
	return matched, nil
}

func filterVars(b *bundle.Bundle) map[string]any {
	md := b.Metadata()
	man := b.Manifest()

	categories := make([]string, 0)
	for _, c := range man.Categories() {
		categories = append(categories, c.String())
	}
	tags := md.Tags()
	if tags == nil {
		tags = []string{}
	}

	return map[string]any{
		"name":        md.Get(meta.FieldName),
		"author":      md.Get(meta.FieldAuthor),
		"license":     md.Get(meta.FieldLicense),
		"description": md.Get(meta.FieldDescription),
		"website":     md.Get(meta.FieldWebsite),
		"created":     md.Get(meta.FieldCreated),
		"updated":     md.Get(meta.FieldUpdated),
		"tags":        tags,
		"categories":  categories,
		"files":       append([]string{}, man.FileList()...),
		"installed":   b.Installed(),
		"valid":       b.Valid(),
	}
}
