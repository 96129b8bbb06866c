// Package assemble resolves a whole catalogue against the reference.
package assemble

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/yourorg/botapigen/internal/extract"
	"github.com/yourorg/botapigen/pkg/types"
)

// Source extracts one named section.
type Source interface {
	Section(name string) (types.Output, []types.Diagnostic, error)
}

type job struct {
	name     string
	declared bool
}

type result struct {
	output      types.Output
	diagnostics []types.Diagnostic
}

// Assemble extracts every type and method in the catalogue that has no explicit
// declaration, with at most concurrency extractions in flight. Failures stay
// with their entity and show up in Schema.Diagnostics. Results keep catalogue order.
func Assemble(src Source, cat types.Catalogue, concurrency int) types.Schema {
	jobs := append(
		lo.Map(cat.Types, func(t types.TypeSpec, _ int) job { return job{name: t.Name, declared: t.Declaration != nil} }),
		lo.Map(cat.Methods, func(m types.MethodSpec, _ int) job { return job{name: m.Name, declared: m.Declaration != nil} })...,
	)

	results := Ordered(jobs, concurrency, func(j job) result {
		return resolve(src, j)
	})

	schema := types.Schema{
		Types:   make([]types.ResolvedType, len(cat.Types)),
		Methods: make([]types.ResolvedMethod, len(cat.Methods)),
	}
	for i, spec := range cat.Types {
		schema.Types[i] = types.ResolvedType{Spec: spec, Output: results[i].output}
	}
	for i, spec := range cat.Methods {
		schema.Methods[i] = types.ResolvedMethod{Spec: spec, Output: results[len(cat.Types)+i].output}
	}
	for _, r := range results {
		schema.Diagnostics = append(schema.Diagnostics, r.diagnostics...)
	}
	return schema
}

func resolve(src Source, j job) (res result) {
	if j.declared {
		return result{}
	}
	defer func() {
		if r := recover(); r != nil {
			res = result{diagnostics: []types.Diagnostic{{
				Kind:    types.ExtractionFailure,
				Entity:  j.name,
				Message: fmt.Sprintf("extraction panicked: %v", r),
			}}}
		}
	}()

	out, diags, err := src.Section(j.name)
	switch {
	case errors.Is(err, extract.ErrSectionNotFound):
		return result{diagnostics: append(diags, types.Diagnostic{Kind: types.MissingSection, Entity: j.name, Message: err.Error()})}
	case err != nil:
		return result{diagnostics: append(diags, types.Diagnostic{Kind: types.ExtractionFailure, Entity: j.name, Message: err.Error()})}
	}
	return result{output: out, diagnostics: diags}
}
