// Package generator runs the whole pipeline: parse the reference, resolve the
// catalogue against it, render, and optionally record the run.
package generator

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/yourorg/botapigen/internal/assemble"
	"github.com/yourorg/botapigen/internal/document"
	"github.com/yourorg/botapigen/internal/extract"
	"github.com/yourorg/botapigen/internal/markup"
	"github.com/yourorg/botapigen/internal/render"
	"github.com/yourorg/botapigen/internal/store"
	"github.com/yourorg/botapigen/pkg/types"
)

// ProgressFunc reports generation progress.
type ProgressFunc func(stage string)

type Options struct {
	BaseURL     string
	Concurrency int
	Format      string
	ClassName   string
	Title       string
}

// Result is the resolved schema and its rendering.
type Result struct {
	Schema types.Schema
	Output []byte
}

// Generate resolves cat against the reference HTML and renders it. Extraction
// problems end up in Result.Schema.Diagnostics; only document, link base and
// rendering failures are returned as errors.
func Generate(html string, cat types.Catalogue, opts Options, onProgress ProgressFunc) (*Result, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = markup.DefaultBaseURL
	}
	if opts.Format == "" {
		opts.Format = render.FormatTypeScript
	}

	report(onProgress, "parsing document")
	doc, err := document.ParseString(html)
	if err != nil {
		return nil, err
	}
	text, err := markup.New(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	report(onProgress, fmt.Sprintf("extracting %d types and %d methods", len(cat.Types), len(cat.Methods)))
	schema := assemble.Assemble(extract.New(doc, text), cat, opts.Concurrency)

	report(onProgress, "rendering "+opts.Format)
	out, err := render.Render(schema, opts.Format, render.Options{ClassName: opts.ClassName, Title: opts.Title})
	if err != nil {
		return nil, err
	}
	return &Result{Schema: schema, Output: out}, nil
}

// Record stores the outcome of a generation against a stored snapshot.
func Record(st store.Store, snapshotID, catalogue, format string, res *Result) (*types.Run, error) {
	if st == nil {
		return nil, errors.New("store is nil")
	}
	if res == nil {
		return nil, errors.New("result is nil")
	}
	run := &types.Run{
		SnapshotID:  snapshotID,
		Catalogue:   catalogue,
		Format:      format,
		TypeCount:   len(res.Schema.Types),
		MethodCount: len(res.Schema.Methods),
	}
	if err := st.SaveRun(run, res.Schema.Diagnostics); err != nil {
		return nil, errors.Wrap(err, "record run")
	}
	return run, nil
}

func report(fn ProgressFunc, msg string) {
	if fn != nil {
		fn(msg)
	}
}
