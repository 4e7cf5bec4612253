// Package engine wraps text/template with strict variable semantics for
// rendering template paths and file contents.
package engine

import (
	"bytes"
	"regexp"
	"slices"
	"strings"
	"text/template"

	oerrors "github.com/opmodel/stamp/internal/errors"
)

// missingKeyRegex extracts the key from text/template's missingkey=error failure.
var missingKeyRegex = regexp.MustCompile(`map has no entry for key "([^"]+)"`)

// Engine renders template strings against a flat string context.
// An Engine is safe for concurrent use.
type Engine struct {
	funcs template.FuncMap
}

// New returns an engine with the standard function set.
func New() *Engine {
	return &Engine{funcs: Funcs()}
}

// Parse parses text under name with the engine's functions and strict options.
func (e *Engine) Parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(e.funcs).
		Parse(text)
	if err != nil {
		return nil, &oerrors.DetailError{
			Type:     "template error",
			Message:  "template could not be parsed",
			Location: name,
			Cause:    oerrors.ErrValidation,
			Err:      err,
		}
	}
	return tmpl, nil
}

// Render renders text against data. Every variable the template references
// must be present in data; otherwise an UnresolvedVariable error names the
// first missing key and the location name.
func (e *Engine) Render(name, text string, data map[string]string) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := e.Parse(name, text)
	if err != nil {
		return "", err
	}

	for _, ref := range treeReferences(tmpl) {
		if _, ok := data[ref]; !ok {
			return "", oerrors.NewUnresolvedVariableError(ref, name)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		if m := missingKeyRegex.FindStringSubmatch(err.Error()); m != nil {
			return "", oerrors.NewUnresolvedVariableError(m[1], name)
		}
		return "", &oerrors.DetailError{
			Type:     "template error",
			Message:  "template could not be rendered",
			Location: name,
			Cause:    oerrors.ErrValidation,
			Err:      err,
		}
	}
	return buf.String(), nil
}

// References returns the top-level context keys text refers to, sorted and
// de-duplicated.
func (e *Engine) References(text string) ([]string, error) {
	if !strings.Contains(text, "{{") {
		return nil, nil
	}
	tmpl, err := e.Parse("references", text)
	if err != nil {
		return nil, err
	}
	return treeReferences(tmpl), nil
}

// Check parses text and reports the first reference not in keys.
func (e *Engine) Check(name, text string, keys []string) error {
	refs, err := e.References(text)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if !slices.Contains(keys, ref) {
			return oerrors.NewUnresolvedVariableError(ref, name)
		}
	}
	return nil
}
