package cmdutil

import (
	"errors"
	"fmt"

	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/output"
	"github.com/opmodel/stamp/internal/pipeline"
	"github.com/opmodel/stamp/internal/templates"
)

// PrintError prints err in a user-friendly format: a summary log line with
// its kind and stage, followed by the structured detail block when err
// carries one.
func PrintError(msg string, err error) {
	keyvals := []any{"kind", oerrors.Kind(err)}
	if stage := pipeline.StageOf(err); stage != "" {
		keyvals = append(keyvals, "stage", stage)
	}

	var detail *oerrors.DetailError
	if !errors.As(err, &detail) {
		output.Error(msg, append(keyvals, "error", err)...)
		return
	}
	output.Error(fmt.Sprintf("%s: %s", msg, detail.Message), keyvals...)
	output.Details(detail.Error())
}

// Fail prints err and returns it wrapped in an ExitError carrying the exit
// code of its kind, marked as already printed.
func Fail(msg string, err error) error {
	var exitErr *oerrors.ExitError
	if errors.As(err, &exitErr) && exitErr.Printed {
		return err
	}
	PrintError(msg, err)
	return &oerrors.ExitError{
		Code:    oerrors.ExitCodeFromError(err),
		Err:     err,
		Printed: true,
	}
}

// Usage wraps a flag or argument error as a general failure.
func Usage(err error) error {
	return &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
}

// OpenTemplate opens a template reference and logs what was loaded.
func OpenTemplate(ref string) (*templates.Template, error) {
	tmpl, err := templates.Open(ref)
	if err != nil {
		return nil, Fail("loading template", err)
	}
	files, dirs := tmpl.Root.Count()
	output.TemplateLogger(tmpl.Name).Debug("template loaded",
		"source", tmpl.Source,
		"variables", tmpl.Schema.Len(),
		"rules", len(tmpl.Hooks.Rules),
		"files", files,
		"dirs", dirs,
	)
	return tmpl, nil
}
