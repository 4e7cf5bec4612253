// Package cmdutil provides shared command utilities for stamp subcommands.
// It centralizes flag group management, answer loading, template opening
// and error reporting.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/output"
)

// AnswerFlags holds flags common to commands that take answers
// (generate, sweep, rules check).
type AnswerFlags struct {
	Set         []string
	AnswersFile string
}

// AddTo registers the answer flags on the given cobra command.
func (f *AnswerFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.Set, "set", nil,
		"Answer as key=value (can be repeated)")
	cmd.Flags().StringVar(&f.AnswersFile, "answers", "",
		"YAML or JSON file of answers")
}

// Answers loads the answers file, if any, then applies --set values on top.
func (f *AnswerFlags) Answers() (map[string]string, error) {
	answers := map[string]string{}
	if f.AnswersFile != "" {
		fromFile, err := LoadAnswersFile(f.AnswersFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			answers[k] = v
		}
	}
	set, err := ParseSet(f.Set)
	if err != nil {
		return nil, err
	}
	for k, v := range set {
		answers[k] = v
	}
	return answers, nil
}

// OutputFlags holds the structured output format flag.
type OutputFlags struct {
	Format string
}

// AddTo registers the output flag on the given cobra command.
func (f *OutputFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Format, "output", "o", "table",
		"Output format: table, json, yaml")
}

// Parse validates the output format.
func (f *OutputFlags) Parse() (output.Format, error) {
	format, err := output.ParseFormat(f.Format)
	if err != nil {
		return "", Usage(err)
	}
	return format, nil
}
