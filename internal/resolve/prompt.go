package resolve

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/schema"
)

// maxAttempts bounds how often one prompt is asked before giving up.
const maxAttempts = 3

// Prompt describes one question to ask the user.
type Prompt struct {
	Key     string
	Help    string
	Kind    schema.Kind
	Choices []string
	Default string

	// Retry is the error from the previous attempt at the same prompt,
	// or nil on the first attempt.
	Retry error
}

// Prompts returns one prompt per schema entry, in schema order.
func Prompts(s *schema.Schema) []Prompt {
	entries := s.Entries()
	out := make([]Prompt, len(entries))
	for i, e := range entries {
		out[i] = Prompt{
			Key:     e.Key,
			Help:    e.Help,
			Kind:    e.Kind,
			Choices: e.Choices,
			Default: e.Default,
		}
	}
	return out
}

// ParseReply interprets a raw reply: empty selects the default, a number
// selects the 1-based choice, and a literal choice is accepted as is.
func ParseReply(p Prompt, reply string) (string, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return p.Default, nil
	}
	if p.Kind != schema.SingleChoice {
		return reply, nil
	}

	if n, err := strconv.Atoi(reply); err == nil {
		if n >= 1 && n <= len(p.Choices) {
			return p.Choices[n-1], nil
		}
	}
	for _, c := range p.Choices {
		if c == reply {
			return c, nil
		}
	}
	return "", oerrors.NewInvalidChoiceError(p.Key, reply, p.Choices)
}

// Prompter asks a single question.
type Prompter interface {
	Ask(p Prompt) (string, error)
}

// Interview asks for every schema key not already in preset and returns the
// merged answers. An invalid reply is asked again, up to a fixed number of attempts.
func Interview(s *schema.Schema, preset map[string]string, prompter Prompter) (map[string]string, error) {
	answers := MergeAnswers(preset)
	for _, p := range Prompts(s) {
		if _, ok := answers[p.Key]; ok {
			continue
		}

		var lastErr error
		for attempt := 0; attempt < maxAttempts; attempt++ {
			p.Retry = lastErr
			reply, err := prompter.Ask(p)
			if err != nil {
				return nil, fmt.Errorf("prompting for %s: %w", p.Key, err)
			}
			value, err := ParseReply(p, reply)
			if err == nil {
				answers[p.Key] = value
				lastErr = nil
				break
			}
			lastErr = err
		}
		if lastErr != nil {
			return nil, lastErr
		}
	}
	return answers, nil
}

// LinePrompter asks questions on a line-oriented terminal.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter returns a prompter reading replies from in and writing questions to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Ask prints the question, with a numbered menu for choices, and reads one line.
func (lp *LinePrompter) Ask(p Prompt) (string, error) {
	if p.Retry != nil {
		fmt.Fprintf(lp.out, "  %s\n", oerrors.Summary(p.Retry))
	}

	label := p.Key
	if p.Help != "" {
		label = fmt.Sprintf("%s (%s)", p.Key, p.Help)
	}

	if p.Kind == schema.SingleChoice {
		fmt.Fprintf(lp.out, "Select %s:\n", label)
		def := 1
		nums := make([]string, len(p.Choices))
		for i, c := range p.Choices {
			fmt.Fprintf(lp.out, "  %d - %s\n", i+1, c)
			nums[i] = strconv.Itoa(i + 1)
			if c == p.Default {
				def = i + 1
			}
		}
		fmt.Fprintf(lp.out, "  Choose from %s [%d]: ", strings.Join(nums, ", "), def)
	} else {
		fmt.Fprintf(lp.out, "%s [%s]: ", label, p.Default)
	}

	line, err := lp.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		return "", err
	}
	return line, nil
}
