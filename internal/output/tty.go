package output

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether stdout is attached to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStderrTTY reports whether stderr is attached to a terminal.
func IsStderrTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// IsInteractive reports whether stdin is attached to a terminal, i.e. prompts can be answered.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
