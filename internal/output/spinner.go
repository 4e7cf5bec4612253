package output

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/huh/spinner"
)

// Spin runs action while a spinner titled title is shown on stderr. A
// positive timeout bounds the context passed to action. Without a terminal
// the title is logged once and action runs directly.
func Spin(ctx context.Context, title string, timeout time.Duration, action func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if !IsStderrTTY() {
		Debug(title)
		return action(ctx)
	}

	done := make(chan error, 1)
	go func() { done <- action(ctx) }()

	var actionErr error
	if err := spinner.New().
		Title(title).
		Action(func() { actionErr = <-done }).
		Run(); err != nil {
		return fmt.Errorf("spinner: %w", err)
	}
	return actionErr
}
