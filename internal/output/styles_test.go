package output

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestStatusStyle(t *testing.T) {
	tests := []struct {
		status string
	}{
		{StatusPass},
		{StatusFail},
		{StatusIncomplete},
		{"unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			rendered := StatusStyle(tt.status).Render(tt.status)
			assert.Equal(t, tt.status, stripAnsi(rendered))
		})
	}
}

func TestFormatCheckmark(t *testing.T) {
	assert.Equal(t, "✔ done", stripAnsi(FormatCheckmark("done")))
	assert.Equal(t, "✘ failed", stripAnsi(FormatCross("failed")))
}
