package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayStore(t *testing.T) {
	store, err := NewReplayStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.Load("builtin:python")
	require.NoError(t, err)
	assert.False(t, ok)

	answers := map[string]string{"project_slug": "acme", "version": "0.1.0", "dockerfile": "y"}
	require.NoError(t, store.Save("builtin:python", answers))

	got, ok, err := store.Load("builtin:python")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, answers, got)
}

func TestReplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"builtin:python", "builtin-python"},
		{"./templates/web", "templates-web"},
		{"", "template"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, replayName(tt.in))
		})
	}
}
