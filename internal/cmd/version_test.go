package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewVersionCmd(t *testing.T) {
	cmd := NewVersionCmd(nil)

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.Flags().Lookup("output"))
}

func TestVersionCmd_Execute(t *testing.T) {
	for _, args := range [][]string{{}, {"-o", "json"}} {
		cmd := NewVersionCmd(nil)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)

		// output.Println writes to stdout, not cmd.SetOut().
		assert.NoError(t, cmd.Execute())
	}

	cmd := NewVersionCmd(nil)
	cmd.SetArgs([]string{"-o", "xml"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Equal(t, 1, exitCode(t, cmd.Execute()))
}
