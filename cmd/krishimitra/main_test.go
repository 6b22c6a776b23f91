package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()

	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range []string{"serve", "ask", "mcp"} {
		assert.True(t, names[name], "missing %s", name)
	}
}

func TestAskRequiresQuestionAndPincode(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"ask", "--question", "Best wheat season?"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--pincode")
}

func TestPrintAnswerRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printAnswer(&buf, "# Wheat\nSow in **November**.", true))
	assert.Equal(t, "# Wheat\nSow in **November**.\n", buf.String())
}

func TestPrintAnswerFormatted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printAnswer(&buf, "# Wheat\nSow in **November**.", false))
	assert.Contains(t, buf.String(), "Wheat")
	assert.Contains(t, buf.String(), "November")
}
