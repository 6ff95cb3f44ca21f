package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommandPrintsDDL(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"schema"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "CREATE TABLE IF NOT EXISTS sessions")
	assert.Contains(t, out.String(), "reports")
	assert.True(t, strings.HasSuffix(out.String(), ";\n"))
	assert.False(t, strings.HasSuffix(out.String(), "\n\n"), "schema output ends with a single newline")
}

func TestSchemaCommandRejectsArgs(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"schema", "extra"})

	assert.Error(t, root.Execute())
}
