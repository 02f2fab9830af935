package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxAddsFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}) })

	Tx("s-1", "0xabc", "deposit %s", "confirmed")

	out := buf.String()
	assert.Contains(t, out, "deposit confirmed")
	// field names may be colorized, check names and values apart
	assert.Contains(t, out, "session=")
	assert.Contains(t, out, "s-1")
	assert.Contains(t, out, "tx=")
	assert.Contains(t, out, "0xabc")
}

func TestInitFileOnly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, InitFileOnly(dir))
	t.Cleanup(Close)

	Info("hello %d", 42)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(content), "hello 42")
}
