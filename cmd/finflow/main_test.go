package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"run", "--this-is-not-a-valid-flag"}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	code := run(context.Background(), out, errOut, args)

	// --- Assert ---
	require.Equal(t, 2, code, "unknown flags are usage errors")
	require.Contains(t, errOut.String(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A flow file with a syntax error fails while the app is being built.
	path := filepath.Join(t.TempDir(), "flow.hcl")
	require.NoError(t, os.WriteFile(path, []byte("stage \"bank_sync\" {\n  command = [\n"), 0o600))
	errOut := &bytes.Buffer{}

	// --- Act ---
	code := run(context.Background(), &bytes.Buffer{}, errOut, []string{"validate", "--config", path})

	// --- Assert ---
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "failed to parse HCL file")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	code := run(context.Background(), out, &bytes.Buffer{}, []string{"--help"})

	// --- Assert ---
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "Usage:")
	require.Contains(t, out.String(), "plan")
}
