package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/ringlink/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func TestWriteThenValidate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "client.toml")

	run := func(args ...string) error {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		return cmd.Execute()
	}

	require.NoError(t, run("--output", path))
	require.Error(t, run("--output", path), "existing file must not be overwritten")
	require.NoError(t, run("--output", path, "--force"))
	require.NoError(t, run("--validate", "--input", path))

	require.NoError(t, os.WriteFile(path, []byte("bogus = 1\n"), 0o600))
	require.Error(t, run("--validate", "--input", path))
}
