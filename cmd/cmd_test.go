package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestCommitmentCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("combustion:\n  - capacity_kw: 100\n  - capacity_kw: 50\nlogging:\n  backend: none\n"), 0o600))

	out := execute(t, "commitment", "-c", path)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "capacity_kw,units,gen_0,gen_1", lines[0])
	assert.Equal(t, "150,2,1,1", lines[4])
}

func TestPluginsLsCommand(t *testing.T) {
	out := execute(t, "plugins", "ls")
	assert.Contains(t, out, "h2, liion")
	assert.Contains(t, out, "jsonl, rotating, sqlite")
	assert.Contains(t, out, "prometheus")
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	yaml := "load:\n  constant_kw: 40\n  points: 6\ncombustion:\n  - capacity_kw: 100\nlogging:\n  backend: none\noutput:\n  dir: " + filepath.Join(dir, "out") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	out := execute(t, "-c", path)
	assert.Contains(t, out, "6 steps")
	assert.Contains(t, execute(t, "run", "-c", path), "6 steps")
	assert.Contains(t, out, "missed load 0.0 kWh")
	assert.FileExists(t, filepath.Join(dir, "out", "summary.json"))
}
