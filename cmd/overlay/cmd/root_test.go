package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkovhub/overlay/pkg/overlays"
)

func writeOverlayDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "tasks.json5"), []byte(`{
  // wrong in the upstream data
  "task-1": { "minPlayerLevel": 5 },
}`), 0o644)
	require.NoError(t, err)
	return dir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := writeOverlayDir(t)
	out, err := runCommand(t, "validate", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 files valid")
}

func TestValidateCommandFails(t *testing.T) {
	dir := writeOverlayDir(t)
	err := os.WriteFile(filepath.Join(dir, "broken.json5"), []byte(`{ not valid`), 0o644)
	require.NoError(t, err)

	out, runErr := runCommand(t, "validate", "--dir", dir)
	require.Error(t, runErr)
	assert.Contains(t, out, "FAIL")
}

func TestBuildCommand(t *testing.T) {
	dir := writeOverlayDir(t)
	out := filepath.Join(t.TempDir(), "overlay.json")

	_, err := runCommand(t, "build", "--dir", dir, "--out", out, "--release", "1.0.0")
	require.NoError(t, err)

	artifact, err := os.ReadFile(out)
	require.NoError(t, err)
	meta, err := overlays.Verify(artifact)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", meta.Version)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "overlay")
}
