package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// writeSource writes content to dir/name, creating parent directories.
func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeConsistentSources writes a small collection that passes self-test:
// REQ-1 implements DES-1, REQ-1 is verified by TST-1, REQ-1 references an
// external ticket, and REQ-2 stands alone.
func writeConsistentSources(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeSource(t, dir, "relations.yaml", `relations:
  - forward: implements
    reverse: implemented-by
  - forward: verified-by
    reverse: verifies
  - forward: external
`)
	writeSource(t, dir, "srs.yaml", `items:
  - id: REQ-1
    content: The system shall trace.
    attributes:
      status: approved
    relations:
      implements: [DES-1]
      verified-by: [TST-1]
      external: [JIRA-7]
  - id: REQ-2
    attributes:
      status: draft
`)
	writeSource(t, dir, "design.cue", `item: "DES-1": content: "Tracing module"`)
	writeSource(t, dir, "tests/tests.cue", `item: "TST-1": attributes: kind: "unit"`)
	return dir
}

// writeBrokenSources adds REQ-3 pointing at an item nobody declares.
func writeBrokenSources(t *testing.T) string {
	t.Helper()
	dir := writeConsistentSources(t)
	writeSource(t, dir, "extra.yaml", `items:
  - id: REQ-3
    relations:
      implements: [GHOST]
`)
	return dir
}

// newTestOptions returns root options whose config file does not exist, so
// tests never pick up a tracegraph.yaml from the working directory.
func newTestOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:     format,
		ConfigPath: filepath.Join(t.TempDir(), "tracegraph.yaml"),
	}
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
