package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exportSnapshot appends the collection of dir to dbPath.
func exportSnapshot(t *testing.T, dir, dbPath string) {
	t.Helper()
	_, _, err := execute(t, NewExportCommand(newTestOptions(t, "text")), dir, "--db", dbPath)
	require.NoError(t, err)
}

func TestSnapshotsCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")
	exportSnapshot(t, writeConsistentSources(t), dbPath)
	exportSnapshot(t, writeBrokenSources(t), dbPath)

	out, _, err := execute(t, NewSnapshotsCommand(newTestOptions(t, "text")), "--db", dbPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "1\t"))
	assert.Contains(t, lines[0], "4 items")
	assert.True(t, strings.HasPrefix(lines[1], "2\t"))
	assert.Contains(t, lines[1], "6 items")
}

func TestSnapshotsCommandJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")
	exportSnapshot(t, writeConsistentSources(t), dbPath)

	out, _, err := execute(t, NewSnapshotsCommand(newTestOptions(t, "json")), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Data SnapshotsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Snapshots, 1)
	assert.Equal(t, int64(1), resp.Data.Snapshots[0].Seq)
	assert.Len(t, resp.Data.Snapshots[0].ID, 36)
}

func TestSnapshotsCommandMissingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")

	_, _, err := execute(t, NewSnapshotsCommand(newTestOptions(t, "text")), "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.NoFileExists(t, dbPath, "listing never creates a database")
}

func TestSnapshotsCommandWithoutDatabase(t *testing.T) {
	_, _, err := execute(t, NewSnapshotsCommand(newTestOptions(t, "text")))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")
	exportSnapshot(t, writeBrokenSources(t), dbPath)
	exportSnapshot(t, writeConsistentSources(t), dbPath)

	out, _, err := execute(t, NewValidateCommand(newTestOptions(t, "text")), "--snapshot", dbPath)
	require.NoError(t, err, "the latest snapshot is consistent")
	assert.Contains(t, out, "✓ Collection consistent (4 items)")

	out, _, err = execute(t, NewSnapshotsCommand(newTestOptions(t, "json")), "--db", dbPath)
	require.NoError(t, err)
	var resp struct {
		Data SnapshotsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Snapshots, 2)
	first := resp.Data.Snapshots[0].ID

	out, _, err = execute(t, NewValidateCommand(newTestOptions(t, "text")), "--snapshot", dbPath, "--id", first)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "[E206] item GHOST is not defined")
}

func TestValidateSnapshotNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")
	exportSnapshot(t, writeConsistentSources(t), dbPath)

	out, _, err := execute(t, NewValidateCommand(newTestOptions(t, "text")), "--snapshot", dbPath, "--id", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
