package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "tracegraph", cmd.Use)
	assert.Contains(t, cmd.Long, "canonical JSON")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "export", "relations", "items", "related", "snapshots"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "tracegraph.yaml", configFlag.DefValue)
}

func TestExportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)

	outputFlag := exportCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	dbFlag := exportCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestValidateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	validateCmd, _, err := cmd.Find([]string{"validate"})
	require.NoError(t, err)

	for _, name := range []string{"document", "snapshot", "id"} {
		assert.NotNil(t, validateCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "validate", "."})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommandRunsSubcommand(t *testing.T) {
	dir := writeConsistentSources(t)
	cfgPath := filepath.Join(t.TempDir(), "tracegraph.yaml")

	out, stderr, err := execute(t, NewRootCommand(), "--config", cfgPath, "-v", "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Collection consistent (4 items)")
	assert.Contains(t, stderr, "Loaded 4 source file(s)")
	assert.Contains(t, stderr, "level=DEBUG", "verbose lowers the log level to debug")
}
