package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPaths builds an isolated events dir, database and checkpoint path.
func testPaths(t *testing.T) (eventsDir, dbPath, checkpointPath string) {
	t.Helper()
	dir := t.TempDir()
	eventsDir = filepath.Join(dir, "events")
	require.NoError(t, os.MkdirAll(eventsDir, 0o755))
	return eventsDir, filepath.Join(dir, "analytics.sqlite"), filepath.Join(dir, ".checkpoint")
}

func pathArgs(eventsDir, dbPath, checkpointPath string) []string {
	return []string{"--events-dir", eventsDir, "--db", dbPath, "--checkpoint", checkpointPath}
}

func TestRunCommand_EndToEnd(t *testing.T) {
	eventsDir, dbPath, checkpointPath := testPaths(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(eventsDir, "a.json"),
		[]byte(`{"event_id":"e1","event_type":"Comment","timestamp":"2024-03-04T10:00:00","user_id":"u1"}`),
		0o644,
	))

	out, err := executeCommand(t, append([]string{"run"}, pathArgs(eventsDir, dbPath, checkpointPath)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "raw_events=1")
	assert.Contains(t, out, "users=1")

	// Database and checkpoint were created.
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	_, err = os.Stat(checkpointPath)
	assert.NoError(t, err)

	// A second run finds nothing new and is harmless.
	out, err = executeCommand(t, append([]string{"run"}, pathArgs(eventsDir, dbPath, checkpointPath)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "0 new")
}

func TestRunCommand_JSONOutput(t *testing.T) {
	eventsDir, dbPath, checkpointPath := testPaths(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(eventsDir, "a.json"),
		[]byte(`{"event_id":"e1","event_type":"comment"}`),
		0o644,
	))

	out, err := executeCommand(t, append([]string{"run", "--format", "json"}, pathArgs(eventsDir, dbPath, checkpointPath)...)...)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRunCommand_ConfigFile(t *testing.T) {
	eventsDir, dbPath, checkpointPath := testPaths(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(eventsDir, "a.json"),
		[]byte(`{"event_id":"e1","event_type":"comment"}`),
		0o644,
	))

	cfgPath := filepath.Join(t.TempDir(), "docpulse.yaml")
	cfgYAML := "events_dir: " + eventsDir + "\ndb_path: " + dbPath + "\ncheckpoint_path: " + checkpointPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	_, err := executeCommand(t, "run", "--config", cfgPath)
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestDiscoverCommand_ListsNewFiles(t *testing.T) {
	eventsDir, dbPath, checkpointPath := testPaths(t)
	require.NoError(t, os.WriteFile(filepath.Join(eventsDir, "a.json"), []byte(`{}`), 0o644))

	out, err := executeCommand(t, append([]string{"discover"}, pathArgs(eventsDir, dbPath, checkpointPath)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "New files: 1")
	assert.Contains(t, out, "a.json")
}

func TestDiscoverCommand_IsReadOnly(t *testing.T) {
	eventsDir, dbPath, checkpointPath := testPaths(t)
	require.NoError(t, os.WriteFile(filepath.Join(eventsDir, "a.json"), []byte(`{}`), 0o644))

	_, err := executeCommand(t, append([]string{"discover"}, pathArgs(eventsDir, dbPath, checkpointPath)...)...)
	require.NoError(t, err)

	_, statErr := os.Stat(checkpointPath)
	assert.True(t, os.IsNotExist(statErr), "discover must not write the checkpoint")
}

func TestStatusCommand_ReportsCounts(t *testing.T) {
	eventsDir, dbPath, checkpointPath := testPaths(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(eventsDir, "a.json"),
		[]byte(`{"event_id":"e1","event_type":"comment","user_id":"u1"}`),
		0o644,
	))

	_, err := executeCommand(t, append([]string{"run"}, pathArgs(eventsDir, dbPath, checkpointPath)...)...)
	require.NoError(t, err)

	out, err := executeCommand(t, append([]string{"status"}, pathArgs(eventsDir, dbPath, checkpointPath)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "raw_events: 1")
	assert.Contains(t, out, "users: 1")
	assert.Contains(t, out, "checkpointed files: 1")
}
