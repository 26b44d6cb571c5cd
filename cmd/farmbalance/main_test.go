package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/farmbalance/internal/sink"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPersonasCommand(t *testing.T) {
	out, err := execute(t, "personas")
	require.NoError(t, err)

	for _, id := range []string{"balanced", "casual", "speedrunner", "weekend_warrior"} {
		if !strings.Contains(out, id) {
			t.Errorf("Expected persona %s in output:\n%s", id, out)
		}
	}
	assert.Contains(t, out, "240/15 min")
}

func TestCatalogValidateBuiltIn(t *testing.T) {
	out, err := execute(t, "catalog", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "built-in catalog")
	assert.Contains(t, out, "items OK")
}

func TestCatalogValidateRejectsCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	doc := `{"items": [
		{"id": "a", "name": "A", "kind": "upgrade", "cost": "Gold x1", "prerequisites": ["b"]},
		{"id": "b", "name": "B", "kind": "upgrade", "cost": "Gold x1", "prerequisites": ["a"]}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := execute(t, "catalog", "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestRunCommandJSON(t *testing.T) {
	out, err := execute(t, "run", "--json", "--persona", "casual", "--max-days", "1",
		"--termination", "max_days", "--log-level", "error")
	require.NoError(t, err)

	var res struct {
		Persona string `json:"persona"`
		Outcome string `json:"outcome"`
		Minute  int    `json:"minute"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "casual", res.Persona)
	assert.Equal(t, "max_days", res.Outcome)
	assert.Equal(t, 1440, res.Minute)
}

func TestRunCommandWritesSQLite(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	_, err := execute(t, "run", "--max-days", "1", "--termination", "max_days",
		"--sink", "sqlite", "--sink-path", db, "--log-level", "error")
	require.NoError(t, err)

	s, err := sink.NewSQLite(db)
	require.NoError(t, err)
	defer s.Close()
	ids, err := s.RunIDs()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	n, err := s.CountEvents(ids[0], "run_finished")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunCommandRejectsUnknownPersona(t *testing.T) {
	_, err := execute(t, "run", "--persona", "nobody", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nobody")
}

func TestBatchCommand(t *testing.T) {
	out, err := execute(t, "batch", "--personas", "balanced,casual", "--seeds", "2",
		"--log-level", "error", "--config", writeConfig(t, "run:\n  termination: max_days\n  maxDays: 1\n"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5, out)
	assert.True(t, strings.HasPrefix(lines[0], "PERSONA"))
	assert.True(t, strings.HasPrefix(lines[1], "balanced"))
	assert.True(t, strings.HasPrefix(lines[3], "casual"))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
