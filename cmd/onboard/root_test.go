package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	state := writeFile(t, dir, "state.json", `{"cookies": [
		{"name": "SID", "value": "a", "domain": ".google.com"},
		{"name": "x", "value": "b", "domain": ".example.org"}
	]}`)
	cfgPath := writeFile(t, dir, "onboard.yaml", `
profile:
  first_name: Ada
  last_name: Lovelace
  organization: Engines
  phone: "555"
session:
  state_path: `+state+`
`)

	out, _, err := execute(t, "validate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration OK")
	assert.Contains(t, out, "Session cookies: 1 of 2 match google.com")
}

func TestValidateCommand_BadSessionState(t *testing.T) {
	dir := t.TempDir()
	state := writeFile(t, dir, "state.json", `{"origins": []}`)
	cfgPath := writeFile(t, dir, "onboard.yaml", `
profile: {first_name: Ada, last_name: Lovelace, organization: Engines, phone: "555"}
session: {state_path: `+state+`}
`)

	_, stderr, err := execute(t, "validate", "-c", cfgPath)
	require.Error(t, err)
	assert.Contains(t, stderr, "failed to load session state")
}

func TestValidateCommand_InvalidConfig(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "onboard.yaml", "profile: {first_name: Ada}\n")

	_, stderr, err := execute(t, "validate", "-c", cfgPath)
	require.Error(t, err)
	assert.Contains(t, stderr, "invalid configuration")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "onboard v"+version+"\n", out)
}
