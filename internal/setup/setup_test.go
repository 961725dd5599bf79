package setup

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "claude_desktop_config.json"))
	require.NoError(t, err)
	assert.Empty(t, config.MCPServers)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claude_desktop_config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestRegister_PreservesOtherEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Claude", "claude_desktop_config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{
  "globalShortcut": "Ctrl+Space",
  "mcpServers": {"filesystem": {"command": "npx", "args": ["-y", "fs"]}}
}`), 0o644))

	binary := filepath.Join(dir, "surat-izin-mcp")
	entry, err := Register(path, Options{BinaryPath: binary, DatabasePath: filepath.Join(dir, "surat.db")})
	require.NoError(t, err)
	assert.Equal(t, binary, entry.Command)
	assert.Equal(t, filepath.Join(dir, "surat.db"), entry.Env[DatabaseEnv])

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved map[string]any
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "Ctrl+Space", saved["globalShortcut"])

	servers := saved["mcpServers"].(map[string]any)
	assert.Contains(t, servers, "filesystem")
	assert.Contains(t, servers, ServerName)
}

func TestRegister_RequiresBinary(t *testing.T) {
	_, err := Register(filepath.Join(t.TempDir(), "c.json"), Options{})
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claude_desktop_config.json")

	status, err := Check(path)
	require.NoError(t, err)
	assert.False(t, status.Registered)
	assert.Len(t, status.Issues, 1)

	binary := filepath.Join(dir, "surat-izin-mcp")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755))
	_, err = Register(path, Options{BinaryPath: binary, DatabasePath: filepath.Join(dir, "surat.db")})
	require.NoError(t, err)

	status, err = Check(path)
	require.NoError(t, err)
	assert.True(t, status.Registered)
	assert.Equal(t, binary, status.BinaryPath)
	require.Len(t, status.Issues, 1)
	assert.Contains(t, status.Issues[0], "created on first run")
}

func newTestCLI(t *testing.T, out *bytes.Buffer) (*CLI, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "claude_desktop_config.json")
	cli := NewCLI(out)
	cli.configPath = func() (string, error) { return path, nil }
	cli.executable = func() (string, error) { return filepath.Join(dir, "surat-izin-mcp"), nil }
	return cli, path
}

func TestCLI_ClaudeDesktop(t *testing.T) {
	var out bytes.Buffer
	cli, path := newTestCLI(t, &out)

	require.NoError(t, cli.Run([]string{"claude-desktop", "--db", "data/surat.db"}))
	assert.Contains(t, out.String(), `Registered "surat-izin"`)

	config, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, config.MCPServers, ServerName)
	assert.True(t, filepath.IsAbs(config.MCPServers[ServerName].Env[DatabaseEnv]))
}

func TestCLI_Errors(t *testing.T) {
	var out bytes.Buffer
	cli, _ := newTestCLI(t, &out)

	assert.Error(t, cli.Run([]string{"claude-desktop", "--db"}))
	assert.Error(t, cli.Run([]string{"claude-desktop", "--verbose"}))
	assert.Error(t, cli.Run([]string{"wizard"}))
	assert.NoError(t, cli.Run(nil))
	assert.Contains(t, out.String(), "Usage:")
}

func TestCLI_Status(t *testing.T) {
	var out bytes.Buffer
	cli, _ := newTestCLI(t, &out)

	require.NoError(t, cli.Run([]string{"status"}))
	assert.Contains(t, out.String(), "Registered: no")
}
