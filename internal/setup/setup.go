// Package setup registers the surat izin MCP server with Claude Desktop.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ServerName is the key under which the server is registered in mcpServers.
const ServerName = "surat-izin"

// DatabaseEnv is passed to the registered server so it shares the HTTP server's record store.
const DatabaseEnv = "SURAT_IZIN_DATABASE_PATH"

// ClaudeDesktopConfig represents the Claude Desktop configuration file structure.
// Keys other than mcpServers are preserved on save.
type ClaudeDesktopConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	Other      map[string]json.RawMessage `json:"-"`
}

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls what gets registered.
type Options struct {
	BinaryPath   string
	DatabasePath string
	OCRAPIKey    string
}

// ConfigPath returns the path to Claude Desktop's config file for the current OS.
func ConfigPath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "Claude", "claude_desktop_config.json"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// Load reads the config file. A missing file yields an empty config.
func Load(path string) (*ClaudeDesktopConfig, error) {
	config := &ClaudeDesktopConfig{
		MCPServers: make(map[string]MCPServerConfig),
		Other:      make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &config.Other); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := config.Other["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &config.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(config.Other, "mcpServers")
	}
	if config.MCPServers == nil {
		config.MCPServers = make(map[string]MCPServerConfig)
	}
	return config, nil
}

// Save writes the config file, creating its directory when needed.
func Save(path string, config *ClaudeDesktopConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]any, len(config.Other)+1)
	for k, v := range config.Other {
		out[k] = v
	}
	out["mcpServers"] = config.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Register adds or replaces the surat-izin entry in the config file at path.
func Register(path string, opts Options) (MCPServerConfig, error) {
	if opts.BinaryPath == "" {
		return MCPServerConfig{}, fmt.Errorf("binary path is required")
	}
	binary, err := filepath.Abs(opts.BinaryPath)
	if err != nil {
		return MCPServerConfig{}, fmt.Errorf("resolving binary path: %w", err)
	}

	config, err := Load(path)
	if err != nil {
		return MCPServerConfig{}, err
	}

	entry := MCPServerConfig{Command: binary, Env: map[string]string{}}
	if opts.DatabasePath != "" {
		dbPath, err := filepath.Abs(opts.DatabasePath)
		if err != nil {
			return MCPServerConfig{}, fmt.Errorf("resolving database path: %w", err)
		}
		entry.Env[DatabaseEnv] = dbPath
	}
	if opts.OCRAPIKey != "" {
		entry.Env["SURAT_IZIN_OCR_API_KEY"] = opts.OCRAPIKey
	}
	if len(entry.Env) == 0 {
		entry.Env = nil
	}

	config.MCPServers[ServerName] = entry
	if err := Save(path, config); err != nil {
		return MCPServerConfig{}, err
	}
	return entry, nil
}

// Status describes the registration found in the config file.
type Status struct {
	ConfigPath   string
	Registered   bool
	BinaryPath   string
	DatabasePath string
	Issues       []string
}

// Check inspects the config file at path.
func Check(path string) (*Status, error) {
	config, err := Load(path)
	if err != nil {
		return nil, err
	}

	status := &Status{ConfigPath: path, Issues: []string{}}
	entry, ok := config.MCPServers[ServerName]
	if !ok {
		status.Issues = append(status.Issues, "surat-izin is not registered in Claude Desktop")
		return status, nil
	}

	status.Registered = true
	status.BinaryPath = entry.Command
	status.DatabasePath = entry.Env[DatabaseEnv]

	info, err := os.Stat(entry.Command)
	switch {
	case os.IsNotExist(err):
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
	case err != nil:
		status.Issues = append(status.Issues, fmt.Sprintf("cannot stat server binary: %v", err))
	case runtime.GOOS != "windows" && info.Mode()&0o111 == 0:
		status.Issues = append(status.Issues, fmt.Sprintf("server binary is not executable: %s", entry.Command))
	}

	if status.DatabasePath != "" {
		if _, err := os.Stat(status.DatabasePath); os.IsNotExist(err) {
			status.Issues = append(status.Issues, fmt.Sprintf("database will be created on first run: %s", status.DatabasePath))
		}
	}
	return status, nil
}
