package setup

import (
	"fmt"
	"io"
	"os"
)

// CLI implements the "setup" subcommand of the MCP server binary.
type CLI struct {
	out        io.Writer
	configPath func() (string, error)
	executable func() (string, error)
}

// NewCLI creates a CLI writing to out.
func NewCLI(out io.Writer) *CLI {
	return &CLI{
		out:        out,
		configPath: ConfigPath,
		executable: os.Executable,
	}
}

// Run executes the setup command based on the provided arguments.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		c.showHelp()
		return nil
	}

	switch args[0] {
	case "claude-desktop":
		return c.registerClaudeDesktop(args[1:])
	case "status":
		return c.showStatus()
	case "help", "--help", "-h":
		c.showHelp()
		return nil
	default:
		c.showHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (c *CLI) showHelp() {
	fmt.Fprint(c.out, `
Surat Izin MCP Server Setup

Usage:
  surat-izin-mcp setup <command> [options]

Commands:
  claude-desktop  Register this server in Claude Desktop
  status          Show the current registration

Options for claude-desktop:
  --binary, -b    Path to the server binary (default: this executable)
  --db, -d        SQLite database shared with the HTTP server
  --ocr-key       Gemini API key for letter transcription
`)
}

func (c *CLI) registerClaudeDesktop(args []string) error {
	opts := Options{}
	for i := 0; i < len(args); i++ {
		next := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires a value", args[i])
			}
			i++
			return args[i], nil
		}

		var err error
		switch args[i] {
		case "--binary", "-b":
			opts.BinaryPath, err = next()
		case "--db", "-d":
			opts.DatabasePath, err = next()
		case "--ocr-key":
			opts.OCRAPIKey, err = next()
		default:
			err = fmt.Errorf("unknown option: %s", args[i])
		}
		if err != nil {
			return err
		}
	}

	if opts.BinaryPath == "" {
		exe, err := c.executable()
		if err != nil {
			return fmt.Errorf("could not determine server binary: %w", err)
		}
		opts.BinaryPath = exe
	}

	path, err := c.configPath()
	if err != nil {
		return err
	}

	entry, err := Register(path, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Registered %q in %s\n", ServerName, path)
	fmt.Fprintf(c.out, "  command: %s\n", entry.Command)
	if db := entry.Env[DatabaseEnv]; db != "" {
		fmt.Fprintf(c.out, "  database: %s\n", db)
	}
	fmt.Fprintln(c.out, "Restart Claude Desktop to load the server.")
	return nil
}

func (c *CLI) showStatus() error {
	path, err := c.configPath()
	if err != nil {
		return err
	}

	status, err := Check(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Claude Desktop config: %s\n", status.ConfigPath)
	if status.Registered {
		fmt.Fprintf(c.out, "Registered: yes (%s)\n", status.BinaryPath)
	} else {
		fmt.Fprintln(c.out, "Registered: no")
	}
	if status.DatabasePath != "" {
		fmt.Fprintf(c.out, "Database: %s\n", status.DatabasePath)
	}
	for _, issue := range status.Issues {
		fmt.Fprintf(c.out, "  ! %s\n", issue)
	}
	return nil
}
