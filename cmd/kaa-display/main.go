package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/freevo/kaa-display/internal/config"
	"github.com/freevo/kaa-display/internal/x11"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "screens":
		os.Exit(runScreens(os.Args[2:]))
	case "tree":
		os.Exit(runTree(os.Args[2:]))
	case "info":
		os.Exit(runInfo(os.Args[2:]))
	case "props":
		os.Exit(runProps(os.Args[2:]))
	case "show":
		os.Exit(runShow(os.Args[2:]))
	case "events":
		os.Exit(runEvents(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: kaa-display <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  screens             List monitors and the screen size")
	fmt.Fprintln(w, "  tree                List the children of a window")
	fmt.Fprintln(w, "  info                Show geometry, title and parent of a window")
	fmt.Fprintln(w, "  props               Dump the properties of a window")
	fmt.Fprintln(w, "  events              Print events delivered to a window")
	fmt.Fprintln(w, "  show                Display an image in a new window")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config edit         Edit configuration interactively")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'kaa-display <command> --help' for command-specific options.")
}

// commonFlags are accepted by every command that talks to the X server.
type commonFlags struct {
	configPath string
	display    string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "Config file path (default: ~/.config/kaa-display/config.yaml)")
	fs.StringVar(&c.display, "display", "", "X display to connect to (default: config, then $DISPLAY)")
	return c
}

func (c *commonFlags) loadConfig() (*config.Config, error) {
	if c.configPath == "" {
		return config.Load()
	}
	res, err := config.LoadFromPath(c.configPath)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// open loads configuration, builds the logger and connects to the display.
func (c *commonFlags) open() (*config.Config, *x11.Connection, *slog.Logger, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)

	display := cfg.Display
	if c.display != "" {
		display = c.display
	}
	conn, err := x11.Open(display, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Debug("connected to display", "display", display, "fd", conn.SocketDescriptor())
	return cfg, conn, logger, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// parseWindowID accepts decimal or 0x-prefixed hexadecimal ids. An empty
// string selects the root window.
func parseWindowID(s string) (xproto.Window, error) {
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return xproto.Window(id), nil
}

// windowFor returns a handle on id, or on the root window for id zero.
func windowFor(conn *x11.Connection, id xproto.Window) *x11.Window {
	if id == 0 {
		return conn.Root()
	}
	return conn.Window(id)
}

func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}
