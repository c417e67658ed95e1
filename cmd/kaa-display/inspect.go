package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/xgb"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/freevo/kaa-display/internal/x11"
)

// tableWriter aligns columns when stdout is a terminal and emits plain
// tab-separated lines otherwise.
func tableWriter(out *os.File) (io.Writer, func() error) {
	if !term.IsTerminal(int(out.Fd())) {
		return out, func() error { return nil }
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	return tw, tw.Flush
}

func runScreens(args []string) int {
	fs := flag.NewFlagSet("screens", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	common := addCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kaa-display screens [--display NAME]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List the monitors attached to the display.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	_, conn, _, err := common.open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	screen := conn.Screen()
	fmt.Printf("screen: %dx%d depth %d\n", screen.Width, screen.Height, screen.Depth)

	monitors, err := conn.Screens()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	w, flush := tableWriter(os.Stdout)
	fmt.Fprintln(w, "ID\tNAME\tGEOMETRY")
	for _, m := range monitors {
		fmt.Fprintf(w, "%d\t%s\t%dx%d+%d+%d\n", m.ID, m.Name, m.Width, m.Height, m.X, m.Y)
	}
	if err := flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runTree(args []string) int {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	common := addCommonFlags(fs)
	windowArg := fs.String("window", "", "Parent window id (default: root)")
	recursive := fs.Bool("recursive", false, "Include all descendants")
	visible := fs.Bool("visible", false, "Only windows that are mapped and on screen")
	titled := fs.Bool("titled", false, "Only windows with a title")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kaa-display tree [--window ID] [--recursive] [--visible] [--titled]")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	id, err := parseWindowID(*windowArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	_, conn, _, err := common.open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	children, err := windowFor(conn, id).Children(*recursive, *visible, *titled)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	w, flush := tableWriter(os.Stdout)
	fmt.Fprintln(w, "WINDOW\tGEOMETRY\tTITLE")
	for _, child := range children {
		win := conn.Window(child)
		geometry := "-"
		if r, err := win.Geometry(true); err == nil {
			geometry = fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
		}
		title, _, _ := win.Title()
		fmt.Fprintf(w, "%#x\t%s\t%s\n", uint32(child), geometry, title)
	}
	if err := flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runInfo(args []string) int {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	common := addCommonFlags(fs)
	windowArg := fs.String("window", "", "Window id (default: root)")
	titleArg := fs.String("title", "", "Pick the first window whose title contains this text")
	absolute := fs.Bool("absolute", false, "Report the position relative to the root window")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	id, err := parseWindowID(*windowArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	_, conn, _, err := common.open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	if *titleArg != "" {
		id, err = conn.FindByTitle(*titleArg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	win := windowFor(conn, id)
	r, err := win.Geometry(*absolute)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	visible, err := win.Visible()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	parent, err := win.Parent()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	title, ok, _ := win.Title()
	if !ok {
		title = "(none)"
	}

	fmt.Printf("window:     %#x\n", uint32(win.ID()))
	fmt.Printf("title:      %s\n", title)
	fmt.Printf("geometry:   %dx%d+%d+%d\n", r.Width, r.Height, r.X, r.Y)
	fmt.Printf("visible:    %v\n", visible)
	fmt.Printf("fullscreen: %v\n", win.Fullscreen())
	fmt.Printf("parent:     %#x\n", uint32(parent))
	return 0
}

// propertyEntry is the --yaml form of one property.
type propertyEntry struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Format int      `yaml:"format"`
	Atoms  []string `yaml:"atoms,omitempty"`
	Value  string   `yaml:"value,omitempty"`
}

func runProps(args []string) int {
	fs := flag.NewFlagSet("props", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	common := addCommonFlags(fs)
	windowArg := fs.String("window", "", "Window id (default: root)")
	asYAML := fs.Bool("yaml", false, "Print properties as YAML")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	id, err := parseWindowID(*windowArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	_, conn, _, err := common.open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	props, err := windowFor(conn, id).Properties()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *asYAML {
		entries := make([]propertyEntry, 0, len(props))
		for _, p := range props {
			entry := propertyEntry{Name: p.Name, Type: p.Type, Format: p.Format, Atoms: p.Atoms}
			if p.Atoms == nil {
				entry.Value = formatPropertyValue(p)
			}
			entries = append(entries, entry)
		}
		data, err := yaml.Marshal(entries)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0
	}

	for _, p := range props {
		fmt.Printf("%s(%s) = %s\n", p.Name, p.Type, formatPropertyValue(p))
	}
	return 0
}

// formatPropertyValue renders a property the way xprop does: atoms and
// format-32 items comma separated, format-8 data quoted.
func formatPropertyValue(p x11.Property) string {
	if p.Atoms != nil {
		return strings.Join(p.Atoms, ", ")
	}
	switch p.Format {
	case 8:
		parts := strings.Split(strings.TrimRight(string(p.Data), "\x00"), "\x00")
		for i, s := range parts {
			parts[i] = strconv.Quote(s)
		}
		return strings.Join(parts, ", ")
	case 16:
		items := make([]string, 0, len(p.Data)/2)
		for i := 0; i+2 <= len(p.Data); i += 2 {
			items = append(items, strconv.Itoa(int(xgb.Get16(p.Data[i:]))))
		}
		return strings.Join(items, ", ")
	default:
		items := make([]string, 0, len(p.Data)/4)
		for i := 0; i+4 <= len(p.Data); i += 4 {
			items = append(items, strconv.FormatUint(uint64(xgb.Get32(p.Data[i:])), 10))
		}
		return strings.Join(items, ", ")
	}
}
