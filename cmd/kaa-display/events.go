package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/freevo/kaa-display/internal/config"
	"github.com/freevo/kaa-display/internal/x11"
)

// pollInterval bounds how long the event loops sleep on the socket
// descriptor before checking timers and cancellation.
const pollInterval = 250 * time.Millisecond

// waitReadable blocks until fd is readable or timeout elapses.
func waitReadable(fd int, timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if errors.Is(err, unix.EINTR) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to poll display connection: %w", err)
	}
	return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
}

func runEvents(args []string) int {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	common := addCommonFlags(fs)
	windowArg := fs.String("window", "", "Existing window to watch (default: a new window)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kaa-display events [--window ID]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the events delivered to a window until interrupted.")
		fmt.Fprintln(os.Stderr, "Without --window a new window is created from the config.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	id, err := parseWindowID(*windowArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, conn, logger, err := common.open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	opts := windowOptions(cfg)
	opts.Window = id
	win, err := x11.Create(conn, cfg.Window.Width, cfg.Window.Height, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer win.Destroy()
	if win.Ownership() == x11.Owned {
		if err := win.Show(true); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	logger.Info("watching window", "window", win.ID(), "ownership", win.Ownership())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for ctx.Err() == nil {
		if _, err := waitReadable(conn.SocketDescriptor(), pollInterval); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		events, err := conn.PollEvents()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, ev := range events {
			if ev.WindowID() != win.ID() {
				continue
			}
			fmt.Println(describeEvent(conn, ev))
		}
	}
	return 0
}

func describeEvent(conn *x11.Connection, ev x11.Event) string {
	switch e := ev.(type) {
	case x11.ExposeEvent:
		return fmt.Sprintf("Expose %dx%d+%d+%d", e.Width, e.Height, e.X, e.Y)
	case x11.ConfigureNotifyEvent:
		return fmt.Sprintf("ConfigureNotify %dx%d+%d+%d", e.Width, e.Height, e.X, e.Y)
	case x11.MotionNotifyEvent:
		return fmt.Sprintf("MotionNotify %d,%d root %d,%d", e.X, e.Y, e.RootX, e.RootY)
	case x11.KeyPressEvent:
		return fmt.Sprintf("KeyPress %d %s", e.Keycode, conn.KeyName(e.Keycode))
	default:
		return ev.Type().String()
	}
}

func windowOptions(cfg *config.Config) x11.Options {
	return x11.Options{
		Title:        cfg.Window.Title,
		ARGB:         cfg.Window.ARGB,
		WindowEvents: x11.Bool(cfg.Window.WindowEvents),
		MouseEvents:  x11.Bool(cfg.Window.MouseEvents),
		KeyEvents:    x11.Bool(cfg.Window.KeyEvents),
		InputOnly:    cfg.Window.InputOnly,
	}
}
