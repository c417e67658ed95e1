package x11

import (
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Protocol atom cached on every connection.
const deleteWindowAtom = "WM_DELETE_WINDOW"

var initOnce sync.Once

// initProcess routes the protocol libraries' loggers through slog. It runs
// exactly once per process, before the first connection is dialed.
func initProcess(logger *slog.Logger) {
	initOnce.Do(func() {
		xgb.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
		xgbutil.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
	})
}

// Connection is a session to one X server. Every native call made through
// it, or through a Window created on it, is serialized by mu.
//
// Closing a Connection while Windows still reference it is a caller error:
// it is logged, and subsequent operations on those Windows fail with ErrClosed.
type Connection struct {
	mu     sync.Mutex
	srv    Server
	logger *slog.Logger
	closed bool
	refs   int

	display      string
	fd           int
	deleteWindow xproto.Atom
}

// Open connects to the named display, or $DISPLAY when name is empty.
func Open(name string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	initProcess(logger)

	srv, err := dialServer(name, logger)
	if err != nil {
		return nil, &ConnectionError{Display: name, Err: err}
	}
	c := NewConnection(srv, logger)
	c.display = name
	return c, nil
}

// NewConnection wraps an already established Server.
func NewConnection(srv Server, logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{
		srv:    srv,
		logger: logger,
		fd:     srv.Fd(),
	}
	atom, err := srv.Atom(deleteWindowAtom)
	if err != nil {
		logger.Warn("failed to intern atom", "atom", deleteWindowAtom, "error", err)
	}
	c.deleteWindow = atom
	return c
}

// Do runs fn with exclusive access to the native server.
func (c *Connection) Do(fn func(Server) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return fn(c.srv)
}

// PollEvents flushes outstanding requests and returns the events that were
// pending at that point, translated. It never blocks waiting for new events.
func (c *Connection) PollEvents() ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	if err := c.srv.Sync(); err != nil {
		c.logger.Warn("failed to sync before polling events", "error", err)
	}

	var events []Event
	for {
		raw, err := c.srv.PollEvent()
		if err != nil {
			c.logger.Warn("x11 protocol error", "error", err)
			continue
		}
		if raw == nil {
			break
		}
		if ev, ok := Translate(raw); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

// Sync performs a round trip to the server.
func (c *Connection) Sync() error {
	return c.Do(func(srv Server) error {
		return srv.Sync()
	})
}

// SocketDescriptor returns a descriptor that becomes readable when events are
// pending. It stays the same for the life of the connection.
func (c *Connection) SocketDescriptor() int {
	return c.fd
}

// Screen describes the connection's default screen.
func (c *Connection) Screen() ScreenInfo {
	return c.srv.Screen()
}

// DeleteWindowAtom returns the cached WM_DELETE_WINDOW atom.
func (c *Connection) DeleteWindowAtom() xproto.Atom {
	return c.deleteWindow
}

// CompositeSupported reports whether ARGB windows can be composited.
func (c *Connection) CompositeSupported() bool {
	var ok bool
	_ = c.Do(func(srv Server) error {
		ok = srv.CompositeSupported()
		return nil
	})
	return ok
}

// Screens lists the physical monitors attached to the display.
func (c *Connection) Screens() ([]Monitor, error) {
	var monitors []Monitor
	err := c.Do(func(srv Server) error {
		var err error
		monitors, err = srv.Monitors()
		return err
	})
	return monitors, err
}

// KeyName returns the unmodified keysym name for a keycode.
func (c *Connection) KeyName(code xproto.Keycode) string {
	var name string
	_ = c.Do(func(srv Server) error {
		name = srv.KeyName(code)
		return nil
	})
	return name
}

// Close releases the native connection. Calling it more than once is a no-op.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if c.refs > 0 {
		c.logger.Warn("closing display connection with live windows", "windows", c.refs)
	}
	c.closed = true
	c.srv.Close()
	return nil
}

func (c *Connection) retain() {
	c.refs++
}

func (c *Connection) release() {
	if c.refs > 0 {
		c.refs--
	}
}
