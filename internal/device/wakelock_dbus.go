package device

import (
	"fmt"
	"log"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	screenSaverService   = "org.freedesktop.ScreenSaver"
	screenSaverPath      = "/org/freedesktop/ScreenSaver"
	screenSaverInhibit   = screenSaverService + ".Inhibit"
	screenSaverUnInhibit = screenSaverService + ".UnInhibit"
)

// busCaller is the part of dbus.BusObject the inhibitor needs
type busCaller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// ScreenSaverInhibitor keeps the display awake through the freedesktop
// ScreenSaver interface on the session bus. The inhibition is identified by
// the cookie returned from Inhibit and held at most once.
type ScreenSaverInhibitor struct {
	obj     busCaller
	conn    *dbus.Conn
	appName string
	logger  *log.Logger

	mu     sync.Mutex
	cookie uint32
	held   bool
}

// NewScreenSaverInhibitor connects to the session bus
func NewScreenSaverInhibitor(appName string, logger *log.Logger) (*ScreenSaverInhibitor, error) {
	if logger == nil {
		panic("ScreenSaverInhibitor: logger cannot be nil")
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	obj := conn.Object(screenSaverService, dbus.ObjectPath(screenSaverPath))
	return &ScreenSaverInhibitor{obj: obj, conn: conn, appName: appName, logger: logger}, nil
}

func newScreenSaverInhibitor(obj busCaller, appName string, logger *log.Logger) *ScreenSaverInhibitor {
	return &ScreenSaverInhibitor{obj: obj, appName: appName, logger: logger}
}

// Acquire inhibits the screensaver. Does nothing if already held.
func (s *ScreenSaverInhibitor) Acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held {
		return nil
	}
	var cookie uint32
	err := s.obj.Call(screenSaverInhibit, 0, s.appName, "workout in progress").Store(&cookie)
	if err != nil {
		return fmt.Errorf("inhibiting screensaver: %w", err)
	}
	s.cookie = cookie
	s.held = true
	s.logger.Printf("ScreenSaverInhibitor: inhibited (cookie %d)", cookie)
	return nil
}

// Release lifts the inhibition. Does nothing if not held.
func (s *ScreenSaverInhibitor) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.held {
		return nil
	}
	cookie := s.cookie
	s.held = false
	s.cookie = 0
	if call := s.obj.Call(screenSaverUnInhibit, 0, cookie); call.Err != nil {
		return fmt.Errorf("releasing screensaver inhibition %d: %w", cookie, call.Err)
	}
	s.logger.Printf("ScreenSaverInhibitor: released (cookie %d)", cookie)
	return nil
}

// Close releases the inhibition and closes the bus connection
func (s *ScreenSaverInhibitor) Close() error {
	if err := s.Release(); err != nil {
		s.logger.Printf("ScreenSaverInhibitor: %v", err)
	}
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
