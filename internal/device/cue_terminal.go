package device

import (
	"fmt"
	"log"
	"time"
)

// finalCueGap separates the two bells of the final cue
const finalCueGap = 120 * time.Millisecond

// TerminalCue sounds the terminal bell. A bell has no pitch, so the final
// cue is a double bell.
type TerminalCue struct {
	beep   func() error
	gap    time.Duration
	logger *log.Logger
}

// NewTerminalCue creates a cue that rings through beep, usually the tcell
// screen's Beep method
func NewTerminalCue(beep func() error, logger *log.Logger) *TerminalCue {
	if beep == nil {
		panic("TerminalCue: beep cannot be nil")
	}
	if logger == nil {
		panic("TerminalCue: logger cannot be nil")
	}
	return &TerminalCue{beep: beep, gap: finalCueGap, logger: logger}
}

func (c *TerminalCue) PlayCue(final bool) error {
	if err := c.beep(); err != nil {
		return fmt.Errorf("ringing terminal bell: %w", err)
	}
	if !final {
		return nil
	}
	time.Sleep(c.gap)
	if err := c.beep(); err != nil {
		return fmt.Errorf("ringing terminal bell: %w", err)
	}
	return nil
}
