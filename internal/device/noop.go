package device

// NoopWakeLock is used when no display service is reachable
type NoopWakeLock struct{}

func (NoopWakeLock) Acquire() error { return nil }
func (NoopWakeLock) Release() error { return nil }

// SilentCue is used when there is no terminal to ring
type SilentCue struct{}

func (SilentCue) PlayCue(bool) error { return nil }
