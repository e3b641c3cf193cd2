package go_func_utils

import (
	"log"
	"runtime/debug"
)

// SafeGo runs fn on a new goroutine. A panic is written to logger together with
// its stack and then re-raised, since the terminal UI swallows anything printed
// to stdout.
func SafeGo(logger *log.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}

// SafeGoQuiet is SafeGo for best-effort work (audio, wake-lock) where a panic
// is logged and dropped instead of taking the process down.
func SafeGoQuiet(logger *log.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("%s: recovered panic: %v", name, r)
			}
		}()
		fn()
	}()
}
