package go_func_utils

import (
	"bytes"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSafeGo_RunsFn(t *testing.T) {
	logger := log.New(&syncBuffer{}, "", 0)
	done := make(chan struct{})
	SafeGo(logger, "test", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fn was not run")
	}
}

func TestSafeGoQuiet_RecoversPanic(t *testing.T) {
	out := &syncBuffer{}
	logger := log.New(out, "", 0)
	SafeGoQuiet(logger, "AudioCue", func() { panic("speaker unplugged") })

	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("AudioCue: recovered panic: speaker unplugged"))
	}, time.Second, 5*time.Millisecond)
}
