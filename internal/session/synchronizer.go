package session

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/workout"
)

const saveTimeout = 10 * time.Second

// SnapshotStore is the persistence collaborator
type SnapshotStore interface {
	Save(ctx context.Context, rec workout.Record) error
	Load(ctx context.Context) (workout.Record, bool, error)
}

// Synchronizer writes session snapshots without blocking the caller. Writes
// are limited to one per interval: the first offer of a burst is written
// right away, later offers collapse into a single trailing write once the
// interval has passed. Failures are logged and dropped.
type Synchronizer struct {
	store   SnapshotStore
	limiter *rate.Limiter
	logger  *log.Logger

	mu       sync.Mutex
	pending  *workout.Record
	trailing *time.Timer
	closed   bool

	writeCh chan workout.Record // Holds at most the latest unwritten snapshot
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSynchronizer starts the writer goroutine. An interval of 0 disables throttling.
func NewSynchronizer(store SnapshotStore, interval time.Duration, logger *log.Logger) *Synchronizer {
	if store == nil {
		panic("Synchronizer: store cannot be nil")
	}
	if logger == nil {
		panic("Synchronizer: logger cannot be nil")
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		store:   store,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		writeCh: make(chan workout.Record, 1),
		ctx:     ctx,
		cancel:  cancel,
	}

	s.wg.Add(1)
	go_func_utils.SafeGo(logger, "Synchronizer", func() { s.runWriter() })

	return s
}

// Offer schedules rec to be written
func (s *Synchronizer) Offer(rec workout.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	now := time.Now()
	if s.trailing == nil && s.limiter.AllowN(now, 1) {
		s.enqueue(rec)
		return
	}

	s.pending = &rec
	if s.trailing == nil {
		// The reservation holds the token the trailing write will spend
		delay := s.limiter.ReserveN(now, 1).DelayFrom(now)
		s.trailing = time.AfterFunc(delay, s.flushTrailing)
	}
}

// Flush stops the writer and synchronously saves the newest snapshot that
// has not been written yet. Offers made after Flush are ignored.
func (s *Synchronizer) Flush(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.trailing != nil {
		s.trailing.Stop()
		s.trailing = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	latest := s.pending
	s.pending = nil
	if latest == nil {
		select {
		case rec := <-s.writeCh:
			latest = &rec
		default:
		}
	}
	s.mu.Unlock()

	if latest == nil {
		return
	}
	s.logger.Printf("Synchronizer: flushing final snapshot")
	s.save(ctx, *latest)
}

func (s *Synchronizer) flushTrailing() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trailing = nil
	if s.closed || s.pending == nil {
		return
	}
	rec := *s.pending
	s.pending = nil
	s.enqueue(rec)
}

// enqueue replaces any unwritten snapshot with rec. Caller holds mu.
func (s *Synchronizer) enqueue(rec workout.Record) {
	select {
	case <-s.writeCh:
	default:
	}
	select {
	case s.writeCh <- rec:
	default:
		s.logger.Printf("Synchronizer: write slot busy, dropping snapshot")
	}
}

func (s *Synchronizer) runWriter() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case rec := <-s.writeCh:
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			s.save(ctx, rec)
			cancel()
		}
	}
}

func (s *Synchronizer) save(ctx context.Context, rec workout.Record) {
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Printf("Synchronizer: save failed, keeping in-memory session: %v", err)
	}
}
