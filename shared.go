package bufz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
)

// Observability constants for SharedFIFO.
const (
	// Metrics.
	SharedWritesTotal    = metricz.Key("shared.writes.total")
	SharedReadsTotal     = metricz.Key("shared.reads.total")
	SharedExtractsTotal  = metricz.Key("shared.extracts.total")
	SharedPeeksTotal     = metricz.Key("shared.peeks.total")
	SharedWaitsTotal     = metricz.Key("shared.waits.total")
	SharedRejectsTotal   = metricz.Key("shared.rejects.total")
	SharedAvailableBytes = metricz.Key("shared.available.bytes")

	// Hook event keys.
	SharedEventClosed  = hookz.Key("shared.closed")
	SharedEventErrored = hookz.Key("shared.errored")
)

// SharedEvent represents a terminal state transition on a SharedFIFO.
type SharedEvent struct {
	AvailableBytes int       // Unread bytes at the moment of transition
	Errored        bool      // True for SetError, false for Close
	Timestamp      time.Time // When the transition happened
}

// SharedFIFO is the thread-safe blocking variant of FIFO. Every operation
// holds an internal mutex for the duration of the state check and
// mutation; Read, Extract, and Peek additionally block on a condition
// variable until enough bytes are available or the queue terminates.
//
// Two terminal flags govern the state machine. Close marks graceful
// end-of-writes: further writes are rejected but buffered bytes remain
// consumable. SetError marks failure: the queue becomes permanently
// unreadable and unwritable regardless of buffered content. Neither flag
// can be unset, and errored takes precedence in readability checks.
//
// The wait predicate for a reader needing n bytes (n > 0) is:
//
//	closed || errored || available >= n
//
// Every mutating operation broadcasts to waiters, including empty writes
// and cursor moves, so a blocked reader re-evaluates its predicate after
// each state change and no wakeup is lost.
//
// # Observability
//
// Each SharedFIFO carries its own metricz registry:
//   - shared.writes.total: counter of accepted writes
//   - shared.reads.total / shared.extracts.total / shared.peeks.total:
//     counters of successful read-side operations
//   - shared.waits.total: counter of reads that had to block
//   - shared.rejects.total: counter of writes rejected by terminal state
//   - shared.available.bytes: gauge of unread bytes after the last operation
//
// The first Close and the first SetError each emit one hook event
// (shared.closed, shared.errored) carrying the unread byte count at the
// transition; register handlers with OnClose and OnError.
type SharedFIFO struct {
	fifo    FIFO
	mu      sync.Mutex
	cond    *sync.Cond
	closed  bool
	errored bool
	clock   clockz.Clock
	metrics *metricz.Registry
	hooks   *hookz.Hooks[SharedEvent]
}

// NewSharedFIFO creates an empty, open SharedFIFO.
func NewSharedFIFO() *SharedFIFO {
	metrics := metricz.New()
	metrics.Counter(SharedWritesTotal)
	metrics.Counter(SharedReadsTotal)
	metrics.Counter(SharedExtractsTotal)
	metrics.Counter(SharedPeeksTotal)
	metrics.Counter(SharedWaitsTotal)
	metrics.Counter(SharedRejectsTotal)
	metrics.Gauge(SharedAvailableBytes)

	s := &SharedFIFO{
		clock:   clockz.RealClock,
		metrics: metrics,
		hooks:   hookz.New[SharedEvent](),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// NewSharedFIFOBytes creates an open SharedFIFO seeded with a copy of data.
func NewSharedFIFOBytes(data []byte) *SharedFIFO {
	s := NewSharedFIFO()
	s.fifo = *NewFIFOBytes(data)
	s.metrics.Gauge(SharedAvailableBytes).Set(float64(len(data)))
	return s
}

// Metrics returns the metrics registry for this buffer.
func (s *SharedFIFO) Metrics() *metricz.Registry {
	return s.metrics
}

// WithClock sets a custom clock for testing.
func (s *SharedFIFO) WithClock(clock clockz.Clock) *SharedFIFO {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
	return s
}

// OnClose registers a handler called asynchronously when the buffer is
// first closed.
func (s *SharedFIFO) OnClose(handler func(context.Context, SharedEvent) error) error {
	_, err := s.hooks.Hook(SharedEventClosed, handler)
	return err
}

// OnError registers a handler called asynchronously when the buffer first
// enters its error state.
func (s *SharedFIFO) OnError(handler func(context.Context, SharedEvent) error) error {
	_, err := s.hooks.Hook(SharedEventErrored, handler)
	return err
}

// AvailableBytes returns the number of unread bytes.
func (s *SharedFIFO) AvailableBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fifo.AvailableBytes()
}

// Size returns the total number of bytes stored, read or not.
func (s *SharedFIFO) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fifo.Size()
}

// Position returns the current read cursor offset.
func (s *SharedFIFO) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fifo.Position()
}

// Empty reports whether the buffer stores no bytes at all.
func (s *SharedFIFO) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fifo.Empty()
}

// IsClosed reports whether Close has been called.
func (s *SharedFIFO) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// IsErrored reports whether SetError has been called.
func (s *SharedFIFO) IsErrored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errored
}

// IsWritable reports whether writes can still be accepted.
func (s *SharedFIFO) IsWritable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && !s.errored
}

// IsReadable reports whether reads can succeed at all. A closed buffer
// stays readable until drained; an errored buffer never is.
func (s *SharedFIFO) IsReadable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.errored
}

// EoF reports end-of-data: the buffer is errored, or closed with nothing
// left to read.
func (s *SharedFIFO) EoF() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errored || (s.closed && s.fifo.AvailableBytes() == 0)
}

// Write appends bytes and wakes all waiters. Rejected with ErrClosed or
// ErrErrored once the buffer is terminal. Waiters are notified even for
// empty writes so they re-check predicates after state changes that added
// no bytes.
func (s *SharedFIFO) Write(p []byte) error {
	s.mu.Lock()
	if s.errored {
		s.mu.Unlock()
		s.metrics.Counter(SharedRejectsTotal).Inc()
		return ErrErrored
	}
	if s.closed {
		s.mu.Unlock()
		s.metrics.Counter(SharedRejectsTotal).Inc()
		return ErrClosed
	}
	_ = s.fifo.Write(p)
	avail := s.fifo.AvailableBytes()
	s.mu.Unlock()

	s.metrics.Counter(SharedWritesTotal).Inc()
	s.metrics.Gauge(SharedAvailableBytes).Set(float64(avail))

	s.cond.Broadcast()
	return nil
}

// WriteString appends the bytes of str.
func (s *SharedFIFO) WriteString(str string) error {
	return s.Write([]byte(str))
}

// Close marks the buffer as closed for further writes and wakes all
// waiters. Idempotent. Buffered bytes remain consumable after Close.
func (s *SharedFIFO) Close() {
	s.mu.Lock()
	already := s.closed
	s.closed = true
	avail := s.fifo.AvailableBytes()
	clock := s.clock
	s.mu.Unlock()
	s.cond.Broadcast()

	if !already {
		_ = s.hooks.Emit(context.Background(), SharedEventClosed, SharedEvent{ //nolint:errcheck
			AvailableBytes: avail,
			Timestamp:      clock.Now(),
		})
	}
}

// SetError marks the buffer as failed and wakes all waiters. Idempotent
// and sticky: once set, the buffer is permanently unreadable even if
// bytes remain physically present.
func (s *SharedFIFO) SetError() {
	s.mu.Lock()
	already := s.errored
	s.errored = true
	avail := s.fifo.AvailableBytes()
	clock := s.clock
	s.mu.Unlock()
	s.cond.Broadcast()

	if !already {
		_ = s.hooks.Emit(context.Background(), SharedEventErrored, SharedEvent{ //nolint:errcheck
			AvailableBytes: avail,
			Errored:        true,
			Timestamp:      clock.Now(),
		})
	}
}

// wait blocks until the buffer is closed, errored, or at least n unread
// bytes are available. Callers must hold s.mu. A wait for n == 0 returns
// immediately.
func (s *SharedFIFO) wait(n int) {
	if n == 0 {
		return
	}
	waited := false
	for !s.closed && !s.errored && s.fifo.AvailableBytes() < n {
		if !waited {
			waited = true
			s.metrics.Counter(SharedWaitsTotal).Inc()
		}
		s.cond.Wait()
	}
}

// Read copies n unread bytes and advances the cursor, blocking until the
// request can be satisfied or the buffer terminates. n == 0 reads all
// currently available bytes and never blocks.
//
// Failure modes: ErrErrored when the buffer is (or becomes) errored;
// ErrClosed when the buffer is closed with nothing buffered;
// ErrInsufficientData when the buffer closed before enough bytes arrived,
// or when n == 0 finds nothing available.
func (s *SharedFIFO) Read(n int) ([]byte, error) {
	out, err := s.blockingTake(n, takeRead)
	if err == nil {
		s.metrics.Counter(SharedReadsTotal).Inc()
	}
	return out, err
}

// Extract removes and returns n unread bytes, blocking like Read.
func (s *SharedFIFO) Extract(n int) ([]byte, error) {
	out, err := s.blockingTake(n, takeExtract)
	if err == nil {
		s.metrics.Counter(SharedExtractsTotal).Inc()
	}
	return out, err
}

// Peek copies n unread bytes without advancing the cursor, blocking like
// Read.
func (s *SharedFIFO) Peek(n int) ([]byte, error) {
	out, err := s.blockingTake(n, takePeek)
	if err == nil {
		s.metrics.Counter(SharedPeeksTotal).Inc()
	}
	return out, err
}

// blockingTake resolves the requested count against availability at
// entry, waits out the predicate if the buffer is still open, re-checks
// the error flag after waking, and delegates to the FIFO take primitive
// with the originally resolved count.
func (s *SharedFIFO) blockingTake(n int, mode takeMode) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.errored {
		return nil, ErrErrored
	}
	avail := s.fifo.AvailableBytes()
	if s.closed && avail == 0 {
		return nil, ErrClosed
	}

	// n == 0 resolves against availability at entry, so a concurrent
	// write between entry and the take does not change what is returned.
	real := n
	if n == 0 {
		real = avail
	}

	if !s.closed && real > avail {
		s.wait(real)
		if s.errored {
			return nil, ErrErrored
		}
	}

	out, err := s.fifo.take(real, mode)
	if err == nil {
		s.metrics.Gauge(SharedAvailableBytes).Set(float64(s.fifo.AvailableBytes()))
	}
	return out, err
}

// Seek repositions the cursor under lock and wakes all waiters; a
// backward seek can make previously-insufficient data sufficient for a
// blocked reader.
func (s *SharedFIFO) Seek(offset int, mode SeekMode) {
	s.mu.Lock()
	s.fifo.Seek(offset, mode)
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Clean discards bytes before the cursor under lock and wakes all waiters.
func (s *SharedFIFO) Clean() {
	s.mu.Lock()
	s.fifo.Clean()
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Clear discards everything under lock and wakes all waiters.
func (s *SharedFIFO) Clear() {
	s.mu.Lock()
	s.fifo.Clear()
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Skip discards up to n unread bytes, clamped to what is available,
// compacts the store, and wakes all waiters.
func (s *SharedFIFO) Skip(n int) {
	s.mu.Lock()
	s.fifo.Skip(n)
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Drop discards exactly n unread bytes and compacts the store, failing
// with ErrInsufficientData when fewer than n bytes are unread. Wakes all
// waiters on success.
func (s *SharedFIFO) Drop(n int) error {
	s.mu.Lock()
	err := s.fifo.Drop(n)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.cond.Broadcast()
	return nil
}

// Equal reports whether two SharedFIFOs hold identical bytes and cursor
// positions. Each side is snapshotted under its own lock; the comparison
// is advisory under concurrent mutation.
func (s *SharedFIFO) Equal(other *SharedFIFO) bool {
	if s == other {
		return true
	}
	if other == nil {
		return false
	}
	a := s.snapshotFIFO()
	b := other.snapshotFIFO()
	return a.Equal(&b)
}

func (s *SharedFIFO) snapshotFIFO() FIFO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FIFO{buf: append([]byte(nil), s.fifo.buf...), pos: s.fifo.pos}
}

// HexDump renders the unread contents as a status line followed by an
// offset/hex/ASCII dump, from a snapshot taken under lock.
//
// Example output:
//
//	Status: closed, ready
//	Read Position: 0
//	00000000: 48 69                                             Hi
func (s *SharedFIFO) HexDump(columns, byteLimit int) string {
	s.mu.Lock()
	closed, errored := s.closed, s.errored
	avail := s.fifo.AvailableBytes()
	toCopy := avail
	if byteLimit > 0 && byteLimit < toCopy {
		toCopy = byteLimit
	}
	start := s.fifo.pos
	var snapshot []byte
	if toCopy > 0 {
		snapshot = append([]byte(nil), s.fifo.buf[start:start+toCopy]...)
	}
	s.mu.Unlock()

	status := "Status: "
	if closed {
		status += "closed"
	} else {
		status += "opened"
	}
	if errored {
		status += ", error"
	} else {
		status += ", ready"
	}

	if len(snapshot) == 0 {
		return status
	}
	return fmt.Sprintf("%s\nRead Position: %d\n%s", status, start, formatHexLines(snapshot, start, columns))
}
