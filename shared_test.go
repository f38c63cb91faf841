package bufz

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSharedFIFO_WriteRead(t *testing.T) {
	s := NewSharedFIFO()
	if err := s.Write([]byte("hello")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := s.Read(5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.Equal(data, []byte("hello")) {
		t.Errorf("Expected 'hello', got %q", data)
	}
}

func TestSharedFIFO_ReadBlocksUntilWrite(t *testing.T) {
	s := NewSharedFIFO()
	result := make(chan []byte)

	go func() {
		data, err := s.Read(4)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		result <- data
	}()

	// Satisfy the request across two writes.
	time.Sleep(10 * time.Millisecond)
	if err := s.Write([]byte("ab")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := s.Write([]byte("cd")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	select {
	case data := <-result:
		if string(data) != "abcd" {
			t.Errorf("Expected 'abcd', got %q", data)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Reader did not wake after writes")
	}
}

func TestSharedFIFO_ReadZeroNeverBlocks(t *testing.T) {
	s := NewSharedFIFO()
	done := make(chan error)

	go func() {
		_, err := s.Read(0)
		done <- err
	}()

	select {
	case err := <-done:
		if err != ErrInsufficientData {
			t.Errorf("Expected ErrInsufficientData, got %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Read(0) blocked on an empty open buffer")
	}
}

func TestSharedFIFO_CloseUnblocksReader(t *testing.T) {
	s := NewSharedFIFO()
	if err := s.Write([]byte("ab")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	done := make(chan error)
	go func() {
		_, err := s.Read(10)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	s.Close()

	select {
	case err := <-done:
		// Closed with 2 bytes buffered: 10 can never be satisfied.
		if err != ErrInsufficientData {
			t.Errorf("Expected ErrInsufficientData, got %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Close did not wake the blocked reader")
	}
}

func TestSharedFIFO_SetErrorUnblocksReader(t *testing.T) {
	s := NewSharedFIFO()

	done := make(chan error)
	go func() {
		_, err := s.Read(1)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	s.SetError()

	select {
	case err := <-done:
		if err != ErrErrored {
			t.Errorf("Expected ErrErrored, got %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("SetError did not wake the blocked reader")
	}
}

func TestSharedFIFO_WriteAfterCloseRejected(t *testing.T) {
	s := NewSharedFIFO()
	s.Close()

	if err := s.Write([]byte("late")); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if s.IsWritable() {
		t.Error("Expected closed buffer to be unwritable")
	}
}

func TestSharedFIFO_WriteAfterErrorRejected(t *testing.T) {
	s := NewSharedFIFO()
	s.SetError()

	if err := s.Write([]byte("late")); err != ErrErrored {
		t.Errorf("Expected ErrErrored, got %v", err)
	}
}

func TestSharedFIFO_ErroredTakesPrecedenceOverClosed(t *testing.T) {
	s := NewSharedFIFOBytes([]byte("data"))
	s.Close()
	s.SetError()

	if _, err := s.Read(4); err != ErrErrored {
		t.Errorf("Expected ErrErrored, got %v", err)
	}
	if err := s.Write([]byte("x")); err != ErrErrored {
		t.Errorf("Expected ErrErrored on write, got %v", err)
	}
	if s.IsReadable() {
		t.Error("Expected errored buffer to be unreadable")
	}
}

func TestSharedFIFO_ClosedDrainsThenErrClosed(t *testing.T) {
	s := NewSharedFIFOBytes([]byte("drain"))
	s.Close()

	if s.EoF() {
		t.Error("Expected no EoF while closed buffer holds unread bytes")
	}

	data, err := s.Read(5)
	if err != nil {
		t.Fatalf("Expected no error draining closed buffer, got %v", err)
	}
	if string(data) != "drain" {
		t.Errorf("Expected 'drain', got %q", data)
	}

	if !s.EoF() {
		t.Error("Expected EoF after draining closed buffer")
	}
	if _, err := s.Read(1); err != ErrClosed {
		t.Errorf("Expected ErrClosed on drained closed buffer, got %v", err)
	}
}

func TestSharedFIFO_ErroredHidesBufferedBytes(t *testing.T) {
	s := NewSharedFIFOBytes([]byte("unreachable"))
	s.SetError()

	if !s.EoF() {
		t.Error("Expected EoF on errored buffer despite buffered bytes")
	}
	if _, err := s.Read(1); err != ErrErrored {
		t.Errorf("Expected ErrErrored, got %v", err)
	}
	if _, err := s.Peek(1); err != ErrErrored {
		t.Errorf("Expected ErrErrored on peek, got %v", err)
	}
}

func TestSharedFIFO_CloseIdempotent(t *testing.T) {
	s := NewSharedFIFO()
	s.Close()
	s.Close()
	s.SetError()
	s.SetError()

	if !s.IsClosed() || !s.IsErrored() {
		t.Error("Expected terminal flags to stick")
	}
}

func TestSharedFIFO_ZeroResolvedAtEntry(t *testing.T) {
	s := NewSharedFIFOBytes([]byte("now"))

	data, err := s.Read(0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != "now" {
		t.Errorf("Expected 'now', got %q", data)
	}
}

func TestSharedFIFO_SeekBackwardWakesReader(t *testing.T) {
	s := NewSharedFIFOBytes([]byte("abcd"))
	if _, err := s.Read(4); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	done := make(chan []byte)
	go func() {
		data, err := s.Read(4)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		done <- data
	}()

	time.Sleep(10 * time.Millisecond)
	s.Seek(0, SeekAbsolute)

	select {
	case data := <-done:
		if string(data) != "abcd" {
			t.Errorf("Expected 'abcd' after rewind, got %q", data)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Backward seek did not wake the blocked reader")
	}
}

func TestSharedFIFO_ConcurrentProducersConsumers(t *testing.T) {
	s := NewSharedFIFO()
	const producers = 4
	const writesPerProducer = 50

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < writesPerProducer; j++ {
				if err := s.Write([]byte("x")); err != nil {
					t.Errorf("Expected no error, got %v", err)
					return
				}
			}
		}()
	}

	total := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for total < producers*writesPerProducer {
			data, err := s.Extract(1)
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
				return
			}
			total += len(data)
		}
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Consumer did not drain all writes")
	}

	if total != producers*writesPerProducer {
		t.Errorf("Expected %d bytes, got %d", producers*writesPerProducer, total)
	}
}

// Random interleaving of writes, reads, and a final terminal event; EoF
// must agree with the terminal flags and remaining availability at every
// observation point.
func TestSharedFIFO_EoFUnderRandomInterleaving(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		s := NewSharedFIFO()
		written := 0
		consumed := 0

		steps := 10 + rng.Intn(20)
		for i := 0; i < steps; i++ {
			if rng.Intn(2) == 0 {
				n := 1 + rng.Intn(8)
				if err := s.Write(bytes.Repeat([]byte("z"), n)); err != nil {
					t.Fatalf("Round %d: unexpected write error %v", round, err)
				}
				written += n
			} else if written > consumed {
				data, err := s.Extract(1 + rng.Intn(written-consumed))
				if err != nil {
					t.Fatalf("Round %d: unexpected read error %v", round, err)
				}
				consumed += len(data)
			}
			if s.EoF() {
				t.Fatalf("Round %d: EoF on open buffer", round)
			}
		}

		if rng.Intn(2) == 0 {
			s.Close()
			if got, want := s.EoF(), written == consumed; got != want {
				t.Errorf("Round %d: EoF=%v with %d unread after close", round, got, written-consumed)
			}
		} else {
			s.SetError()
			if !s.EoF() {
				t.Errorf("Round %d: expected EoF after SetError", round)
			}
		}
	}
}

func TestSharedFIFO_Equal(t *testing.T) {
	a := NewSharedFIFOBytes([]byte("same"))
	b := NewSharedFIFOBytes([]byte("same"))

	if !a.Equal(b) {
		t.Error("Expected equal buffers")
	}
	if !a.Equal(a) {
		t.Error("Expected buffer equal to itself")
	}
	if a.Equal(nil) {
		t.Error("Expected inequality with nil")
	}

	if _, err := b.Read(1); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if a.Equal(b) {
		t.Error("Expected inequality after cursor divergence")
	}
}

func TestSharedFIFO_HexDump(t *testing.T) {
	s := NewSharedFIFO()

	dump := s.HexDump(0, 0)
	if dump != "Status: opened, ready" {
		t.Errorf("Expected bare status for empty buffer, got %q", dump)
	}

	if err := s.WriteString("Hi"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	s.Close()
	s.SetError()

	dump = s.HexDump(0, 0)
	if !strings.HasPrefix(dump, "Status: closed, error\n") {
		t.Errorf("Expected terminal status line, got %q", dump)
	}
	if !strings.Contains(dump, "00000000: 48 69") {
		t.Errorf("Expected hex line, got %q", dump)
	}
}

func TestSharedFIFO_Metrics(t *testing.T) {
	s := NewSharedFIFO()

	if err := s.WriteString("abcdef"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := s.Read(2); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := s.Peek(2); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := s.Extract(2); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	s.Close()
	if err := s.WriteString("late"); err != ErrClosed {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}

	m := s.Metrics()
	if v := m.Counter(SharedWritesTotal).Value(); v != 1 {
		t.Errorf("Expected 1 write, got %f", v)
	}
	if v := m.Counter(SharedReadsTotal).Value(); v != 1 {
		t.Errorf("Expected 1 read, got %f", v)
	}
	if v := m.Counter(SharedPeeksTotal).Value(); v != 1 {
		t.Errorf("Expected 1 peek, got %f", v)
	}
	if v := m.Counter(SharedExtractsTotal).Value(); v != 1 {
		t.Errorf("Expected 1 extract, got %f", v)
	}
	if v := m.Counter(SharedRejectsTotal).Value(); v != 1 {
		t.Errorf("Expected 1 reject, got %f", v)
	}
	if v := m.Gauge(SharedAvailableBytes).Value(); v != 2 {
		t.Errorf("Expected 2 available bytes, got %f", v)
	}
}

func TestSharedFIFO_WaitMetric(t *testing.T) {
	s := NewSharedFIFO()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.Read(1); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	}()

	time.Sleep(10 * time.Millisecond)
	if err := s.WriteString("x"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Reader did not wake")
	}

	if v := s.Metrics().Counter(SharedWaitsTotal).Value(); v != 1 {
		t.Errorf("Expected 1 blocked wait, got %f", v)
	}
}

func TestSharedFIFO_TerminalEvents(t *testing.T) {
	s := NewSharedFIFOBytes([]byte("left"))

	closedEvents := make(chan SharedEvent, 2)
	if err := s.OnClose(func(_ context.Context, e SharedEvent) error {
		closedEvents <- e
		return nil
	}); err != nil {
		t.Fatalf("Expected no error registering hook, got %v", err)
	}

	erroredEvents := make(chan SharedEvent, 2)
	if err := s.OnError(func(_ context.Context, e SharedEvent) error {
		erroredEvents <- e
		return nil
	}); err != nil {
		t.Fatalf("Expected no error registering hook, got %v", err)
	}

	s.Close()
	s.Close()

	select {
	case e := <-closedEvents:
		if e.Errored {
			t.Error("Expected close event, not error event")
		}
		if e.AvailableBytes != 4 {
			t.Errorf("Expected 4 unread bytes at close, got %d", e.AvailableBytes)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Missing closed event")
	}

	s.SetError()
	select {
	case e := <-erroredEvents:
		if !e.Errored {
			t.Error("Expected error event flagged as errored")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Missing errored event")
	}

	// Repeated terminal calls emit nothing further.
	select {
	case <-closedEvents:
		t.Error("Unexpected duplicate close event")
	case <-time.After(50 * time.Millisecond):
	}
}
