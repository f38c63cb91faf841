package bufz

import (
	"testing"
	"time"
)

func TestProducer_WriteVisibleToConsumer(t *testing.T) {
	p := NewProducer()
	c := p.Consumer()

	if err := p.WriteString("shared"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := c.Read(6)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != "shared" {
		t.Errorf("Expected 'shared', got %q", data)
	}
}

func TestProducer_HandleEquality(t *testing.T) {
	p := NewProducer()
	q := p

	if p != q {
		t.Error("Expected copied producers to compare equal")
	}
	if p.Consumer() != p.Consumer() {
		t.Error("Expected consumers over the same queue to compare equal")
	}
	if p == NewProducer() {
		t.Error("Expected producers over different queues to differ")
	}
}

func TestProducer_CopySharesQueue(t *testing.T) {
	p := NewProducer()
	q := p

	if err := q.WriteString("via copy"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := p.Consumer().Read(8)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != "via copy" {
		t.Errorf("Expected bytes written through the copy, got %q", data)
	}
}

func TestProducer_CloseRejectsFurtherWrites(t *testing.T) {
	p := NewProducer()
	p.Close()

	if p.IsWritable() {
		t.Error("Expected closed producer to be unwritable")
	}
	if err := p.WriteString("late"); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestProducer_SetErrorFailsConsumer(t *testing.T) {
	p := NewProducer()
	c := p.Consumer()

	done := make(chan error)
	go func() {
		_, err := c.Read(1)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	p.SetError()

	select {
	case err := <-done:
		if err != ErrErrored {
			t.Errorf("Expected ErrErrored, got %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("SetError did not wake the blocked consumer")
	}
}

func TestProducer_BufferExposesSharedFIFO(t *testing.T) {
	p := NewProducer()

	if err := p.WriteString("raw"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.Buffer().AvailableBytes() != 3 {
		t.Errorf("Expected 3 bytes via Buffer(), got %d", p.Buffer().AvailableBytes())
	}
	if p.Buffer() != p.Consumer().shared {
		t.Error("Expected Buffer() and Consumer() to share one queue")
	}
}
