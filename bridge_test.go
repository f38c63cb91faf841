package bufz

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestBridge_Passthrough(t *testing.T) {
	src := strings.NewReader("splice me")
	var sink bytes.Buffer
	b := NewBridge(FromReader(src), FromWriter(&sink))

	if err := b.Passthrough(6); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sink.String() != "splice" {
		t.Errorf("Expected 'splice', got %q", sink.String())
	}

	if err := b.Passthrough(3); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sink.String() != "splice me" {
		t.Errorf("Expected full splice, got %q", sink.String())
	}
}

func TestBridge_PassthroughZeroIsNoop(t *testing.T) {
	b := NewBridge(nil, nil)

	// Neither endpoint is touched for a zero-byte transfer.
	if err := b.Passthrough(0); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestBridge_ReadFailureAborts(t *testing.T) {
	cause := errors.New("source gone")
	var sink bytes.Buffer
	b := NewBridge(func(int) ([]byte, error) { return nil, cause }, FromWriter(&sink))

	err := b.Passthrough(4)
	if err == nil {
		t.Fatal("Expected error from failed read side")
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped source error, got %v", err)
	}
	if sink.Len() != 0 {
		t.Errorf("Expected nothing written after read failure, got %q", sink.String())
	}
}

func TestBridge_WriteFailureAborts(t *testing.T) {
	cause := errors.New("sink gone")
	b := NewBridge(FromReader(strings.NewReader("data")), func([]byte) error { return cause })

	err := b.Passthrough(4)
	if err == nil {
		t.Fatal("Expected error from failed write side")
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped sink error, got %v", err)
	}
}

func TestBridge_MissingEndpoints(t *testing.T) {
	b := NewBridge(nil, NoopWriteFunc())
	if err := b.Passthrough(1); !errors.Is(err, ErrNoReadFunc) {
		t.Errorf("Expected ErrNoReadFunc, got %v", err)
	}

	b = NewBridge(FromReader(strings.NewReader("x")), nil)
	if err := b.Passthrough(1); !errors.Is(err, ErrNoWriteFunc) {
		t.Errorf("Expected ErrNoWriteFunc, got %v", err)
	}
}
