package bufz

import "fmt"

// Bridge is a Forwarder that can pump data between its two endpoints in
// caller-controlled chunks: read n bytes from the read side, write them
// to the write side. Useful for splicing two external streams through
// the engine's conventions without buffering in between.
type Bridge struct {
	Forwarder
}

// NewBridge creates a Bridge over a read and a write callable. Nil
// callables behave as in NewForwarder.
func NewBridge(read ReadFunc, write WriteFunc) *Bridge {
	return &Bridge{Forwarder: *NewForwarder(read, write)}
}

// Passthrough moves n bytes from the read side to the write side.
// Passing through zero bytes is a no-op. Either side failing aborts the
// transfer with the endpoint's error wrapped.
func (b *Bridge) Passthrough(n int) error {
	if n == 0 {
		return nil
	}
	data, err := b.Read(n)
	if err != nil {
		return fmt.Errorf("bridge read failed: %w", err)
	}
	if err := b.Write(data); err != nil {
		return fmt.Errorf("bridge write failed: %w", err)
	}
	return nil
}
