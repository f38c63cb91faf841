package bufz

import (
	"errors"

	"github.com/valyala/bytebufferpool"
)

// Consumer is the read capability over one SharedFIFO. Like Producer it
// is a cheaply-copyable value holding a shared reference; handles over
// the same queue compare equal with ==.
//
// Consumers are minted from a Producer via Producer.Consumer. The zero
// value has no queue and must not be used.
type Consumer struct {
	shared *SharedFIFO
}

// AvailableBytes returns the number of unread bytes.
func (c Consumer) AvailableBytes() int {
	return c.shared.AvailableBytes()
}

// Size returns the total number of bytes stored, read or not.
func (c Consumer) Size() int {
	return c.shared.Size()
}

// Empty reports whether the queue stores no bytes at all.
func (c Consumer) Empty() bool {
	return c.shared.Empty()
}

// EoF reports end-of-data: the queue is errored, or closed with nothing
// left to read.
func (c Consumer) EoF() bool {
	return c.shared.EoF()
}

// IsReadable reports whether reads can succeed at all.
func (c Consumer) IsReadable() bool {
	return c.shared.IsReadable()
}

// Read copies n unread bytes and advances the cursor, blocking until the
// request can be satisfied or the queue terminates. n == 0 reads all
// currently available bytes and never blocks.
func (c Consumer) Read(n int) ([]byte, error) {
	return c.shared.Read(n)
}

// Extract removes and returns n unread bytes, blocking like Read.
func (c Consumer) Extract(n int) ([]byte, error) {
	return c.shared.Extract(n)
}

// Peek copies n unread bytes without advancing the cursor, blocking like
// Read.
func (c Consumer) Peek(n int) ([]byte, error) {
	return c.shared.Peek(n)
}

// Seek repositions the read cursor and wakes blocked readers.
func (c Consumer) Seek(offset int, mode SeekMode) {
	c.shared.Seek(offset, mode)
}

// Skip discards up to n unread bytes, clamped to what is available.
func (c Consumer) Skip(n int) {
	c.shared.Skip(n)
}

// Drop discards exactly n unread bytes, failing if fewer are available.
func (c Consumer) Drop(n int) error {
	return c.shared.Drop(n)
}

// Clean discards bytes before the read cursor.
func (c Consumer) Clean() {
	c.shared.Clean()
}

// Clear discards everything in the queue.
func (c Consumer) Clear() {
	c.shared.Clear()
}

// HexDump renders the unread contents for debugging.
func (c Consumer) HexDump(columns, byteLimit int) string {
	return c.shared.HexDump(columns, byteLimit)
}

// ReadUntilEoF reads to end-of-data, blocking for more bytes while the
// queue is open and returning once it closes and drains. The cursor ends
// at the end of the store; the store itself keeps the data.
//
// A nil error means the queue finished normally (closed and drained).
// ErrErrored means the producer side aborted; bytes read before the
// abort are returned alongside the error.
func (c Consumer) ReadUntilEoF() ([]byte, error) {
	return c.drainUntilEoF(c.shared.Read)
}

// ExtractUntilEoF is ReadUntilEoF with destructive reads: consumed bytes
// are removed from the queue as they are returned.
func (c Consumer) ExtractUntilEoF() ([]byte, error) {
	return c.drainUntilEoF(c.shared.Extract)
}

// drainUntilEoF waits for at least one byte, grabs whatever else is
// already buffered, and repeats until the queue terminates. The one-byte
// blocking step is what lets the loop sleep between producer writes
// instead of spinning.
func (c Consumer) drainUntilEoF(take func(int) ([]byte, error)) ([]byte, error) {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	for {
		chunk, err := take(1)
		if err != nil {
			if errors.Is(err, ErrErrored) {
				return copyOut(bb), err
			}
			// Closed and drained.
			return copyOut(bb), nil
		}
		_, _ = bb.Write(chunk)

		rest, err := take(0)
		if err == nil {
			_, _ = bb.Write(rest)
		}
	}
}

func copyOut(bb *bytebufferpool.ByteBuffer) []byte {
	if bb.Len() == 0 {
		return nil
	}
	return append([]byte(nil), bb.Bytes()...)
}
