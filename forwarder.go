package bufz

import "io"

// ReadFunc supplies bytes from an external source. It is asked for up to
// n bytes and returns what it produced; returning an error stops the
// caller's loop.
type ReadFunc func(n int) ([]byte, error)

// WriteFunc delivers bytes to an external sink.
type WriteFunc func(p []byte) error

// ErrorReadFunc returns a ReadFunc that always fails with ErrNoReadFunc.
// Used as the stand-in when a Forwarder has no read side.
func ErrorReadFunc() ReadFunc {
	return func(int) ([]byte, error) {
		return nil, ErrNoReadFunc
	}
}

// NoopReadFunc returns a ReadFunc that always succeeds with no data.
func NoopReadFunc() ReadFunc {
	return func(int) ([]byte, error) {
		return nil, nil
	}
}

// ErrorWriteFunc returns a WriteFunc that always fails with ErrNoWriteFunc.
// Used as the stand-in when a Forwarder has no write side.
func ErrorWriteFunc() WriteFunc {
	return func([]byte) error {
		return ErrNoWriteFunc
	}
}

// NoopWriteFunc returns a WriteFunc that discards its input.
func NoopWriteFunc() WriteFunc {
	return func([]byte) error {
		return nil
	}
}

// FromReader adapts a standard io.Reader into a ReadFunc. Each call reads
// up to n bytes; end of input surfaces as the reader's error once no
// bytes were produced.
func FromReader(r io.Reader) ReadFunc {
	return func(n int) ([]byte, error) {
		buf := make([]byte, n)
		read, err := io.ReadFull(r, buf)
		if read > 0 {
			return buf[:read], nil
		}
		return nil, err
	}
}

// FromWriter adapts a standard io.Writer into a WriteFunc.
func FromWriter(w io.Writer) WriteFunc {
	return func(p []byte) error {
		_, err := w.Write(p)
		return err
	}
}

// Forwarder splices externally supplied read and write callables behind
// the engine's read/write conventions, letting code written against the
// engine talk to arbitrary endpoints. It holds no buffer of its own;
// every call is forwarded.
type Forwarder struct {
	read  ReadFunc
	write WriteFunc
}

// NewForwarder creates a Forwarder from a read and a write callable.
// Either may be nil, in which case the corresponding direction fails
// with ErrNoReadFunc or ErrNoWriteFunc.
func NewForwarder(read ReadFunc, write WriteFunc) *Forwarder {
	if read == nil {
		read = ErrorReadFunc()
	}
	if write == nil {
		write = ErrorWriteFunc()
	}
	return &Forwarder{read: read, write: write}
}

// Read forwards to the read callable. Reading zero bytes is a no-op.
func (f *Forwarder) Read(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	return f.read(n)
}

// Write forwards to the write callable.
func (f *Forwarder) Write(p []byte) error {
	return f.write(p)
}

// WriteFIFO forwards the unread contents of q to the write callable
// without consuming them. An empty q is a no-op.
func (f *Forwarder) WriteFIFO(q *FIFO) error {
	data, err := q.Peek(0)
	if err != nil {
		return nil
	}
	return f.write(data)
}
