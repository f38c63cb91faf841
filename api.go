package bufz

// Name is a type alias for buffer, stage, and pipeline names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
//
// Example:
//
//	const (
//	    DecompressStageName Name = "decompress"
//	    ChecksumStageName   Name = "checksum"
//	)
//
//	pipeline := bufz.NewPipeline("ingest",
//	    bufz.Pipe(DecompressStageName, decompress),
//	    bufz.Pipe(ChecksumStageName, checksum),
//	)
type Name = string

// SeekMode selects how Seek interprets its offset.
type SeekMode int

const (
	// SeekAbsolute positions the read cursor at the given offset from the
	// start of the buffer. Negative offsets clamp to zero.
	SeekAbsolute SeekMode = iota
	// SeekRelative moves the read cursor by the given delta. The resulting
	// position is clamped to [0, Size()].
	SeekRelative
)

// ExecutionMode selects how Pipeline.Process schedules its final stage.
type ExecutionMode int

const (
	// Async runs every stage, including the last, on its own goroutine.
	// Process returns immediately and the caller drains the returned
	// Consumer while stages are still running.
	Async ExecutionMode = iota
	// Sync runs the final stage inline on the calling goroutine and joins
	// all worker goroutines before Process returns, guaranteeing no
	// background work survives the call.
	Sync
)

// String returns the mode name for tracing and error messages.
func (m ExecutionMode) String() string {
	switch m {
	case Async:
		return "async"
	case Sync:
		return "sync"
	default:
		return "unknown"
	}
}

// Readable is the read capability over a buffer: inspection, destructive
// and non-destructive reads, and cursor control.
//
// Count conventions shared by Read, Extract, and Peek:
//   - n == 0 requests all currently available bytes; if nothing is
//     available the call fails with ErrInsufficientData.
//   - n > 0 requests exactly n bytes; requesting more than is available
//     is a hard failure, never a partial read.
type Readable interface {
	// AvailableBytes returns the number of unread bytes.
	AvailableBytes() int
	// Size returns the total number of bytes stored, read or not.
	Size() int
	// Empty reports whether the buffer stores no bytes at all. It may
	// return false even when nothing is left to read, since already-read
	// bytes remain stored until compacted.
	Empty() bool
	// EoF reports whether the reader has reached end-of-data.
	EoF() bool
	// IsReadable reports whether read operations can succeed at all.
	IsReadable() bool
	// Read copies n unread bytes and advances the read cursor.
	Read(n int) ([]byte, error)
	// Extract removes and returns n unread bytes.
	Extract(n int) ([]byte, error)
	// Peek copies n unread bytes without advancing the read cursor.
	Peek(n int) ([]byte, error)
	// Seek repositions the read cursor.
	Seek(offset int, mode SeekMode)
	// Skip discards up to n unread bytes, clamped to what is available,
	// and compacts the buffer.
	Skip(n int)
	// Drop discards exactly n unread bytes and compacts the buffer,
	// failing if fewer than n bytes are available.
	Drop(n int) error
	// Clean discards bytes before the read cursor and resets it to zero.
	Clean()
	// Clear discards everything and resets the read cursor to zero.
	Clear()
}

// Writable is the write capability over a buffer: appending bytes and
// signaling termination. Close marks graceful end-of-writes while leaving
// buffered bytes consumable; SetError marks the buffer permanently
// unusable in both directions.
type Writable interface {
	// IsWritable reports whether Write can succeed.
	IsWritable() bool
	// Write appends bytes to the buffer.
	Write(p []byte) error
	// Close marks the buffer as closed for further writes. Idempotent.
	Close()
	// SetError marks the buffer as failed. Idempotent and sticky.
	SetError()
}

// Interface guards.
var (
	_ Readable = (*FIFO)(nil)
	_ Readable = (*SharedFIFO)(nil)
	_ Writable = (*SharedFIFO)(nil)
	_ Readable = Consumer{}
	_ Writable = Producer{}
)
