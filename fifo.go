package bufz

import (
	"bytes"
	"fmt"
	"slices"
)

// takeMode selects the cursor policy for the shared take primitive.
type takeMode int

const (
	takeRead    takeMode = iota // copy and advance the cursor
	takePeek                    // copy, leave the cursor alone
	takeExtract                 // remove from the store, keep the cursor valid
)

// FIFO is a byte-oriented queue with grow-on-demand storage and a logical
// read cursor that is independent of the write end. Writes append; reads
// copy from the cursor and advance it without destroying data; extracts
// physically remove bytes; peeks do neither.
//
// FIFO is not safe for concurrent use. For concurrent access use
// SharedFIFO, or the Producer/Consumer handles over it.
type FIFO struct {
	buf []byte
	pos int // read cursor, 0 <= pos <= len(buf)
}

// NewFIFO creates an empty FIFO.
func NewFIFO() *FIFO {
	return &FIFO{}
}

// NewFIFOBytes creates a FIFO seeded with a copy of data.
func NewFIFOBytes(data []byte) *FIFO {
	return &FIFO{buf: slices.Clone(data)}
}

// NewFIFOString creates a FIFO seeded with the bytes of s.
func NewFIFOString(s string) *FIFO {
	return &FIFO{buf: []byte(s)}
}

// AvailableBytes returns the number of bytes that can be read from the
// current cursor position.
func (f *FIFO) AvailableBytes() int {
	return len(f.buf) - f.pos
}

// Size returns the total number of bytes stored, read or not.
func (f *FIFO) Size() int {
	return len(f.buf)
}

// Position returns the current read cursor offset.
func (f *FIFO) Position() int {
	return f.pos
}

// Empty reports whether the FIFO stores no bytes at all. Note that Empty
// can be false while nothing is left to read, because already-read bytes
// remain stored until Clean or Clear compacts them.
func (f *FIFO) Empty() bool {
	return len(f.buf) == 0
}

// EoF reports whether no unread bytes remain.
func (f *FIFO) EoF() bool {
	return f.AvailableBytes() == 0
}

// IsReadable always reports true for a plain FIFO.
func (f *FIFO) IsReadable() bool {
	return true
}

// IsWritable always reports true for a plain FIFO.
func (f *FIFO) IsWritable() bool {
	return true
}

// Write appends bytes to the end of the store. It never fails on a plain
// FIFO; the error return exists so FIFO and SharedFIFO share a surface.
func (f *FIFO) Write(p []byte) error {
	f.buf = append(f.buf, p...)
	return nil
}

// WriteString appends the bytes of s.
func (f *FIFO) WriteString(s string) error {
	f.buf = append(f.buf, s...)
	return nil
}

// Read copies n unread bytes and advances the cursor. n == 0 reads all
// currently available bytes. Fails with ErrInsufficientData when fewer
// than the requested bytes are available, or when n == 0 and nothing is
// available. The store itself is untouched.
func (f *FIFO) Read(n int) ([]byte, error) {
	return f.take(n, takeRead)
}

// Extract removes and returns n unread bytes. Availability rules match
// Read, but the returned bytes are erased from the store and the cursor
// stays valid relative to the shrunk store.
func (f *FIFO) Extract(n int) ([]byte, error) {
	return f.take(n, takeExtract)
}

// Peek copies n unread bytes without advancing the cursor. Availability
// rules match Read.
func (f *FIFO) Peek(n int) ([]byte, error) {
	return f.take(n, takePeek)
}

// take is the single primitive behind Read, Extract, and Peek: resolve the
// requested count against availability, copy out, then apply the cursor
// policy. Keeping all three on one code path avoids duplicated off-by-one
// arithmetic between them.
func (f *FIFO) take(n int, mode takeMode) ([]byte, error) {
	avail := f.AvailableBytes()
	if n == 0 {
		n = avail
	}
	if n == 0 || n > avail {
		return nil, ErrInsufficientData
	}

	out := make([]byte, n)
	copy(out, f.buf[f.pos:f.pos+n])

	switch mode {
	case takeRead:
		f.pos += n
	case takeExtract:
		f.buf = append(f.buf[:f.pos], f.buf[f.pos+n:]...)
		if f.pos > len(f.buf) {
			f.pos = len(f.buf)
		}
	case takePeek:
	}

	return out, nil
}

// ReadUntilEoF reads every remaining unread byte, advancing the cursor to
// the end of the store. Returns nil when nothing is available.
func (f *FIFO) ReadUntilEoF() []byte {
	out, err := f.take(0, takeRead)
	if err != nil {
		return nil
	}
	return out
}

// ExtractUntilEoF removes and returns every remaining unread byte.
// Returns nil when nothing is available.
func (f *FIFO) ExtractUntilEoF() []byte {
	out, err := f.take(0, takeExtract)
	if err != nil {
		return nil
	}
	return out
}

// Seek repositions the read cursor. SeekAbsolute clamps the offset to
// [0, Size()], with negative offsets clamping to zero. SeekRelative adds
// the offset to the current position, clamped the same way. Stored data
// is unaffected.
func (f *FIFO) Seek(offset int, mode SeekMode) {
	switch mode {
	case SeekAbsolute:
		f.pos = clampPos(offset, len(f.buf))
	case SeekRelative:
		f.pos = clampPos(f.pos+offset, len(f.buf))
	}
}

func clampPos(p, size int) int {
	if p < 0 {
		return 0
	}
	if p > size {
		return size
	}
	return p
}

// Clean discards bytes before the cursor, moves unread bytes to the front
// of the store, and resets the cursor to zero. Unread data is preserved.
func (f *FIFO) Clean() {
	if f.pos > 0 {
		f.buf = f.buf[:copy(f.buf, f.buf[f.pos:])]
	}
	f.pos = 0
}

// Clear discards everything and resets the cursor to zero.
func (f *FIFO) Clear() {
	f.buf = f.buf[:0]
	f.pos = 0
}

// Skip discards up to n unread bytes, clamped to what is available, then
// compacts the store. Skip(0) is a no-op.
func (f *FIFO) Skip(n int) {
	if n == 0 {
		return
	}
	f.Seek(n, SeekRelative)
	f.Clean()
}

// Drop discards exactly n unread bytes and compacts the store. Unlike
// Skip it fails when nothing is available or fewer than n bytes are
// unread, leaving the FIFO untouched.
func (f *FIFO) Drop(n int) error {
	avail := f.AvailableBytes()
	if avail == 0 || n > avail {
		return ErrInsufficientData
	}
	f.Seek(n, SeekRelative)
	f.Clean()
	return nil
}

// Equal reports whether two FIFOs hold identical bytes and identical
// cursor positions.
func (f *FIFO) Equal(other *FIFO) bool {
	if f == other {
		return true
	}
	if other == nil {
		return false
	}
	return f.pos == other.pos && bytes.Equal(f.buf, other.buf)
}

// HexDump renders the unread contents starting at the current cursor as a
// classic offset/hex/ASCII dump. columns selects bytes per line (0 means
// 16); byteLimit caps how many bytes are included (0 means no limit).
// The dump is a snapshot: the cursor does not move. Offsets are absolute
// from the start of the store. No trailing newline.
//
// Example output:
//
//	Size: 13 bytes
//	Read Position: 0
//	00000000: 48 65 6C 6C 6F 2C 20 77 6F 72 6C 64 21           Hello, world!
func (f *FIFO) HexDump(columns, byteLimit int) string {
	end := len(f.buf)
	if byteLimit > 0 && f.pos+byteLimit < end {
		end = f.pos + byteLimit
	}

	header := fmt.Sprintf("Size: %d bytes\nRead Position: %d\n", len(f.buf), f.pos)
	if end <= f.pos {
		return header
	}
	return header + formatHexLines(f.buf[f.pos:end], f.pos, columns)
}
