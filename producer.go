package bufz

// Producer is the write capability over one SharedFIFO: append, close,
// and set-error. It is a cheaply-copyable value; copying duplicates the
// reference, not the data, and handles sharing a queue compare equal
// with ==. The queue lives as long as any handle referencing it.
//
// Producer introduces no failure modes of its own; it only narrows the
// SharedFIFO surface to the write capability. The zero value has no
// queue and must not be used; construct with NewProducer.
type Producer struct {
	shared *SharedFIFO
}

// NewProducer creates a Producer backed by a fresh, open SharedFIFO.
func NewProducer() Producer {
	return Producer{shared: NewSharedFIFO()}
}

// Write appends bytes to the shared queue, waking blocked readers.
// Rejected once the queue is closed or errored.
func (p Producer) Write(data []byte) error {
	return p.shared.Write(data)
}

// WriteString appends the bytes of s.
func (p Producer) WriteString(s string) error {
	return p.shared.WriteString(s)
}

// Close marks the queue closed for further writes. Readers drain what is
// buffered and then observe end-of-data. Idempotent.
func (p Producer) Close() {
	p.shared.Close()
}

// SetError marks the queue as failed, waking and failing all readers.
// Idempotent and sticky.
func (p Producer) SetError() {
	p.shared.SetError()
}

// IsWritable reports whether Write can still succeed.
func (p Producer) IsWritable() bool {
	return p.shared.IsWritable()
}

// Consumer returns a read handle over the same queue. This is the only
// way to mint a Consumer, so every Consumer traces back to exactly one
// Producer lineage.
func (p Producer) Consumer() Consumer {
	return Consumer{shared: p.shared}
}

// Buffer returns the underlying SharedFIFO, exposing the full locked
// surface (metrics, seek, hexdump) when capability narrowing is not
// wanted.
func (p Producer) Buffer() *SharedFIFO {
	return p.shared
}
