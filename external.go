package bufz

import "io"

// DefaultChunkSize is the per-read chunk size used by NewReaderProducer
// when none is given.
const DefaultChunkSize = 4096

// ExternalReader pulls the next chunk of bytes from an external source.
// Returning an empty chunk with a nil error signals end of input;
// returning an error aborts the pump.
type ExternalReader func() ([]byte, error)

// ExternalProducer owns a Producer and a background goroutine that pumps
// bytes from an ExternalReader into it. The pump closes the queue when
// the reader reports end of input and errors it when the reader fails or
// the queue stops accepting writes, so consumers always observe a
// terminal state.
type ExternalProducer struct {
	Producer
	reader ExternalReader
	done   chan struct{}
}

// NewExternalProducer creates an ExternalProducer and starts its pump.
func NewExternalProducer(reader ExternalReader) *ExternalProducer {
	ep := &ExternalProducer{
		Producer: NewProducer(),
		reader:   reader,
		done:     make(chan struct{}),
	}
	go ep.pump()
	return ep
}

// NewReaderProducer creates an ExternalProducer pumping from a standard
// io.Reader in chunks of chunkSize bytes (DefaultChunkSize when <= 0).
func NewReaderProducer(r io.Reader, chunkSize int) *ExternalProducer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return NewExternalProducer(func() ([]byte, error) {
		buf := make([]byte, chunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				return buf[:n], nil
			}
			if err == io.EOF {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
		}
	})
}

// Wait blocks until the pump goroutine has finished. The queue is
// guaranteed to be closed or errored afterwards.
func (ep *ExternalProducer) Wait() {
	<-ep.done
}

func (ep *ExternalProducer) pump() {
	defer close(ep.done)
	for {
		data, err := ep.reader()
		if err != nil {
			ep.SetError()
			return
		}
		if len(data) == 0 {
			ep.Close()
			return
		}
		if err := ep.Write(data); err != nil {
			ep.SetError()
			return
		}
	}
}
