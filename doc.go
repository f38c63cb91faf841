// Package bufz provides a byte-buffering engine for building streaming I/O
// adapters in Go: growable byte queues, thread-safe blocking queues with
// explicit close/error termination, shared producer/consumer handles, and a
// multi-stage concurrent processing pipeline built from chained queues.
//
// # Overview
//
// bufz moves and temporarily holds opaque byte sequences so that network
// readers, file bridges, and transform chains don't each re-implement the
// same synchronization. It has no opinion about payload contents and no
// wire or file format; its boundary is an in-process call interface.
//
// # Core Concepts
//
// The engine is built from four layers:
//
//   - FIFO: a single-goroutine growable byte queue with a read cursor that
//     is independent of the write end. Reads advance the cursor without
//     destroying data; extracts remove data; peeks do neither.
//   - SharedFIFO: a FIFO wrapped in a mutex and condition variable. Read,
//     Extract, and Peek block until enough bytes arrive or the queue
//     terminates. Close signals graceful end-of-writes (buffered bytes
//     remain consumable); SetError is the hard-stop path.
//   - Producer and Consumer: cheaply-copyable capability handles over one
//     SharedFIFO. Producer writes and terminates; Consumer reads and
//     drains. Handles sharing a queue compare equal with ==.
//   - Pipeline: an ordered list of stage functions, each reading from a
//     Consumer and writing into a Producer. Process wires a fresh
//     SharedFIFO between every pair of stages and runs them concurrently
//     (Async) or with the final stage inline (Sync).
//
// # Quick Start
//
//	pipeline := bufz.NewPipeline("shout",
//	    bufz.Pipe("upper", func(_ context.Context, in bufz.Consumer, out bufz.Producer) error {
//	        defer out.Close()
//	        data, err := in.ExtractUntilEoF()
//	        if err != nil {
//	            return err
//	        }
//	        return out.Write(bytes.ToUpper(data))
//	    }),
//	)
//
//	source := bufz.NewProducer()
//	_ = source.Write([]byte("hello"))
//	source.Close()
//
//	result, err := pipeline.Process(context.Background(), source.Consumer(), bufz.Sync)
//	// result drains to "HELLO"
//
// # Termination
//
// Every queue distinguishes two terminal states. Closed means no more
// writes will happen; readers consume what is buffered and then observe
// end-of-data. Errored means the queue is permanently unusable regardless
// of buffered content; it is sticky and takes precedence. A draining loop
// distinguishes "finished normally" (closed, no error) from "aborted"
// (errored) through EoF and the error returned by the read operations.
//
// Pipeline stages report failure by returning an error; the pipeline then
// errors that stage's output so downstream stages observe the abort and
// unwind. Pipeline.SetError aborts every stage boundary at once for
// external cancellation.
//
// # Blocking Model
//
// Blocking is native goroutine blocking on a condition variable; there is
// no timeout parameter. The only ways to unblock a waiting reader are a
// Write that satisfies its request, a Close, or a SetError. Callers that
// need timeouts call SetError from another goroutine. Callers that need
// non-blocking polling pass n == 0 ("whatever is available") or poll
// AvailableBytes and EoF.
//
// # Observability
//
// SharedFIFO instances carry a metricz registry counting writes, reads,
// and waits. Pipeline adds tracez spans around runs and stages, and emits
// hookz events as stages complete. Clocks are injectable via clockz for
// deterministic tests.
package bufz
