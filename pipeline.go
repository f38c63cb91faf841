package bufz

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
	"golang.org/x/sync/errgroup"
)

// Observability constants for Pipeline.
const (
	// Metrics.
	PipelineRunsTotal      = metricz.Key("pipeline.runs.total")
	PipelineSuccessesTotal = metricz.Key("pipeline.successes.total")
	PipelineFailuresTotal  = metricz.Key("pipeline.failures.total")
	PipelineStagesTotal    = metricz.Key("pipeline.stages.total")
	PipelineDurationMs     = metricz.Key("pipeline.duration.ms")

	// Spans.
	PipelineProcessSpan = tracez.Key("pipeline.process")
	PipelineStageSpan   = tracez.Key("pipeline.stage")

	// Tags.
	PipelineTagStageCount = tracez.Tag("pipeline.stage_count")
	PipelineTagMode       = tracez.Tag("pipeline.mode")
	PipelineTagStageName  = tracez.Tag("pipeline.stage_name")
	PipelineTagSuccess    = tracez.Tag("pipeline.success")
	PipelineTagError      = tracez.Tag("pipeline.error")

	// Hook event keys.
	PipelineEventStageComplete = hookz.Key("pipeline.stage_complete")
	PipelineEventAllComplete   = hookz.Key("pipeline.all_complete")
)

// PipeFunc is a pipeline stage: read from in, write transformed bytes to
// out. A stage must eventually close or error its Producer so downstream
// consumers terminate, and must not retain the Producer past its return.
// Returning a non-nil error makes the pipeline error the stage's output
// on the stage's behalf and surface the failure from Wait (and from
// Process in Sync mode).
type PipeFunc func(ctx context.Context, in Consumer, out Producer) error

// Stage pairs a PipeFunc with a name for tracing, events, and errors.
type Stage struct {
	Fn   PipeFunc
	Name Name
}

// Pipe creates a named Stage.
func Pipe(name Name, fn PipeFunc) Stage {
	return Stage{Name: name, Fn: fn}
}

// PipelineEvent represents a pipeline run event, emitted via hookz as
// individual stages finish and when a whole run completes.
type PipelineEvent struct {
	Name            Name          // Pipeline name
	StageName       Name          // Name of the stage (stage_complete)
	StageNumber     int           // Stage number, 1-based (stage_complete)
	TotalStages     int           // Total number of stages
	Success         bool          // Whether the stage or run succeeded
	Error           error         // Failure, if any
	Duration        time.Duration // Stage or run duration
	Timestamp       time.Time     // When the event occurred
}

// Pipeline chains stage functions into a multi-stage byte-processing run.
// Process wires one fresh SharedFIFO between every pair of adjacent
// stages: each stage's Producer feeds the next stage's Consumer, and the
// final stage's Consumer is returned to the caller.
//
// Stage goroutines own their handles by value, so a run stays valid
// independent of the caller's scope. The pipeline retains only the run's
// join handle: Wait blocks until all stages return, and a new Process
// call fails fast with ErrPipelineBusy while a run is in flight.
//
// Failure propagation: a stage that cannot continue returns an error (or
// calls SetError on its output directly); downstream stages observe the
// abort through EoF and read failures and unwind by erroring their own
// outputs. SetError on the pipeline aborts every stage boundary at once.
//
// # Observability
//
// Metrics:
//   - pipeline.runs.total: counter of Process invocations that started a run
//   - pipeline.successes.total / pipeline.failures.total: run outcomes
//   - pipeline.stages.total: gauge of stages in the last run
//   - pipeline.duration.ms: gauge of last run duration
//
// Traces:
//   - pipeline.process: parent span for the whole run
//   - pipeline.stage: child span per stage
//
// Events (via hooks):
//   - pipeline.stage_complete: fired as each stage returns
//   - pipeline.all_complete: fired when a run finishes with no stage errors
type Pipeline struct {
	name      Name
	stages    []Stage
	producers []Producer
	mu        sync.Mutex
	running   bool
	done      chan struct{}
	runErr    error
	clock     clockz.Clock
	metrics   *metricz.Registry
	tracer    *tracez.Tracer
	hooks     *hookz.Hooks[PipelineEvent]
}

// NewPipeline creates a Pipeline with optional initial stages.
//
// Example:
//
//	pipeline := bufz.NewPipeline("transcode",
//	    bufz.Pipe("decode", decodeStage),
//	    bufz.Pipe("filter", filterStage),
//	    bufz.Pipe("encode", encodeStage),
//	)
func NewPipeline(name Name, stages ...Stage) *Pipeline {
	metrics := metricz.New()
	metrics.Counter(PipelineRunsTotal)
	metrics.Counter(PipelineSuccessesTotal)
	metrics.Counter(PipelineFailuresTotal)
	metrics.Gauge(PipelineStagesTotal)
	metrics.Gauge(PipelineDurationMs)

	return &Pipeline{
		name:    name,
		stages:  slices.Clone(stages),
		clock:   clockz.RealClock,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[PipelineEvent](),
	}
}

// Register appends stages to the pipeline. Stages run in the order they
// were registered. Safe to call concurrently, but not while a run is in
// flight if the new stages should take part in it.
func (p *Pipeline) Register(stages ...Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, stages...)
}

// Len returns the number of registered stages.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stages)
}

// Clear removes all registered stages.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = p.stages[:0]
}

// Names returns the names of all stages in order.
func (p *Pipeline) Names() []Name {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]Name, len(p.stages))
	for i, stage := range p.stages {
		names[i] = stage.Name
	}
	return names
}

// Name returns the name of this pipeline.
func (p *Pipeline) Name() Name {
	return p.name
}

// Metrics returns the metrics registry for this pipeline.
func (p *Pipeline) Metrics() *metricz.Registry {
	return p.metrics
}

// Tracer returns the tracer for this pipeline.
func (p *Pipeline) Tracer() *tracez.Tracer {
	return p.tracer
}

// WithClock sets a custom clock for testing.
func (p *Pipeline) WithClock(clock clockz.Clock) *Pipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = clock
	return p
}

// OnStageComplete registers a handler called asynchronously as each stage
// returns, whether it succeeded or failed.
func (p *Pipeline) OnStageComplete(handler func(context.Context, PipelineEvent) error) error {
	_, err := p.hooks.Hook(PipelineEventStageComplete, handler)
	return err
}

// OnAllComplete registers a handler called asynchronously when a run
// finishes with no stage errors.
func (p *Pipeline) OnAllComplete(handler func(context.Context, PipelineEvent) error) error {
	_, err := p.hooks.Hook(PipelineEventAllComplete, handler)
	return err
}

// Close gracefully shuts down observability components. It does not stop
// an in-flight run; call SetError and Wait first if one may be running.
func (p *Pipeline) Close() error {
	if p.tracer != nil {
		p.tracer.Close()
	}
	p.hooks.Close()
	return nil
}

// SetError marks every intermediate stage boundary of the current (or
// last) run as errored. Stages blocked on reads wake and observe the
// abort; stages attempting writes are rejected. This is the external
// cancellation path for a run already in flight.
func (p *Pipeline) SetError() {
	p.mu.Lock()
	producers := slices.Clone(p.producers)
	p.mu.Unlock()
	for _, producer := range producers {
		producer.SetError()
	}
}

// Process runs the registered stages against in and returns the Consumer
// of the final stage's output.
//
// With zero stages the input Consumer is returned unchanged. Otherwise
// one fresh Producer is allocated per stage; stage i reads from in when
// i == 0 and from stage i-1's queue otherwise. Every stage except the
// last runs on its own goroutine. Under Sync the last stage runs inline
// and all workers are joined before Process returns, so no background
// work survives the call; the first stage failure is returned as a
// *StageError. Under Async the last stage is spawned like the others and
// Process returns immediately; the caller drains the returned Consumer
// and may collect the run's outcome from Wait.
//
// Process fails fast with ErrPipelineBusy while a previous run is still
// in flight. Calling Wait first serializes runs.
func (p *Pipeline) Process(ctx context.Context, in Consumer, mode ExecutionMode) (Consumer, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return Consumer{}, ErrPipelineBusy
	}
	stages := slices.Clone(p.stages)
	if len(stages) == 0 {
		p.mu.Unlock()
		return in, nil
	}
	producers := make([]Producer, len(stages))
	for i := range producers {
		producers[i] = NewProducer()
	}
	p.producers = producers
	clock := p.clock
	done := make(chan struct{})
	p.done = done
	p.runErr = nil
	p.running = true
	p.mu.Unlock()

	p.metrics.Counter(PipelineRunsTotal).Inc()
	p.metrics.Gauge(PipelineStagesTotal).Set(float64(len(stages)))
	start := clock.Now()

	ctx, span := p.tracer.StartSpan(ctx, PipelineProcessSpan)
	span.SetTag(PipelineTagStageCount, strconv.Itoa(len(stages)))
	span.SetTag(PipelineTagMode, mode.String())

	group := &errgroup.Group{}

	finish := func(err error) {
		elapsed := clock.Since(start)
		p.metrics.Gauge(PipelineDurationMs).Set(float64(elapsed.Milliseconds()))
		if err == nil {
			p.metrics.Counter(PipelineSuccessesTotal).Inc()
			span.SetTag(PipelineTagSuccess, "true")
			_ = p.hooks.Emit(ctx, PipelineEventAllComplete, PipelineEvent{ //nolint:errcheck
				Name:        p.name,
				TotalStages: len(stages),
				Success:     true,
				Duration:    elapsed,
				Timestamp:   clock.Now(),
			})
		} else {
			p.metrics.Counter(PipelineFailuresTotal).Inc()
			span.SetTag(PipelineTagSuccess, "false")
			span.SetTag(PipelineTagError, err.Error())
		}
		span.Finish()

		p.mu.Lock()
		p.runErr = err
		p.running = false
		p.mu.Unlock()
		close(done)
	}

	for i := 0; i < len(stages)-1; i++ {
		stageIn := in
		if i > 0 {
			stageIn = producers[i-1].Consumer()
		}
		index, stage, out := i, stages[i], producers[i]
		group.Go(func() error {
			return p.runStage(ctx, index, len(stages), stage, stageIn, out)
		})
	}

	last := len(stages) - 1
	lastIn := in
	if last > 0 {
		lastIn = producers[last-1].Consumer()
	}
	result := producers[last].Consumer()

	if mode == Sync {
		inlineErr := p.runStage(ctx, last, len(stages), stages[last], lastIn, producers[last])
		err := group.Wait()
		if err == nil {
			err = inlineErr
		}
		finish(err)
		return result, err
	}

	group.Go(func() error {
		return p.runStage(ctx, last, len(stages), stages[last], lastIn, producers[last])
	})
	go func() {
		finish(group.Wait())
	}()
	return result, nil
}

// runStage executes one stage with its span, event, and error bookkeeping.
// On failure the stage's output is errored so downstream consumers
// observe the abort.
func (p *Pipeline) runStage(ctx context.Context, index, total int, stage Stage, in Consumer, out Producer) error {
	clock := p.getClock()

	stageCtx, stageSpan := p.tracer.StartSpan(ctx, PipelineStageSpan)
	stageSpan.SetTag(PipelineTagStageName, string(stage.Name))

	stageStart := clock.Now()
	err := stage.Fn(stageCtx, in, out)
	duration := clock.Since(stageStart)

	if err != nil {
		out.SetError()
		stageSpan.SetTag(PipelineTagError, err.Error())
	}
	stageSpan.Finish()

	_ = p.hooks.Emit(ctx, PipelineEventStageComplete, PipelineEvent{ //nolint:errcheck
		Name:        p.name,
		StageName:   stage.Name,
		StageNumber: index + 1,
		TotalStages: total,
		Success:     err == nil,
		Error:       err,
		Duration:    duration,
		Timestamp:   clock.Now(),
	})

	if err != nil {
		return &StageError{
			Timestamp: clock.Now(),
			Err:       err,
			Pipeline:  p.name,
			Stage:     stage.Name,
			Index:     index,
			Duration:  duration,
		}
	}
	return nil
}

// Wait blocks until the current run's stages have all returned and
// reports the run's first stage failure, if any. Returns nil immediately
// when no run has been started.
func (p *Pipeline) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runErr
}

// getClock returns the clock to use.
func (p *Pipeline) getClock() clockz.Clock {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clock == nil {
		return clockz.RealClock
	}
	return p.clock
}
