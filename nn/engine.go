package nn

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// engine runs the persistent worker pool behind a Network. A start
// token hands a worker the current layer's job and nothing else; unit
// indexes travel through the job's atomic claim counter, and done
// tokens are empty.
type engine struct {
	workers int
	timeout time.Duration

	jobs chan *layerJob
	quit chan struct{}
	wg   sync.WaitGroup

	// slot admits one feed-forward pass at a time, keeping scratch
	// private to a call and unit evaluation single-flight.
	slot chan struct{}

	closeOnce sync.Once
}

// layerJob is one layer's worth of parallel work. Workers claim unit
// indexes through next until the counter passes len(units), write each
// result into its own slot of out, and send exactly one done token when
// no work remains for them.
type layerJob struct {
	units []*Neuron
	in    []float64
	out   []float64

	next   atomic.Int64
	failed atomic.Bool

	faultOnce sync.Once
	fault     error

	done chan struct{}
}

// recordFault keeps the first fault of the pass and flags the job so
// the other workers stop claiming.
func (j *layerJob) recordFault(err error) {
	j.faultOnce.Do(func() { j.fault = err })
	j.failed.Store(true)
}

func newEngine(workers int, timeout time.Duration) *engine {
	e := &engine{
		workers: workers,
		timeout: timeout,
		jobs:    make(chan *layerJob, workers),
		quit:    make(chan struct{}),
		slot:    make(chan struct{}, 1),
	}
	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker()
	}
	return e
}

func (e *engine) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.quit:
			return
		case job := <-e.jobs:
			e.work(job)
		}
	}
}

// work runs one worker's share of a layer: claim, evaluate, publish,
// then signal done exactly once. A panicking activation becomes an
// evaluation fault instead of killing the pool.
func (e *engine) work(job *layerJob) {
	defer func() {
		if r := recover(); r != nil {
			job.recordFault(fmt.Errorf("%w: worker panic: %v", ErrEvaluationFailure, r))
		}
		job.done <- struct{}{}
	}()
	for !job.failed.Load() {
		idx := int(job.next.Add(1)) - 1
		if idx >= len(job.units) {
			return
		}
		v, err := job.units[idx].Evaluate(job.in)
		if err != nil {
			job.recordFault(fmt.Errorf("%w: unit %d: %v", ErrEvaluationFailure, idx, err))
			return
		}
		job.out[idx] = v
	}
}

// run performs one feed-forward pass. Validation happens before any
// dispatch; scratch buffers live only for this call.
func (e *engine) run(ctx context.Context, net *Network, input []float64) ([]float64, error) {
	if len(input) != net.InputSize() {
		return nil, fmt.Errorf("%w: got %d inputs, want %d", ErrInvalidInput, len(input), net.InputSize())
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluationFailure, err)
	}

	select {
	case <-e.quit:
		return nil, fmt.Errorf("%w: network closed", ErrEvaluationFailure)
	default:
	}
	select {
	case e.slot <- struct{}{}:
	case <-e.quit:
		return nil, fmt.Errorf("%w: network closed", ErrEvaluationFailure)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrEvaluationFailure, ctx.Err())
	}

	outputs := make([][]float64, len(net.layers))

	// Layer 0 is a pass-through evaluated inline; it exists to cache
	// the raw input on the input units.
	outputs[0] = make([]float64, len(input))
	for j, unit := range net.layers[0] {
		v, err := unit.Evaluate(input[j : j+1])
		if err != nil {
			<-e.slot
			return nil, fmt.Errorf("%w: input unit %d: %v", ErrEvaluationFailure, j, err)
		}
		outputs[0][j] = v
	}

	for i := 1; i < len(net.layers); i++ {
		job := &layerJob{
			units: net.layers[i],
			in:    outputs[i-1],
			out:   make([]float64, len(net.layers[i])),
			done:  make(chan struct{}, e.workers),
		}
		if err := e.evalLayer(ctx, job); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		outputs[i] = job.out
	}

	final := outputs[len(outputs)-1]
	net.currentOutput = final
	<-e.slot
	return final, nil
}

// evalLayer dispatches one start token per worker, then waits for
// exactly as many done tokens before the layer counts as published.
// On every error path evalLayer settles the admission slot itself:
// released inline when the pool is idle again, handed to a drainer
// when workers may still hold claims, or left parked once the pool is
// shutting down and no pass can be admitted anymore.
func (e *engine) evalLayer(ctx context.Context, job *layerJob) error {
	var timeoutCh <-chan time.Time
	if e.timeout > 0 {
		timer := time.NewTimer(e.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	for sent := 0; sent < e.workers; sent++ {
		select {
		case e.jobs <- job:
		case <-e.quit:
			return fmt.Errorf("%w: network closed", ErrEvaluationFailure)
		case <-ctx.Done():
			e.abandon(job, sent)
			return fmt.Errorf("%w: %v", ErrEvaluationFailure, ctx.Err())
		}
	}

	for pending := e.workers; pending > 0; {
		select {
		case <-job.done:
			pending--
		case <-e.quit:
			return fmt.Errorf("%w: network closed", ErrEvaluationFailure)
		case <-ctx.Done():
			e.abandon(job, pending)
			return fmt.Errorf("%w: %v", ErrEvaluationFailure, ctx.Err())
		case <-timeoutCh:
			e.abandon(job, pending)
			return fmt.Errorf("%w: barrier wait exceeded %v", ErrEvaluationFailure, e.timeout)
		}
	}

	if job.fault != nil {
		<-e.slot
		return job.fault
	}
	return nil
}

// abandon takes over the admission slot of an aborted pass: it waits in
// the background for the outstanding done tokens so workers holding
// stale claims have all finished before the next pass is admitted.
func (e *engine) abandon(job *layerJob, pending int) {
	go func() {
		for pending > 0 {
			select {
			case <-job.done:
				pending--
			case <-e.quit:
				// Shutdown: nothing can be admitted anymore, the slot
				// no longer guards anything.
				return
			}
		}
		<-e.slot
	}()
}

// close stops the pool and joins every worker. Safe to call repeatedly
// and from multiple goroutines.
func (e *engine) close() error {
	e.closeOnce.Do(func() {
		close(e.quit)
		e.wg.Wait()
	})
	return nil
}
