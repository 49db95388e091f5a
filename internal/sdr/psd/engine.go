package psd

import (
	"context"
	"sync"

	"github.com/cwbudde/sdrsweep/internal/sdr/config"
)

// job is one pending PSD computation, keyed implicitly by the centre
// frequency carried in the job itself.
type job struct {
	samples []complex64
	rate    float64
	freq    float64
	resultC chan jobResult
}

type jobResult struct {
	res Result
	err error
}

// Future wraps a pending PSD computation. Callers block on Result; whether
// the value is already realised or still being computed is not visible at
// the interface.
type Future struct {
	resultC <-chan jobResult
}

// Result blocks until the PSD computation completes or ctx is done.
func (f *Future) Result(ctx context.Context) (Result, error) {
	select {
	case r := <-f.resultC:
		return r.res, r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Engine is a bounded worker pool computing PSDs asynchronously. Submit
// blocks once maxQueueSize jobs are pending.
type Engine struct {
	cfg   config.SweepConfig
	queue chan job
	wg    sync.WaitGroup
}

// NewEngine starts maxThreads workers draining a queue of depth
// maxQueueSize. maxThreads <= 0 uses runtime.NumCPU.
func NewEngine(cfg config.SweepConfig, maxThreads, maxQueueSize int) *Engine {
	if maxQueueSize <= 0 {
		maxQueueSize = 1
	}
	if maxThreads <= 0 {
		maxThreads = defaultThreads()
	}

	e := &Engine{
		cfg:   cfg,
		queue: make(chan job, maxQueueSize),
	}
	e.wg.Add(maxThreads)
	for i := 0; i < maxThreads; i++ {
		go e.worker()
	}
	return e
}

func (e *Engine) worker() {
	defer e.wg.Done()
	sc := &scratch{}
	for j := range e.queue {
		res, err := computeWithScratch(j.samples, e.cfg, j.rate, j.freq, sc)
		j.resultC <- jobResult{res: res, err: err}
	}
}

// Submit hands a burst's samples off for asynchronous PSD computation. It
// blocks if the queue is full, back-pressuring the acquisition loop
// instead of queueing unboundedly.
func (e *Engine) Submit(samples []complex64, rate, freq float64) *Future {
	resultC := make(chan jobResult, 1)
	e.queue <- job{samples: samples, rate: rate, freq: freq, resultC: resultC}
	return &Future{resultC: resultC}
}

// Close stops accepting new jobs and waits for in-flight work to drain.
func (e *Engine) Close() {
	close(e.queue)
	e.wg.Wait()
}
