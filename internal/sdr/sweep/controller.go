// Package sweep implements the sweep controller: it owns the
// idle/streaming/draining lifecycle, drives the acquisition loop over the
// hop plan, and wires burst detection through the PSD engine and
// measurement reducer to a sink.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/cwbudde/sdrsweep/dsp/buffer"
	"github.com/cwbudde/sdrsweep/internal/sdr/buffersize"
	"github.com/cwbudde/sdrsweep/internal/sdr/burst"
	"github.com/cwbudde/sdrsweep/internal/sdr/config"
	"github.com/cwbudde/sdrsweep/internal/sdr/device"
	"github.com/cwbudde/sdrsweep/internal/sdr/hopplan"
	"github.com/cwbudde/sdrsweep/internal/sdr/measurement"
	"github.com/cwbudde/sdrsweep/internal/sdr/psd"
)

// State is one of the controller's lifecycle states.
type State int

const (
	// Idle is the state before Run and after a clean Draining exit.
	Idle State = iota
	// Streaming is the state while hops are actively being acquired.
	Streaming
	// Draining is the state after the run loop exits, while in-flight PSD
	// work finishes and the device stream is stopped.
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Draining:
		return "draining"
	default:
		return "unknown"
	}
}

// Writer is the sink surface the controller sends accepted measurements
// to. UDPSink implements it; the interface keeps the controller
// sink-agnostic so another output format can be wired in without touching
// the measurement reducer.
type Writer interface {
	Send(m measurement.Measurement)
}

// ErrDeviceFatal wraps a device-class error that aborts a running sweep.
// Draining still runs before Run returns one of these.
var ErrDeviceFatal = errors.New("sweep: device error")

// Controller orchestrates the hop plan, acquisition, burst detection, PSD
// computation and measurement emission for a whole sweep.
type Controller struct {
	dev    device.Device
	engine *psd.Engine
	sink   *writerPool
	cfg    config.SweepConfig

	plan       hopplan.Plan
	bufPlan    buffersize.Plan
	detector   *burst.Detector
	sampleRate float64

	// sampleBuf is created once here and reused across every hop's
	// acquisitions.
	sampleBuf *buffer.Buffer
	// burstPool hands out short-lived copies of a detected burst's samples
	// to the PSD engine, returned once the engine's result is consumed.
	burstPool *buffer.Pool

	state    atomic.Int32
	shutdown atomic.Bool
}

// New constructs a Controller. sampleRate is the device's configured
// sample rate (DeviceConfig.SampleRate), used to derive the hop plan.
func New(dev device.Device, engine *psd.Engine, sink Writer, cfg config.SweepConfig, sampleRate float64) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plan, err := hopplan.Compute(cfg, sampleRate)
	if err != nil {
		return nil, err
	}
	bufPlan, err := buffersize.Compute(cfg)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		dev:        dev,
		engine:     engine,
		sink:       newWriterPool(sink),
		cfg:        cfg,
		plan:       plan,
		bufPlan:    bufPlan,
		detector:   burst.NewDetector(cfg.TrueMagnitude),
		sampleRate: sampleRate,
		sampleBuf:  buffer.New(bufPlan.BufferSize),
		burstPool:  buffer.NewPool(),
	}
	return c, nil
}

// State reports the controller's current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Shutdown sets the process-wide shutdown flag. It is safe to call
// concurrently with Run and idempotently from a signal handler.
func (c *Controller) Shutdown() {
	c.shutdown.Store(true)
}

// Run drives the sweep to completion: Idle -> Streaming -> Draining ->
// Idle. It returns nil on a clean shutdown or run/time-limit exhaustion,
// and a wrapped ErrDeviceFatal if stream start, a tune, or a stream
// reactivation fails. Draining runs on every exit path.
func (c *Controller) Run(ctx context.Context) error {
	c.state.Store(int32(Streaming))
	defer c.state.Store(int32(Idle))

	var runErr error
	if _, err := c.dev.StartStream(ctx, c.bufPlan.BufferSize); err != nil {
		runErr = fmt.Errorf("%w: start stream: %v", ErrDeviceFatal, err)
	} else {
		runErr = c.runLoop(ctx)
	}

	c.state.Store(int32(Draining))
	if err := c.dev.StopStream(ctx); err != nil {
		log.Printf("sweep: stop stream: %v", err)
	}
	c.engine.Close()
	c.sink.Close()
	if n := c.dev.BufferOverflowCount(); n > 0 {
		log.Printf("sweep: %d buffer overflow(s) during sweep", n)
	}

	return runErr
}

func (c *Controller) runLoop(ctx context.Context) error {
	runStart := time.Now()
	for run := 0; c.cfg.Runs == 0 || run < c.cfg.Runs; run++ {
		if c.shutdown.Load() {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if c.cfg.TimeLimit > 0 && run > 0 && time.Since(runStart) >= c.cfg.TimeLimit {
			return nil
		}

		for _, freq := range c.plan.Frequencies {
			if c.shutdown.Load() || ctx.Err() != nil {
				return nil
			}
			if err := c.runHop(ctx, freq); err != nil {
				return err
			}
		}
	}
	return nil
}

// runHop performs one full retune-acquire-detect-measure cycle.
func (c *Controller) runHop(ctx context.Context, freq float64) error {
	if err := c.tune(ctx, freq); err != nil {
		return err
	}

	c.detector.NewHop(c.cfg.ThresholdDBm)

	var fut *psd.Future
	var detected *burst.Burst
	var burstBuf *buffer.Buffer

	samples := c.sampleBuf.Samples()
	for repeat := 0; repeat < c.bufPlan.BufferRepeats; repeat++ {
		start := time.Now()
		n, err := c.dev.ReadStreamInto(ctx, samples)
		if err != nil {
			log.Printf("sweep: hop %0.fHz: read stream: %v", freq, err)
		}

		// The detector runs on every repeat so its adaptive threshold keeps
		// tracking the noise floor; it reports at most one burst per hop.
		if n > 0 {
			if b := c.detector.Detect(samples[:n], c.sampleRate, freq, start); b != nil && fut == nil {
				detected = b
				burstBuf = c.burstPool.Get(b.Stop - b.Start)
				copy(burstBuf.Samples(), samples[b.Start:b.Stop])
				fut = c.engine.Submit(burstBuf.Samples(), c.sampleRate, freq)
			}
		}

		if c.shutdown.Load() || ctx.Err() != nil {
			break
		}
	}

	if fut == nil {
		return nil
	}
	return c.handleResult(ctx, fut, detected, burstBuf, freq)
}

func (c *Controller) handleResult(ctx context.Context, fut *psd.Future, b *burst.Burst, burstBuf *buffer.Buffer, freq float64) error {
	result, err := fut.Result(ctx)
	defer c.burstPool.Put(burstBuf)
	if err != nil {
		if errors.Is(err, psd.ErrEmptySpectrum) {
			log.Printf("sweep: hop %0.fHz: empty spectrum", freq)
			return nil
		}
		log.Printf("sweep: hop %0.fHz: psd result: %v", freq, err)
		return nil
	}

	m, err := measurement.Reduce(result, b, c.sampleRate, c.cfg.ThresholdDBm, c.cfg.LnbLO)
	if err != nil {
		if errors.Is(err, measurement.ErrBelowThreshold) {
			return nil
		}
		log.Printf("sweep: hop %0.fHz: reduce measurement: %v", freq, err)
		return nil
	}

	c.sink.Send(m)
	return nil
}

// tune retunes the device to freq, honouring the reset-stream and
// tune-delay settings. The delay is a minimum: it discards whole driver
// chunks until the configured settle time has elapsed.
func (c *Controller) tune(ctx context.Context, freq float64) error {
	if c.dev.Freq() == freq {
		return nil
	}

	if c.cfg.ResetStream {
		if err := c.dev.DeactivateStream(ctx); err != nil {
			return fmt.Errorf("%w: deactivate stream: %v", ErrDeviceFatal, err)
		}
	}

	if err := c.dev.SetFreq(ctx, freq); err != nil {
		return fmt.Errorf("%w: set freq %0.fHz: %v", ErrDeviceFatal, freq, err)
	}

	if c.cfg.ResetStream {
		if err := c.dev.ActivateStream(ctx); err != nil {
			return fmt.Errorf("%w: activate stream: %v", ErrDeviceFatal, err)
		}
	}

	if c.cfg.TuneDelay > 0 {
		deadline := time.Now().Add(c.cfg.TuneDelay)
		for time.Now().Before(deadline) {
			if _, err := c.dev.ReadStream(ctx); err != nil {
				return nil
			}
			if c.shutdown.Load() || ctx.Err() != nil {
				return nil
			}
		}
	}

	return nil
}
