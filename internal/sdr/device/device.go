// Package device defines the abstract SDR front-end capability consumed by
// the acquisition loop. Opening a physical device, binding to a driver
// library, and reading raw samples off USB/network transport belong to the
// driver binding; this package only describes the interface boundary and
// provides a deterministic fake for tests.
package device

import (
	"context"
	"errors"
)

// ErrDevice is the sentinel wrapped by fatal device-class errors: tuner or
// stream reactivation failures that abort a sweep.
var ErrDevice = errors.New("device error")

// Device is the capability surface the acquisition loop drives. A concrete
// implementation wraps a specific SDR driver binding (SoapySDR, librtlsdr,
// etc.); none is implemented in this module.
type Device interface {
	// Freq returns the device's current tuned centre frequency in Hz.
	Freq() float64
	// SetFreq retunes the device to the given centre frequency in Hz.
	SetFreq(ctx context.Context, hz float64) error

	// SetSampleRate configures the device sample rate in Hz.
	SetSampleRate(ctx context.Context, hz float64) error
	// SetBandwidth configures the device analog filter bandwidth in Hz.
	SetBandwidth(ctx context.Context, hz float64) error
	// SetGain configures the tuner gain in dB.
	SetGain(ctx context.Context, db float64) error
	// SetAntenna selects the named antenna port.
	SetAntenna(ctx context.Context, name string) error

	// StartStream begins sample streaming with the given buffer size hint
	// and returns the base chunk size the device will deliver per read.
	StartStream(ctx context.Context, bufferSize int) (baseBufferSize int, err error)
	// StopStream ends sample streaming and releases device-side resources.
	StopStream(ctx context.Context) error

	// DeactivateStream temporarily suspends delivery without releasing
	// stream resources (used around a retune when reset_stream is set).
	DeactivateStream(ctx context.Context) error
	// ActivateStream resumes a previously deactivated stream.
	ActivateStream(ctx context.Context) error
	// IsStreaming reports whether the stream is currently active.
	IsStreaming() bool

	// ReadStream reads one driver-sized chunk of complex samples, blocking
	// until data is available or ctx is done.
	ReadStream(ctx context.Context) ([]complex64, error)
	// ReadStreamInto fills dst with successive driver chunks until dst is
	// full, returning the number of samples written. Short fills can occur
	// on transient I/O errors; the caller treats a short or zero fill as
	// valid, possibly-empty input.
	ReadStreamInto(ctx context.Context, dst []complex64) (n int, err error)

	// BufferOverflowCount returns the cumulative count of USB/driver
	// overflow events observed so far.
	BufferOverflowCount() int
}
