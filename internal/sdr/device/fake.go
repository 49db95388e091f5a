package device

import (
	"context"
	"sync"
)

// ChunkSource supplies the next chunk of samples for a given centre
// frequency. It is called once per ReadStream/ReadStreamInto driver chunk.
// Returning a slice shorter than requested models a transient short read.
type ChunkSource func(freq float64, chunkLen int) []complex64

// Fake is a deterministic, in-memory Device implementation for tests. It
// never touches hardware; samples are produced by a caller-supplied
// ChunkSource so detection/PSD tests can inject synthetic bursts at known
// sample offsets.
type Fake struct {
	mu sync.Mutex

	freq       float64
	sampleRate float64
	bandwidth  float64
	gainDB     float64
	antenna    string

	chunkLen  int
	streaming bool
	overflow  int

	Source ChunkSource

	// SetFreqErr, when non-nil, is returned by SetFreq (models a tuning
	// failure).
	SetFreqErr error
	// ActivateErr, when non-nil, is returned by ActivateStream.
	ActivateErr error

	// TuneCalls records every SetFreq target, in order, for assertions.
	TuneCalls []float64
	// DeactivateCalls / ActivateCalls count stream suspend/resume calls.
	DeactivateCalls int
	ActivateCalls   int
}

// NewFake returns a Fake device with the given default chunk length.
func NewFake(chunkLen int, source ChunkSource) *Fake {
	return &Fake{chunkLen: chunkLen, Source: source}
}

// Freq implements Device.
func (f *Fake) Freq() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.freq
}

// SetFreq implements Device.
func (f *Fake) SetFreq(_ context.Context, hz float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetFreqErr != nil {
		return f.SetFreqErr
	}
	f.freq = hz
	f.TuneCalls = append(f.TuneCalls, hz)
	return nil
}

// SetSampleRate implements Device.
func (f *Fake) SetSampleRate(_ context.Context, hz float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sampleRate = hz
	return nil
}

// SetBandwidth implements Device.
func (f *Fake) SetBandwidth(_ context.Context, hz float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bandwidth = hz
	return nil
}

// SetGain implements Device.
func (f *Fake) SetGain(_ context.Context, db float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gainDB = db
	return nil
}

// SetAntenna implements Device.
func (f *Fake) SetAntenna(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.antenna = name
	return nil
}

// StartStream implements Device.
func (f *Fake) StartStream(_ context.Context, bufferSize int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streaming = true
	if f.chunkLen <= 0 {
		f.chunkLen = bufferSize
	}
	return f.chunkLen, nil
}

// StopStream implements Device.
func (f *Fake) StopStream(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streaming = false
	return nil
}

// DeactivateStream implements Device.
func (f *Fake) DeactivateStream(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeactivateCalls++
	f.streaming = false
	return nil
}

// ActivateStream implements Device.
func (f *Fake) ActivateStream(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ActivateErr != nil {
		return f.ActivateErr
	}
	f.ActivateCalls++
	f.streaming = true
	return nil
}

// IsStreaming implements Device.
func (f *Fake) IsStreaming() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streaming
}

// ReadStream implements Device.
func (f *Fake) ReadStream(_ context.Context) ([]complex64, error) {
	f.mu.Lock()
	freq, chunkLen := f.freq, f.chunkLen
	f.mu.Unlock()
	return f.Source(freq, chunkLen), nil
}

// ReadStreamInto implements Device.
func (f *Fake) ReadStreamInto(ctx context.Context, dst []complex64) (int, error) {
	written := 0
	for written < len(dst) {
		chunk, err := f.ReadStream(ctx)
		if err != nil {
			return written, err
		}
		if len(chunk) == 0 {
			break
		}
		n := copy(dst[written:], chunk)
		written += n
		if n < len(chunk) {
			// dst is full; remaining chunk samples are dropped, matching a
			// driver chunk boundary landing mid-buffer.
			break
		}
	}
	return written, nil
}

// BufferOverflowCount implements Device.
func (f *Fake) BufferOverflowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overflow
}

// InjectOverflow increments the overflow counter, modelling a USB overflow
// event.
func (f *Fake) InjectOverflow() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overflow++
}
