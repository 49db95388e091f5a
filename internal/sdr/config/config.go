// Package config defines the device and sweep configuration surfaces
// consumed by the rest of the sweep pipeline, following the
// functional-options-plus-Validate idiom used throughout this module.
package config

import (
	"fmt"
	"time"

	"github.com/cwbudde/sdrsweep/dsp/window"
)

// DeviceConfig holds the settings applied to the radio front-end. It is
// not modified after the device has been opened with it.
type DeviceConfig struct {
	SampleRate    float64
	Bandwidth     float64
	CorrectionPPM float64
	GainDB        float64
	Channel       int
	Antenna       string
	Settings      map[string]string
}

// DeviceOption mutates a DeviceConfig during construction.
type DeviceOption func(*DeviceConfig)

// DefaultDeviceConfig returns the baseline device configuration.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		SampleRate: 2_000_000,
		GainDB:     30,
		Channel:    0,
	}
}

// WithSampleRate sets the device sample rate in Hz.
func WithSampleRate(hz float64) DeviceOption {
	return func(c *DeviceConfig) {
		if hz > 0 {
			c.SampleRate = hz
		}
	}
}

// WithBandwidth sets the device analog bandwidth in Hz.
func WithBandwidth(hz float64) DeviceOption {
	return func(c *DeviceConfig) {
		if hz > 0 {
			c.Bandwidth = hz
		}
	}
}

// WithCorrectionPPM sets the crystal frequency correction in parts per million.
func WithCorrectionPPM(ppm float64) DeviceOption {
	return func(c *DeviceConfig) {
		c.CorrectionPPM = ppm
	}
}

// WithGain sets the tuner gain in dB.
func WithGain(db float64) DeviceOption {
	return func(c *DeviceConfig) {
		c.GainDB = db
	}
}

// WithChannel sets the device channel index.
func WithChannel(ch int) DeviceOption {
	return func(c *DeviceConfig) {
		if ch >= 0 {
			c.Channel = ch
		}
	}
}

// WithAntenna sets the antenna port name.
func WithAntenna(name string) DeviceOption {
	return func(c *DeviceConfig) {
		c.Antenna = name
	}
}

// WithSetting sets an opaque driver-specific key/value setting.
func WithSetting(key, value string) DeviceOption {
	return func(c *DeviceConfig) {
		if c.Settings == nil {
			c.Settings = make(map[string]string)
		}
		c.Settings[key] = value
	}
}

// ApplyDeviceOptions applies zero or more options to the default config.
func ApplyDeviceOptions(opts ...DeviceOption) DeviceConfig {
	cfg := DefaultDeviceConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate reports a ConfigError-class problem with the device configuration.
func (c DeviceConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0: %f", ErrConfig, c.SampleRate)
	}
	if c.Channel < 0 {
		return fmt.Errorf("%w: channel must be >= 0: %d", ErrConfig, c.Channel)
	}
	return nil
}

// BinRounding selects how a requested FFT bin count is rounded up before
// planning, matching soapy_power's --even and --pow2 flags.
type BinRounding int

const (
	// BinRoundingNone leaves the requested bin count untouched.
	BinRoundingNone BinRounding = iota
	// BinRoundingEven rounds up to the nearest even integer.
	BinRoundingEven
	// BinRoundingPow2 rounds up to the next power of two.
	BinRoundingPow2
)

// DetrendMode selects the per-segment detrending applied before windowing.
type DetrendMode int

const (
	// DetrendNone disables detrending.
	DetrendNone DetrendMode = iota
	// DetrendConstant subtracts the per-segment mean.
	DetrendConstant
	// DetrendLinear removes a least-squares line per segment.
	DetrendLinear
)

// SweepConfig holds the parameters that drive the hop plan, PSD engine, and
// measurement reduction.
type SweepConfig struct {
	MinFreq, MaxFreq float64
	Bins             int
	BinRounding      BinRounding
	Repeats          int
	Overlap          float64

	Crop       bool
	FFTWindow  window.Type
	FFTOverlap float64
	LogScale   bool
	RemoveDC   bool
	Detrend    DetrendMode

	LnbLO       float64
	TuneDelay   time.Duration
	ResetStream bool

	BaseBufferSize int
	MaxBufferSize  int

	MaxThreads   int
	MaxQueueSize int

	ThresholdDBm float64

	UDPHost string
	UDPPort int

	Runs      int
	TimeLimit time.Duration

	// TrueMagnitude switches burst detection from the algebraic Re+Im sum
	// (the faithfully preserved default) to true magnitude |Re|+|Im|.
	TrueMagnitude bool
}

// DefaultSweepConfig returns a conservative baseline sweep configuration.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Bins:           1024,
		Repeats:        1,
		Overlap:        0,
		FFTWindow:      window.TypeHann,
		FFTOverlap:     0,
		LogScale:       true,
		BaseBufferSize: 16384,
		MaxBufferSize:  100 * 1024 * 1024 / 8,
		MaxThreads:     0,
		MaxQueueSize:   8,
		ThresholdDBm:   -50,
		UDPPort:        3247,
		Runs:           0,
		TimeLimit:      0,
	}
}

// CropFactor returns the total fraction of bins cropped, split evenly
// between the two edges (half of it from each): the Overlap fraction when
// cropping is enabled, zero otherwise.
func (c SweepConfig) CropFactor() float64 {
	if !c.Crop {
		return 0
	}
	return c.Overlap
}

// Validate reports a ConfigError-class problem with the sweep configuration.
func (c SweepConfig) Validate() error {
	if c.MinFreq <= 0 || c.MaxFreq <= 0 {
		return fmt.Errorf("%w: min_freq and max_freq must be > 0", ErrConfig)
	}
	if c.MaxFreq < c.MinFreq {
		return fmt.Errorf("%w: max_freq (%f) must be >= min_freq (%f)", ErrConfig, c.MaxFreq, c.MinFreq)
	}
	if c.Bins <= 0 {
		return fmt.Errorf("%w: bins must be > 0: %d", ErrConfig, c.Bins)
	}
	if c.Repeats <= 0 {
		return fmt.Errorf("%w: repeats must be > 0: %d", ErrConfig, c.Repeats)
	}
	if c.Overlap < 0 || c.Overlap >= 1 {
		return fmt.Errorf("%w: overlap must be in [0,1): %f", ErrConfig, c.Overlap)
	}
	if c.FFTOverlap < 0 || c.FFTOverlap >= 1 {
		return fmt.Errorf("%w: fft_overlap must be in [0,1): %f", ErrConfig, c.FFTOverlap)
	}
	if c.BaseBufferSize <= 0 {
		return fmt.Errorf("%w: base_buffer_size must be > 0: %d", ErrConfig, c.BaseBufferSize)
	}
	if c.MaxBufferSize < 0 {
		return fmt.Errorf("%w: max_buffer_size must be >= 0: %d", ErrConfig, c.MaxBufferSize)
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("%w: max_queue_size must be > 0: %d", ErrConfig, c.MaxQueueSize)
	}
	if c.UDPHost == "" {
		return fmt.Errorf("%w: udp host must not be empty", ErrConfig)
	}
	if c.UDPPort <= 0 || c.UDPPort > 65535 {
		return fmt.Errorf("%w: udp port out of range: %d", ErrConfig, c.UDPPort)
	}
	if c.TuneDelay < 0 {
		return fmt.Errorf("%w: tune_delay must be >= 0", ErrConfig)
	}
	if c.Runs < 0 {
		return fmt.Errorf("%w: runs must be >= 0", ErrConfig)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf("%w: time_limit must be >= 0", ErrConfig)
	}
	return nil
}
