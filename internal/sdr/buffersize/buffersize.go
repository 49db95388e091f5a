// Package buffersize derives the sample-buffer capacity and per-hop repeat
// count from the configured bin count, repeats, base alignment and maximum
// buffer size.
package buffersize

import (
	"fmt"

	"github.com/cwbudde/sdrsweep/internal/sdr/config"
)

// Plan is the derived buffer sizing for one hop's acquisitions.
type Plan struct {
	// BufferSize is the complex-sample capacity of a single acquisition,
	// always a multiple of BaseBufferSize.
	BufferSize int
	// BufferRepeats is the number of BufferSize acquisitions concatenated
	// per hop to cover the requested bins*repeats samples.
	BufferRepeats int
}

// alignUp rounds n up to the nearest multiple of base.
func alignUp(n, base int) int {
	if base <= 0 {
		return n
	}
	if n <= 0 {
		return base
	}
	rem := n % base
	if rem == 0 {
		return n
	}
	return n + (base - rem)
}

// Compute derives a Plan for the given sweep configuration.
func Compute(cfg config.SweepConfig) (Plan, error) {
	if cfg.BaseBufferSize <= 0 {
		return Plan{}, fmt.Errorf("%w: base_buffer_size must be > 0", config.ErrConfig)
	}
	if cfg.Bins <= 0 || cfg.Repeats <= 0 {
		return Plan{}, fmt.Errorf("%w: bins and repeats must be > 0", config.ErrConfig)
	}

	required := cfg.Bins * cfg.Repeats
	size := alignUp(required, cfg.BaseBufferSize)

	if cfg.MaxBufferSize <= 0 {
		return Plan{BufferSize: size, BufferRepeats: 1}, nil
	}

	alignedMax := alignUp(cfg.MaxBufferSize, cfg.BaseBufferSize)
	if size <= alignedMax {
		return Plan{BufferSize: size, BufferRepeats: 1}, nil
	}

	bufferRepeats := (size + alignedMax - 1) / alignedMax
	return Plan{BufferSize: alignedMax, BufferRepeats: bufferRepeats}, nil
}
