// Package hopplan computes the ordered list of centre frequencies a sweep
// visits, along with the bin-shape helpers used to round the requested FFT
// size before planning.
package hopplan

import (
	"fmt"
	"math"

	"github.com/cwbudde/sdrsweep/internal/sdr/config"
)

// Plan is the ordered hop sequence plus the derived sizing facts a caller
// needs to drive acquisition and PSD framing.
type Plan struct {
	Frequencies []float64
	HopSize     float64
	BinSize     float64
	CroppedBins int
	CroppedRate float64
	Bins        int
}

// Hops returns the number of planned centre frequencies.
func (p Plan) Hops() int {
	return len(p.Frequencies)
}

// NearestBins rounds bins up according to the requested rounding mode.
func NearestBins(bins int, rounding config.BinRounding) int {
	if bins <= 0 {
		return bins
	}

	switch rounding {
	case config.BinRoundingEven:
		if bins%2 != 0 {
			return bins + 1
		}
		return bins
	case config.BinRoundingPow2:
		return nextPow2(bins)
	default:
		return bins
	}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// nearestEvenOverlapBins rounds the cropped-bin count up to an even integer,
// matching soapy_power's overlap-bin rounding.
func nearestEvenOverlapBins(bins int, overlap float64) int {
	cropped := int(math.Round((1 - overlap) * float64(bins)))
	if cropped%2 != 0 {
		cropped++
	}
	return cropped
}

// Compute derives the hop plan for a sweep configuration at the given device
// sample rate.
func Compute(cfg config.SweepConfig, sampleRate float64) (Plan, error) {
	if sampleRate <= 0 {
		return Plan{}, fmt.Errorf("%w: sample rate must be > 0: %f", config.ErrConfig, sampleRate)
	}
	if cfg.MaxFreq < cfg.MinFreq {
		return Plan{}, fmt.Errorf("%w: max_freq must be >= min_freq", config.ErrConfig)
	}

	bins := NearestBins(cfg.Bins, cfg.BinRounding)
	if bins <= 0 {
		return Plan{}, fmt.Errorf("%w: bins must be > 0", config.ErrConfig)
	}

	binSize := sampleRate / float64(bins)
	croppedBins := nearestEvenOverlapBins(bins, cfg.Overlap)
	croppedRate := (1 - cfg.Overlap) * sampleRate

	hopSize := math.Round(croppedRate/binSize) * binSize
	rangeHz := cfg.MaxFreq - cfg.MinFreq

	plan := Plan{
		HopSize:     hopSize,
		BinSize:     binSize,
		CroppedBins: croppedBins,
		CroppedRate: croppedRate,
		Bins:        bins,
	}

	if rangeHz >= croppedRate && hopSize > 0 {
		hops := int(math.Ceil(rangeHz / hopSize))
		if hops < 1 {
			hops = 1
		}
		f0 := cfg.MinFreq + hopSize/2
		freqs := make([]float64, hops)
		for i := range freqs {
			freqs[i] = f0 + float64(i)*hopSize
		}
		plan.Frequencies = freqs
		return plan, nil
	}

	plan.Frequencies = []float64{cfg.MinFreq + rangeHz/2}
	return plan, nil
}
