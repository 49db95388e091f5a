// Package psd implements the Welch-style Power Spectral Density engine:
// segment samples with overlap, detrend, window, forward-FFT, average
// magnitude-squared across segments, then optionally remove-DC, crop and
// log-scale.
package psd

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/sdrsweep/dsp/core"
	"github.com/cwbudde/sdrsweep/dsp/spectrum"
	"github.com/cwbudde/sdrsweep/dsp/window"
	"github.com/cwbudde/sdrsweep/internal/sdr/config"
)

// ErrEmptySpectrum is returned when the PSD result would have no elements.
// Callers skip the measurement and continue; it is never fatal.
var ErrEmptySpectrum = errors.New("psd: empty spectrum")

// floorDB is the guard floor applied to log10(0).
const floorDB = -300.0

// Result holds the frequency axis (Hz, absolute, monotonically increasing)
// and the power axis (dB when log-scaled, else linear power).
type Result struct {
	Freqs []float64
	Power []float64
}

// scratch holds the per-call working buffers Compute needs. A freshly
// constructed scratch is used by the public Compute entry point; the PSD
// Engine's workers instead keep one scratch per worker goroutine and pass
// it across every job that goroutine processes, so the hot path reuses
// buffers instead of reallocating them per burst.
type scratch struct {
	accum []float64
	in    []complex128
	out   []complex128
	seg   []complex128
}

// sizeTo grows (or reuses) sc's buffers to bins elements. accum is zeroed
// on every call since Welch averaging must start each PSD from zero; the
// complex scratch slices are fully overwritten per segment and need no
// zeroing.
func (sc *scratch) sizeTo(bins int) {
	sc.accum = core.EnsureLen(sc.accum, bins)
	core.Zero(sc.accum)
	if cap(sc.in) < bins {
		sc.in = make([]complex128, bins)
		sc.out = make([]complex128, bins)
		sc.seg = make([]complex128, bins)
	} else {
		sc.in = sc.in[:bins]
		sc.out = sc.out[:bins]
		sc.seg = sc.seg[:bins]
	}
}

// Compute derives a single PSD Result for one hop's worth of samples, at
// device centre frequency freqHz and sample rate rateHz; the frequency axis
// is centred on freqHz + cfg.LnbLO. When samples is
// shorter than cfg.Bins, the effective segment length is clamped down to
// len(samples) (one segment), matching scipy.signal.welch's own
// nperseg-clamping behaviour rather than rejecting the input outright: a
// short burst still yields a (coarser) spectrum instead of an empty one.
func Compute(samples []complex64, cfg config.SweepConfig, rateHz, freqHz float64) (Result, error) {
	return computeWithScratch(samples, cfg, rateHz, freqHz, &scratch{})
}

func computeWithScratch(samples []complex64, cfg config.SweepConfig, rateHz, freqHz float64, sc *scratch) (Result, error) {
	if cfg.Bins <= 0 {
		return Result{}, fmt.Errorf("%w: bins must be > 0", config.ErrConfig)
	}
	if len(samples) == 0 {
		return Result{}, ErrEmptySpectrum
	}
	bins := cfg.Bins
	if len(samples) < bins {
		bins = len(samples)
	}

	hop := int(math.Round(float64(bins) * (1 - cfg.FFTOverlap)))
	if hop < 1 {
		hop = 1
	}

	win := window.Generate(cfg.FFTWindow, bins, window.WithPeriodic())

	plan, err := algofft.NewPlan64(bins)
	if err != nil {
		return Result{}, fmt.Errorf("psd: new fft plan: %w", err)
	}

	sc.sizeTo(bins)
	segments := 0
	accum, in, out, seg := sc.accum, sc.in, sc.out, sc.seg

	for start := 0; start+bins <= len(samples); start += hop {
		for i := 0; i < bins; i++ {
			s := samples[start+i]
			seg[i] = complex(float64(real(s)), float64(imag(s)))
		}

		applyDetrend(seg, cfg.Detrend)

		for i := 0; i < bins; i++ {
			in[i] = seg[i] * complex(win[i], 0)
		}

		if err := plan.Forward(out, in); err != nil {
			return Result{}, fmt.Errorf("psd: fft forward: %w", err)
		}

		power := spectrum.Power(out)
		for i := range accum {
			accum[i] += power[i]
		}
		segments++
	}

	if segments == 0 {
		return Result{}, ErrEmptySpectrum
	}

	power := make([]float64, bins)
	for i := range power {
		power[i] = accum[i] / float64(segments)
	}

	if cfg.RemoveDC {
		power[0] = 0
	}

	shifted := fftShift(power)
	freqs := frequencyAxis(bins, rateHz, freqHz+cfg.LnbLO)

	if cfg.Crop {
		cropBins := int(math.Floor(float64(bins) / 2 * cfg.CropFactor()))
		if cropBins > 0 && 2*cropBins < bins {
			shifted = shifted[cropBins : bins-cropBins]
			freqs = freqs[cropBins : bins-cropBins]
		}
	}

	if len(shifted) == 0 {
		return Result{}, ErrEmptySpectrum
	}

	if cfg.LogScale {
		for i := range shifted {
			shifted[i] = linearPowerToDB(shifted[i])
		}
	}

	return Result{Freqs: freqs, Power: shifted}, nil
}

func linearPowerToDB(p float64) float64 {
	if p <= 0 {
		return floorDB
	}
	return core.Clamp(core.LinearPowerToDB(p), floorDB, math.Inf(1))
}

// fftShift reorders bins so that bin 0 (DC) moves to the centre, matching
// the frequency axis convention used throughout the engine.
func fftShift(in []float64) []float64 {
	n := len(in)
	out := make([]float64, n)
	half := n / 2
	copy(out[:n-half], in[half:])
	copy(out[n-half:], in[:half])
	return out
}

// frequencyAxis returns the FFT-shifted absolute frequency grid centred on
// centreHz, with uniform step rateHz/bins.
func frequencyAxis(bins int, rateHz, centreHz float64) []float64 {
	step := rateHz / float64(bins)
	out := make([]float64, bins)
	start := centreHz - rateHz/2
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func applyDetrend(seg []complex128, mode config.DetrendMode) {
	switch mode {
	case config.DetrendConstant:
		var sum complex128
		for _, v := range seg {
			sum += v
		}
		mean := sum / complex(float64(len(seg)), 0)
		for i := range seg {
			seg[i] -= mean
		}
	case config.DetrendLinear:
		detrendLinear(seg)
	}
}

// detrendLinear removes a least-squares line from the real and imaginary
// parts of seg independently, matching scipy.signal.detrend(type='linear').
func detrendLinear(seg []complex128) {
	n := len(seg)
	if n < 2 {
		return
	}
	var sumX, sumX2 float64
	for i := 0; i < n; i++ {
		x := float64(i)
		sumX += x
		sumX2 += x * x
	}
	meanX := sumX / float64(n)

	fit := func(vals []float64) (slope, intercept float64) {
		var sumY, sumXY float64
		for i, y := range vals {
			x := float64(i)
			sumY += y
			sumXY += x * y
		}
		denom := sumX2 - float64(n)*meanX*meanX
		if denom == 0 {
			return 0, sumY / float64(n)
		}
		slope = (sumXY - float64(n)*meanX*(sumY/float64(n))) / denom
		intercept = sumY/float64(n) - slope*meanX
		return slope, intercept
	}

	re := make([]float64, n)
	im := make([]float64, n)
	for i, v := range seg {
		re[i] = real(v)
		im[i] = imag(v)
	}
	reSlope, reIntercept := fit(re)
	imSlope, imIntercept := fit(im)
	for i := range seg {
		x := float64(i)
		seg[i] -= complex(reSlope*x+reIntercept, imSlope*x+imIntercept)
	}
}
