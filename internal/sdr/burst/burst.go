// Package burst implements the adaptive-threshold time-domain burst
// detector: given one filled acquisition buffer, it finds at most one
// contiguous run of above-threshold samples terminated by a silent gap.
package burst

import (
	"math"
	"time"

	"github.com/cwbudde/sdrsweep/dsp/core"
)

// Burst is a single detected transient.
type Burst struct {
	Start, Stop int
	Samples     int
	Duration    time.Duration
	TDArray     []float32
	ReportTime  time.Time
	Rate        float64
	Freq        float64
}

// MinBurstSamples returns the minimum burst length / silent-gap threshold
// for the given sample rate: floor(5 microseconds * rate).
func MinBurstSamples(rate float64) int {
	return int(math.Floor(5e-6 * rate))
}

// Detector tracks the adaptive absThreshold state across the repeated
// acquisitions of a single hop. It is reset with NewHop at the start of
// every hop.
type Detector struct {
	absThreshold  float64
	trueMagnitude bool
	found         bool

	// iqBuf is the detection-signal scratch buffer, reused across every
	// repeat of a hop (and across hops) instead of reallocating per call.
	iqBuf []float64
}

// NewDetector returns a Detector that will use the algebraic Re+Im
// detection signal unless trueMagnitude is set, which switches to
// |Re|+|Im|. The algebraic sum can cancel a burst whose components have
// opposite signs; it is the default because it reproduces the behaviour of
// existing deployments.
func NewDetector(trueMagnitude bool) *Detector {
	return &Detector{trueMagnitude: trueMagnitude}
}

// NewHop resets the adaptive threshold to the dBm-derived ceiling and
// clears the "already found a burst this hop" latch. The 2^31 factor is
// the driver's full-scale sample reference; the product can overflow a
// float32, so the threshold is kept in double precision.
func (d *Detector) NewHop(thresholdDBm float64) {
	d.absThreshold = core.DBPowerToLinear(thresholdDBm) * math.Exp2(31)
	d.found = false
}

// iqSignal converts complex samples to the real detection signal, reusing
// the Detector's scratch buffer across calls instead of allocating one per
// acquisition.
func (d *Detector) iqSignal(samples []complex64) []float64 {
	d.iqBuf = core.EnsureLen(d.iqBuf, len(samples))
	out := d.iqBuf
	for i, s := range samples {
		re, im := float64(real(s)), float64(imag(s))
		if d.trueMagnitude {
			out[i] = math.Abs(re) + math.Abs(im)
		} else {
			out[i] = re + im
		}
	}
	return out
}

// Detect runs one acquisition's worth of samples through the adaptive
// detector. It always updates the adaptive threshold state; it returns a
// non-nil Burst only when a burst is found and no burst has already been
// reported for the current hop.
func (d *Detector) Detect(samples []complex64, rate, freq float64, acquiredAt time.Time) *Burst {
	iq := d.iqSignal(samples)
	minBurst := MinBurstSamples(rate)

	noiseWindow := iq
	if len(noiseWindow) > 100 {
		noiseWindow = noiseWindow[:100]
	}
	var sum float64
	for _, v := range noiseWindow {
		sum += v
	}
	var noise float64
	if len(noiseWindow) > 0 {
		noise = math.Abs(sum / float64(len(noiseWindow)))
	}
	if noise < d.absThreshold {
		d.absThreshold = noise * 100
	}

	if d.found {
		return nil
	}

	maxVal := math.Inf(-1)
	for _, v := range iq {
		if v > maxVal {
			maxVal = v
		}
	}
	if len(iq) == 0 || maxVal <= d.absThreshold {
		return nil
	}

	var burstIdx []int
	for i, v := range iq {
		if math.Abs(v) > d.absThreshold {
			burstIdx = append(burstIdx, i)
		}
	}
	if len(burstIdx) == 0 {
		return nil
	}

	start := burstIdx[0]
	last := burstIdx[0]
	stop := burstIdx[len(burstIdx)-1]
	for _, idx := range burstIdx[1:] {
		if idx-last > minBurst {
			stop = last
			break
		}
		last = idx
	}

	if stop-start <= minBurst {
		return nil
	}

	safeStart := start - minBurst
	if safeStart < 0 {
		safeStart = 0
	}
	safeStop := stop + minBurst
	if safeStop > len(iq)-1 {
		safeStop = len(iq) - 1
	}

	td := make([]float32, safeStop-safeStart+1)
	for i := range td {
		td[i] = float32(math.Abs(iq[safeStart+i]))
	}

	d.found = true
	return &Burst{
		Start:      start,
		Stop:       stop,
		Samples:    stop - start,
		Duration:   time.Duration(float64(stop-start) / rate * float64(time.Second)),
		TDArray:    td,
		ReportTime: acquiredAt,
		Rate:       rate,
		Freq:       freq,
	}
}
