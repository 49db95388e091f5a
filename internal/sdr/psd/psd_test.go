package psd

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/sdrsweep/internal/sdr/config"
	"github.com/cwbudde/sdrsweep/internal/testutil"
)

func baseCfg() config.SweepConfig {
	cfg := config.DefaultSweepConfig()
	cfg.Bins = 1024
	cfg.FFTOverlap = 0
	cfg.LogScale = true
	return cfg
}

func TestComputeMonotonicFrequencyAxis(t *testing.T) {
	cfg := baseCfg()
	samples := testutil.DeterministicIQTone(100e3, 2e6, 1, cfg.Bins*4)
	res, err := Compute(samples, cfg, 2e6, 100e6)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Freqs) != cfg.Bins {
		t.Fatalf("len(Freqs)=%d, want %d", len(res.Freqs), cfg.Bins)
	}
	step := res.Freqs[1] - res.Freqs[0]
	for i := 1; i < len(res.Freqs); i++ {
		d := res.Freqs[i] - res.Freqs[i-1]
		if math.Abs(d-step) > 1e-6 {
			t.Fatalf("non-uniform step at %d: %v vs %v", i, d, step)
		}
	}
}

func TestComputeFindsToneBin(t *testing.T) {
	cfg := baseCfg()
	toneHz := 200e3
	samples := testutil.DeterministicIQTone(toneHz, 2e6, 1, cfg.Bins*8)
	res, err := Compute(samples, cfg, 2e6, 100e6)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	peak := 0
	for i := range res.Power {
		if res.Power[i] > res.Power[peak] {
			peak = i
		}
	}
	wantFreq := 100e6 + toneHz
	gotFreq := res.Freqs[peak]
	if math.Abs(gotFreq-wantFreq) > 2*(2e6/float64(cfg.Bins)) {
		t.Fatalf("peak freq=%v, want ~%v", gotFreq, wantFreq)
	}
}

func TestComputeEmptySpectrumOnNoSamples(t *testing.T) {
	cfg := baseCfg()
	if _, err := Compute(nil, cfg, 2e6, 100e6); err != ErrEmptySpectrum {
		t.Fatalf("err=%v, want ErrEmptySpectrum", err)
	}
}

func TestComputeClampsSegmentLengthForShortBursts(t *testing.T) {
	cfg := baseCfg()
	short := cfg.Bins / 4
	samples := testutil.DeterministicIQTone(200e3, 2e6, 1, short)
	res, err := Compute(samples, cfg, 2e6, 100e6)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Power) != short {
		t.Fatalf("len(Power)=%d, want clamped length %d", len(res.Power), short)
	}
}

func TestComputeCropShrinksOutput(t *testing.T) {
	cfg := baseCfg()
	cfg.Crop = true
	cfg.Overlap = 0.25
	samples := testutil.DeterministicIQNoise(1, 0.1, cfg.Bins*4)
	res, err := Compute(samples, cfg, 2e6, 100e6)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Freqs) >= cfg.Bins {
		t.Fatalf("expected cropped output shorter than bins, got %d", len(res.Freqs))
	}
}

func TestComputeLogScaleGuardsZero(t *testing.T) {
	cfg := baseCfg()
	samples := make([]complex64, cfg.Bins*2)
	res, err := Compute(samples, cfg, 2e6, 100e6)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for _, p := range res.Power {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("non-finite power value: %v", p)
		}
		if p < floorDB-1e-9 {
			t.Fatalf("power below floor: %v", p)
		}
	}
}

func TestEngineSubmitAndResult(t *testing.T) {
	cfg := baseCfg()
	e := NewEngine(cfg, 2, 4)
	defer e.Close()

	samples := testutil.DeterministicIQTone(100e3, 2e6, 1, cfg.Bins*4)
	fut := e.Submit(samples, 2e6, 100e6)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := fut.Result(ctx)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if len(res.Power) == 0 {
		t.Fatalf("expected non-empty power")
	}
}

func TestEngineBackpressureBlocksOnFullQueue(t *testing.T) {
	cfg := baseCfg()
	e := NewEngine(cfg, 1, 1)
	defer e.Close()

	samples := testutil.DeterministicIQNoise(1, 0.1, cfg.Bins*4)
	futs := make([]*Future, 0, 3)
	for i := 0; i < 3; i++ {
		futs = append(futs, e.Submit(samples, 2e6, 100e6))
	}
	for _, f := range futs {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if _, err := f.Result(ctx); err != nil {
			cancel()
			t.Fatalf("Result: %v", err)
		}
		cancel()
	}
}
