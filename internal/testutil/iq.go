package testutil

import "math"

// DeterministicIQTone generates a complex exponential at freqHz relative to
// sampleRate, with constant amplitude, for use as a synthetic carrier burst.
func DeterministicIQTone(freqHz, sampleRate float64, amplitude float32, length int) []complex64 {
	out := make([]complex64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		phase := step * float64(i)
		out[i] = complex(amplitude*float32(math.Cos(phase)), amplitude*float32(math.Sin(phase)))
	}
	return out
}

// DeterministicIQNoise generates complex white noise, with I and Q each
// uniform in [-amplitude, amplitude], from a fixed seed for reproducibility,
// approximating a receiver noise floor.
func DeterministicIQNoise(seed int64, amplitude float32, length int) []complex64 {
	re := DeterministicNoise(seed, float64(amplitude), length)
	im := DeterministicNoise(seed+1, float64(amplitude), length)
	out := make([]complex64, length)
	for i := range out {
		out[i] = complex(float32(re[i]), float32(im[i]))
	}
	return out
}

// IQBurst lays a tone burst of burstLen samples starting at start on top of a
// noise floor of the given total length, modeling a single RF transmission
// inside an otherwise quiet acquisition window.
func IQBurst(length, start, burstLen int, freqHz, sampleRate float64, noiseSeed int64, noiseAmp, burstAmp float32) []complex64 {
	out := DeterministicIQNoise(noiseSeed, noiseAmp, length)
	if start < 0 {
		start = 0
	}
	end := start + burstLen
	if end > length {
		end = length
	}
	tone := DeterministicIQTone(freqHz, sampleRate, burstAmp, end-start)
	for i := start; i < end; i++ {
		out[i] += tone[i-start]
	}
	return out
}
