// Package measurement implements the burst-to-measurement reducer: given a
// PSD result and the burst that triggered it, it derives peak power, -3 dB
// bandwidth, a refined centre frequency, and serialises the result to the
// UDP wire record.
package measurement

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/cwbudde/sdrsweep/internal/sdr/burst"
	"github.com/cwbudde/sdrsweep/internal/sdr/psd"
)

// ErrBelowThreshold signals a detected burst whose peak PSD power fell
// below the configured threshold. Callers drop the burst silently.
var ErrBelowThreshold = errors.New("measurement: rssi below threshold")

// Measurement is the UDP wire record, one datagram per accepted burst.
type Measurement struct {
	ReportTime   string    `json:"reportTime"`
	FrequencyMHz float64   `json:"frequencyMHz"`
	BandwidthKHz int       `json:"bandwidthKHz"`
	PSD          []int     `json:"psd"`
	SpanMHz      []float64 `json:"spanMHz"`
	DurationMs   float64   `json:"durationMs"`
	RSSIdBm      float64   `json:"rssidBm"`
}

const reportTimeLayout = "2006-01-02 15:04:05.000000"

// Reduce derives a Measurement from a PSD result and the burst that
// triggered it. lnbLO shifts the burst's device-tuned (baseband) frequency
// to the absolute RF frequency reported to operators; bandwidth and offset
// are bin-index-relative and unaffected by the shift. Reduce returns
// ErrBelowThreshold (never fatal) when the peak power is under
// thresholdDBm.
func Reduce(result psd.Result, b *burst.Burst, rateHz, thresholdDBm, lnbLO float64) (Measurement, error) {
	power := result.Power
	n := len(power)
	if n == 0 {
		return Measurement{}, psd.ErrEmptySpectrum
	}

	peak := 0
	for i := 1; i < n; i++ {
		if power[i] > power[peak] {
			peak = i
		}
	}
	rssi := power[peak]
	if rssi < thresholdDBm {
		return Measurement{}, ErrBelowThreshold
	}

	halfPower := rssi - 3
	leftEdge, rightEdge := peak, peak
	found := false
	for i := 0; i < n; i++ {
		if power[i] > halfPower {
			if !found {
				leftEdge = i
				found = true
			}
			rightEdge = i
		}
	}

	resolution := rateHz / float64(n)
	bandwidthHz := resolution * float64(rightEdge-leftEdge)

	midpoint := float64(n) / 2
	centre := float64(leftEdge+rightEdge) / 2
	offsetHz := resolution * (centre - midpoint)
	absoluteFreq := b.Freq + lnbLO
	refinedFreq := absoluteFreq + offsetHz

	quantised := make([]int, n)
	for i, p := range power {
		quantised[i] = int(math.Round(p))
	}

	return Measurement{
		ReportTime:   b.ReportTime.UTC().Format(reportTimeLayout),
		FrequencyMHz: round3(refinedFreq / 1e6),
		BandwidthKHz: int(math.Round(bandwidthHz / 1e3)),
		PSD:          quantised,
		SpanMHz: []float64{
			round3((absoluteFreq - rateHz/2) / 1e6),
			round3((absoluteFreq + rateHz/2) / 1e6),
		},
		DurationMs: round3(b.Duration.Seconds() * 1e3),
		RSSIdBm:    round1(rssi),
	}, nil
}

func round3(v float64) float64 { return math.Round(v*1e3) / 1e3 }
func round1(v float64) float64 { return math.Round(v*1e1) / 1e1 }

// Marshal serialises m as the UTF-8, newline-terminated UDP datagram body.
func Marshal(m Measurement) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(body, '\n'), nil
}
