// Package sink implements the best-effort UDP measurement sink.
package sink

import (
	"fmt"
	"log"
	"net"
	"sync/atomic"

	"github.com/cwbudde/sdrsweep/internal/sdr/measurement"
)

// UDPSink emits each measurement as one UTF-8 datagram. Send failures are
// logged and never retried or fatal.
type UDPSink struct {
	conn *net.UDPConn
	seq  uint64
}

// NewUDPSink dials a datagram socket to host:port. net.DialUDP only
// associates a default peer for Write; each Send stays one-shot
// fire-and-forget.
func NewUDPSink(host string, port int) (*UDPSink, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("sink: resolve %s:%d: %w", host, port, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("sink: dial %s:%d: %w", host, port, err)
	}
	return &UDPSink{conn: conn}, nil
}

// Send serialises and emits one measurement. Failures are logged and
// swallowed: the sweep must continue regardless of sink health.
func (s *UDPSink) Send(m measurement.Measurement) {
	seq := atomic.AddUint64(&s.seq, 1)

	data, err := measurement.Marshal(m)
	if err != nil {
		log.Printf("sink: seq %d: marshal measurement: %v", seq, err)
		return
	}
	if _, err := s.conn.Write(data); err != nil {
		log.Printf("sink: seq %d: send datagram: %v", seq, err)
		return
	}
	log.Printf("sink: seq %d: sent %s MHz, %d KHz bw, %.1f dBm", seq, formatFreq(m.FrequencyMHz), m.BandwidthKHz, m.RSSIdBm)
}

func formatFreq(mhz float64) string {
	return fmt.Sprintf("%.3f", mhz)
}

// Close releases the underlying socket.
func (s *UDPSink) Close() error {
	return s.conn.Close()
}
