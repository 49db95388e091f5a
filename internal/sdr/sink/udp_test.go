package sink

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/cwbudde/sdrsweep/internal/sdr/measurement"
)

func TestUDPSinkSendsDatagram(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer listener.Close()

	addr := listener.LocalAddr().(*net.UDPAddr)
	s, err := NewUDPSink("127.0.0.1", addr.Port)
	if err != nil {
		t.Fatalf("NewUDPSink: %v", err)
	}
	defer s.Close()

	m := measurement.Measurement{
		ReportTime:   "2026-01-02 03:04:05.000000",
		FrequencyMHz: 100.000,
		BandwidthKHz: 12,
		PSD:          []int{-90, -80},
		SpanMHz:      []float64{99, 101},
		DurationMs:   0.1,
		RSSIdBm:      -42.5,
	}
	s.Send(m)

	buf := make([]byte, 65536)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}

	var got measurement.Measurement
	if err := json.Unmarshal(buf[:n-1], &got); err != nil {
		t.Fatalf("Unmarshal: %v, raw=%q", err, buf[:n])
	}
	if got.FrequencyMHz != m.FrequencyMHz {
		t.Fatalf("FrequencyMHz=%v, want %v", got.FrequencyMHz, m.FrequencyMHz)
	}
	if buf[n-1] != '\n' {
		t.Fatalf("expected trailing newline in datagram")
	}
}

func TestUDPSinkBadHostErrors(t *testing.T) {
	if _, err := NewUDPSink("", -1); err == nil {
		t.Fatalf("expected error for invalid port")
	}
}
