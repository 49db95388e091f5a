// Command sdrsweep continuously retunes an SDR front-end across a
// configured frequency range, detects transient bursts, computes their
// power spectral density, and emits a measurement record over UDP for
// each accepted burst.
//
// Usage:
//
//	sdrsweep [flags]
//
// Opening a physical device is out of scope for this module (the device
// driver binding is an external collaborator, see internal/sdr/device);
// this binary wires a concrete Device through the package-level
// openDevice hook, which a build variant can replace.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/sdrsweep/dsp/window"
	"github.com/cwbudde/sdrsweep/internal/sdr/config"
	"github.com/cwbudde/sdrsweep/internal/sdr/device"
	"github.com/cwbudde/sdrsweep/internal/sdr/psd"
	"github.com/cwbudde/sdrsweep/internal/sdr/sink"
	"github.com/cwbudde/sdrsweep/internal/sdr/sweep"
)

// openDevice constructs the Device this binary drives. No physical SDR
// binding ships in this module; a build that links one (SoapySDR,
// librtlsdr, ...) replaces this var before main runs, e.g. via an init()
// in a build-tag-gated file.
var openDevice = func(cfg config.DeviceConfig) (device.Device, error) {
	return nil, fmt.Errorf("sdrsweep: no SDR device driver linked into this build")
}

var windowNames = map[string]window.Type{
	"rectangular": window.TypeRectangular,
	"hann":        window.TypeHann,
	"hamming":     window.TypeHamming,
	"blackman":    window.TypeBlackman,
	"blackman-h4": window.TypeBlackmanHarris4Term,
	"flat-top":    window.TypeFlatTop,
	"kaiser":      window.TypeKaiser,
	"tukey":       window.TypeTukey,
	"triangle":    window.TypeTriangle,
}

func main() {
	minFreq := flag.Float64("min-freq", 0, "lower edge of the swept range in Hz")
	maxFreq := flag.Float64("max-freq", 0, "upper edge of the swept range in Hz")
	sampleRate := flag.Float64("rate", 2e6, "device sample rate in Hz")
	bandwidth := flag.Float64("bandwidth", 0, "device analog bandwidth in Hz (0 = driver default)")
	gain := flag.Float64("gain", 30, "tuner gain in dB")
	corr := flag.Float64("ppm", 0, "frequency correction in parts per million")
	antenna := flag.String("antenna", "", "antenna port name")

	bins := flag.Int("bins", 1024, "FFT bin count")
	repeats := flag.Int("repeats", 1, "acquisitions per hop")
	overlap := flag.Float64("overlap", 0, "hop overlap fraction [0,1)")
	crop := flag.Bool("crop", false, "crop PSD edge bins (filter roll-off)")
	windowName := flag.String("window", "hann", "FFT window: "+windowNameList())
	fftOverlap := flag.Float64("fft-overlap", 0, "Welch segment overlap fraction [0,1)")
	logScale := flag.Bool("log-scale", true, "report PSD power in dB")
	removeDC := flag.Bool("remove-dc", false, "zero the DC bin before averaging")
	lnbLO := flag.Float64("lnb-lo", 0, "LNB local-oscillator offset added to reported frequencies, Hz")
	tuneDelay := flag.Duration("tune-delay", 0, "settle time after retuning before acquisition")
	resetStream := flag.Bool("reset-stream", false, "deactivate/reactivate the stream around a retune")

	baseBufferSize := flag.Int("base-buffer-size", 16384, "sample buffer alignment unit")
	maxBufferSize := flag.Int("max-buffer-size", 100*1024*1024/8, "sample buffer cap, 0 = unlimited")
	maxThreads := flag.Int("max-threads", 0, "PSD worker pool size, 0 = CPU count")
	maxQueueSize := flag.Int("max-queue-size", 8, "PSD submission queue depth")

	thresholdDBm := flag.Float64("threshold", -50, "burst detection threshold in dBm")

	udpHost := flag.String("udp-host", "127.0.0.1", "measurement sink host")
	udpPort := flag.Int("udp-port", 3247, "measurement sink UDP port")

	runs := flag.Int("runs", 0, "number of full sweeps, 0 = unbounded")
	timeLimit := flag.Duration("time-limit", 0, "total run time, 0 = unbounded")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sdrsweep [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Sweeps a frequency range, detecting and reporting transient bursts over UDP.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	devCfg := config.ApplyDeviceOptions(
		config.WithSampleRate(*sampleRate),
		config.WithBandwidth(*bandwidth),
		config.WithGain(*gain),
		config.WithCorrectionPPM(*corr),
		config.WithAntenna(*antenna),
	)
	if err := devCfg.Validate(); err != nil {
		log.Fatal(err)
	}

	winType, ok := windowNames[*windowName]
	if !ok {
		log.Fatalf("sdrsweep: unknown window %q, want one of %s", *windowName, windowNameList())
	}

	sweepCfg := config.DefaultSweepConfig()
	sweepCfg.MinFreq = *minFreq
	sweepCfg.MaxFreq = *maxFreq
	sweepCfg.Bins = *bins
	sweepCfg.Repeats = *repeats
	sweepCfg.Overlap = *overlap
	sweepCfg.Crop = *crop
	sweepCfg.FFTWindow = winType
	sweepCfg.FFTOverlap = *fftOverlap
	sweepCfg.LogScale = *logScale
	sweepCfg.RemoveDC = *removeDC
	sweepCfg.LnbLO = *lnbLO
	sweepCfg.TuneDelay = *tuneDelay
	sweepCfg.ResetStream = *resetStream
	sweepCfg.BaseBufferSize = *baseBufferSize
	sweepCfg.MaxBufferSize = *maxBufferSize
	sweepCfg.MaxThreads = *maxThreads
	sweepCfg.MaxQueueSize = *maxQueueSize
	sweepCfg.ThresholdDBm = *thresholdDBm
	sweepCfg.UDPHost = *udpHost
	sweepCfg.UDPPort = *udpPort
	sweepCfg.Runs = *runs
	sweepCfg.TimeLimit = *timeLimit
	if err := sweepCfg.Validate(); err != nil {
		log.Fatal(err)
	}

	dev, err := openDevice(devCfg)
	if err != nil {
		log.Fatal(err)
	}

	engine := psd.NewEngine(sweepCfg, sweepCfg.MaxThreads, sweepCfg.MaxQueueSize)
	udpSink, err := sink.NewUDPSink(sweepCfg.UDPHost, sweepCfg.UDPPort)
	if err != nil {
		log.Fatal(err)
	}
	defer udpSink.Close()

	ctrl, err := sweep.New(dev, engine, udpSink, sweepCfg, devCfg.SampleRate)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		s := <-sig
		log.Printf("sdrsweep: received %v, draining", s)
		ctrl.Shutdown()
		cancel()
	}()

	log.Printf("sdrsweep: sweeping %0.fHz-%0.fHz at %0.fHz sample rate", sweepCfg.MinFreq, sweepCfg.MaxFreq, devCfg.SampleRate)
	start := time.Now()
	if err := ctrl.Run(ctx); err != nil {
		log.Fatal(err)
	}
	log.Printf("sdrsweep: stopped after %s", time.Since(start).Round(time.Millisecond))
}

func windowNameList() string {
	names := make([]string, 0, len(windowNames))
	for name := range windowNames {
		names = append(names, name)
	}
	return fmt.Sprint(names)
}
