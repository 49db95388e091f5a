package sweep

import "github.com/cwbudde/sdrsweep/internal/sdr/measurement"

// writerQueueSize is the writer pool's queue depth.
const writerQueueSize = 100

// writerPool serialises sends through a single worker goroutine so that
// measurements reach the sink in submission order even though the PSD
// engine and acquisition loop run concurrently with it. One worker is
// sufficient and required: more would risk reordering datagrams relative
// to the hops that produced them.
type writerPool struct {
	w     Writer
	queue chan measurement.Measurement
	done  chan struct{}
}

func newWriterPool(w Writer) *writerPool {
	p := &writerPool{
		w:     w,
		queue: make(chan measurement.Measurement, writerQueueSize),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *writerPool) run() {
	defer close(p.done)
	for m := range p.queue {
		p.w.Send(m)
	}
}

// Send enqueues m, blocking if the queue is at capacity.
func (p *writerPool) Send(m measurement.Measurement) {
	p.queue <- m
}

// Close stops accepting new measurements and blocks until the worker has
// drained the queue, so a shutdown never drops measurements already
// accepted for sending.
func (p *writerPool) Close() {
	close(p.queue)
	<-p.done
}
