// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import "go.uber.org/zap"

// zeroQueueDepth bounds the out-of-band zero worker's backlog. A full
// queue falls back to clearing the segment inline on the releasing
// goroutine rather than blocking it indefinitely.
const zeroQueueDepth = 4096

// zeroWorker clears released segments off the critical path of release,
// for pools configured with ZeroOutOfBand. It is a single goroutine
// draining a bounded channel FIFO, the simplest shape that keeps clears
// ordered and avoids a clear racing a fresh rental of the same slot by
// more than one queue length.
type zeroWorker struct {
	requests chan *Segment
	log      *zap.Logger
	done     chan struct{}
}

func newZeroWorker(log *zap.Logger) *zeroWorker {
	w := &zeroWorker{
		requests: make(chan *Segment, zeroQueueDepth),
		log:      log,
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *zeroWorker) run() {
	defer close(w.done)
	for seg := range w.requests {
		seg.zero()
	}
}

// enqueue hands seg to the background worker, or clears it inline if
// the queue is currently full.
func (w *zeroWorker) enqueue(seg *Segment) {
	select {
	case w.requests <- seg:
	default:
		w.log.Debug("zero queue full, clearing inline", zap.Uint64("group_id", seg.GroupID()), zap.Uint32("slot", seg.Slot()))
		seg.zero()
	}
}

// stop closes the request channel and waits for the worker to drain it.
// Intended for tests and process shutdown; a BufferPool's zero worker
// otherwise runs for the lifetime of the process.
func (w *zeroWorker) stop() {
	close(w.requests)
	<-w.done
}
