package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/carrier-bindings/internal/api/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrDispatcherStopped is returned by Enqueue once the workers' context has
// ended.
var ErrDispatcherStopped = errors.New("queue: dispatcher stopped")

type job struct {
	ctx            context.Context
	trackingNumber string
	run            func(context.Context)
}

// Dispatcher routes tracking lookups to a fixed set of workers using
// consistent hashing on the tracking number, so lookups for one shipment run
// in the order they were enqueued.
type Dispatcher struct {
	workers []chan job
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		log:     log,
		done:    make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Once ctx is cancelled Enqueue refuses
// new lookups and each worker runs what its shard still holds before exiting.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(i, ch)
	}
	go func() {
		<-ctx.Done()
		d.stop()
	}()
}

// stop waits for in-flight Enqueue calls, then closes every shard.
func (d *Dispatcher) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	close(d.done)
}

// Enqueue hands run to the worker responsible for trackingNumber. run gets
// ctx, the caller's context, not the worker's, and is always called once
// accepted so callers can count completions.
func (d *Dispatcher) Enqueue(ctx context.Context, trackingNumber string, run func(context.Context)) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	idx := d.shardIndex(trackingNumber)
	select {
	case d.workers[idx] <- job{ctx: ctx, trackingNumber: trackingNumber, run: run}:
		metrics.TrackingQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a tracking number deterministically to a worker index.
func (d *Dispatcher) shardIndex(trackingNumber string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(trackingNumber))
	return int(h.Sum32() % uint32(len(d.workers)))
}

// runWorker exits when stop closes its shard, after the buffered jobs ran.
func (d *Dispatcher) runWorker(id int, ch <-chan job) {
	depth := metrics.TrackingQueueDepth.WithLabelValues(strconv.Itoa(id))
	for j := range ch {
		depth.Set(float64(len(ch)))
		d.safeRun(id, j)
	}
}

// safeRun keeps a panicking lookup from taking its worker down.
func (d *Dispatcher) safeRun(id int, j job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Str("tracking_number", j.trackingNumber).
				Int("worker_id", id).
				Msg("tracking lookup panicked")
		}
	}()
	j.run(j.ctx)
}
