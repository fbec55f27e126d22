package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// ErrPoolClosed is returned by Do once Close has been called or the workers
// have stopped with their context.
var ErrPoolClosed = errors.New("worker pool closed")

type job struct {
	fn   func()
	done chan struct{}
}

// Pool runs CPU-heavy jobs on a fixed set of workers so that request
// goroutines queue instead of all burning CPU at once.
type Pool struct {
	jobs    chan job
	workers int
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	// stopped is closed once every worker has exited.
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewPool creates a Pool with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewPool(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Pool{
		jobs:    make(chan job, channelBuffer),
		workers: numWorkers,
		log:     log.With().Str("component", "hash_pool").Logger(),
		stopped: make(chan struct{}),
	}
}

// Start launches the worker goroutines. Workers exit when ctx is cancelled or
// the pool is closed.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	go func() {
		p.wg.Wait()
		p.stopOnce.Do(func() { close(p.stopped) })
		p.log.Debug().Msg("worker pool stopped")
	}()
	p.log.Debug().Int("workers", p.workers).Msg("worker pool started")
}

// Do queues fn and blocks until it has run or ctx is done. If ctx ends while
// fn is already running, Do still returns ctx.Err() and fn finishes in the
// background.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
	case <-p.stopped:
		p.mu.RUnlock()
		return ErrPoolClosed
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-j.done:
		return nil
	case <-p.stopped:
		// A worker may have finished the job just before exiting.
		select {
		case <-j.done:
			return nil
		default:
			return ErrPoolClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, lets queued jobs finish and waits for workers.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(id, j)
		}
	}
}

func (p *Pool) run(id int, j job) {
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Int("worker_id", id).Msg("job panicked")
		}
	}()
	j.fn()
}
