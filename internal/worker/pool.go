package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"call-insights/internal/queue"
)

// Pool runs a fixed number of consumer goroutines. Each slot handles
// exactly one job start-to-finish before taking the next; concurrency
// is bounded by Size regardless of queue depth.
type Pool struct {
	consumer     queue.Consumer
	handle       queue.Handler
	size         int
	restartDelay time.Duration
	log          *slog.Logger

	wg sync.WaitGroup
}

func NewPool(consumer queue.Consumer, handle queue.Handler, size int, log *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		consumer:     consumer,
		handle:       handle,
		size:         size,
		restartDelay: 2 * time.Second,
		log:          log,
	}
}

// Start launches the worker goroutines and returns. Use Wait to block
// until all slots have drained after ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, slot int) {
	defer p.wg.Done()
	log := p.log.With("worker_slot", slot)
	log.Info("worker started")

	for {
		if ctx.Err() != nil {
			log.Info("worker stopped")
			return
		}

		err := p.consumer.Consume(ctx, p.handle)
		if err == nil || ctx.Err() != nil {
			log.Info("worker stopped")
			return
		}
		log.Error("consume loop error, restarting", "error", err)

		timer := time.NewTimer(p.restartDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("worker stopped")
			return
		case <-timer.C:
		}
	}
}
