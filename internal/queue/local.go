package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type localEnvelope struct {
	job     CallJob
	attempt int
}

// LocalQueue is a channel-backed fallback used for tests and redis-less
// development. Same retry and DLQ semantics as the streams queue, minus
// durability.
type LocalQueue struct {
	ch          chan localEnvelope
	maxAttempts int
	log         *slog.Logger

	dlqMu sync.Mutex
	dlq   []CallJob
}

func NewLocalQueue(bufferSize, maxAttempts int, log *slog.Logger) *LocalQueue {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if log == nil {
		log = slog.Default()
	}
	return &LocalQueue{
		ch:          make(chan localEnvelope, bufferSize),
		maxAttempts: maxAttempts,
		log:         log,
	}
}

func (q *LocalQueue) Enqueue(ctx context.Context, job CallJob) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- localEnvelope{job: job}:
		return nil
	}
}

func (q *LocalQueue) Consume(ctx context.Context, handle Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-q.ch:
			err := handle(ctx, env.job)
			if err == nil {
				continue
			}

			env.attempt++
			if env.attempt >= q.maxAttempts {
				q.dlqMu.Lock()
				q.dlq = append(q.dlq, env.job)
				q.dlqMu.Unlock()
				q.log.Warn("local queue moved job to dlq",
					"recording_ref", env.job.RecordingRef, "error", err)
				continue
			}

			delay := time.Duration(env.attempt) * 200 * time.Millisecond
			go func(retry localEnvelope) {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-ctx.Done():
				case <-timer.C:
					select {
					case <-ctx.Done():
					case q.ch <- retry:
					}
				}
			}(env)
		}
	}
}

// DLQSize reports how many jobs exhausted their attempts.
func (q *LocalQueue) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}
