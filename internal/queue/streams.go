package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type StreamsConfig struct {
	Stream      string
	DLQStream   string
	Group       string
	Consumer    string
	MaxAttempts int
}

// StreamsQueue implements Producer and Consumer over Redis Streams with
// a consumer group. Delivery is at-least-once; the pipeline's
// idempotency guard is the correctness boundary for duplicates. Jobs
// that keep failing are parked on a dead-letter stream.
type StreamsQueue struct {
	client      *redis.Client
	stream      string
	dlqStream   string
	group       string
	consumer    string
	maxAttempts int
}

func NewStreamsQueue(ctx context.Context, client *redis.Client, cfg StreamsConfig) (*StreamsQueue, error) {
	if client == nil {
		return nil, errors.New("queue: redis client is required")
	}
	if cfg.Stream == "" {
		cfg.Stream = "call_jobs"
	}
	if cfg.DLQStream == "" {
		cfg.DLQStream = cfg.Stream + "_dlq"
	}
	if cfg.Group == "" {
		cfg.Group = "call_workers"
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "worker-1"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	q := &StreamsQueue{
		client:      client,
		stream:      cfg.Stream,
		dlqStream:   cfg.DLQStream,
		group:       cfg.Group,
		consumer:    cfg.Consumer,
		maxAttempts: cfg.MaxAttempts,
	}
	if err := q.ensureGroup(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *StreamsQueue) Enqueue(ctx context.Context, job CallJob) error {
	if strings.TrimSpace(job.RecordingRef) == "" {
		return errors.New("queue: recording ref is required")
	}
	return q.add(ctx, job, 0)
}

func (q *StreamsQueue) add(ctx context.Context, job CallJob, attempt int) error {
	hints, err := json.Marshal(job.LocatorHints)
	if err != nil {
		return fmt.Errorf("queue: encode hints: %w", err)
	}
	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{
			"recording_ref": job.RecordingRef,
			"hints":         string(hints),
			"attempt":       attempt,
			"enqueued_at":   time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("queue: enqueue to stream: %w", err)
	}
	return nil
}

func (q *StreamsQueue) Consume(ctx context.Context, handle Handler) error {
	if err := q.ensureGroup(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: q.consumer,
			Streams:  []string{q.stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("queue: xreadgroup: %w", err)
		}

		for _, stream := range streams {
			for _, item := range stream.Messages {
				job, attempt, parseErr := parseStreamMessage(item)
				if parseErr != nil {
					_ = q.sendToDLQ(ctx, item, CallJob{}, attempt, parseErr.Error())
					_ = q.ackAndDelete(ctx, item.ID)
					continue
				}

				handleErr := handle(ctx, job)
				if handleErr == nil {
					_ = q.ackAndDelete(ctx, item.ID)
					continue
				}

				attempt++
				if attempt >= q.maxAttempts {
					_ = q.sendToDLQ(ctx, item, job, attempt, handleErr.Error())
					_ = q.ackAndDelete(ctx, item.ID)
					continue
				}
				if requeueErr := q.add(ctx, job, attempt); requeueErr != nil {
					_ = q.sendToDLQ(ctx, item, job, attempt, fmt.Sprintf("requeue failed: %v", requeueErr))
				}
				_ = q.ackAndDelete(ctx, item.ID)
			}
		}
	}
}

func (q *StreamsQueue) ensureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err()
	if err == nil || strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	return fmt.Errorf("queue: ensure stream group: %w", err)
}

func (q *StreamsQueue) ackAndDelete(ctx context.Context, streamID string) error {
	if err := q.client.XAck(ctx, q.stream, q.group, streamID).Err(); err != nil {
		return fmt.Errorf("queue: xack: %w", err)
	}
	if err := q.client.XDel(ctx, q.stream, streamID).Err(); err != nil {
		return fmt.Errorf("queue: xdel: %w", err)
	}
	return nil
}

func (q *StreamsQueue) sendToDLQ(ctx context.Context, item redis.XMessage, job CallJob, attempt int, errorMessage string) error {
	hints, _ := json.Marshal(job.LocatorHints)
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.dlqStream,
		Values: map[string]any{
			"stream_id":     item.ID,
			"recording_ref": job.RecordingRef,
			"hints":         string(hints),
			"attempt":       attempt,
			"error":         errorMessage,
			"moved_at":      time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("queue: send to dlq: %w", err)
	}
	return nil
}

func parseStreamMessage(item redis.XMessage) (CallJob, int, error) {
	getString := func(key string) (string, error) {
		value, ok := item.Values[key]
		if !ok {
			return "", fmt.Errorf("queue: missing field %s", key)
		}
		switch v := value.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		default:
			return fmt.Sprintf("%v", v), nil
		}
	}

	ref, err := getString("recording_ref")
	if err != nil {
		return CallJob{}, 0, err
	}
	attemptStr, err := getString("attempt")
	if err != nil {
		return CallJob{}, 0, err
	}
	attempt, err := strconv.Atoi(attemptStr)
	if err != nil {
		return CallJob{}, 0, fmt.Errorf("queue: invalid attempt: %w", err)
	}

	job := CallJob{RecordingRef: ref}
	if raw, err := getString("hints"); err == nil && raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &job.LocatorHints); err != nil {
			return CallJob{}, attempt, fmt.Errorf("queue: invalid hints: %w", err)
		}
	}
	return job, attempt, nil
}
