// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/pmahlen/amora/internal/metrics"
)

// Defaults for WriterConfig fields left at zero.
const (
	defaultQueueSize  = 1024
	defaultRetries    = 3
	defaultRetryDelay = 250 * time.Millisecond

	// drainTimeout bounds the best-effort flush of queued writes during
	// shutdown.
	drainTimeout = 5 * time.Second
)

// WriterConfig tunes the AsyncWriter queue and retry behavior.
type WriterConfig struct {
	// QueueSize is the write queue capacity. Writes beyond it are dropped.
	QueueSize int

	// Retries is how many times a failed write is retried before being
	// dropped. Zero selects the default.
	Retries int

	// RetryDelay is the pause between retry attempts.
	RetryDelay time.Duration
}

func (c WriterConfig) withDefaults() WriterConfig {
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.Retries <= 0 {
		c.Retries = defaultRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	return c
}

// writeOp is one queued mutation. Values are serialized at enqueue time so
// later mutation of the caller's struct cannot change what gets written.
type writeOp struct {
	collection string
	key        string
	payload    []byte
	remove     bool
}

// AsyncWriter queues writes to a Store and applies them from a background
// loop. Reads go straight through. Enqueueing never blocks: when the queue
// is full the write is dropped and logged, and the in-memory state remains
// the source of truth.
type AsyncWriter struct {
	store  Store
	cfg    WriterConfig
	logger zerolog.Logger
	queue  chan writeOp

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewAsyncWriter wraps store with an asynchronous write queue. Run Serve in
// a supervised goroutine to apply the queued writes.
func NewAsyncWriter(store Store, cfg WriterConfig, logger zerolog.Logger) *AsyncWriter {
	cfg = cfg.withDefaults()
	return &AsyncWriter{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "store-writer").Logger(),
		queue:  make(chan writeOp, cfg.QueueSize),
	}
}

// Load reads collection/key into value synchronously. Reports (false, nil)
// when the key does not exist.
func (w *AsyncWriter) Load(ctx context.Context, collection, key string, value any) (bool, error) {
	err := w.store.Get(ctx, collection, key, value)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

// Save queues a write of value at collection/key. It never blocks; a full
// queue drops the write.
func (w *AsyncWriter) Save(collection, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		w.dropped.Add(1)
		metrics.RecordStoreWrite("dropped")
		w.logger.Error().Err(err).
			Str("collection", collection).
			Str("key", key).
			Msg("Dropping write, marshal failed")
		return
	}
	w.enqueue(writeOp{collection: collection, key: key, payload: payload})
}

// Delete queues removal of collection/key. It never blocks.
func (w *AsyncWriter) Delete(collection, key string) {
	w.enqueue(writeOp{collection: collection, key: key, remove: true})
}

func (w *AsyncWriter) enqueue(op writeOp) {
	select {
	case w.queue <- op:
		metrics.StoreWriteQueueDepth.Set(float64(len(w.queue)))
	default:
		w.dropped.Add(1)
		metrics.RecordStoreWrite("dropped")
		w.logger.Warn().
			Str("collection", op.collection).
			Str("key", op.key).
			Int("queue_size", w.cfg.QueueSize).
			Msg("Dropping write, queue full")
	}
}

// Serve runs the write loop until ctx is canceled, then flushes what it can
// within drainTimeout. Implements suture.Service.
func (w *AsyncWriter) Serve(ctx context.Context) error {
	w.logger.Debug().
		Int("queue_size", w.cfg.QueueSize).
		Int("retries", w.cfg.Retries).
		Msg("Store writer started")

	for {
		select {
		case <-ctx.Done():
			w.drain()
			w.logger.Debug().
				Int64("written", w.written.Load()).
				Int64("dropped", w.dropped.Load()).
				Int64("failed", w.failed.Load()).
				Msg("Store writer stopped")
			return ctx.Err()
		case op := <-w.queue:
			w.apply(ctx, op)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (w *AsyncWriter) String() string {
	return "store-writer"
}

// apply performs one queued write with retries. Failures beyond the retry
// budget are logged and counted; the loop keeps running.
func (w *AsyncWriter) apply(ctx context.Context, op writeOp) {
	var err error
	for attempt := 0; attempt <= w.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				// Shutdown while waiting to retry. Try once on a
				// fresh context, then give up.
				err = w.applyOnce(context.Background(), op)
				if err == nil {
					w.recordSuccess()
					return
				}
				w.recordFailure(op, err)
				return
			case <-time.After(w.cfg.RetryDelay):
			}
		}
		if err = w.applyOnce(ctx, op); err == nil {
			w.recordSuccess()
			return
		}
	}
	w.recordFailure(op, err)
}

func (w *AsyncWriter) applyOnce(ctx context.Context, op writeOp) error {
	if op.remove {
		return w.store.Delete(ctx, op.collection, op.key)
	}
	return w.store.Set(ctx, op.collection, op.key, json.RawMessage(op.payload))
}

func (w *AsyncWriter) recordSuccess() {
	w.written.Add(1)
	metrics.RecordStoreWrite("success")
	metrics.StoreWriteQueueDepth.Set(float64(len(w.queue)))
}

func (w *AsyncWriter) recordFailure(op writeOp, err error) {
	w.failed.Add(1)
	metrics.RecordStoreWrite("failed")
	w.logger.Error().Err(err).
		Str("collection", op.collection).
		Str("key", op.key).
		Int("retries", w.cfg.Retries).
		Msg("Write failed, giving up")
}

// drain applies remaining queued ops once each under a fresh bounded
// context. Shutdown must not hang on a broken store.
func (w *AsyncWriter) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case op := <-w.queue:
			if err := w.applyOnce(ctx, op); err != nil {
				w.recordFailure(op, err)
				continue
			}
			w.recordSuccess()
		default:
			return
		}
	}
}

// WriterStats is a point-in-time snapshot of writer counters.
type WriterStats struct {
	Written int64 `json:"written"`
	Dropped int64 `json:"dropped"`
	Failed  int64 `json:"failed"`
	Pending int   `json:"pending"`
}

// Stats reports writer activity counters.
func (w *AsyncWriter) Stats() WriterStats {
	return WriterStats{
		Written: w.written.Load(),
		Dropped: w.dropped.Load(),
		Failed:  w.failed.Load(),
		Pending: len(w.queue),
	}
}
