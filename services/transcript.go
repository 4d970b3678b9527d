package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/models"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// TranscriptSink appends chat transcript entries to an external log
type TranscriptSink interface {
	Append(ctx context.Context, entry models.TranscriptEntry) error
}

// SheetTranscriptSink writes entries to the spreadsheet webhook
type SheetTranscriptSink struct {
	client *SheetClient
}

// NewSheetTranscriptSink wraps a sheet client as a transcript sink
func NewSheetTranscriptSink(client *SheetClient) *SheetTranscriptSink {
	return &SheetTranscriptSink{client: client}
}

func (s *SheetTranscriptSink) Append(ctx context.Context, entry models.TranscriptEntry) error {
	return s.client.Append(ctx, entry)
}

// LogTranscriptSink only logs entries. Used when no external sink is configured.
type LogTranscriptSink struct{}

func (LogTranscriptSink) Append(ctx context.Context, entry models.TranscriptEntry) error {
	logger.FromCtx(ctx).Debug("chat transcript entry",
		zap.String("session_id", entry.SessionID),
		zap.String("role", entry.Role),
		zap.Int("length", len(entry.Message)),
	)
	return nil
}

var transcriptDispatchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_transcript_dispatch_total",
		Help: "Chat transcript entries handed to the external sink, by result",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(transcriptDispatchTotal)
}

// ErrDispatcherClosed is returned by Close when called twice
var ErrDispatcherClosed = errors.New("transcript dispatcher already closed")

// DispatcherOptions tunes the TranscriptDispatcher
type DispatcherOptions struct {
	QueueSize      int
	MaxAttempts    int
	Backoff        time.Duration
	AttemptTimeout time.Duration
}

// DefaultDispatcherOptions are used for zero fields
var DefaultDispatcherOptions = DispatcherOptions{
	QueueSize:      256,
	MaxAttempts:    3,
	Backoff:        200 * time.Millisecond,
	AttemptTimeout: 5 * time.Second,
}

// TranscriptDispatcher delivers transcript entries off the request path.
// Enqueue never blocks; a full queue drops the entry with a warning. Each entry
// is retried up to MaxAttempts times, then logged and dropped.
type TranscriptDispatcher struct {
	sink  TranscriptSink
	opts  DispatcherOptions
	queue chan models.TranscriptEntry
	done  chan struct{}

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewTranscriptDispatcher starts the delivery worker
func NewTranscriptDispatcher(sink TranscriptSink, opts DispatcherOptions) *TranscriptDispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultDispatcherOptions.QueueSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultDispatcherOptions.MaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultDispatcherOptions.Backoff
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultDispatcherOptions.AttemptTimeout
	}

	d := &TranscriptDispatcher{
		sink:  sink,
		opts:  opts,
		queue: make(chan models.TranscriptEntry, opts.QueueSize),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue hands an entry to the worker. It reports false when the entry was dropped.
func (d *TranscriptDispatcher) Enqueue(entry models.TranscriptEntry) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		transcriptDispatchTotal.WithLabelValues("dropped").Inc()
		return false
	}

	select {
	case d.queue <- entry:
		return true
	default:
		transcriptDispatchTotal.WithLabelValues("dropped").Inc()
		logger.L().Warn("Transcript queue full, dropping entry",
			zap.String("session_id", entry.SessionID),
			zap.String("role", entry.Role),
		)
		return false
	}
}

// Close stops accepting entries and waits for queued ones until ctx is done
func (d *TranscriptDispatcher) Close(ctx context.Context) error {
	err := ErrDispatcherClosed
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
		err = nil
	})
	if err != nil {
		return err
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *TranscriptDispatcher) run() {
	defer close(d.done)
	for entry := range d.queue {
		d.deliver(entry)
	}
}

func (d *TranscriptDispatcher) deliver(entry models.TranscriptEntry) {
	var lastErr error
	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.opts.AttemptTimeout)
		lastErr = d.sink.Append(ctx, entry)
		cancel()

		if lastErr == nil {
			transcriptDispatchTotal.WithLabelValues("delivered").Inc()
			return
		}
		if attempt < d.opts.MaxAttempts {
			time.Sleep(d.opts.Backoff * time.Duration(attempt))
		}
	}

	transcriptDispatchTotal.WithLabelValues("failed").Inc()
	logger.L().Error("Failed to deliver transcript entry",
		zap.String("session_id", entry.SessionID),
		zap.String("role", entry.Role),
		zap.Int("attempts", d.opts.MaxAttempts),
		zap.Error(lastErr),
	)
}
