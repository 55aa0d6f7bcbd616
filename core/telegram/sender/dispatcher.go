// Package sender runs fire-and-forget Telegram calls on a small worker pool.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx    context.Context
	action string
	to     int64
	run    func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts Options

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewDispatcher starts a dispatcher, filling zero options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, jobs: make(chan job, opts.QueueSize)}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules run for asynchronous execution. run must be safe to repeat.
func (d *Dispatcher) Enqueue(ctx context.Context, action string, to int64, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: context.WithoutCancel(orBackground(ctx)), action: action, to: to, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stats reports how many jobs finished successfully and how many gave up.
func (d *Dispatcher) Stats() (sent, failed uint64) {
	return d.sent.Load(), d.failed.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		if err := d.handle(j); err != nil {
			d.failed.Add(1)
			continue
		}
		d.sent.Add(1)
	}
}

func (d *Dispatcher) handle(j job) error {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			if attempt > 1 || logger.ShouldSampleDebug() {
				logger.Debug(j.ctx, "tg.sender", "send.success",
					append(jobAttrs(j), slog.Int("attempts", attempt), slog.Duration("duration", logger.Took(start)))...)
			}
			return nil
		}
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}
		delay := netutil.RetryDelay(err, d.opts.RetryBackoff*time.Duration(attempt))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			err = errors.Join(err, ctx.Err())
			attempt = attempts
		case <-timer.C:
			logger.Debug(j.ctx, "tg.sender", "send.retry",
				append(jobAttrs(j), slog.Int("attempts", attempt), slog.Duration("delay", delay))...)
		}
	}

	logger.Error(j.ctx, "tg.sender", "send.fail",
		append(jobAttrs(j),
			slog.String("status", "fail"),
			slog.String("err", redact(err)),
			slog.Duration("duration", logger.Took(start)),
		)...)
	return err
}

func jobAttrs(j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.to != 0 {
		attrs = append(attrs, slog.Int64("target_id", j.to))
	}
	return attrs
}

// redact strips bot tokens that net/http embeds in request URLs.
func redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
