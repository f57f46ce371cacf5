package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/donaldgifford/deal-finder/internal/engine"
	"github.com/donaldgifford/deal-finder/internal/metrics"
)

const defaultNotifyTimeout = 10 * time.Second

// Runner executes one pipeline run.
type Runner interface {
	RunPipeline(ctx context.Context, req engine.Request, sink engine.Sink) (*engine.Result, error)
}

// NotifyingRunner wraps a Runner and sends a report for every successful
// run that produced deals. Reports are sent in the background so the
// caller never waits on the webhook.
type NotifyingRunner struct {
	next     Runner
	notifier Notifier
	log      *slog.Logger
	maxDeals int
	timeout  time.Duration

	wg sync.WaitGroup
}

// RunnerOption configures a NotifyingRunner.
type RunnerOption func(*NotifyingRunner)

// WithMaxDeals caps the number of deals in each report.
func WithMaxDeals(n int) RunnerOption {
	return func(r *NotifyingRunner) {
		r.maxDeals = n
	}
}

// WithTimeout bounds each notification call.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *NotifyingRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *NotifyingRunner) {
		r.log = log
	}
}

// NewNotifyingRunner wraps next with notifier.
func NewNotifyingRunner(next Runner, notifier Notifier, opts ...RunnerOption) *NotifyingRunner {
	r := &NotifyingRunner{
		next:     next,
		notifier: notifier,
		log:      slog.Default(),
		timeout:  defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunPipeline runs the wrapped pipeline and schedules a notification.
// The run's result and error are returned unchanged.
func (r *NotifyingRunner) RunPipeline(
	ctx context.Context,
	req engine.Request,
	sink engine.Sink,
) (*engine.Result, error) {
	res, err := r.next.RunPipeline(ctx, req, sink)
	if err != nil || res == nil || res.Empty {
		return res, err
	}

	report := NewRunReport(res, r.maxDeals)
	// The request context ends with the HTTP response.
	nctx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.send(nctx, report)
	}()

	return res, nil
}

func (r *NotifyingRunner) send(ctx context.Context, report *RunReport) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.notifier.NotifyRun(ctx, report); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		r.log.Error("sending run notification", "run_id", report.RunID, "error", err)
		return
	}
	metrics.NotificationsSentTotal.Inc()
	r.log.Debug("run notification sent", "run_id", report.RunID, "deals", len(report.Deals))
}

// Close waits for in-flight notifications.
func (r *NotifyingRunner) Close() {
	r.wg.Wait()
}
