package service

import (
	"context"
	"errors"
	"time"

	"shopwatch/internal/core/logger"
	"shopwatch/internal/features/watch/domain"
	"shopwatch/internal/features/watch/ports"

	"go.uber.org/zap"
)

// ErrProductNotFound terminates tracking for an article the shop does
// not know; the product will never become available under that id.
var ErrProductNotFound = errors.New("product not found")

// TrackerOptions holds the collaborators and tuning shared by all
// trackers of one run.
type TrackerOptions struct {
	// Fetcher loads and extracts product pages.
	Fetcher ports.PageFetcher
	// Submitter performs order attempts.
	Submitter ports.OrderSubmitter
	// Sink receives price-ceiling and order notifications.
	Sink ports.NotificationSink
	// Registry owns the cancellation handles; the tracker removes its
	// own handle on every terminal exit.
	Registry *TrackingRegistry
	// Board receives product view updates; may be nil.
	Board *Board
	// PollInterval is the pause between poll cycles.
	PollInterval time.Duration
	// RenotifyInterval is the suppression window for repeated
	// price-above-ceiling notifications.
	RenotifyInterval time.Duration
	// Prices formats prices for logs and notifications.
	Prices domain.PriceFormat
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Tracker owns the polling loop of one product: fetch, decide, order,
// notify. Cycles are strictly sequential; an order attempt always uses
// the token and session cookie of the cycle's own snapshot.
type Tracker struct {
	product *domain.Product
	handle  *TrackingHandle
	opts    TrackerOptions
	logger  *zap.Logger

	notifiedOnce bool
	lastNotified time.Time
}

// NewTracker creates a tracker bound to one product and its handle.
func NewTracker(product *domain.Product, handle *TrackingHandle, opts TrackerOptions) *Tracker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		product: product,
		handle:  handle,
		opts:    opts,
		logger:  logger.ForProduct(product.ID, product.Name),
	}
}

// Run executes poll cycles until a terminal state or cancellation and
// returns the terminal report. It is the only writer of the product.
func (t *Tracker) Run() domain.Report {
	ctx := t.handle.Context()

	t.logger.Info("Tracking product",
		zap.String("max_price", t.opts.Prices.Format(t.product.MaxPrice)),
	)
	t.publish("")

	for ctx.Err() == nil {
		if report, done := t.cycle(ctx); done {
			t.opts.Registry.Cancel(t.product.ID)
			return report
		}

		if !t.sleep(ctx) {
			break
		}
	}

	t.logger.Info("Tracking cancelled")
	return t.report(ctx.Err())
}

// cycle runs one fetch-decide-act pass. It returns done=true with the
// terminal report when tracking must stop.
func (t *Tracker) cycle(ctx context.Context) (domain.Report, bool) {
	snapshot, err := t.opts.Fetcher.Fetch(ctx, t.product.ID)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled mid-fetch; the loop exits at the top.
			return domain.Report{}, false
		}
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			t.logger.Warn("Page fetch failed, will retry",
				zap.String("kind", string(fetchErr.Kind)),
				zap.Error(fetchErr.Err),
			)
		} else {
			t.logger.Warn("Page fetch failed, will retry", zap.Error(err))
		}
		return domain.Report{}, false
	}

	if !snapshot.Found {
		t.product.Status = domain.StatusNotFound
		t.publish("")
		t.logger.Error("Product not found at this article number, tracking stopped")
		return t.report(ErrProductNotFound), true
	}

	if snapshot.Name != "" && t.product.Name == "" {
		t.product.Name = snapshot.Name
		t.logger = logger.ForProduct(t.product.ID, t.product.Name)
	}

	if !snapshot.InStock {
		t.logger.Debug("Product out of stock")
		t.publish("")
		return domain.Report{}, false
	}

	t.product.CurrentPrice = snapshot.Price

	if snapshot.Price.LessThanOrEqual(t.product.MaxPrice) {
		return t.attemptOrder(ctx, snapshot)
	}

	t.notifyAboveCeiling(ctx)
	t.publish("")
	return domain.Report{}, false
}

// attemptOrder submits an order using the current cycle's token and
// session cookie. A cancellation arriving during the attempt does not
// interrupt it: a half-submitted order must reach a definite outcome.
func (t *Tracker) attemptOrder(ctx context.Context, snapshot *domain.PageSnapshot) (domain.Report, bool) {
	t.product.Status = domain.StatusInOrderProcess
	t.publish("")

	// The submit and its success notification run detached from the
	// handle's cancellation; the submitter's own client timeout bounds them.
	orderCtx := context.WithoutCancel(ctx)

	outcome, err := t.opts.Submitter.Submit(orderCtx, t.product, snapshot.OrderToken, snapshot.SessionCookie)
	if err != nil {
		t.product.Status = domain.StatusFailOrderProcess
		t.publish("")
		t.logger.Error("Order submission failed before a response was received, possible lost purchase",
			zap.String("price", t.opts.Prices.Format(t.product.CurrentPrice)),
			zap.Error(err),
		)
		return t.report(err), true
	}

	switch {
	case outcome.Status == domain.OrderFailed:
		t.product.Status = domain.StatusFailOrderProcess
		t.publish("")
		t.logger.Error("Order request was rejected by the shop (status outside 200-299)",
			zap.String("price", t.opts.Prices.Format(t.product.CurrentPrice)),
		)
		return t.report(errors.New("order request rejected")), true

	case outcome.Confirmed():
		t.product.Status = domain.StatusOrdered
		t.publish(outcome.OrderNumber)
		t.logger.Info("Product successfully ordered",
			zap.String("order_number", outcome.OrderNumber),
			zap.String("price", t.opts.Prices.Format(t.product.CurrentPrice)),
		)
		if err := t.opts.Sink.NotifyOrdered(orderCtx, t.product, outcome.OrderNumber); err != nil {
			t.logger.Error("Order notification failed", zap.Error(err))
		}
		report := t.report(nil)
		report.OrderNumber = outcome.OrderNumber
		return report, true

	default:
		// HTTP success without a confirmation number. Treat the attempt
		// as inconclusive rather than report a sale that may not exist.
		t.logger.Warn("Order response carried no confirmation number, resuming polling")
		t.product.Status = domain.StatusActive
		t.publish("")
		return domain.Report{}, false
	}
}

// notifyAboveCeiling sends the price-above-ceiling notification on the
// first observation, then suppresses repeats until the re-notify window
// elapses. Failed sends stay unrecorded so the next cycle retries.
func (t *Tracker) notifyAboveCeiling(ctx context.Context) {
	now := t.opts.Now()
	if t.notifiedOnce && now.Sub(t.lastNotified) < t.opts.RenotifyInterval {
		t.logger.Debug("Price-above-ceiling notification suppressed",
			zap.Time("last_notified", t.lastNotified),
		)
		return
	}

	t.logger.Info("Product in stock above the price ceiling",
		zap.String("price", t.opts.Prices.Format(t.product.CurrentPrice)),
		zap.String("max_price", t.opts.Prices.Format(t.product.MaxPrice)),
	)

	if err := t.opts.Sink.NotifyPriceAboveCeiling(ctx, t.product); err != nil {
		t.logger.Error("Price-above-ceiling notification failed", zap.Error(err))
		return
	}
	t.notifiedOnce = true
	t.lastNotified = now
}

// sleep pauses for the poll interval. It returns false when cancellation
// arrives during the pause.
func (t *Tracker) sleep(ctx context.Context) bool {
	timer := time.NewTimer(t.opts.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (t *Tracker) publish(orderNumber string) {
	t.opts.Board.Publish(t.product, orderNumber)
}

func (t *Tracker) report(err error) domain.Report {
	return domain.Report{
		ProductID:  t.product.ID,
		Name:       t.product.Name,
		Status:     t.product.Status,
		FinalPrice: t.product.CurrentPrice,
		Err:        err,
	}
}
