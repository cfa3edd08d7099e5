package service

import (
	"context"
	"errors"
	"sync"

	"shopwatch/internal/core/logger"
	"shopwatch/internal/features/watch/domain"

	"go.uber.org/zap"
)

// ErrNoProducts is returned when a run is started with nothing to track.
// It is a precondition failure for the whole run, not a per-product error.
var ErrNoProducts = errors.New("no products to track")

// Orchestrator launches one tracker per product and fans their terminal
// reports into a single channel.
type Orchestrator struct {
	registry *TrackingRegistry
	opts     TrackerOptions
	logger   *zap.Logger
}

// NewOrchestrator creates an Orchestrator. The options carry the
// collaborators every tracker shares; the registry inside them is also
// used to register the handles.
func NewOrchestrator(opts TrackerOptions) *Orchestrator {
	return &Orchestrator{
		registry: opts.Registry,
		opts:     opts,
		logger:   logger.Get(),
	}
}

// Run starts one tracker goroutine per product and returns a channel
// delivering each terminal report. The channel closes when every tracker
// has finished. Run itself does not block on tracker completion.
func (o *Orchestrator) Run(ctx context.Context, products []*domain.Product) (<-chan domain.Report, error) {
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	reports := make(chan domain.Report, len(products))
	var wg sync.WaitGroup

	for _, product := range products {
		handle := o.registry.Register(ctx, product.ID)
		tracker := NewTracker(product, handle, o.opts)

		wg.Add(1)
		go func() {
			defer wg.Done()
			report := tracker.Run()
			o.logReport(report)
			reports <- report
		}()
	}

	go func() {
		wg.Wait()
		close(reports)
	}()

	o.logger.Info("Tracking started", zap.Int("products", len(products)))
	return reports, nil
}

// logReport writes the terminal outcome of one tracker.
func (o *Orchestrator) logReport(report domain.Report) {
	log := logger.ForProduct(report.ProductID, report.Name)

	switch report.Status {
	case domain.StatusNotFound:
		log.Error("Tracking finished with an error: product not found")
	case domain.StatusFailOrderProcess:
		log.Error("Tracking finished with an error: order attempt failed",
			zap.String("price", o.opts.Prices.Format(report.FinalPrice)),
			zap.Error(report.Err),
		)
	case domain.StatusOrdered:
		log.Info("Tracking finished: product ordered",
			zap.String("price", o.opts.Prices.Format(report.FinalPrice)),
			zap.String("order_number", report.OrderNumber),
		)
	default:
		log.Info("Tracking stopped before reaching a terminal state")
	}
}
