package service

import (
	"context"
	"testing"
	"time"

	"shopwatch/internal/features/watch/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notFoundFetcher answers every poll with an unknown article, driving
// each tracker straight to its terminal state.
type notFoundFetcher struct{}

func (notFoundFetcher) Fetch(ctx context.Context, productID int) (*domain.PageSnapshot, error) {
	return &domain.PageSnapshot{Found: false}, nil
}

func orchestratorOptions(registry *TrackingRegistry) TrackerOptions {
	return TrackerOptions{
		Fetcher:          notFoundFetcher{},
		Submitter:        &stubSubmitter{},
		Sink:             &recordingSink{},
		Registry:         registry,
		Board:            NewBoard(),
		PollInterval:     time.Millisecond,
		RenotifyInterval: time.Hour,
		Prices:           domain.DefaultPriceFormat,
	}
}

// TestOrchestrator_Run_EmptyProductList verifies the hard precondition.
func TestOrchestrator_Run_EmptyProductList(t *testing.T) {
	orchestrator := NewOrchestrator(orchestratorOptions(NewTrackingRegistry()))

	reports, err := orchestrator.Run(context.Background(), nil)

	assert.Nil(t, reports)
	assert.ErrorIs(t, err, ErrNoProducts)
}

// TestOrchestrator_Run_DeliversOneReportPerProduct verifies fan-in and
// channel closure.
func TestOrchestrator_Run_DeliversOneReportPerProduct(t *testing.T) {
	orchestrator := NewOrchestrator(orchestratorOptions(NewTrackingRegistry()))

	products := []*domain.Product{
		domain.NewProduct(1, decimal.NewFromInt(100)),
		domain.NewProduct(2, decimal.NewFromInt(200)),
		domain.NewProduct(3, decimal.NewFromInt(300)),
	}

	reports, err := orchestrator.Run(context.Background(), products)
	require.NoError(t, err)

	seen := make(map[int]domain.TrackedStatus)
	for report := range reports {
		seen[report.ProductID] = report.Status
	}

	require.Len(t, seen, 3)
	for _, p := range products {
		assert.Equal(t, domain.StatusNotFound, seen[p.ID])
	}
}

// TestOrchestrator_Run_ShutdownCancelsTrackers verifies that cancelling
// all handles drains the report channel.
func TestOrchestrator_Run_ShutdownCancelsTrackers(t *testing.T) {
	registry := NewTrackingRegistry()
	opts := orchestratorOptions(registry)
	opts.Fetcher = stalledFetcher{}
	opts.PollInterval = time.Minute
	orchestrator := NewOrchestrator(opts)

	products := []*domain.Product{
		domain.NewProduct(1, decimal.NewFromInt(100)),
		domain.NewProduct(2, decimal.NewFromInt(200)),
	}

	reports, err := orchestrator.Run(context.Background(), products)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	registry.CancelAll()

	count := 0
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-reports:
			if !ok {
				require.Equal(t, 2, count)
				return
			}
			count++
		case <-timeout:
			t.Fatal("report channel did not close after CancelAll")
		}
	}
}

// stalledFetcher keeps every tracker in its polling loop.
type stalledFetcher struct{}

func (stalledFetcher) Fetch(ctx context.Context, productID int) (*domain.PageSnapshot, error) {
	return &domain.PageSnapshot{Found: true, InStock: false}, nil
}
