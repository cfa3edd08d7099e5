package adapter

import (
	"context"
	"errors"

	"shopwatch/internal/features/watch/domain"
	"shopwatch/internal/features/watch/ports"
)

// MultiSink fans a notification out to every configured sink. All sinks
// are attempted even when one fails; the errors are joined.
type MultiSink struct {
	sinks []ports.NotificationSink
}

// NewMultiSink creates a MultiSink over the given sinks.
func NewMultiSink(sinks ...ports.NotificationSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// NotifyPriceAboveCeiling implements NotificationSink.
func (m *MultiSink) NotifyPriceAboveCeiling(ctx context.Context, product *domain.Product) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.NotifyPriceAboveCeiling(ctx, product); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyOrdered implements NotificationSink.
func (m *MultiSink) NotifyOrdered(ctx context.Context, product *domain.Product, orderNumber string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.NotifyOrdered(ctx, product, orderNumber); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
