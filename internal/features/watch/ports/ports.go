package ports

import (
	"context"

	"shopwatch/internal/features/watch/domain"
)

// PageFetcher retrieves a product page and extracts the facts a tracker
// decides on.
type PageFetcher interface {
	// Fetch loads the page for the given article number and returns the
	// extracted snapshot. Failures are *domain.FetchError; the caller
	// owns the retry policy.
	Fetch(ctx context.Context, productID int) (*domain.PageSnapshot, error)
}

// OrderSubmitter performs one purchase attempt against the shop.
type OrderSubmitter interface {
	// Submit places an order using the token and session cookie from the
	// current poll cycle's snapshot. A transport failure before any
	// response is a *domain.SubmitError; a non-success response is an
	// OrderOutcome with status OrderFailed.
	Submit(ctx context.Context, product *domain.Product, orderToken, sessionCookie string) (*domain.OrderOutcome, error)
}

// NotificationSink delivers tracking notifications. Delivery failure is
// logged by the caller and never aborts tracking.
type NotificationSink interface {
	// NotifyPriceAboveCeiling reports a product in stock above its ceiling.
	NotifyPriceAboveCeiling(ctx context.Context, product *domain.Product) error
	// NotifyOrdered reports a confirmed order.
	NotifyOrdered(ctx context.Context, product *domain.Product, orderNumber string) error
}
