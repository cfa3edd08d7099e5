package domain

import "github.com/shopspring/decimal"

// TrackedStatus represents the current state of a tracked product.
type TrackedStatus string

const (
	// StatusActive indicates the product is being polled.
	StatusActive TrackedStatus = "ACTIVE"
	// StatusNotFound indicates the shop does not know the article number; terminal.
	StatusNotFound TrackedStatus = "PRODUCT_NOT_FOUND"
	// StatusInOrderProcess indicates an order attempt is in flight.
	StatusInOrderProcess TrackedStatus = "IN_ORDER_PROCESS"
	// StatusFailOrderProcess indicates an order attempt failed; terminal.
	StatusFailOrderProcess TrackedStatus = "FAIL_ORDER_PROCESS"
	// StatusOrdered indicates the product was ordered and confirmed; terminal.
	StatusOrdered TrackedStatus = "PRODUCT_ORDERED"
)

// Terminal reports whether a status ends tracking.
func (s TrackedStatus) Terminal() bool {
	switch s {
	case StatusNotFound, StatusFailOrderProcess, StatusOrdered:
		return true
	}
	return false
}

// Product is one tracked shop article. MaxPrice is fixed at creation;
// Name, CurrentPrice and Status are written only by the owning tracker.
type Product struct {
	// ID is the shop article number.
	ID int `json:"id"`
	// Name is the display name, filled in once the page reveals it.
	Name string `json:"name"`
	// MaxPrice is the acceptable price ceiling.
	MaxPrice decimal.Decimal `json:"max_price"`
	// CurrentPrice is the latest observed price.
	CurrentPrice decimal.Decimal `json:"current_price"`
	// Status is the tracker state for this product.
	Status TrackedStatus `json:"status"`
}

// NewProduct creates a Product in the initial tracking state.
func NewProduct(id int, maxPrice decimal.Decimal) *Product {
	return &Product{
		ID:       id,
		MaxPrice: maxPrice,
		Status:   StatusActive,
	}
}

// PageSnapshot holds the facts extracted from one fetch of a product
// page. It is consumed within the same poll cycle and never shared: the
// order token is only valid for the session cookie issued alongside it.
type PageSnapshot struct {
	// Found is false when the shop reports the article as unknown.
	// All other fields are meaningless in that case.
	Found bool
	// InStock reports whether the product can be ordered right now.
	InStock bool
	// Name is the product display name, when present on the page.
	Name string
	// Price is the listed price; only meaningful when InStock is true.
	Price decimal.Decimal
	// OrderToken is the single-use anti-replay token from the order form.
	OrderToken string
	// SessionCookie is the session value issued with this page load.
	SessionCookie string
}

// OrderStatus represents the outcome class of one order attempt.
type OrderStatus string

const (
	// OrderPlaced indicates the order request got a success response.
	OrderPlaced OrderStatus = "ORDERED"
	// OrderFailed indicates the order request got a non-success response.
	OrderFailed OrderStatus = "FAILED"
)

// OrderOutcome is the result of one order submission. OrderPlaced does
// not guarantee a non-empty OrderNumber: the confirmation marker can be
// missing from an otherwise successful response.
type OrderOutcome struct {
	// Status is the outcome class.
	Status OrderStatus
	// RawBody is the response body, present when Status is OrderPlaced.
	RawBody string
	// OrderNumber is the confirmation number, possibly empty.
	OrderNumber string
}

// Confirmed reports whether the outcome is a conclusively placed order.
func (o *OrderOutcome) Confirmed() bool {
	return o.Status == OrderPlaced && o.OrderNumber != ""
}

// Report is the terminal outcome of one product's tracking run.
type Report struct {
	// ProductID is the shop article number.
	ProductID int
	// Name is the product display name, if it ever became known.
	Name string
	// Status is the terminal tracker state.
	Status TrackedStatus
	// FinalPrice is the last observed price.
	FinalPrice decimal.Decimal
	// OrderNumber is set when the product was ordered and confirmed.
	OrderNumber string
	// Err carries the error that terminated tracking, if any.
	Err error
}
