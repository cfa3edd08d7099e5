package service

import (
	"sort"
	"sync"
	"time"

	"shopwatch/internal/features/watch/domain"
)

// ProductView is a read-only snapshot of one tracked product, published
// by its tracker for the status API. It decouples readers from the
// tracker-owned Product.
type ProductView struct {
	// ID is the shop article number.
	ID int `json:"id"`
	// Name is the product display name, if known.
	Name string `json:"name"`
	// Status is the current tracker state.
	Status domain.TrackedStatus `json:"status"`
	// CurrentPrice is the latest observed price as a decimal string.
	CurrentPrice string `json:"current_price"`
	// MaxPrice is the configured ceiling as a decimal string.
	MaxPrice string `json:"max_price"`
	// OrderNumber is set once the product has been ordered.
	OrderNumber string `json:"order_number,omitempty"`
	// UpdatedAt is when the tracker last published this view.
	UpdatedAt time.Time `json:"updated_at"`
}

// Board is the concurrency-safe set of product views. Trackers write
// their own product's view; the status API reads.
type Board struct {
	mu    sync.RWMutex
	views map[int]ProductView
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		views: make(map[int]ProductView),
	}
}

// Publish records the current state of a product.
func (b *Board) Publish(product *domain.Product, orderNumber string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.views[product.ID] = ProductView{
		ID:           product.ID,
		Name:         product.Name,
		Status:       product.Status,
		CurrentPrice: product.CurrentPrice.String(),
		MaxPrice:     product.MaxPrice.String(),
		OrderNumber:  orderNumber,
		UpdatedAt:    time.Now().UTC(),
	}
}

// Get returns the view for one product.
func (b *Board) Get(productID int) (ProductView, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	view, ok := b.views[productID]
	return view, ok
}

// List returns all views ordered by product id.
func (b *Board) List() []ProductView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	views := make([]ProductView, 0, len(b.views))
	for _, v := range b.views {
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}
