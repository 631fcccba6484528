// Package catalog provides the point-in-time product snapshot a checkout
// session validates against. A snapshot is taken once when the session opens
// and never refreshed mid-session, so its stock figures may be stale relative
// to sales on other terminals; the sales authority remains the final word.
package catalog

import (
	"time"

	"swiftpos/backend/internal/domain"
)

type Snapshot struct {
	products map[int64]domain.Product
	takenAt  time.Time
}

func NewSnapshot(products []domain.Product) *Snapshot {
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Snapshot{products: byID, takenAt: time.Now().UTC()}
}

func (s *Snapshot) Lookup(productID int64) (domain.Product, bool) {
	p, ok := s.products[productID]
	return p, ok
}

func (s *Snapshot) Len() int {
	return len(s.products)
}

func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Products returns the snapshot contents in an unspecified order.
func (s *Snapshot) Products() []domain.Product {
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out
}
