package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"swiftpos/backend/internal/domain"
)

func TestSnapshotLookup(t *testing.T) {
	snapshot := NewSnapshot([]domain.Product{
		{ID: 1, Name: "Coffee", Price: decimal.RequireFromString("14.90"), StockQuantity: 40},
		{ID: 2, Name: "Water", Price: decimal.RequireFromString("2.50"), StockQuantity: 120},
	})

	if snapshot.Len() != 2 {
		t.Fatalf("expected 2 products, got %d", snapshot.Len())
	}

	product, found := snapshot.Lookup(1)
	if !found || product.Name != "Coffee" {
		t.Fatalf("expected coffee, got %+v (found=%v)", product, found)
	}

	if _, found := snapshot.Lookup(99); found {
		t.Fatalf("expected lookup miss for unknown id")
	}
}

func TestSnapshotIsolatedFromSourceSlice(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Name: "Coffee", StockQuantity: 40},
	}
	snapshot := NewSnapshot(products)

	// Mutating the source slice after the snapshot is taken has no effect.
	products[0].StockQuantity = 0

	got, _ := snapshot.Lookup(1)
	if got.StockQuantity != 40 {
		t.Fatalf("expected snapshot stock 40, got %d", got.StockQuantity)
	}
}

func TestEmptySnapshot(t *testing.T) {
	snapshot := NewSnapshot(nil)
	if snapshot.Len() != 0 {
		t.Fatalf("expected empty snapshot, got %d", snapshot.Len())
	}
	if products := snapshot.Products(); len(products) != 0 {
		t.Fatalf("expected no products, got %v", products)
	}
}
