package checkout

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"swiftpos/backend/internal/cart"
	"swiftpos/backend/internal/catalog"
	"swiftpos/backend/internal/domain"
)

func catalogProduct(id int64, name string, stock int) domain.Product {
	return domain.Product{
		ID:            id,
		Name:          name,
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: stock,
		Active:        true,
	}
}

func TestValidateEmptyCartNeverReachesStockPhase(t *testing.T) {
	// Snapshot is empty on purpose: if the stock phase ran it would flag a
	// missing product, but preconditions must short-circuit first.
	snapshot := catalog.NewSnapshot(nil)
	c := cart.New()

	verr := Validate(c, snapshot, 1)
	if verr == nil {
		t.Fatalf("expected validation error for empty cart")
	}
	if len(verr.Preconditions) != 1 || verr.Preconditions[0] != "cart is empty" {
		t.Fatalf("expected cart-is-empty precondition, got %v", verr.Preconditions)
	}
	if len(verr.Stock) != 0 {
		t.Fatalf("expected no stock violations, got %v", verr.Stock)
	}
}

func TestValidateRequiresCustomer(t *testing.T) {
	p := catalogProduct(1, "Coffee", 10)
	snapshot := catalog.NewSnapshot([]domain.Product{p})
	c := cart.New()
	c.AddItem(p)

	verr := Validate(c, snapshot, 0)
	if verr == nil {
		t.Fatalf("expected validation error without customer")
	}
	if len(verr.Preconditions) != 1 || verr.Preconditions[0] != "no customer selected" {
		t.Fatalf("expected no-customer precondition, got %v", verr.Preconditions)
	}
}

func TestValidatePassesWithinStock(t *testing.T) {
	p := catalogProduct(1, "Coffee", 3)
	snapshot := catalog.NewSnapshot([]domain.Product{p})
	c := cart.New()
	c.AddItem(p)
	c.UpdateQuantity(1, 3)

	if verr := Validate(c, snapshot, 1); verr != nil {
		t.Fatalf("expected validation to pass, got %v", verr)
	}
}

func TestValidateFlagsOverStock(t *testing.T) {
	p := catalogProduct(1, "Coffee", 3)
	snapshot := catalog.NewSnapshot([]domain.Product{p})
	c := cart.New()
	c.AddItem(p)
	c.UpdateQuantity(1, 4)

	verr := Validate(c, snapshot, 1)
	if verr == nil {
		t.Fatalf("expected stock violation")
	}
	if len(verr.Stock) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(verr.Stock))
	}
	v := verr.Stock[0]
	if v.ProductID != 1 || v.Name != "Coffee" || v.Requested != 4 || v.Available != 3 {
		t.Fatalf("unexpected violation contents: %+v", v)
	}
	if want := "Coffee: requested 4 unit(s), only 3 in stock"; v.Message() != want {
		t.Fatalf("expected message %q, got %q", want, v.Message())
	}
}

func TestValidateCollectsAllViolationsInOnePass(t *testing.T) {
	coffee := catalogProduct(1, "Coffee", 1)
	water := catalogProduct(2, "Water", 0)
	bread := catalogProduct(3, "Bread", 10)
	snapshot := catalog.NewSnapshot([]domain.Product{coffee, water, bread})

	c := cart.New()
	c.AddItem(coffee)
	c.UpdateQuantity(1, 2)
	c.AddItem(water)
	c.AddItem(bread)

	verr := Validate(c, snapshot, 1)
	if verr == nil {
		t.Fatalf("expected stock violations")
	}
	if len(verr.Stock) != 2 {
		t.Fatalf("expected 2 violations in a single pass, got %d", len(verr.Stock))
	}
	if verr.Stock[0].ProductID != 1 || verr.Stock[1].ProductID != 2 {
		t.Fatalf("expected violations in cart order, got %+v", verr.Stock)
	}
}

func TestValidateMissingProductIsViolation(t *testing.T) {
	coffee := catalogProduct(1, "Coffee", 10)
	snapshot := catalog.NewSnapshot([]domain.Product{coffee})

	ghost := catalogProduct(42, "Discontinued Lamp", 5)
	c := cart.New()
	c.AddItem(ghost)

	verr := Validate(c, snapshot, 1)
	if verr == nil {
		t.Fatalf("expected violation for product absent from snapshot")
	}
	v := verr.Stock[0]
	if !v.Missing {
		t.Fatalf("expected violation marked missing, got %+v", v)
	}
	if !strings.Contains(v.Message(), "no longer available") {
		t.Fatalf("unexpected message for missing product: %q", v.Message())
	}
}

func TestValidationErrorMessageJoinsAll(t *testing.T) {
	verr := &ValidationError{
		Stock: []StockViolation{
			{ProductID: 1, Name: "Coffee", Requested: 4, Available: 3},
			{ProductID: 2, Name: "Water", Requested: 1, Missing: true},
		},
	}
	msg := verr.Error()
	if !strings.HasPrefix(msg, "sale blocked: ") {
		t.Fatalf("expected sale blocked prefix, got %q", msg)
	}
	if !strings.Contains(msg, "Coffee") || !strings.Contains(msg, "Water") {
		t.Fatalf("expected both violations in message, got %q", msg)
	}
}
