package checkout

import (
	"errors"
	"fmt"
	"strings"

	"swiftpos/backend/internal/cart"
	"swiftpos/backend/internal/catalog"
)

var (
	ErrSessionNotFound     = errors.New("checkout session not found")
	ErrProductNotInCatalog = errors.New("product not in catalog snapshot")
	ErrSubmissionInFlight  = errors.New("sale submission already in progress")
)

// StockViolation records one cart line whose requested quantity cannot be
// satisfied by the catalog snapshot. Missing marks a line whose product is
// absent from the snapshot entirely (deleted or never loaded); that case is
// a violation too, never silently skipped.
type StockViolation struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Missing   bool   `json:"missing"`
}

func (v StockViolation) Message() string {
	if v.Missing {
		return fmt.Sprintf("%s: no longer available in the catalog", v.Name)
	}
	return fmt.Sprintf("%s: requested %d unit(s), only %d in stock", v.Name, v.Requested, v.Available)
}

// ValidationError blocks a submission. Precondition failures (empty cart,
// no customer) are reported on their own; when any exist the stock phase is
// never reached. Stock violations are collected across every line in a
// single pass so the cashier sees the complete list at once.
type ValidationError struct {
	Preconditions []string         `json:"preconditions,omitempty"`
	Stock         []StockViolation `json:"stockViolations,omitempty"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Preconditions)+len(e.Stock))
	msgs = append(msgs, e.Preconditions...)
	for _, v := range e.Stock {
		msgs = append(msgs, v.Message())
	}
	return "sale blocked: " + strings.Join(msgs, "; ")
}

// Validate cross-checks the draft against the snapshot before submission.
// Returns nil when the sale may proceed. The cart is never modified here;
// on failure the cashier adjusts quantities and retries.
func Validate(c *cart.Cart, snapshot *catalog.Snapshot, customerID int64) *ValidationError {
	var preconditions []string
	if c.Empty() {
		preconditions = append(preconditions, "cart is empty")
	}
	if customerID <= 0 {
		preconditions = append(preconditions, "no customer selected")
	}
	if len(preconditions) > 0 {
		return &ValidationError{Preconditions: preconditions}
	}

	var violations []StockViolation
	for _, line := range c.Lines() {
		product, found := snapshot.Lookup(line.ProductID)
		if !found {
			violations = append(violations, StockViolation{
				ProductID: line.ProductID,
				Name:      line.Name,
				Requested: line.Quantity,
				Missing:   true,
			})
			continue
		}
		if line.Quantity > product.StockQuantity {
			violations = append(violations, StockViolation{
				ProductID: line.ProductID,
				Name:      product.Name,
				Requested: line.Quantity,
				Available: product.StockQuantity,
			})
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Stock: violations}
	}
	return nil
}
