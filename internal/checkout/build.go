package checkout

import (
	"swiftpos/backend/internal/cart"
	"swiftpos/backend/internal/domain"
)

// BuildRequest projects the draft into the sale wire shape. Display-only
// fields (line name, line discount) are stripped; the sales authority
// recomputes totals on its side, so the client-side grand total is never
// sent. Status is fixed to COMPLETED for this immediate-settlement flow.
// Assumes Validate has already approved the cart.
func BuildRequest(c *cart.Cart, customerID int64, paymentMethod string) domain.SaleRequest {
	lines := c.Lines()
	items := make([]domain.SaleRequestItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.SaleRequestItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	return domain.SaleRequest{
		Items:         items,
		CustomerID:    customerID,
		PaymentMethod: paymentMethod,
		Status:        domain.SaleStatusCompleted,
	}
}
