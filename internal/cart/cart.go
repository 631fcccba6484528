// Package cart implements the in-memory sale draft a cashier assembles
// before submission. The cart never talks to the network and never enforces
// stock limits; it is a draft, and enforcement happens at submission time.
package cart

import (
	"github.com/shopspring/decimal"

	"swiftpos/backend/internal/domain"
)

// AddResult reports whether AddItem created a new line or bumped an
// existing one, so the caller can phrase its confirmation.
type AddResult int

const (
	LineAdded AddResult = iota
	QuantityIncreased
)

// Line is one product's presence in the draft. UnitPrice is a snapshot taken
// when the product was first added and stays decoupled from later catalog
// price changes; Name is denormalized so the cart renders without a catalog
// join.
type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
}

// Total is the line's contribution to the grand total, clamped at zero no
// matter how large the line discount is.
func (l Line) Total() decimal.Decimal {
	total := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Sub(l.Discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
}

// Cart holds the ordered-by-insertion lines plus an optional cart-level
// discount. At most one line exists per product id.
type Cart struct {
	lines    []Line
	discount decimal.Decimal
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) find(productID int64) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem puts one unit of the product into the draft. A product already in
// the cart gets its quantity incremented; its stored unit price and discount
// are left alone. A new line seeds its unit price from the product's current
// catalog price.
func (c *Cart) AddItem(product domain.Product) AddResult {
	if i := c.find(product.ID); i >= 0 {
		c.lines[i].Quantity++
		return QuantityIncreased
	}
	c.lines = append(c.lines, Line{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  1,
		UnitPrice: product.Price,
		Discount:  decimal.Zero,
	})
	return LineAdded
}

// RemoveItem deletes the matching line. Removing an absent product is a
// no-op, not an error.
func (c *Cart) RemoveItem(productID int64) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// UpdateQuantity replaces the line's quantity. Zero or negative removes the
// line; a line is never stored with quantity <= 0. No stock ceiling applies
// here; a cashier may provisionally exceed stock while building the draft.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	if i := c.find(productID); i >= 0 {
		c.lines[i].Quantity = quantity
	}
}

// UpdateUnitPrice overrides the line's price snapshot, supporting manual
// discounting at the register. Negative prices are clamped to zero.
func (c *Cart) UpdateUnitPrice(productID int64, price decimal.Decimal) {
	if price.IsNegative() {
		price = decimal.Zero
	}
	if i := c.find(productID); i >= 0 {
		c.lines[i].UnitPrice = price
	}
}

// UpdateDiscount sets the line's monetary discount. Negative amounts are
// clamped to zero.
func (c *Cart) UpdateDiscount(productID int64, discount decimal.Decimal) {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if i := c.find(productID); i >= 0 {
		c.lines[i].Discount = discount
	}
}

// SetDiscount sets the cart-level discount amount.
func (c *Cart) SetDiscount(discount decimal.Decimal) {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	c.discount = discount
}

func (c *Cart) Discount() decimal.Decimal {
	return c.discount
}

// Clear empties the draft and resets the cart-level discount.
func (c *Cart) Clear() {
	c.lines = nil
	c.discount = decimal.Zero
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines returns a copy of the line list in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Totals recomputes the derived amounts from scratch; nothing is cached
// between mutations. grandTotal never goes below zero even when the combined
// discounts exceed the subtotal.
func (c *Cart) Totals() Totals {
	subtotal := decimal.Zero
	lineDiscounts := decimal.Zero
	for _, line := range c.lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		lineDiscounts = lineDiscounts.Add(line.Discount)
	}

	totalDiscount := lineDiscounts.Add(c.discount)
	grand := subtotal.Sub(totalDiscount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}

	return Totals{
		Subtotal:      subtotal,
		TotalDiscount: totalDiscount,
		GrandTotal:    grand,
	}
}
