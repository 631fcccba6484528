package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CategoryID    int64           `json:"categoryId"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Active        bool            `json:"active"`
}

const (
	StockStatusOut = "out_of_stock"
	StockStatusLow = "low_stock"
	StockStatusIn  = "in_stock"
)

// lowStockThreshold marks products that should be flagged for reorder.
const lowStockThreshold = 5

// StockStatus derives the display status from the current quantity.
func (p Product) StockStatus() string {
	switch {
	case p.StockQuantity <= 0:
		return StockStatusOut
	case p.StockQuantity <= lowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

type ProductCreateRequest struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CategoryID    int64           `json:"categoryId"`
	ImageURL      string          `json:"imageUrl,omitempty"`
}

type ProductUpdateRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	StockQuantity *int             `json:"stockQuantity,omitempty"`
	CategoryID    *int64           `json:"categoryId,omitempty"`
	ImageURL      *string          `json:"imageUrl,omitempty"`
	Active        *bool            `json:"active,omitempty"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}

type Customer struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type CustomerRequest struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// SaleRequestItem is one line of the outbound sale contract. Display-only
// cart fields (name, line discount) are never part of this shape.
type SaleRequestItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// SaleRequest is the wire shape the sales authority accepts. Totals are
// recomputed server-side; the client never submits its own grand total.
type SaleRequest struct {
	Items         []SaleRequestItem `json:"items"`
	CustomerID    int64             `json:"customerId"`
	PaymentMethod string            `json:"paymentMethod"`
	Status        string            `json:"status"`
}

type SaleItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Sale struct {
	ID            string          `json:"id"`
	CustomerID    int64           `json:"customerId"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Items         []SaleItem      `json:"items"`
	CreatedAt     time.Time       `json:"createdAt"`
	CanceledAt    *time.Time      `json:"canceledAt,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expiresAt"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type DashboardDay struct {
	Date    string          `json:"date"`
	Sales   int64           `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DashboardProduct struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type DashboardPayment struct {
	PaymentMethod string          `json:"paymentMethod"`
	Sales         int64           `json:"sales"`
	Revenue       decimal.Decimal `json:"revenue"`
}

type DashboardReport struct {
	From        string             `json:"from"`
	To          string             `json:"to"`
	Sales       int64              `json:"sales"`
	Canceled    int64              `json:"canceled"`
	Revenue     decimal.Decimal    `json:"revenue"`
	AverageSale decimal.Decimal    `json:"averageSale"`
	ByDay       []DashboardDay     `json:"byDay"`
	TopProducts []DashboardProduct `json:"topProducts"`
	ByPayment   []DashboardPayment `json:"byPayment"`
}

const (
	SaleStatusOpen      = "OPEN"
	SaleStatusCompleted = "COMPLETED"
	SaleStatusCanceled  = "CANCELED"
)

const (
	PaymentCard   = "card"
	PaymentCash   = "cash"
	PaymentCheque = "cheque"
	PaymentPix    = "pix"
)

func IsSupportedPaymentMethod(method string) bool {
	switch method {
	case PaymentCard, PaymentCash, PaymentCheque, PaymentPix:
		return true
	default:
		return false
	}
}
