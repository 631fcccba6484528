package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"swiftpos/backend/internal/domain"
	"swiftpos/backend/internal/store"
)

type Store struct {
	mu             sync.RWMutex
	products       map[int64]domain.Product
	categories     map[int64]domain.Category
	customers      map[int64]domain.Customer
	salesByID      map[string]*domain.Sale
	saleOrder      []string
	usersByName    map[string]domain.UserAccount
	nextProductID  int64
	nextCategoryID int64
	nextCustomerID int64
}

func New() *Store {
	return &Store{
		products:       make(map[int64]domain.Product),
		categories:     make(map[int64]domain.Category),
		customers:      make(map[int64]domain.Customer),
		salesByID:      make(map[string]*domain.Sale),
		usersByName:    make(map[string]domain.UserAccount),
		nextProductID:  1,
		nextCategoryID: 1,
		nextCustomerID: 1,
	}
}

// seedUsers builds the initial user accounts for dev/demo mode. Credentials
// come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; hardcoded dev
// defaults are used with a warning when unset. Production deployments use
// PostgreSQL (DATABASE_URL) and never hit this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func NewSeeded() *Store {
	s := New()

	categories := []domain.Category{
		{Name: "Beverages"},
		{Name: "Bakery"},
		{Name: "Snacks"},
		{Name: "Grocery"},
		{Name: "Household"},
	}
	for _, c := range categories {
		c.ID = s.nextCategoryID
		s.nextCategoryID++
		s.categories[c.ID] = c
	}

	products := []domain.Product{
		{SKU: "BEV-COF-01", Name: "Ground Coffee 500g", Description: "Medium roast", Price: price("14.90"), StockQuantity: 40, CategoryID: 1},
		{SKU: "BEV-WAT-01", Name: "Mineral Water 600ml", Description: "Still water", Price: price("2.50"), StockQuantity: 120, CategoryID: 1},
		{SKU: "BEV-JUI-01", Name: "Orange Juice 1L", Description: "No added sugar", Price: price("8.75"), StockQuantity: 30, CategoryID: 1},
		{SKU: "BAK-BRD-01", Name: "Sliced Bread", Description: "Whole wheat loaf", Price: price("6.40"), StockQuantity: 25, CategoryID: 2},
		{SKU: "BAK-CRS-01", Name: "Butter Croissant", Description: "Baked daily", Price: price("4.20"), StockQuantity: 18, CategoryID: 2},
		{SKU: "SNK-CHO-01", Name: "Chocolate Bar 90g", Description: "Dark 70%", Price: price("5.60"), StockQuantity: 60, CategoryID: 3},
		{SKU: "SNK-CHP-01", Name: "Potato Chips 120g", Description: "Lightly salted", Price: price("7.30"), StockQuantity: 45, CategoryID: 3},
		{SKU: "GRO-RIC-01", Name: "Rice 5kg", Description: "Long grain", Price: price("24.90"), StockQuantity: 35, CategoryID: 4},
		{SKU: "GRO-EGG-01", Name: "Eggs 12ct", Description: "Free range", Price: price("11.20"), StockQuantity: 50, CategoryID: 4},
		{SKU: "GRO-SUG-01", Name: "Sugar 1kg", Description: "Refined", Price: price("4.80"), StockQuantity: 70, CategoryID: 4},
		{SKU: "HOU-SOA-01", Name: "Bar Soap", Description: "Neutral fragrance", Price: price("3.10"), StockQuantity: 80, CategoryID: 5},
		{SKU: "HOU-DET-01", Name: "Dish Detergent 500ml", Description: "Lemon", Price: price("3.90"), StockQuantity: 0, CategoryID: 5},
	}
	for _, p := range products {
		p.ID = s.nextProductID
		p.Active = true
		s.nextProductID++
		s.products[p.ID] = p
	}

	customers := []domain.Customer{
		{Name: "Walk-in Customer", Document: "000.000.000-00", Email: "", Phone: ""},
		{Name: "Maria Souza", Document: "123.456.789-00", Email: "maria@example.com", Phone: "+55 11 99999-0001"},
		{Name: "Carlos Lima", Document: "987.654.321-00", Email: "carlos@example.com", Phone: "+55 11 99999-0002"},
	}
	for _, c := range customers {
		c.ID = s.nextCustomerID
		s.nextCustomerID++
		s.customers[c.ID] = c
	}

	s.usersByName = seedUsers()
	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Active {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Price.IsNegative() || product.StockQuantity < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if strings.EqualFold(existing.SKU, product.SKU) {
			return nil, store.ErrInvalidInput
		}
	}
	if product.CategoryID != 0 {
		if _, ok := s.categories[product.CategoryID]; !ok {
			return nil, store.ErrInvalidInput
		}
	}

	product.ID = s.nextProductID
	s.nextProductID++
	product.Active = true
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Price.IsNegative() || product.StockQuantity < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	product.SKU = existing.SKU
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	// Soft delete so historical sales keep a resolvable product reference.
	p.Active = false
	s.products[id] = p
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	category.ID = s.nextCategoryID
	s.nextCategoryID++
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) UpdateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[category.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	for _, p := range s.products {
		if p.CategoryID == id && p.Active {
			return store.ErrInvalidInput
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id int64) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customer.ID = s.nextCustomerID
	s.nextCustomerID++
	s.customers[customer.ID] = customer
	return &customer, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customer.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.customers[customer.ID] = customer
	return &customer, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.customers, id)
	return nil
}

// CreateSale checks and decrements stock for every item under one lock so a
// sale either claims all of its units or none of them.
func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[sale.CustomerID]; !ok {
		return nil, store.ErrInvalidInput
	}

	for _, item := range sale.Items {
		product, ok := s.products[item.ProductID]
		if !ok || !product.Active {
			return nil, store.ErrInvalidInput
		}
		if item.Quantity > product.StockQuantity {
			return nil, store.ErrInsufficientStock
		}
	}
	for _, item := range sale.Items {
		product := s.products[item.ProductID]
		product.StockQuantity -= item.Quantity
		s.products[item.ProductID] = product
	}

	saved := sale
	s.salesByID[saved.ID] = &saved
	s.saleOrder = append(s.saleOrder, saved.ID)
	return &saved, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *sale
	return &copied, nil
}

func (s *Store) ListSales(_ context.Context, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}

	sales := make([]domain.Sale, 0, limit)
	for i := len(s.saleOrder) - 1; i >= 0 && len(sales) < limit; i-- {
		sales = append(sales, *s.salesByID[s.saleOrder[i]])
	}
	return sales, nil
}

func (s *Store) ListSalesBetween(_ context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.saleOrder))
	for _, id := range s.saleOrder {
		sale := s.salesByID[id]
		if sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}
		sales = append(sales, *sale)
	}
	return sales, nil
}

// CancelSale flips the status and returns every sold unit to stock.
func (s *Store) CancelSale(_ context.Context, id string, at time.Time) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if sale.Status == domain.SaleStatusCanceled {
		return nil, store.ErrInvalidInput
	}

	for _, item := range sale.Items {
		if product, ok := s.products[item.ProductID]; ok {
			product.StockQuantity += item.Quantity
			s.products[item.ProductID] = product
		}
	}

	sale.Status = domain.SaleStatusCanceled
	canceledAt := at
	sale.CanceledAt = &canceledAt

	copied := *sale
	return &copied, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByName[user.Username]; exists {
		return store.ErrInvalidInput
	}
	s.usersByName[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByName))
	for _, u := range s.usersByName {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByName[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByName[username] = user
	return nil
}
