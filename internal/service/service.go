package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"swiftpos/backend/internal/cache"
	"swiftpos/backend/internal/domain"
	"swiftpos/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo     store.Repository
	catalog  cache.CatalogCache
	cacheTTL time.Duration
}

func New(repo store.Repository, catalog cache.CatalogCache, cacheTTL time.Duration) *Service {
	if catalog == nil {
		catalog = cache.NoopCatalogCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &Service{
		repo:     repo,
		catalog:  catalog,
		cacheTTL: cacheTTL,
	}
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	return nil
}

// ListProducts serves the active catalog, cache-first. A cache failure is
// logged and the store answers instead.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	cached, ok, err := s.catalog.GetProducts(ctx)
	if err != nil {
		log.Printf("[service] WARN: catalog cache read failed: %v", err)
	}
	if ok {
		return cached, nil
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.SetProducts(ctx, products, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: catalog cache write failed: %v", err)
	}
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.catalog.Invalidate(ctx); err != nil {
		log.Printf("[service] WARN: catalog cache invalidation failed: %v", err)
	}
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)

	if req.SKU == "" || req.Name == "" || req.CategoryID < 1 {
		return domain.Product{}, store.ErrInvalidInput
	}
	if req.Price.IsNegative() || req.StockQuantity < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	product := domain.Product{
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
		ImageURL:      strings.TrimSpace(req.ImageURL),
		Active:        true,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateCatalog(ctx)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Price = *req.Price
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.StockQuantity = *req.StockQuantity
	}
	if req.CategoryID != nil {
		if *req.CategoryID < 1 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.CategoryID = *req.CategoryID
	}
	if req.ImageURL != nil {
		updated.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateCatalog(ctx)
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryRequest) (domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateCategory(ctx, domain.Category{Name: name})
	if err != nil {
		return domain.Category{}, err
	}
	return *created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, req domain.CategoryRequest) (domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, store.ErrInvalidInput
	}

	updated, err := s.repo.UpdateCategory(ctx, domain.Category{ID: id, Name: name})
	if err != nil {
		return domain.Category{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	customer, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func normalizeCustomer(req domain.CustomerRequest) (domain.Customer, error) {
	customer := domain.Customer{
		Name:     strings.TrimSpace(req.Name),
		Document: strings.TrimSpace(req.Document),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
	}
	if customer.Name == "" {
		return domain.Customer{}, store.ErrInvalidInput
	}
	return customer, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerRequest) (domain.Customer, error) {
	customer, err := normalizeCustomer(req)
	if err != nil {
		return domain.Customer{}, err
	}

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, req domain.CustomerRequest) (domain.Customer, error) {
	customer, err := normalizeCustomer(req)
	if err != nil {
		return domain.Customer{}, err
	}
	customer.ID = id

	updated, err := s.repo.UpdateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCustomer(ctx, id)
}

// SubmitSale turns a sale request into a recorded sale. Stock is decremented
// by the store inside one transaction, so a request that outruns available
// stock fails whole with store.ErrInsufficientStock.
func (s *Service) SubmitSale(ctx context.Context, req domain.SaleRequest) (*domain.Sale, error) {
	if len(req.Items) == 0 || req.CustomerID < 1 {
		return nil, store.ErrInvalidInput
	}
	if !domain.IsSupportedPaymentMethod(req.PaymentMethod) {
		return nil, store.ErrInvalidInput
	}
	if req.Status != domain.SaleStatusCompleted {
		return nil, store.ErrInvalidInput
	}

	total := decimal.Zero
	items := make([]domain.SaleItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID < 1 || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			return nil, store.ErrInvalidInput
		}
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, domain.SaleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}

	sale := domain.Sale{
		ID:            uuid.NewString(),
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.SaleStatusCompleted,
		Total:         total,
		Items:         items,
		CreatedAt:     time.Now().UTC(),
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return nil, err
	}

	s.invalidateCatalog(ctx)
	return created, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, limit)
}

// CancelSale voids a completed sale and puts its units back on the shelf.
func (s *Service) CancelSale(ctx context.Context, id string) (domain.Sale, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Sale{}, err
	}

	canceled, err := s.repo.CancelSale(ctx, id, time.Now().UTC())
	if err != nil {
		return domain.Sale{}, err
	}

	s.invalidateCatalog(ctx)
	return *canceled, nil
}

const dashboardTopProducts = 5

// Dashboard aggregates the sales of [from, to) into daily revenue, top
// products and payment-method breakdowns. Canceled sales are counted but
// excluded from revenue.
func (s *Service) Dashboard(ctx context.Context, from time.Time, to time.Time) (domain.DashboardReport, error) {
	if !to.After(from) {
		return domain.DashboardReport{}, store.ErrInvalidInput
	}

	sales, err := s.repo.ListSalesBetween(ctx, from, to)
	if err != nil {
		return domain.DashboardReport{}, err
	}

	report := domain.DashboardReport{
		From:        from.Format("2006-01-02"),
		To:          to.Format("2006-01-02"),
		Revenue:     decimal.Zero,
		AverageSale: decimal.Zero,
		ByDay:       []domain.DashboardDay{},
		TopProducts: []domain.DashboardProduct{},
		ByPayment:   []domain.DashboardPayment{},
	}

	byDay := make(map[string]*domain.DashboardDay)
	byProduct := make(map[int64]*domain.DashboardProduct)
	byPayment := make(map[string]*domain.DashboardPayment)

	for _, sale := range sales {
		if sale.Status == domain.SaleStatusCanceled {
			report.Canceled++
			continue
		}

		report.Sales++
		report.Revenue = report.Revenue.Add(sale.Total)

		day := sale.CreatedAt.Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = &domain.DashboardDay{Date: day, Revenue: decimal.Zero}
		}
		byDay[day].Sales++
		byDay[day].Revenue = byDay[day].Revenue.Add(sale.Total)

		if byPayment[sale.PaymentMethod] == nil {
			byPayment[sale.PaymentMethod] = &domain.DashboardPayment{PaymentMethod: sale.PaymentMethod, Revenue: decimal.Zero}
		}
		byPayment[sale.PaymentMethod].Sales++
		byPayment[sale.PaymentMethod].Revenue = byPayment[sale.PaymentMethod].Revenue.Add(sale.Total)

		for _, item := range sale.Items {
			if byProduct[item.ProductID] == nil {
				byProduct[item.ProductID] = &domain.DashboardProduct{ProductID: item.ProductID, Revenue: decimal.Zero}
			}
			byProduct[item.ProductID].Quantity += int64(item.Quantity)
			byProduct[item.ProductID].Revenue = byProduct[item.ProductID].Revenue.Add(item.Subtotal)
		}
	}

	if report.Sales > 0 {
		report.AverageSale = report.Revenue.DivRound(decimal.NewFromInt(report.Sales), 2)
	}

	for _, entry := range byDay {
		report.ByDay = append(report.ByDay, *entry)
	}
	sort.Slice(report.ByDay, func(i, j int) bool {
		return report.ByDay[i].Date < report.ByDay[j].Date
	})

	for _, entry := range byPayment {
		report.ByPayment = append(report.ByPayment, *entry)
	}
	sort.Slice(report.ByPayment, func(i, j int) bool {
		return report.ByPayment[i].PaymentMethod < report.ByPayment[j].PaymentMethod
	})

	for _, entry := range byProduct {
		if product, err := s.repo.GetProductByID(ctx, entry.ProductID); err == nil {
			entry.Name = product.Name
		}
		report.TopProducts = append(report.TopProducts, *entry)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		if !report.TopProducts[i].Revenue.Equal(report.TopProducts[j].Revenue) {
			return report.TopProducts[i].Revenue.GreaterThan(report.TopProducts[j].Revenue)
		}
		return report.TopProducts[i].ProductID < report.TopProducts[j].ProductID
	})
	if len(report.TopProducts) > dashboardTopProducts {
		report.TopProducts = report.TopProducts[:dashboardTopProducts]
	}

	return report, nil
}
