package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"order-import-service/internal/models"
	"order-import-service/internal/repository"
)

// fakeImportRepository is an in-memory ImportRepositoryInterface
type fakeImportRepository struct {
	mu       sync.Mutex
	shops    []*models.Shop
	products []*models.Product
	variants []*models.ProductVariant
	orders   []*models.Order
	items    []*models.OrderItem
	deleted  []uuid.UUID

	listShopsErr      error
	createProductErrs map[string]error
	createItemsErr    error
}

var _ repository.ImportRepositoryInterface = (*fakeImportRepository)(nil)

func newFakeRepository(shops ...*models.Shop) *fakeImportRepository {
	return &fakeImportRepository{shops: shops, createProductErrs: map[string]error{}}
}

func (r *fakeImportRepository) ListShops(ctx context.Context) ([]*models.Shop, error) {
	if r.listShopsErr != nil {
		return nil, r.listShopsErr
	}
	return r.shops, nil
}

func (r *fakeImportRepository) GetShopByID(ctx context.Context, shopID uuid.UUID) (*models.Shop, error) {
	for _, shop := range r.shops {
		if shop.ID == shopID {
			return shop, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeImportRepository) ListActiveProductsByShops(ctx context.Context, shopIDs []uuid.UUID) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var products []*models.Product
	for _, p := range r.products {
		if !p.IsActive || !containsID(shopIDs, p.ShopID) {
			continue
		}
		clone := *p
		clone.Variants = nil
		for _, v := range r.variants {
			if v.ProductID == p.ID {
				variant := *v
				clone.Variants = append(clone.Variants, &variant)
			}
		}
		products = append(products, &clone)
	}
	return products, nil
}

func (r *fakeImportRepository) ListOrdersByShops(ctx context.Context, shopIDs []uuid.UUID, from, to time.Time) ([]*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var orders []*models.Order
	for _, o := range r.orders {
		if !containsID(shopIDs, o.ShopID) || o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		clone := *o
		clone.Items = r.itemsOf(o.ID)
		orders = append(orders, &clone)
	}
	return orders, nil
}

func (r *fakeImportRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := r.createProductErrs[product.Name]; err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *product
	r.products = append(r.products, &clone)
	return nil
}

func (r *fakeImportRepository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *variant
	r.variants = append(r.variants, &clone)
	return nil
}

func (r *fakeImportRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *order
	clone.Items = nil
	r.orders = append(r.orders, &clone)
	return nil
}

func (r *fakeImportRepository) UpdateOrderTotal(ctx context.Context, orderID uuid.UUID, total float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == orderID {
			o.TotalAmount = total
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeImportRepository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, orderID)
	kept := r.orders[:0]
	for _, o := range r.orders {
		if o.ID != orderID {
			kept = append(kept, o)
		}
	}
	r.orders = kept
	return nil
}

func (r *fakeImportRepository) CreateOrderItems(ctx context.Context, items []*models.OrderItem) error {
	if r.createItemsErr != nil {
		return r.createItemsErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		clone := *item
		r.items = append(r.items, &clone)
	}
	return nil
}

func (r *fakeImportRepository) itemsOf(orderID uuid.UUID) []*models.OrderItem {
	var items []*models.OrderItem
	for _, item := range r.items {
		if item.OrderID == orderID {
			clone := *item
			items = append(items, &clone)
		}
	}
	return items
}

func (r *fakeImportRepository) productByName(name string) *models.Product {
	for _, p := range r.products {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// MockImportLock is a mock implementation of repository.ImportLock
type MockImportLock struct {
	mock.Mock
}

var _ repository.ImportLock = (*MockImportLock)(nil)

func (m *MockImportLock) Acquire(ctx context.Context) (func(), error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

// MockEventPublisher is a mock implementation of OrderEventPublisher
type MockEventPublisher struct {
	mock.Mock
}

var _ OrderEventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order, shop *models.Shop, productNames map[uuid.UUID]string) error {
	args := m.Called(ctx, order, shop, productNames)
	return args.Error(0)
}

var errDatabase = errors.New("database unavailable")
