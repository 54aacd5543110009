package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"order-import-service/internal/models"
)

var ErrNotFound = errors.New("not found")

// Cache TTL constants
const (
	ShopListCacheTTL = 1 * time.Minute // Shop list cache
	ShopCacheTTL     = 5 * time.Minute // Single shop cache
)

const itemsBatchSize = 100

// ImportRepositoryInterface is the persistence surface of the order import
type ImportRepositoryInterface interface {
	ListShops(ctx context.Context) ([]*models.Shop, error)
	GetShopByID(ctx context.Context, shopID uuid.UUID) (*models.Shop, error)
	ListActiveProductsByShops(ctx context.Context, shopIDs []uuid.UUID) ([]*models.Product, error)
	ListOrdersByShops(ctx context.Context, shopIDs []uuid.UUID, from, to time.Time) ([]*models.Order, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateOrderTotal(ctx context.Context, orderID uuid.UUID, total float64) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	CreateOrderItems(ctx context.Context, items []*models.OrderItem) error
}

// ImportRepository handles database operations for order imports
type ImportRepository struct {
	db    *gorm.DB
	cache *cache.CacheLayer
}

// NewImportRepository creates a new ImportRepository. Shop lookups are cached when redis is set.
func NewImportRepository(db *gorm.DB, redis *redis.Client) *ImportRepository {
	repo := &ImportRepository{db: db}

	if redis != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 1000,
			L1TTL:      15 * time.Second,
			DefaultTTL: ShopCacheTTL,
			KeyPrefix:  "order-import:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redis, cacheConfig)
	}

	return repo
}

var _ ImportRepositoryInterface = (*ImportRepository)(nil)

// --- Shop Methods ---

// ListShops retrieves all shops with their schools, oldest first
func (r *ImportRepository) ListShops(ctx context.Context) ([]*models.Shop, error) {
	if r.cache != nil {
		var shops []*models.Shop
		err := r.cache.GetOrSetJSON(ctx, "shops:list", &shops, ShopListCacheTTL, func() (any, error) {
			return r.listShops(ctx)
		})
		if err == nil {
			return shops, nil
		}
	}
	return r.listShops(ctx)
}

func (r *ImportRepository) listShops(ctx context.Context) ([]*models.Shop, error) {
	var shops []*models.Shop
	err := r.db.WithContext(ctx).
		Preload("School").
		Order("created_at ASC, id ASC").
		Find(&shops).Error
	return shops, err
}

// GetShopByID retrieves a shop with its school
func (r *ImportRepository) GetShopByID(ctx context.Context, shopID uuid.UUID) (*models.Shop, error) {
	if r.cache != nil {
		var shop models.Shop
		err := r.cache.GetOrSetJSON(ctx, fmt.Sprintf("shop:%s", shopID), &shop, ShopCacheTTL, func() (any, error) {
			return r.getShopByID(ctx, shopID)
		})
		if err == nil {
			return &shop, nil
		}
		// not-found and cache errors are resolved against the database
	}
	return r.getShopByID(ctx, shopID)
}

func (r *ImportRepository) getShopByID(ctx context.Context, shopID uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).Preload("School").Where("id = ?", shopID).First(&shop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &shop, nil
}

// --- Catalog Methods ---

// ListActiveProductsByShops retrieves the active products of the given shops with their variants
func (r *ImportRepository) ListActiveProductsByShops(ctx context.Context, shopIDs []uuid.UUID) ([]*models.Product, error) {
	if len(shopIDs) == 0 {
		return []*models.Product{}, nil
	}

	var products []*models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("shop_id IN ? AND is_active = ?", shopIDs, true).
		Order("created_at ASC").
		Find(&products).Error
	return products, err
}

// CreateProduct creates a new product
func (r *ImportRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(product).Error
}

// CreateVariant creates a new product variant
func (r *ImportRepository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(variant).Error
}

// --- Order Methods ---

// ListOrdersByShops retrieves orders (with items) of the given shops created in [from, to)
func (r *ImportRepository) ListOrdersByShops(ctx context.Context, shopIDs []uuid.UUID, from, to time.Time) ([]*models.Order, error) {
	if len(shopIDs) == 0 {
		return []*models.Order{}, nil
	}

	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("shop_id IN ? AND created_at >= ? AND created_at < ?", shopIDs, from, to).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

// CreateOrder creates a new order. Items are written separately with CreateOrderItems.
func (r *ImportRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("Items").Create(order).Error
}

// UpdateOrderTotal overwrites the total of an existing order
func (r *ImportRepository) UpdateOrderTotal(ctx context.Context, orderID uuid.UUID, total float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"total_amount": total,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOrder removes an order and its items
func (r *ImportRepository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", orderID).Delete(&models.Order{}).Error
}

// CreateOrderItems inserts items in batches
func (r *ImportRepository) CreateOrderItems(ctx context.Context, items []*models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).CreateInBatches(items, itemsBatchSize).Error
}

// Ping checks database connectivity
func (r *ImportRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
