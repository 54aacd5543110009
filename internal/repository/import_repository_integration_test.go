//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"order-import-service/internal/models"
)

// Run with: TEST_DATABASE_DSN="host=localhost user=postgres dbname=order_import_test sslmode=disable" go test -tags integration ./internal/repository/
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.School{},
		&models.Shop{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Order{},
		&models.OrderItem{},
	))

	t.Cleanup(func() {
		db.Exec("TRUNCATE order_items, orders, product_variants, products, shops, schools CASCADE")
	})
	return db
}

func seedShop(t *testing.T, db *gorm.DB, slug string) *models.Shop {
	t.Helper()
	code := "GWS"
	school := &models.School{ID: uuid.New(), Name: "Gymnasium Weinstadt", ShortCode: &code}
	require.NoError(t, db.Create(school).Error)
	shop := &models.Shop{ID: uuid.New(), SchoolID: school.ID, Slug: slug, Name: "Weinstadt 2024"}
	require.NoError(t, db.Create(shop).Error)
	return shop
}

func TestImportRepository_ShopsAndCatalog(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportRepository(db, nil)
	ctx := context.Background()
	shop := seedShop(t, db, "shop-weinstadt-2024")

	shops, err := repo.ListShops(ctx)
	require.NoError(t, err)
	require.Len(t, shops, 1)
	require.NotNil(t, shops[0].School)
	assert.Equal(t, "GWS", *shops[0].School.ShortCode)

	_, err = repo.GetShopByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	product := &models.Product{ShopID: shop.ID, Name: "Hoodie", BasePrice: 24.9, IsActive: true}
	require.NoError(t, repo.CreateProduct(ctx, product))
	color := "Schwarz"
	require.NoError(t, repo.CreateVariant(ctx, &models.ProductVariant{ProductID: product.ID, Name: "M", ColorName: &color}))
	require.NoError(t, db.Create(&models.Product{ID: uuid.New(), ShopID: shop.ID, Name: "Retired"}).Error)
	require.NoError(t, db.Model(&models.Product{}).Where("name = ?", "Retired").Update("is_active", false).Error)

	products, err := repo.ListActiveProductsByShops(ctx, []uuid.UUID{shop.ID})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Hoodie", products[0].Name)
	require.Len(t, products[0].Variants, 1)
	assert.Equal(t, "M", products[0].Variants[0].Name)
}

func TestImportRepository_OrderLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportRepository(db, nil)
	ctx := context.Background()
	shop := seedShop(t, db, "shop-weinstadt-2024")

	product := &models.Product{ShopID: shop.ID, Name: "Shirt", BasePrice: 10, IsActive: true}
	require.NoError(t, repo.CreateProduct(ctx, product))

	created := time.Date(2024, time.September, 2, 10, 0, 0, 0, time.UTC)
	order := &models.Order{ShopID: shop.ID, CustomerName: "Anna", Status: models.OrderStatusPending, TotalAmount: 20, CreatedAt: created}
	require.NoError(t, repo.CreateOrder(ctx, order))
	require.NoError(t, repo.CreateOrderItems(ctx, []*models.OrderItem{
		{OrderID: order.ID, ProductID: product.ID, Quantity: 2, UnitPrice: 10, LineTotal: 20},
	}))

	orders, err := repo.ListOrdersByShops(ctx, []uuid.UUID{shop.ID}, created.Truncate(24*time.Hour), created.Truncate(24*time.Hour).AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)

	outside, err := repo.ListOrdersByShops(ctx, []uuid.UUID{shop.ID}, created.AddDate(0, 0, 1), created.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Empty(t, outside)

	require.NoError(t, repo.UpdateOrderTotal(ctx, order.ID, 27.5))
	assert.ErrorIs(t, repo.UpdateOrderTotal(ctx, uuid.New(), 1), ErrNotFound)

	require.NoError(t, repo.DeleteOrder(ctx, order.ID))
	var remaining int64
	db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&remaining)
	assert.Zero(t, remaining)

	require.NoError(t, repo.Ping(ctx))
}
