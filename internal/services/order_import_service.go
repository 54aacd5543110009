package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"order-import-service/internal/importer"
	"order-import-service/internal/models"
	"order-import-service/internal/repository"
)

var (
	ErrNoShops          = errors.New("no shops are configured")
	ErrShopNotFound     = errors.New("shop not found")
	ErrImportInProgress = errors.New("another order import is in progress")
	ErrInvalidFile      = errors.New("invalid import file")
)

const defaultMaxReportedErrors = 50

// ImportRequest is one uploaded export
type ImportRequest struct {
	Data        []byte
	Filename    string
	ContentType string
	// ShopID assigns every order to this shop instead of resolving it from tags
	ShopID       *uuid.UUID
	ValidateOnly bool
}

// OrderEventPublisher publishes events for newly imported orders
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order, shop *models.Shop, productNames map[uuid.UUID]string) error
}

// OrderImportService reconciles order exports with the catalog and persisted orders
type OrderImportService struct {
	repo              repository.ImportRepositoryInterface
	lock              repository.ImportLock
	publisher         OrderEventPublisher
	maxReportedErrors int
	now               func() time.Time
	logger            *logrus.Entry
}

// NewOrderImportService creates the import service. publisher may be nil.
func NewOrderImportService(repo repository.ImportRepositoryInterface, lock repository.ImportLock, publisher OrderEventPublisher, maxReportedErrors int, logger *logrus.Logger) *OrderImportService {
	if lock == nil {
		lock = repository.NoopImportLock{}
	}
	if maxReportedErrors <= 0 {
		maxReportedErrors = defaultMaxReportedErrors
	}
	return &OrderImportService{
		repo:              repo,
		lock:              lock,
		publisher:         publisher,
		maxReportedErrors: maxReportedErrors,
		now:               time.Now,
		logger:            logger.WithField("component", "order-import"),
	}
}

// importRun carries the lookup state of a single import
type importRun struct {
	startedAt time.Time
	catalog   *importer.Catalog
	existing  map[string][]*models.Order
	result    *models.OrderImportResult
}

// Import parses, groups and persists an export. Failures of single orders are reported in
// the result; an error is returned only when nothing could be imported at all.
func (s *OrderImportService) Import(ctx context.Context, req ImportRequest) (*models.OrderImportResult, error) {
	startedAt := s.now()

	rows, format, err := importer.ParseFile(req.Data, req.Filename, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	shops, err := s.loadShops(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}

	grouped := importer.GroupOrders(rows)
	result := &models.OrderImportResult{
		Success:   true,
		DryRun:    req.ValidateOnly,
		TotalRows: len(rows),
		Skipped:   grouped.SkippedRows,
		Orders:    make([]models.ImportedOrder, 0, len(grouped.Orders)),
		ShopStats: make(map[string]int),
	}
	for _, w := range grouped.Warnings {
		s.addWarning(result, w)
	}

	resolved := s.resolveShops(grouped.Orders, shops, req.ShopID != nil, result)

	log := s.logger.WithFields(logrus.Fields{
		"filename": req.Filename,
		"format":   format,
		"rows":     len(rows),
		"orders":   len(grouped.Orders),
		"dryRun":   req.ValidateOnly,
	})

	if req.ValidateOnly {
		for _, order := range resolved {
			s.previewOrder(order, result)
		}
		result.ProcessingMs = time.Since(startedAt).Milliseconds()
		log.Info("Order import validated")
		return result, nil
	}

	release, err := s.lock.Acquire(ctx)
	if errors.Is(err, repository.ErrLockHeld) {
		return nil, ErrImportInProgress
	}
	if err != nil {
		// lock backend unavailable, run unlocked
		log.WithError(err).Warn("Failed to acquire import lock, continuing without it")
	} else {
		defer release()
	}

	if len(resolved) > 0 {
		run, err := s.prepareRun(ctx, resolved, startedAt, result)
		if err != nil {
			return nil, err
		}
		for _, order := range resolved {
			s.processOrder(ctx, run, order)
		}
	}

	result.ProcessingMs = time.Since(startedAt).Milliseconds()
	log.WithFields(logrus.Fields{
		"imported":       result.Imported,
		"extended":       result.Extended,
		"skipped":        result.Skipped,
		"duplicateItems": result.DuplicateItems,
		"errors":         result.ErrorCount,
		"processingMs":   result.ProcessingMs,
	}).Info("Order import completed")

	return result, nil
}

func (s *OrderImportService) loadShops(ctx context.Context, shopID *uuid.UUID) ([]*models.Shop, error) {
	if shopID != nil {
		shop, err := s.repo.GetShopByID(ctx, *shopID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShopNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load shop: %w", err)
		}
		return []*models.Shop{shop}, nil
	}

	shops, err := s.repo.ListShops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load shops: %w", err)
	}
	if len(shops) == 0 {
		return nil, ErrNoShops
	}
	return shops, nil
}

// resolveShops assigns a shop to every order and reports the ones that stay unresolved
func (s *OrderImportService) resolveShops(orders []*importer.ParsedOrder, shops []*models.Shop, knownShop bool, result *models.OrderImportResult) []*importer.ParsedOrder {
	resolved := make([]*importer.ParsedOrder, 0, len(orders))
	var matcher *importer.ShopMatcher
	if !knownShop {
		matcher = importer.NewShopMatcher(shops)
	}

	for _, order := range orders {
		if knownShop {
			order.Shop, order.MatchedBy = shops[0], importer.MatchKnownShop
		} else {
			order.Shop, order.MatchedBy = matcher.Resolve(order.Tags)
		}

		if order.Shop == nil {
			result.Skipped++
			s.addError(result, order.Key, models.ImportErrShopUnresolved,
				fmt.Sprintf("no shop matches the product tags %q", order.Tags))
			result.Orders = append(result.Orders, summarize(order, models.ImportOutcomeUnresolved))
			continue
		}
		resolved = append(resolved, order)
	}
	return resolved
}

func (s *OrderImportService) previewOrder(order *importer.ParsedOrder, result *models.OrderImportResult) {
	if len(order.Items) == 0 {
		s.addError(result, order.Key, models.ImportErrNoValidItems, "order has no item with a product name and a positive quantity")
		result.Orders = append(result.Orders, summarize(order, models.ImportOutcomeFailed))
		return
	}
	summary := summarize(order, models.ImportOutcomePreview)
	summary.ItemsCreated = len(order.Items)
	result.Orders = append(result.Orders, summary)
}

// prepareRun bulk-loads the catalogs and the existing orders of every involved shop
func (s *OrderImportService) prepareRun(ctx context.Context, orders []*importer.ParsedOrder, startedAt time.Time, result *models.OrderImportResult) (*importRun, error) {
	shopIDs := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	from, to := dayOf(createdAt(orders[0], startedAt)), time.Time{}
	for _, order := range orders {
		if !seen[order.Shop.ID] {
			seen[order.Shop.ID] = true
			shopIDs = append(shopIDs, order.Shop.ID)
		}
		day := dayOf(createdAt(order, startedAt))
		if day.Before(from) {
			from = day
		}
		if day.After(to) {
			to = day
		}
	}
	to = to.AddDate(0, 0, 1)

	products, err := s.repo.ListActiveProductsByShops(ctx, shopIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	existingOrders, err := s.repo.ListOrdersByShops(ctx, shopIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing orders: %w", err)
	}

	run := &importRun{
		startedAt: startedAt,
		catalog:   importer.NewCatalog(products),
		existing:  make(map[string][]*models.Order, len(existingOrders)),
		result:    result,
	}
	for _, order := range existingOrders {
		key := dedupKey(order.ShopID, order.CustomerName, order.CustomerEmail, order.CreatedAt)
		run.existing[key] = append(run.existing[key], order)
	}
	return run, nil
}

// processOrder resolves and persists one order. Every failure is recorded on the result.
func (s *OrderImportService) processOrder(ctx context.Context, run *importRun, parsed *importer.ParsedOrder) {
	result := run.result
	shop := parsed.Shop
	log := s.logger.WithFields(logrus.Fields{
		"orderKey": parsed.Key,
		"shopID":   shop.ID,
	})

	if len(parsed.Items) == 0 {
		s.fail(result, parsed, models.ImportErrNoValidItems, "order has no item with a product name and a positive quantity")
		return
	}

	orderDate := createdAt(parsed, run.startedAt)
	key := dedupKey(shop.ID, parsed.CustomerName, parsed.CustomerEmail, orderDate)
	existing := findExisting(run.existing[key], parsed.OrderNumber)
	existingPairs := itemPairs(existing)

	var newItems []*models.OrderItem
	subtotal := decimal.Zero
	duplicates := 0
	productNames := make(map[uuid.UUID]string)

	for _, item := range parsed.Items {
		product, variant, err := s.resolveItem(ctx, run, shop, item)
		if err != nil {
			log.WithError(err).WithField("product", item.ProductName).Warn("Failed to resolve order item")
			s.addWarning(result, models.ImportRowError{
				Row:     item.Line,
				Code:    models.ImportErrItemUnresolved,
				Message: fmt.Sprintf("could not resolve %q: %v", item.ProductName, err),
			})
			continue
		}

		var variantID *uuid.UUID
		if variant != nil {
			id := variant.ID
			variantID = &id
		}
		if existingPairs[pairKey(product.ID, variantID)] {
			duplicates++
			continue
		}

		lineTotal := item.LineTotal()
		newItems = append(newItems, &models.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			VariantID: variantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Round(2).InexactFloat64(),
			LineTotal: lineTotal.InexactFloat64(),
		})
		subtotal = subtotal.Add(lineTotal)
		productNames[product.ID] = product.Name
	}
	result.DuplicateItems += duplicates

	if existing != nil {
		s.extendOrder(ctx, run, parsed, existing, newItems, duplicates, log)
		return
	}

	if len(newItems) == 0 {
		s.fail(result, parsed, models.ImportErrNoValidItems,
			fmt.Sprintf("none of the %d items could be resolved", len(parsed.Items)))
		return
	}

	total := subtotal
	if parsed.TotalFromFile != nil {
		total = parsed.TotalFromFile.Round(2)
	}
	order := &models.Order{
		ID:            uuid.New(),
		ShopID:        shop.ID,
		CustomerName:  parsed.CustomerName,
		CustomerEmail: parsed.CustomerEmail,
		ClassName:     parsed.ClassName,
		Status:        models.OrderStatusPending,
		TotalAmount:   total.InexactFloat64(),
		CreatedAt:     orderDate,
		UpdatedAt:     run.startedAt,
	}
	if parsed.OrderNumber != "" {
		number := parsed.OrderNumber
		order.OrderNumber = &number
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		log.WithError(err).Error("Failed to create order")
		s.fail(result, parsed, models.ImportErrOrderCreate, err.Error())
		return
	}
	for _, item := range newItems {
		item.OrderID = order.ID
	}
	if err := s.repo.CreateOrderItems(ctx, newItems); err != nil {
		log.WithError(err).Error("Failed to create order items, rolling back order")
		if delErr := s.repo.DeleteOrder(ctx, order.ID); delErr != nil {
			log.WithError(delErr).Error("Failed to roll back order")
		}
		s.fail(result, parsed, models.ImportErrItemsCreate, err.Error())
		return
	}

	order.Items = newItems
	run.existing[key] = append(run.existing[key], order)
	result.Imported++
	result.ShopStats[shop.Name]++

	summary := summarize(parsed, models.ImportOutcomeCreated)
	summary.OrderID = &order.ID
	summary.ItemsCreated = len(newItems)
	summary.DuplicateItems = duplicates
	summary.TotalAmount = order.TotalAmount
	result.Orders = append(result.Orders, summary)

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, order, shop, productNames); err != nil {
			log.WithError(err).Warn("Failed to publish order created event")
		}
	}
}

// extendOrder appends new items to an order imported earlier and applies the file total
func (s *OrderImportService) extendOrder(ctx context.Context, run *importRun, parsed *importer.ParsedOrder, existing *models.Order, newItems []*models.OrderItem, duplicates int, log *logrus.Entry) {
	result := run.result

	if len(newItems) == 0 && duplicates == 0 {
		s.fail(result, parsed, models.ImportErrNoValidItems,
			fmt.Sprintf("none of the %d items could be resolved", len(parsed.Items)))
		return
	}

	if len(newItems) > 0 {
		for _, item := range newItems {
			item.OrderID = existing.ID
		}
		if err := s.repo.CreateOrderItems(ctx, newItems); err != nil {
			log.WithError(err).Error("Failed to add items to existing order")
			s.fail(result, parsed, models.ImportErrItemsCreate, err.Error())
			return
		}
		existing.Items = append(existing.Items, newItems...)
	}

	if parsed.TotalFromFile != nil {
		total := parsed.TotalFromFile.Round(2).InexactFloat64()
		if total != existing.TotalAmount {
			if err := s.repo.UpdateOrderTotal(ctx, existing.ID, total); err != nil {
				log.WithError(err).Error("Failed to update order total")
				s.fail(result, parsed, models.ImportErrOrderUpdate, err.Error())
				return
			}
			existing.TotalAmount = total
		}
	}

	result.Extended++
	summary := summarize(parsed, models.ImportOutcomeExtended)
	summary.OrderID = &existing.ID
	summary.ItemsCreated = len(newItems)
	summary.DuplicateItems = duplicates
	summary.TotalAmount = existing.TotalAmount
	result.Orders = append(result.Orders, summary)
}

// resolveItem finds or creates the product and variant of an item in the order's shop
func (s *OrderImportService) resolveItem(ctx context.Context, run *importRun, shop *models.Shop, item *importer.ParsedItem) (*models.Product, *models.ProductVariant, error) {
	product := run.catalog.FindProduct(shop.ID, item.ProductName)
	if product == nil {
		product = &models.Product{
			ID:        uuid.New(),
			ShopID:    shop.ID,
			Name:      item.ProductName,
			BasePrice: item.UnitPrice.Round(2).InexactFloat64(),
			IsActive:  true,
		}
		if err := s.repo.CreateProduct(ctx, product); err != nil {
			return nil, nil, fmt.Errorf("failed to create product: %w", err)
		}
		run.catalog.AddProduct(product)
		run.result.ProductsCreated++
		s.logger.WithFields(logrus.Fields{
			"shopID":    shop.ID,
			"productID": product.ID,
			"name":      product.Name,
		}).Info("Created product from import")
	}

	spec := item.Variant
	if spec.IsEmpty() {
		return product, nil, nil
	}

	size, color := spec.Size, spec.Color
	if size == "" && color == "" {
		size = spec.Raw
	}
	variant := run.catalog.FindVariant(product.ID, size, color)
	if variant == nil {
		variant = &models.ProductVariant{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      size,
		}
		if color != "" {
			c := color
			variant.ColorName = &c
		}
		if err := s.repo.CreateVariant(ctx, variant); err != nil {
			return nil, nil, fmt.Errorf("failed to create variant %q: %w", spec.DisplayName(), err)
		}
		run.catalog.AddVariant(variant)
		run.result.VariantsCreated++
	}
	return product, variant, nil
}

func (s *OrderImportService) fail(result *models.OrderImportResult, order *importer.ParsedOrder, code, message string) {
	s.addError(result, order.Key, code, message)
	result.Orders = append(result.Orders, summarize(order, models.ImportOutcomeFailed))
}

func (s *OrderImportService) addError(result *models.OrderImportResult, orderKey, code, message string) {
	result.ErrorCount++
	if len(result.Errors) < s.maxReportedErrors {
		result.Errors = append(result.Errors, models.ImportOrderError{
			OrderKey: orderKey,
			Code:     code,
			Message:  message,
		})
	}
}

func (s *OrderImportService) addWarning(result *models.OrderImportResult, warning models.ImportRowError) {
	result.WarningCount++
	if len(result.Warnings) < s.maxReportedErrors {
		result.Warnings = append(result.Warnings, warning)
	}
}

func summarize(order *importer.ParsedOrder, outcome models.ImportOutcome) models.ImportedOrder {
	summary := models.ImportedOrder{
		OrderKey:      order.Key,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		ClassName:     order.ClassName,
		Outcome:       outcome,
		MatchedBy:     string(order.MatchedBy),
		TotalAmount:   order.Total().InexactFloat64(),
	}
	if order.Shop != nil {
		summary.ShopName = order.Shop.Name
	}
	return summary
}

// createdAt is the order date from the file, else the import time
func createdAt(order *importer.ParsedOrder, startedAt time.Time) time.Time {
	if order.OrderDate != nil {
		return order.OrderDate.UTC()
	}
	return startedAt.UTC()
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dedupKey identifies an order across imports: shop, customer and calendar day
func dedupKey(shopID uuid.UUID, customerName, customerEmail string, created time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		shopID,
		importer.Normalize(customerName),
		importer.Normalize(customerEmail),
		created.UTC().Format("2006-01-02"))
}

// findExisting picks the order a parsed order extends among those sharing its dedup key.
// Orders whose numbers are both known and differ never match.
func findExisting(candidates []*models.Order, orderNumber string) *models.Order {
	if orderNumber == "" {
		if len(candidates) == 0 {
			return nil
		}
		return candidates[0]
	}
	var unnumbered *models.Order
	for _, order := range candidates {
		if order.OrderNumber == nil || *order.OrderNumber == "" {
			if unnumbered == nil {
				unnumbered = order
			}
			continue
		}
		if *order.OrderNumber == orderNumber {
			return order
		}
	}
	return unnumbered
}

func pairKey(productID uuid.UUID, variantID *uuid.UUID) string {
	if variantID == nil {
		return productID.String()
	}
	return productID.String() + ":" + variantID.String()
}

func itemPairs(order *models.Order) map[string]bool {
	pairs := make(map[string]bool)
	if order == nil {
		return pairs
	}
	for _, item := range order.Items {
		pairs[pairKey(item.ProductID, item.VariantID)] = true
	}
	return pairs
}
