package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"order-import-service/internal/models"
)

const (
	defaultCurrency = "EUR"
	importSource    = "order-import"
)

// Publisher wraps the go-shared events publisher for imported orders
type Publisher struct {
	publisher *events.Publisher
	tenantID  string
	logger    *logrus.Entry
}

// NewPublisher connects to NATS and makes sure the orders stream exists
func NewPublisher(natsURL, tenantID string, logger *logrus.Logger) (*Publisher, error) {
	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "order-import-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamOrders, []string{"order.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure orders stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		tenantID:  tenantID,
		logger:    logger.WithField("component", "order-import-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishOrderCreated publishes an order.created event for a newly imported order.
// productNames maps product ids to display names for the event's line items.
func (p *Publisher) PublishOrderCreated(ctx context.Context, order *models.Order, shop *models.Shop, productNames map[uuid.UUID]string) error {
	event := p.buildOrderEvent(events.OrderCreated, order, productNames)
	event.Metadata = map[string]interface{}{
		"source":    importSource,
		"shopId":    shop.ID.String(),
		"shopSlug":  shop.Slug,
		"className": order.ClassName,
	}
	return p.publish(ctx, event)
}

// buildOrderEvent creates an OrderEvent from an order model
func (p *Publisher) buildOrderEvent(eventType string, order *models.Order, productNames map[uuid.UUID]string) *events.OrderEvent {
	event := events.NewOrderEvent(eventType, p.tenantID)
	event.SourceID = uuid.New().String()
	event.OrderID = order.ID.String()
	if order.OrderNumber != nil {
		event.OrderNumber = *order.OrderNumber
	}
	event.OrderDate = order.CreatedAt.Format(time.RFC3339)
	event.Status = string(order.Status)
	event.TotalAmount = order.TotalAmount
	event.Currency = defaultCurrency
	event.CustomerEmail = order.CustomerEmail
	event.CustomerName = order.CustomerName

	var subtotal float64
	event.Items = make([]events.OrderItem, len(order.Items))
	for i, item := range order.Items {
		event.Items[i] = events.OrderItem{
			ProductID:  item.ProductID.String(),
			Name:       productNames[item.ProductID],
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.LineTotal,
		}
		subtotal += item.LineTotal
	}
	event.Subtotal = subtotal
	event.ItemCount = len(order.Items)

	return event
}

// publish is a helper that logs and publishes events asynchronously
func (p *Publisher) publish(ctx context.Context, event *events.OrderEvent) error {
	// Publish asynchronously to not block the import
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishOrder(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"orderID":   event.OrderID,
				"tenantID":  event.TenantID,
			}).WithError(err).Error("Failed to publish order event")
		} else {
			p.logger.WithFields(logrus.Fields{
				"eventType":   event.EventType,
				"orderID":     event.OrderID,
				"orderNumber": event.OrderNumber,
			}).Debug("Order event published")
		}
	}()

	return nil
}
