package event

import (
	"context"

	"github.com/AlexMobiCraft/freesport-storefront/internal/backend"
	"github.com/AlexMobiCraft/freesport-storefront/internal/domain"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/kafka"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/logger"
)

// Topics for storefront analytics events.
const (
	TopicCartEvents  = "storefront.cart.events"
	TopicOrderEvents = "storefront.order.events"
)

const source = "storefront"

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka *kafka.Producer
}

// NewProducer wraps a Kafka producer with the storefront's event types.
func NewProducer(p *kafka.Producer) *Producer {
	return &Producer{kafka: p}
}

type cartUpdatedData struct {
	CartID    string `json:"cart_id"`
	SessionID string `json:"session_id"`
	ItemCount int    `json:"item_count"`
	Subtotal  int64  `json:"subtotal"`
	Discount  int64  `json:"discount"`
	Total     int64  `json:"total_amount"`
	Currency  string `json:"currency"`
	Version   int    `json:"version"`
}

// CartUpdated publishes a cart.updated event with the cart's derived totals.
func (p *Producer) CartUpdated(ctx context.Context, cart *domain.Cart) error {
	evt, err := kafka.NewEvent("cart.updated", cart.ID, "cart", source, cartUpdatedData{
		CartID:    cart.ID,
		SessionID: cart.SessionID,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
		Discount:  cart.Discount(),
		Total:     cart.TotalAmount(),
		Currency:  cart.Currency,
		Version:   cart.Version,
	})
	if err != nil {
		return err
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}
	return p.kafka.Publish(ctx, TopicCartEvents, evt)
}

type orderPlacedData struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	SessionID   string `json:"session_id"`
	TotalAmount int64  `json:"total_amount"`
	Status      string `json:"status"`
}

// OrderPlaced publishes an order.placed event after a successful checkout.
func (p *Producer) OrderPlaced(ctx context.Context, sessionID string, conf *backend.OrderConfirmation) error {
	evt, err := kafka.NewEvent("order.placed", conf.OrderID, "order", source, orderPlacedData{
		OrderID:     conf.OrderID,
		OrderNumber: conf.OrderNumber,
		SessionID:   sessionID,
		TotalAmount: conf.TotalAmount,
		Status:      conf.Status,
	})
	if err != nil {
		return err
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}
	return p.kafka.Publish(ctx, TopicOrderEvents, evt)
}
