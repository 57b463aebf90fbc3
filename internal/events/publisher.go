// Package events publishes order lifecycle events to RabbitMQ. Publishing
// is best-effort: the order workflow never fails because a broker is down.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mealbox/orderd/internal/models"
)

const (
	EventsExchange           = "mealbox.events"
	OrderCreatedRoutingKey   = "order.created.v1"
	OrderCancelledRoutingKey = "order.cancelled.v1"
)

// OrderCreated is emitted after a successful admission.
type OrderCreated struct {
	EventType  string      `json:"eventType"`
	OrderID    string      `json:"orderId"`
	UserID     string      `json:"userId"`
	TotalPrice int64       `json:"totalPrice"`
	Items      []OrderItem `json:"items"`
	Timestamp  time.Time   `json:"timestamp"`
}

// OrderCancelled is emitted after a cancellation restored stock.
type OrderCancelled struct {
	EventType string    `json:"eventType"`
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderItem mirrors a persisted order line in event payloads.
type OrderItem struct {
	MenuID    string `json:"menuId"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher opens a channel and declares the events exchange so publish
// never fails due to missing infra.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", EventsExchange, err)
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *models.Order, lines []models.OrderLine) error {
	ev := OrderCreated{
		EventType:  "OrderCreated",
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		Timestamp:  time.Now().UTC(),
	}
	for _, l := range lines {
		ev.Items = append(ev.Items, OrderItem{
			MenuID:    l.MenuID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}

	return p.publishJSON(ctx, OrderCreatedRoutingKey, body)
}

func (p *Publisher) PublishOrderCancelled(ctx context.Context, orderID, userID string) error {
	ev := OrderCancelled{
		EventType: "OrderCancelled",
		OrderID:   orderID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCancelled: %w", err)
	}

	return p.publishJSON(ctx, OrderCancelledRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
