package events

import (
	"context"
	"errors"
)

// Publisher delivers domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }

// Fanout delivers every event to all publishers and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, topic, key string, event any) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, topic, key, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const (
	OrderCreated   = "order_created"
	OrderUpdated   = "order_updated"
	OrderCancelled = "order_cancelled"
	OrderDeleted   = "order_deleted"
	OrderPaid      = "order_paid"
	PaymentCreated = "payment_created"
	PaymentDeleted = "payment_deleted"

	CategoryCreated = "category_created"
	CategoryUpdated = "category_updated"
	CategoryDeleted = "category_deleted"
	ProductCreated  = "product_created"
	ProductUpdated  = "product_updated"
	ProductDeleted  = "product_deleted"
)

// Topics names where each event family goes.
type Topics struct {
	Orders  string
	Catalog string
}
