// Package service holds the business rules of the shop. Every mutating
// operation runs in one database transaction and publishes its event only
// after the commit.
package service

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/events"
	"github.com/Skotchmaster/sale/pkg/logging"
)

const (
	APIAuth     = "/auth"
	APICategory = "/api/category"
	APIProducts = "/api/products"
	APIOrders   = "/api/orders"
	APIPayments = "/api/payments"
	APIUsers    = "/api/users"
)

const msgForbidden = "You do not have permission to do this"

// Notifier publishes domain events and never fails the caller.
type Notifier struct {
	Publisher events.Publisher
	Topics    events.Topics
}

func (n Notifier) publish(ctx context.Context, l *slog.Logger, topic, key string, event any) {
	if n.Publisher == nil || topic == "" {
		return
	}
	if err := n.Publisher.Publish(ctx, topic, key, event); err != nil {
		l.Warn("publish_event_failed", "topic", topic, "key", key, "error", err)
	}
}

func (n Notifier) order(ctx context.Context, l *slog.Logger, ev OrderEvent) {
	n.publish(ctx, l, n.Topics.Orders, ev.key(), ev)
}

func (n Notifier) catalog(ctx context.Context, l *slog.Logger, ev CatalogEvent) {
	n.publish(ctx, l, n.Topics.Catalog, ev.key(), ev)
}

// notFound maps a missing row to a domain not-found error and passes other failures through.
func notFound(err error, api, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(api, format, args...)
	}
	return err
}

// conflictOnDuplicate turns a unique index violation into a conflict.
func conflictOnDuplicate(err error, api, format string, args ...any) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(api, format, args...)
	}
	return err
}

func logger(ctx context.Context, svc string) *slog.Logger {
	return logging.FromContext(ctx).With("svc", svc)
}

// logFailure reports a failed operation at a level matching its status.
func logFailure(l *slog.Logger, event string, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		l.Warn(event, "status", ae.Status(), "reason", ae.Message)
		return
	}
	l.Error(event, "status", 500, "error", err)
}
