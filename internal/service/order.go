package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/events"
	"github.com/Skotchmaster/sale/internal/identity"
	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/repo"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/internal/util"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Notify Notifier
}

func (s *OrderService) Create(ctx context.Context, id identity.Identity, req transport.OrderRequest) (*transport.OrderDto, error) {
	l := logger(ctx, "order.create").With("user_id", id.UserID)

	var (
		order models.Order
		items []models.OrderItem
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var (
			total decimal.Decimal
			err   error
		)
		items, total, err = reserve(ctx, tx, req)
		if err != nil {
			return err
		}

		order = models.Order{
			UserID:      id.UserID,
			Status:      models.OrderStatusNew,
			TotalAmount: total,
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		return tx.CreateOrderItems(ctx, items)
	})
	if err != nil {
		logFailure(l, "create_order_error", err)
		return nil, err
	}

	l.Info("create_order_success", "order_id", order.ID, "total", order.TotalAmount.String())
	s.Notify.order(ctx, l, orderEvent(events.OrderCreated, &order))
	dto := transport.OrderFromModel(order, items)
	return &dto, nil
}

// reserve validates the request, takes the stock and prices the items.
// Items come back in request order without an order id.
func reserve(ctx context.Context, tx *repo.GormRepo, req transport.OrderRequest) ([]models.OrderItem, decimal.Decimal, error) {
	if len(req.ProductIDs) != len(req.Quantities) {
		return nil, decimal.Zero, apperr.Validation(APIOrders, "Product ids and quantities must have the same size")
	}
	if len(req.ProductIDs) == 0 {
		return nil, decimal.Zero, apperr.Validation(APIOrders, "Order must contain at least one product")
	}
	seen := make(map[uint]struct{}, len(req.ProductIDs))
	for _, pid := range req.ProductIDs {
		if _, dup := seen[pid]; dup {
			return nil, decimal.Zero, apperr.Validation(APIOrders, "Product id=%d is listed more than once", pid)
		}
		seen[pid] = struct{}{}
	}

	products, err := tx.ProductsByIDs(ctx, req.ProductIDs, true)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if len(products) != len(req.ProductIDs) {
		return nil, decimal.Zero, apperr.NotFound(APIOrders, "One or more products not found")
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.ProductIDs))
	for i, pid := range req.ProductIDs {
		qty := req.Quantities[i]
		if err := validateQuantity(APIOrders, qty); err != nil {
			return nil, decimal.Zero, err
		}

		p := byID[pid]
		ok, err := tx.DecrementStock(ctx, pid, qty)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !ok {
			return nil, decimal.Zero, apperr.Validation(APIOrders, "Not enough stock for product: %s", p.Name)
		}

		line := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		items = append(items, models.OrderItem{
			ProductID:  pid,
			Quantity:   qty,
			UnitPrice:  p.Price,
			TotalPrice: line,
		})
		total = total.Add(line)
	}
	return items, total, nil
}

func restock(ctx context.Context, tx *repo.GormRepo, items []models.OrderItem) error {
	for _, it := range items {
		if err := tx.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// loadOwned fetches and locks an order the caller may act on.
// Only the owner passes unless allowAdmin is set.
func loadOwned(ctx context.Context, tx *repo.GormRepo, id identity.Identity, orderID uint, allowAdmin bool) (*models.Order, error) {
	o, err := tx.GetOrder(ctx, orderID, true)
	if err != nil {
		return nil, notFound(err, APIOrders, "Order with id=%d not found", orderID)
	}
	allowed := id.Owns(o.UserID) || (allowAdmin && id.IsAdmin())
	if !allowed {
		return nil, apperr.Forbidden(APIOrders, msgForbidden)
	}
	return o, nil
}

// Update replaces the items of a NEW order. A pending payment follows the new total.
func (s *OrderService) Update(ctx context.Context, id identity.Identity, orderID uint, req transport.OrderRequest) (*transport.OrderDto, error) {
	l := logger(ctx, "order.update").With("user_id", id.UserID, "order_id", orderID)

	var (
		order *models.Order
		items []models.OrderItem
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = loadOwned(ctx, tx, id, orderID, false)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusNew {
			return apperr.Conflict(APIOrders, "Order with id=%d is %s and cannot be updated", orderID, order.Status)
		}

		old, err := tx.OrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		if err := restock(ctx, tx, old); err != nil {
			return err
		}
		if err := tx.DeleteOrderItems(ctx, orderID); err != nil {
			return err
		}

		var total decimal.Decimal
		items, total, err = reserve(ctx, tx, req)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = orderID
		}
		if err := tx.CreateOrderItems(ctx, items); err != nil {
			return err
		}

		order.TotalAmount = total
		order.Status = models.OrderStatusNew
		if err := tx.SaveOrder(ctx, order); err != nil {
			return err
		}

		pay, err := tx.PaymentByOrder(ctx, orderID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil
		case err != nil:
			return err
		}
		if pay.PaymentStatus == models.PaymentStatusPending && !pay.Amount.Equal(total) {
			pay.Amount = total
			return tx.SavePayment(ctx, pay)
		}
		return nil
	})
	if err != nil {
		logFailure(l, "update_order_error", err)
		return nil, err
	}

	l.Info("update_order_success", "total", order.TotalAmount.String())
	s.Notify.order(ctx, l, orderEvent(events.OrderUpdated, order))
	dto := transport.OrderFromModel(*order, items)
	return &dto, nil
}

func (s *OrderService) Cancel(ctx context.Context, id identity.Identity, orderID uint) error {
	l := logger(ctx, "order.cancel").With("user_id", id.UserID, "order_id", orderID)

	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = loadOwned(ctx, tx, id, orderID, true)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusNew {
			return apperr.Conflict(APIOrders, "Order with id=%d is %s and cannot be cancelled", orderID, order.Status)
		}

		items, err := tx.OrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		if err := restock(ctx, tx, items); err != nil {
			return err
		}

		// A cancelled order keeps no payment.
		pay, err := tx.PaymentByOrder(ctx, orderID)
		switch {
		case err == nil:
			if err := tx.DeletePayment(ctx, pay.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		now := time.Now().UTC()
		order.Status = models.OrderStatusCancelled
		order.CancelledAt = &now
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		logFailure(l, "cancel_order_error", err)
		return err
	}

	l.Info("cancel_order_success")
	s.Notify.order(ctx, l, orderEvent(events.OrderCancelled, order))
	return nil
}

func (s *OrderService) Delete(ctx context.Context, id identity.Identity, orderID uint) error {
	l := logger(ctx, "order.delete").With("user_id", id.UserID, "order_id", orderID)

	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = loadOwned(ctx, tx, id, orderID, true)
		if err != nil {
			return err
		}

		pay, err := tx.PaymentByOrder(ctx, orderID)
		switch {
		case err == nil:
			if err := tx.DeletePayment(ctx, pay.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if order.Status == models.OrderStatusNew {
			items, err := tx.OrderItems(ctx, orderID)
			if err != nil {
				return err
			}
			if err := restock(ctx, tx, items); err != nil {
				return err
			}
		}
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		logFailure(l, "delete_order_error", err)
		return err
	}

	l.Info("delete_order_success")
	s.Notify.order(ctx, l, orderEvent(events.OrderDeleted, order))
	return nil
}

func (s *OrderService) Get(ctx context.Context, id identity.Identity, orderID uint) (*transport.OrderDto, error) {
	o, err := s.Repo.GetOrder(ctx, orderID, false)
	if err != nil {
		return nil, notFound(err, APIOrders, "Order with id=%d not found", orderID)
	}
	if !id.CanAccess(o.UserID) {
		return nil, apperr.Forbidden(APIOrders, msgForbidden)
	}

	items, err := s.Repo.OrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dto := transport.OrderFromModel(*o, items)
	return &dto, nil
}

// List shows admins every order and everyone else their own, newest first.
func (s *OrderService) List(ctx context.Context, id identity.Identity, page, size int) (util.Page[transport.OrderDto], error) {
	offset, limit := util.Calculate(page, size)

	var owner *uint
	if !id.IsAdmin() {
		owner = &id.UserID
	}
	total, orders, err := s.Repo.ListOrders(ctx, owner, offset, limit)
	if err != nil {
		return util.Page[transport.OrderDto]{}, err
	}

	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := s.Repo.ItemsForOrders(ctx, ids)
	if err != nil {
		return util.Page[transport.OrderDto]{}, err
	}

	out := make([]transport.OrderDto, 0, len(orders))
	for _, o := range orders {
		out = append(out, transport.OrderFromModel(o, items[o.ID]))
	}
	return util.NewPage(out, total, offset, limit), nil
}
