package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/events"
	"github.com/Skotchmaster/sale/internal/identity"
	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/repo"
	"github.com/Skotchmaster/sale/internal/transport"
)

type PaymentService struct {
	Repo   *repo.GormRepo
	Notify Notifier
}

// Create opens a PENDING payment for the order. When one already exists it is
// returned unchanged and created is false.
func (s *PaymentService) Create(ctx context.Context, id identity.Identity, orderID uint, method *models.PaymentMethod) (dto *transport.PaymentDto, created bool, err error) {
	l := logger(ctx, "payment.create").With("user_id", id.UserID, "order_id", orderID)

	m := models.PaymentMethodCash
	if method != nil {
		if !method.Valid() {
			return nil, false, apperr.Validation(APIPayments, "Unknown payment method: %s", *method)
		}
		m = *method
	}

	var (
		pay   *models.Payment
		order *models.Order
	)
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return notFound(err, APIPayments, "Order with id=%d not found", orderID)
		}
		if !id.CanAccess(order.UserID) {
			return apperr.Forbidden(APIPayments, msgForbidden)
		}

		pay, err = tx.PaymentByOrder(ctx, orderID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if order.Status == models.OrderStatusCancelled {
			return apperr.Conflict(APIPayments, "Order with id=%d is cancelled", orderID)
		}

		pay = &models.Payment{
			OrderID:       orderID,
			PaymentMethod: m,
			PaymentStatus: models.PaymentStatusPending,
			Amount:        order.TotalAmount,
			TransactionID: uuid.NewString(),
		}
		if err := tx.CreatePayment(ctx, pay); err != nil {
			return err
		}
		created = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent request created it first
		created = false
		pay, err = s.Repo.PaymentByOrder(ctx, orderID)
	}
	if err != nil {
		logFailure(l, "create_payment_error", err)
		return nil, false, err
	}

	if created {
		l.Info("create_payment_success", "payment_id", pay.ID)
		s.Notify.order(ctx, l, orderEvent(events.PaymentCreated, order))
	}
	out := transport.PaymentFromModel(*pay)
	return &out, created, nil
}

// Pay approves the order's payment when the amount matches exactly.
func (s *PaymentService) Pay(ctx context.Context, id identity.Identity, orderID uint, req transport.PayRequest) (*transport.PaymentDto, error) {
	l := logger(ctx, "payment.pay").With("user_id", id.UserID, "order_id", orderID)

	if err := validateAmount(req.Amount); err != nil {
		logFailure(l, "pay_error", err)
		return nil, err
	}
	if req.PaymentMethod != nil && !req.PaymentMethod.Valid() {
		err := apperr.Validation(APIPayments, "Unknown payment method: %s", *req.PaymentMethod)
		logFailure(l, "pay_error", err)
		return nil, err
	}

	var (
		pay   *models.Payment
		order *models.Order
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return notFound(err, APIPayments, "Order with id=%d not found", orderID)
		}
		if !id.Owns(order.UserID) {
			return apperr.Forbidden(APIPayments, msgForbidden)
		}

		pay, err = tx.PaymentByOrder(ctx, orderID)
		if err != nil {
			return notFound(err, APIPayments, "Payment for order %d not found", orderID)
		}
		if pay.PaymentStatus == models.PaymentStatusApproved {
			return apperr.Conflict(APIPayments, "Payment for order %d is already approved", orderID)
		}
		if order.Status == models.OrderStatusCancelled {
			return apperr.Conflict(APIPayments, "Order with id=%d is cancelled", orderID)
		}
		if !req.Amount.Equal(pay.Amount) {
			return apperr.Validation(APIPayments, "Invalid payment amount. Expected=%s, Actual=%s",
				pay.Amount.StringFixed(2), req.Amount.StringFixed(2))
		}

		pay.PaymentStatus = models.PaymentStatusApproved
		if req.PaymentMethod != nil {
			pay.PaymentMethod = *req.PaymentMethod
		}
		if err := tx.SavePayment(ctx, pay); err != nil {
			return err
		}

		now := time.Now().UTC()
		order.Status = models.OrderStatusPaid
		order.PaidAt = &now
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		logFailure(l, "pay_error", err)
		return nil, err
	}

	l.Info("pay_success", "payment_id", pay.ID, "amount", pay.Amount.String())
	s.Notify.order(ctx, l, orderEvent(events.OrderPaid, order))
	out := transport.PaymentFromModel(*pay)
	return &out, nil
}

// Delete removes the payment and puts a paid order back to NEW.
func (s *PaymentService) Delete(ctx context.Context, id identity.Identity, paymentID uint) error {
	l := logger(ctx, "payment.delete").With("user_id", id.UserID, "payment_id", paymentID)

	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		pay, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return notFound(err, APIPayments, "Payment with id=%d not found", paymentID)
		}
		order, err = tx.GetOrder(ctx, pay.OrderID, true)
		if err != nil {
			return notFound(err, APIPayments, "Order with id=%d not found", pay.OrderID)
		}
		if !id.CanAccess(order.UserID) {
			return apperr.Forbidden(APIPayments, msgForbidden)
		}

		// Only a paid order goes back to NEW; its items are still reserved.
		// A cancelled order already gave its stock back and stays cancelled.
		if order.Status == models.OrderStatusPaid {
			order.Status = models.OrderStatusNew
			order.PaidAt = nil
			if err := tx.SaveOrder(ctx, order); err != nil {
				return err
			}
		}
		return tx.DeletePayment(ctx, paymentID)
	})
	if err != nil {
		logFailure(l, "delete_payment_error", err)
		return err
	}

	l.Info("delete_payment_success")
	s.Notify.order(ctx, l, orderEvent(events.PaymentDeleted, order))
	return nil
}

func (s *PaymentService) Get(ctx context.Context, id identity.Identity, paymentID uint) (*transport.PaymentDto, error) {
	pay, err := s.Repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, notFound(err, APIPayments, "Payment with id=%d not found", paymentID)
	}
	return s.authorized(ctx, id, pay)
}

func (s *PaymentService) GetByOrder(ctx context.Context, id identity.Identity, orderID uint) (*transport.PaymentDto, error) {
	pay, err := s.Repo.PaymentByOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, APIPayments, "Payment for order %d not found", orderID)
	}
	return s.authorized(ctx, id, pay)
}

func (s *PaymentService) authorized(ctx context.Context, id identity.Identity, pay *models.Payment) (*transport.PaymentDto, error) {
	if !id.IsAdmin() {
		order, err := s.Repo.GetOrder(ctx, pay.OrderID, false)
		if err != nil {
			return nil, notFound(err, APIPayments, "Order with id=%d not found", pay.OrderID)
		}
		if !id.Owns(order.UserID) {
			return nil, apperr.Forbidden(APIPayments, msgForbidden)
		}
	}
	out := transport.PaymentFromModel(*pay)
	return &out, nil
}
