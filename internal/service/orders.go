package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketnow/internal/clock"
	apperrors "ticketnow/internal/errors"
	"ticketnow/internal/external"
	"ticketnow/internal/logger"
	"ticketnow/internal/metrics"
	"ticketnow/internal/models"
	"ticketnow/internal/notification"
	"ticketnow/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultPaymentTimeout = 30 * time.Minute

type OrderService struct {
	tx             Transactor
	orderRepo      OrderRepository
	eventRepo      EventRepository
	payments       PaymentGateway
	publisher      Publisher
	cache          EventListCache
	clock          clock.Clock
	paymentTimeout time.Duration
}

func NewOrderService(deps Dependencies) *OrderService {
	timeout := deps.PaymentTimeout
	if timeout <= 0 {
		timeout = defaultPaymentTimeout
	}

	return &OrderService{
		tx:             deps.Tx,
		orderRepo:      deps.Orders,
		eventRepo:      deps.Events,
		payments:       deps.Payments,
		publisher:      deps.Publisher,
		cache:          deps.Cache,
		clock:          deps.Clock,
		paymentTimeout: timeout,
	}
}

// PlaceOrder reserves tickets and creates a PENDING order. The reservation and
// the order are committed together; the gateway payment is requested afterwards.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, req *models.PlaceOrderRequest) (notification.Result[*models.Order], error) {
	if list := validation.PlaceOrder.Validate(req); list.HasAny() {
		metrics.TrackOrderPlaced("invalid", req.Tickets)
		return notification.FailList[*models.Order](list), nil
	}

	var (
		order  *models.Order
		failed notification.List
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.eventRepo.GetByID(ctx, req.EventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		switch {
		case event == nil:
			failed.Add(notification.EventNotFound)
			return nil
		case !event.OnSale():
			failed.Add(notification.EventUnavailable)
			return nil
		case req.Tickets > event.TicketAvailable:
			failed.Add(notification.InsufficientInventory)
			return nil
		}

		// the read above is unlocked; the conditional decrement is authoritative
		if err := s.eventRepo.DecrementAvailable(ctx, event.ID, req.Tickets); err != nil {
			if errors.Is(err, apperrors.ErrInsufficientInventory) {
				failed.Add(s.decrementRejection(ctx, event.ID))
			}
			return err
		}

		order = &models.Order{
			UserID:        userID,
			EventID:       event.ID,
			Status:        models.OrderPending,
			PaymentStatus: models.PaymentPending,
			PaymentMethod: req.PaymentMethod,
			Tickets:       req.Tickets,
			Price:         event.TicketPrice.Mul(decimal.NewFromInt(int64(req.Tickets))),
			Items:         make([]models.OrderItem, req.Tickets),
		}
		for i := range order.Items {
			order.Items[i] = models.OrderItem{
				TicketCode: uuid.NewString(),
				UnitPrice:  event.TicketPrice,
			}
		}

		if err := s.orderRepo.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if failed.HasAny() {
		metrics.TrackOrderPlaced(failed[0].Key, req.Tickets)
		return notification.FailList[*models.Order](failed), nil
	}
	if err != nil {
		metrics.TrackOrderPlaced("error", req.Tickets)
		return notification.Result[*models.Order]{}, err
	}

	metrics.TrackOrderPlaced("success", order.Tickets)
	s.invalidateListings(ctx)
	s.requestPayment(ctx, order)

	publish(ctx, s.publisher, models.SubjectOrderPlaced, s.orderMessage(order, ""))
	logger.WithContext(ctx).Info("Order placed",
		"order_id", order.ID,
		"event_id", order.EventID,
		"tickets", order.Tickets)

	return notification.OK(order), nil
}

// decrementRejection tells why the conditional decrement matched no row.
// The event may have been taken off sale after the unlocked read.
func (s *OrderService) decrementRejection(ctx context.Context, eventID int64) notification.Notification {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	switch {
	case err != nil:
		logger.WithContext(ctx).Warn("Failed to re-read event after rejected reservation",
			"error", err,
			"event_id", eventID)
		return notification.InsufficientInventory
	case event == nil:
		return notification.EventNotFound
	case !event.OnSale():
		return notification.EventUnavailable
	}
	return notification.InsufficientInventory
}

// requestPayment asks the gateway for a payment. A failure leaves the order
// PENDING until a notification arrives or the order expires.
func (s *OrderService) requestPayment(ctx context.Context, order *models.Order) {
	if s.payments == nil {
		return
	}

	payment, err := s.payments.CreatePayment(ctx, external.CreatePaymentRequest{
		OrderID:       order.ID,
		PaymentMethod: order.PaymentMethod,
		Amount:        order.Price,
	})
	if err != nil {
		logger.WithContext(ctx).Error("Failed to request payment", "error", err, "order_id", order.ID)
		return
	}

	if err := s.orderRepo.SetPaymentID(ctx, order.ID, payment.ID); err != nil {
		logger.WithContext(ctx).Error("Failed to store payment id",
			"error", err,
			"order_id", order.ID,
			"payment_id", payment.ID)
		return
	}
	order.PaymentID = &payment.ID
}

// ApplyPaymentNotification applies a gateway webhook to the order. Deliveries
// for orders that are cancelled or already settled are reported and ignored.
func (s *OrderService) ApplyPaymentNotification(ctx context.Context, req *models.PaymentNotificationRequest) (notification.Result[models.PaymentNotificationOutcome], error) {
	if list := validation.PaymentWebhook.Validate(req); list.HasAny() {
		return notification.FailList[models.PaymentNotificationOutcome](list), nil
	}

	var (
		order    *models.Order
		outcome  models.PaymentNotificationOutcome
		restored bool
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetByIDForUpdate(ctx, req.OrderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		if order == nil {
			outcome = models.OutcomeUnknown
			return nil
		}

		if order.Status == models.OrderCancelled || order.PaymentStatus.IsTerminal() {
			outcome = models.OutcomeStale
			if order.PaymentStatus == req.PaymentStatus {
				outcome = models.OutcomeDuplicate
			}
			return nil
		}
		if order.PaymentStatus == req.PaymentStatus {
			outcome = models.OutcomeDuplicate
			return nil
		}
		if req.PaymentStatus.Precedes(order.PaymentStatus) {
			outcome = models.OutcomeStale
			return nil
		}

		if req.PaymentID != nil && order.PaymentID == nil {
			if err := s.orderRepo.SetPaymentID(ctx, order.ID, *req.PaymentID); err != nil {
				return fmt.Errorf("failed to store payment id: %w", err)
			}
			order.PaymentID = req.PaymentID
		}

		switch {
		case req.PaymentStatus == models.PaymentPaid:
			if err := s.orderRepo.UpdateStatus(ctx, order.ID, models.OrderConfirmed, models.PaymentPaid); err != nil {
				return fmt.Errorf("failed to confirm order: %w", err)
			}
			order.Status = models.OrderConfirmed
		case req.PaymentStatus.IsFailure():
			restored, err = s.cancelAndRestore(ctx, order, req.PaymentStatus)
			if err != nil {
				return err
			}
		default:
			if err := s.orderRepo.UpdateStatus(ctx, order.ID, order.Status, req.PaymentStatus); err != nil {
				return fmt.Errorf("failed to update payment status: %w", err)
			}
		}
		order.PaymentStatus = req.PaymentStatus
		outcome = models.OutcomeApplied
		return nil
	})
	if err != nil {
		return notification.Result[models.PaymentNotificationOutcome]{}, err
	}

	metrics.TrackPaymentNotification(string(outcome))
	log := logger.WithContext(ctx).With(
		"order_id", req.OrderID,
		"payment_status", req.PaymentStatus,
		"outcome", outcome)

	switch outcome {
	case models.OutcomeUnknown:
		log.Warn("Payment notification for unknown order")
		return notification.Result[models.PaymentNotificationOutcome]{
			Value:         outcome,
			Notifications: notification.List{notification.OrderNotFound},
		}, nil
	case models.OutcomeDuplicate, models.OutcomeStale:
		log.Info("Payment notification ignored")
		return notification.OK(outcome), nil
	}

	log.Info("Payment notification applied")
	switch {
	case order.Status == models.OrderConfirmed:
		publish(ctx, s.publisher, models.SubjectOrderConfirmed, s.orderMessage(order, ""))
	case restored:
		metrics.TrackTicketsRestored(models.ReasonPaymentFailed, order.Tickets)
		s.invalidateListings(ctx)
		publish(ctx, s.publisher, models.SubjectOrderCancelled, s.orderMessage(order, models.ReasonPaymentFailed))
	}
	return notification.OK(outcome), nil
}

// CancelOrder cancels an order of the user before the event takes place
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int64) (notification.Result[*models.Order], error) {
	var (
		order         *models.Order
		failed        notification.List
		paymentStatus models.PaymentStatus
		restored      bool
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		if order == nil || order.UserID != userID {
			failed.Add(notification.OrderNotFound)
			return nil
		}
		if !order.Cancellable() {
			failed.Add(notification.OrderNotCancellable)
			return nil
		}

		event, err := s.eventRepo.GetByID(ctx, order.EventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event != nil && !event.EventDate.After(s.clock.Now()) {
			failed.Add(notification.EventAlreadyHappened)
			return nil
		}

		paymentStatus = order.PaymentStatus
		newStatus := paymentStatus
		if newStatus == models.PaymentPending {
			newStatus = models.PaymentCancelled
		}

		restored, err = s.cancelAndRestore(ctx, order, newStatus)
		if err != nil {
			return err
		}
		if !restored {
			failed.Add(notification.OrderNotCancellable)
		}
		return nil
	})
	if err != nil {
		return notification.Result[*models.Order]{}, err
	}
	if failed.HasAny() {
		return notification.FailList[*models.Order](failed), nil
	}

	metrics.TrackTicketsRestored(models.ReasonUserCancelled, order.Tickets)
	s.invalidateListings(ctx)
	if !paymentStatus.IsTerminal() {
		s.cancelPayment(ctx, order)
	}
	publish(ctx, s.publisher, models.SubjectOrderCancelled, s.orderMessage(order, models.ReasonUserCancelled))
	logger.WithContext(ctx).Info("Order cancelled", "order_id", order.ID)

	return notification.OK(order), nil
}

// ListOrders returns the user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID int64, filter models.OrderFilter) (notification.Result[[]models.Order], error) {
	filter.Normalize()

	orders, err := s.orderRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return notification.Result[[]models.Order]{}, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return notification.OK(orders), nil
}

// GetOrder returns an order of the user with its tickets
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (notification.Result[*models.Order], error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return notification.Result[*models.Order]{}, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return notification.Fail[*models.Order](notification.OrderNotFound), nil
	}
	return notification.OK(order), nil
}

// ExpirePendingOrders cancels orders whose payment did not arrive within the
// payment timeout and returns how many were cancelled.
func (s *OrderService) ExpirePendingOrders(ctx context.Context, limit int) (int, error) {
	cutoff := s.clock.Now().Add(-s.paymentTimeout)

	orders, err := s.orderRepo.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending orders: %w", err)
	}

	expired := 0
	for _, pending := range orders {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}

		var (
			order    *models.Order
			restored bool
		)
		err := s.tx.WithTx(ctx, func(ctx context.Context) error {
			var err error
			order, err = s.orderRepo.GetByIDForUpdate(ctx, pending.ID)
			if err != nil {
				return fmt.Errorf("failed to get order: %w", err)
			}
			if order == nil || order.Status != models.OrderPending {
				return nil
			}
			restored, err = s.cancelAndRestore(ctx, order, models.PaymentCancelled)
			return err
		})
		if err != nil {
			logger.WithContext(ctx).Error("Failed to expire order", "error", err, "order_id", pending.ID)
			continue
		}
		if !restored {
			continue
		}

		expired++
		metrics.TrackTicketsRestored(models.ReasonPaymentTimeout, order.Tickets)
		s.cancelPayment(ctx, order)
		publish(ctx, s.publisher, models.SubjectOrderCancelled, s.orderMessage(order, models.ReasonPaymentTimeout))
		logger.WithContext(ctx).Info("Order expired", "order_id", order.ID, "tickets", order.Tickets)
	}

	if expired > 0 {
		s.invalidateListings(ctx)
	}
	return expired, nil
}

// cancelAndRestore cancels the order and gives its tickets back. Tickets are
// restored only by the call that actually moved the order to CANCELLED.
func (s *OrderService) cancelAndRestore(ctx context.Context, order *models.Order, paymentStatus models.PaymentStatus) (bool, error) {
	err := s.orderRepo.Cancel(ctx, order.ID, paymentStatus)
	if errors.Is(err, apperrors.ErrStateChanged) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}

	if err := s.eventRepo.RestoreAvailable(ctx, order.EventID, order.Tickets); err != nil {
		return false, fmt.Errorf("failed to restore tickets: %w", err)
	}

	order.Status = models.OrderCancelled
	order.PaymentStatus = paymentStatus
	return true, nil
}

func (s *OrderService) cancelPayment(ctx context.Context, order *models.Order) {
	if s.payments == nil || order.PaymentID == nil {
		return
	}
	if err := s.payments.CancelPayment(ctx, *order.PaymentID); err != nil {
		logger.WithContext(ctx).Warn("Failed to cancel payment",
			"error", err,
			"order_id", order.ID,
			"payment_id", *order.PaymentID)
	}
}

func (s *OrderService) invalidateListings(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func (s *OrderService) orderMessage(order *models.Order, reason string) models.OrderMessage {
	return models.OrderMessage{
		OrderID:       order.ID,
		EventID:       order.EventID,
		UserID:        order.UserID,
		Tickets:       order.Tickets,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Reason:        reason,
		Timestamp:     s.clock.Now(),
	}
}
