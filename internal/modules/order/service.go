package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tkabwela/shopline-backend/internal/modules/auth"
	"github.com/tkabwela/shopline-backend/internal/modules/cart"
	"github.com/tkabwela/shopline-backend/internal/modules/catalog"
	"github.com/tkabwela/shopline-backend/pkg/events"
	"github.com/tkabwela/shopline-backend/pkg/metrics"
)

// Service defines the order business logic: the placement workflow and the
// status state machine.
type Service interface {
	// PlaceOrder checks out the caller's cart: validates every line,
	// decrements stock, persists the order and clears the cart. Any failure
	// after a stock decrement rolls every decrement back before surfacing
	// the original error, so a failed placement leaves stock, cart and
	// orders exactly as they were.
	PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*Order, error)

	// GetOrder retrieves an order the caller owns, or any order for admins.
	GetOrder(ctx context.Context, id string, caller auth.Caller) (*Order, error)

	// GetOrderByNumber retrieves an order by its human-readable number.
	GetOrderByNumber(ctx context.Context, orderNumber string, caller auth.Caller) (*Order, error)

	// ListMyOrders returns the caller's orders, newest first.
	ListMyOrders(ctx context.Context, userID string) ([]*Order, error)

	// ListOrders returns all orders, optionally filtered by status.
	ListOrders(ctx context.Context, status string) ([]*Order, error)

	// UpdateStatus applies one state-machine transition. Transitioning into
	// cancelled restores stock for every line exactly once.
	UpdateStatus(ctx context.Context, id string, caller auth.Caller, req UpdateStatusRequest) (*Order, error)

	// CancelOrder cancels an order that has not shipped yet.
	CancelOrder(ctx context.Context, id string, caller auth.Caller, reason string) (*Order, error)
}

type service struct {
	repo      Repository
	carts     cart.Repository
	products  catalog.Repository
	ledger    catalog.StockLedger
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService creates a new order service. publisher may be nil when no broker
// is configured.
func NewService(repo Repository, carts cart.Repository, products catalog.Repository,
	ledger catalog.StockLedger, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		carts:     carts,
		products:  products,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// Shipping is free above this subtotal, otherwise a flat charge applies.
const (
	freeShippingThreshold = 500.0
	flatShippingCharge    = 49.0
	taxRate               = 0.16
)

func (s *service) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*Order, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, cart.ErrCartNotFound) {
		metrics.PlacementFailures.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(c.Items) == 0 {
		metrics.PlacementFailures.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	// Validate every line before touching stock, failing fast on the first
	// offending product.
	for _, line := range c.Items {
		p, err := s.products.GetByID(ctx, line.ProductID.String())
		if err != nil {
			metrics.PlacementFailures.WithLabelValues("product_unavailable").Inc()
			return nil, err
		}
		if p.Status != catalog.StatusActive {
			metrics.PlacementFailures.WithLabelValues("product_unavailable").Inc()
			return nil, &catalog.ProductUnavailableError{ProductID: p.ID}
		}
		if p.Stock < line.Quantity {
			metrics.PlacementFailures.WithLabelValues("insufficient_stock").Inc()
			return nil, &catalog.InsufficientStockError{
				ProductID: p.ID,
				Requested: line.Quantity,
				Available: p.Stock,
			}
		}
	}

	// Decrement stock line by line. If any decrement fails, every decrement
	// that already succeeded is compensated before the error surfaces.
	var decremented []*cart.CartItem
	for _, line := range c.Items {
		if err := s.ledger.DecrementStock(ctx, line.ProductID.String(), line.Quantity); err != nil {
			s.restoreLines(ctx, decremented)
			metrics.PlacementFailures.WithLabelValues("insufficient_stock").Inc()
			return nil, err
		}
		decremented = append(decremented, line)
	}

	now := time.Now().UTC()
	o := &Order{
		ID:            uuid.New(),
		OrderNumber:   generateOrderNumber(),
		UserID:        uid,
		Status:        StatusPlaced,
		PaymentMethod: strings.ToLower(req.PaymentMethod),
		PaymentStatus: PaymentPending,
		Shipping:      req.ShippingAddress,
		StatusHistory: []*StatusEntry{
			{Status: StatusPlaced, Note: "order placed", CreatedAt: now},
		},
	}
	for _, line := range c.Items {
		o.Items = append(o.Items, &OrderItem{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	o.RecalculateTotals()
	if o.Subtotal < freeShippingThreshold {
		o.ShippingCharges = flatShippingCharge
	}
	o.Tax = round2(o.Subtotal * taxRate)
	o.RecalculateTotals()

	if err := s.repo.Create(ctx, o); err != nil {
		// Symmetric compensation: the order did not persist, so every
		// decrement this call made is undone.
		s.restoreLines(ctx, decremented)
		metrics.PlacementFailures.WithLabelValues("persist").Inc()
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		// The order is committed; an un-cleared cart is recoverable.
		s.logger.Warn("failed to clear cart after placement",
			slog.String("order_id", o.ID.String()), slog.String("error", err.Error()))
	}

	metrics.OrdersPlaced.Inc()
	s.publish(ctx, o.ID.String(), OrderPlacedEvent{
		OrderID:     o.ID.String(),
		OrderNumber: o.OrderNumber,
		UserID:      userID,
		Total:       o.Total,
		Timestamp:   now,
	})

	return o, nil
}

func (s *service) GetOrder(ctx context.Context, id string, caller auth.Caller) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && o.UserID.String() != caller.UserID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) GetOrderByNumber(ctx context.Context, orderNumber string, caller auth.Caller) (*Order, error) {
	o, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && o.UserID.String() != caller.UserID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) ListMyOrders(ctx context.Context, userID string) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListOrders(ctx context.Context, status string) ([]*Order, error) {
	return s.repo.List(ctx, status)
}

func (s *service) UpdateStatus(ctx context.Context, id string, caller auth.Caller, req UpdateStatusRequest) (*Order, error) {
	newStatus := OrderStatus(strings.ToLower(req.Status))
	note := req.Note
	if note == "" {
		note = fmt.Sprintf("status changed to %s", newStatus)
	}
	return s.transition(ctx, id, caller, newStatus, note)
}

func (s *service) CancelOrder(ctx context.Context, id string, caller auth.Caller, reason string) (*Order, error) {
	note := "cancelled"
	if reason != "" {
		note = "cancelled: " + reason
	}
	o, err := s.transition(ctx, id, caller, StatusCancelled, note)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// transition applies one state-machine step. A cross-user transition requires
// admin privilege. The storage-level guard on the prior status makes the
// transition race-safe, and cancellation restores stock only after the guard
// is won, which is what keeps the restore exactly-once.
func (s *service) transition(ctx context.Context, id string, caller auth.Caller, to OrderStatus, note string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && o.UserID.String() != caller.UserID {
		return nil, ErrForbidden
	}
	if !CanTransition(o.Status, to) {
		return nil, &InvalidTransitionError{From: o.Status, To: to}
	}

	if err := s.repo.UpdateStatus(ctx, id, o.Status, to, note); err != nil {
		return nil, err
	}

	switch to {
	case StatusCancelled:
		s.restoreOrderLines(ctx, o)
		metrics.OrdersCancelled.Inc()
		s.publish(ctx, o.ID.String(), OrderCancelledEvent{
			OrderID:     o.ID.String(),
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID.String(),
			Reason:      note,
			Timestamp:   time.Now().UTC(),
		})
	case StatusDelivered:
		if o.PaymentMethod == MethodCOD {
			if err := s.repo.SetPaymentStatus(ctx, id, PaymentCompleted); err != nil {
				s.logger.Warn("failed to complete COD payment status",
					slog.String("order_id", id), slog.String("error", err.Error()))
			} else {
				o.PaymentStatus = PaymentCompleted
			}
		}
	}

	o.Status = to
	o.StatusHistory = append(o.StatusHistory, &StatusEntry{
		Status:    to,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	})
	return o, nil
}

// restoreLines compensates stock decrements for cart lines. Restore failures
// are logged, never surfaced: only the original triggering error propagates.
func (s *service) restoreLines(ctx context.Context, lines []*cart.CartItem) {
	for _, line := range lines {
		if err := s.ledger.RestoreStock(ctx, line.ProductID.String(), line.Quantity); err != nil {
			s.logger.Error("failed to restore stock",
				slog.String("product_id", line.ProductID.String()),
				slog.Int("quantity", line.Quantity),
				slog.String("error", err.Error()))
		}
	}
}

func (s *service) restoreOrderLines(ctx context.Context, o *Order) {
	for _, item := range o.Items {
		if err := s.ledger.RestoreStock(ctx, item.ProductID.String(), item.Quantity); err != nil {
			s.logger.Error("failed to restore stock on cancellation",
				slog.String("order_id", o.ID.String()),
				slog.String("product_id", item.ProductID.String()),
				slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()))
		}
	}
}

// publish is best-effort: a broker outage never fails the request.
func (s *service) publish(ctx context.Context, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Warn("failed to publish order event",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}
