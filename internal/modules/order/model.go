package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPacked    OrderStatus = "packed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus is an axis independent of the order status.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment methods accepted at checkout.
const (
	MethodCOD  = "cod"
	MethodCard = "card"
)

// validTransitions defines the allowed status state machine. The happy path
// is linear; cancelled is absorbing and reachable only before shipping.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPlaced:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPacked, StatusCancelled},
	StatusPacked:    {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether from → to is an allowed transition.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ShippingAddress is the delivery address snapshotted onto the order.
type ShippingAddress struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Order is an immutable-after-creation snapshot of a purchase. Items and
// monetary fields are fixed at placement time; only the status axes and the
// append-only history move afterwards.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          uuid.UUID       `json:"user_id"`
	Items           []*OrderItem    `json:"items"`
	Status          OrderStatus     `json:"order_status"`
	StatusHistory   []*StatusEntry  `json:"status_history"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Shipping        ShippingAddress `json:"shipping_address"`
	Subtotal        float64         `json:"subtotal"`
	ShippingCharges float64         `json:"shipping_charges"`
	Tax             float64         `json:"tax"`
	Discount        float64         `json:"discount"`
	Total           float64         `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is a single line snapshotted from the cart at placement time. The
// unit price is the cart's snapshot, never re-derived from the catalog.
type OrderItem struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"order_id"`
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	LineSubtotal float64   `json:"line_subtotal"`
}

// StatusEntry is one row of the append-only status history log.
type StatusEntry struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// RecalculateTotals recomputes the monetary fields from the item lines. It
// must be invoked before every persist; total never goes negative.
func (o *Order) RecalculateTotals() {
	var subtotal float64
	for _, item := range o.Items {
		item.LineSubtotal = round2(item.UnitPrice * float64(item.Quantity))
		subtotal += item.LineSubtotal
	}
	o.Subtotal = round2(subtotal)
	total := o.Subtotal + o.ShippingCharges + o.Tax - o.Discount
	if total < 0 {
		total = 0
	}
	o.Total = round2(total)
}

// PlaceOrderRequest is the payload for checking out the caller's cart.
type PlaceOrderRequest struct {
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
}

// Validate rejects malformed checkout input before the workflow runs.
func (r PlaceOrderRequest) Validate() error {
	if r.ShippingAddress.Line1 == "" || r.ShippingAddress.City == "" || r.ShippingAddress.Country == "" {
		return fmt.Errorf("shipping address requires line1, city and country")
	}
	switch strings.ToLower(r.PaymentMethod) {
	case MethodCOD, MethodCard:
		return nil
	default:
		return fmt.Errorf("unsupported payment method %q", r.PaymentMethod)
	}
}

// UpdateStatusRequest is the payload for advancing an order's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// CancelOrderRequest carries the caller's cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// generateOrderNumber creates a human-readable order number: ORD-YYYYMMDD-XXXX
func generateOrderNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("ORD-%s-%s", date, suffix)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
