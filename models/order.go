package models

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type OrderPaymentStatus string

const (
	OrderPaymentPending   OrderPaymentStatus = "PENDING"
	OrderPaymentPaid      OrderPaymentStatus = "PAID"
	OrderPaymentCancelled OrderPaymentStatus = "CANCELLED"
)

// allowedTransitions is the legal status graph. DELIVERED and CANCELLED
// are terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

func ValidOrderStatus(s OrderStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError names both states so the admin UI can surface
// the message as-is.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("No se puede cambiar de %s a %s", e.From, e.To)
}

type Order struct {
	ID              int                `json:"id"`
	OrderNumber     string             `json:"order_number"`
	UserID          int                `json:"user_id"`
	TotalAmount     float64            `json:"total_amount"`
	Status          OrderStatus        `json:"status"`
	PaymentStatus   OrderPaymentStatus `json:"payment_status"`
	PaymentMethod   string             `json:"payment_method"`
	ShippingAddress string             `json:"shipping_address,omitempty"`
	ShippingCity    string             `json:"shipping_city,omitempty"`
	Items           []OrderItem        `json:"items,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// OrderItem references exactly one of product or plan.
type OrderItem struct {
	ID         int     `json:"id"`
	OrderID    int     `json:"order_id"`
	ProductID  *int    `json:"product_id,omitempty"`
	PlanID     *int    `json:"plan_id,omitempty"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

type OrderItemRequest struct {
	ProductID *int `json:"product_id"`
	PlanID    *int `json:"plan_id"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"required"`
	TotalAmount     float64            `json:"total_amount" binding:"required,gt=0"`
	ShippingAddress string             `json:"shipping_address"`
	ShippingCity    string             `json:"shipping_city"`
	PaymentMethod   string             `json:"payment_method" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

type OrderEvent struct {
	OrderID       int                `json:"order_id"`
	OrderNumber   string             `json:"order_number"`
	UserID        int                `json:"user_id"`
	Status        OrderStatus        `json:"status"`
	PaymentStatus OrderPaymentStatus `json:"payment_status"`
	TotalAmount   float64            `json:"total_amount"`
	EventType     string             `json:"event_type"` // order_created, order_paid, order_status_changed
}
