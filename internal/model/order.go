package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusReturned   OrderStatus = "Returned"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// Cancellable reports whether a customer may still cancel the order.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentCreditCard   PaymentMethod = "Credit Card"
	PaymentDebitCard    PaymentMethod = "Debit Card"
	PaymentJazzCash     PaymentMethod = "JazzCash"
	PaymentEasypaisa    PaymentMethod = "Easypaisa"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
)

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCreditCard, PaymentDebitCard,
		PaymentJazzCash, PaymentEasypaisa, PaymentBankTransfer:
		return true
	}
	return false
}

// Order is a placed order. OrderItems are a frozen copy of product data at
// purchase time. Exactly one of UserID and GuestUser is set.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          *uuid.UUID      `json:"user,omitempty" db:"user_id"`
	GuestUser       *GuestUser      `json:"guestUser,omitempty" db:"guest_user"`
	OrderItems      []OrderItem     `json:"orderItems" db:"order_items"`
	ShippingAddress ShippingAddress `json:"shippingAddress" db:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty" db:"payment_result"`
	ItemsPrice      float64         `json:"itemsPrice" db:"items_price"`
	TaxPrice        float64         `json:"taxPrice" db:"tax_price"`
	ShippingPrice   float64         `json:"shippingPrice" db:"shipping_price"`
	TotalPrice      float64         `json:"totalPrice" db:"total_price"`
	IsPaid          bool            `json:"isPaid" db:"is_paid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty" db:"paid_at"`
	IsDelivered     bool            `json:"isDelivered" db:"is_delivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" db:"delivered_at"`
	Status          OrderStatus     `json:"status" db:"status"`
	TrackingNumber  string          `json:"trackingNumber,omitempty" db:"tracking_number"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a purchased line. Name, image and price are copied from the
// product when the order is placed.
type OrderItem struct {
	ProductID uuid.UUID `json:"product"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Variant   string    `json:"variant,omitempty"`
}

// ShippingAddress is the destination of an order.
type ShippingAddress struct {
	Name       string `json:"name" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country"`
	Phone      string `json:"phone" validate:"required"`
}

// GuestUser identifies the buyer of a guest checkout.
type GuestUser struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// PaymentResult is the payment confirmation reported by the client.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

// OwnedBy reports whether the order belongs to the given user.
func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}

// PlacedByGuest reports whether the order is a guest order for email.
func (o *Order) PlacedByGuest(email string) bool {
	if o.GuestUser == nil || email == "" {
		return false
	}
	return strings.EqualFold(o.GuestUser.Email, email)
}

// OrderRequest is the checkout payload.
type OrderRequest struct {
	OrderItems      []OrderItemRequest `json:"orderItems" validate:"dive"`
	ShippingAddress ShippingAddress    `json:"shippingAddress"`
	PaymentMethod   PaymentMethod      `json:"paymentMethod"`
	GuestUser       *GuestUser         `json:"guestUser,omitempty"`
	Notes           string             `json:"notes,omitempty"`
}

// OrderItemRequest is a single requested line.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product" validate:"required"`
	Quantity  int       `json:"quantity"`
	Variant   string    `json:"variant,omitempty"`
}

// UpdateStatusRequest is the admin payload for moving an order.
type UpdateStatusRequest struct {
	Status         OrderStatus `json:"status" validate:"required"`
	TrackingNumber string      `json:"trackingNumber"`
	Notes          string      `json:"notes"`
}

// CancelOrderRequest identifies a guest cancelling their own order.
type CancelOrderRequest struct {
	GuestEmail string `json:"guestEmail"`
}

// Pricing constants used for order totals.
var (
	FreeShippingThreshold = decimal.NewFromInt(2000)
	FlatShippingPrice     = decimal.NewFromInt(200)
	TaxRate               = decimal.RequireFromString("0.05")
)

// Totals are the computed money amounts of an order.
type Totals struct {
	ItemsPrice    float64
	TaxPrice      float64
	ShippingPrice float64
	TotalPrice    float64
}

// ComputeTotals prices a set of order lines. Shipping is free above the
// threshold; tax is a flat rate on the items price.
func ComputeTotals(items []OrderItem) Totals {
	itemsPrice := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		itemsPrice = itemsPrice.Add(line)
	}

	shipping := FlatShippingPrice
	if itemsPrice.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := itemsPrice.Mul(TaxRate).Round(2)
	total := itemsPrice.Add(shipping).Add(tax).Round(2)

	return Totals{
		ItemsPrice:    itemsPrice.Round(2).InexactFloat64(),
		TaxPrice:      tax.InexactFloat64(),
		ShippingPrice: shipping.InexactFloat64(),
		TotalPrice:    total.InexactFloat64(),
	}
}

// OrderPage is a page of orders for the admin listing.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
	Total  int     `json:"total"`
}

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int         `json:"count"`
}

// OrderStats summarises sales for the admin dashboard.
type OrderStats struct {
	TotalOrders    int           `json:"totalOrders"`
	MonthlyOrders  int           `json:"monthlyOrders"`
	YearlyOrders   int           `json:"yearlyOrders"`
	TotalRevenue   float64       `json:"totalRevenue"`
	MonthlyRevenue float64       `json:"monthlyRevenue"`
	OrdersByStatus []StatusCount `json:"ordersByStatus"`
	RecentOrders   []Order       `json:"recentOrders"`
}
