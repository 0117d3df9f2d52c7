package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"             json:"id"`
	Name          string          `gorm:"not null"                             json:"name"`
	StockQuantity int             `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null"          json:"price"`
	Active        bool            `gorm:"not null;default:true"                json:"active"`
	Version       int             `gorm:"not null;default:1"                   json:"version"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// StockMovement is the idempotency log for stock writes: one row per applied
// reserve/release, keyed by the caller's idempotency key.
type StockMovement struct {
	ID        uint      `gorm:"primaryKey"              json:"id"`
	Key       string    `gorm:"uniqueIndex;not null"    json:"key"`
	ProductID uint      `gorm:"index;not null"          json:"product_id"`
	Delta     int       `gorm:"not null"                json:"delta"`
	Reason    string    `gorm:"not null"                json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type Variant string

const (
	VariantPredesigned Variant = "predesigned"
	VariantCustomized  Variant = "customized"
)

func (v Variant) Valid() bool {
	return v == VariantPredesigned || v == VariantCustomized
}

type CartLine struct {
	ProductID         uint            `json:"product_id"`
	Variant           Variant         `json:"variant"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	CustomizationNote string          `json:"customization_note,omitempty"`
}

type CartSnapshot struct {
	Key       string     `gorm:"primaryKey"                  json:"key"`
	Lines     []CartLine `gorm:"type:text;serializer:json"   json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}

type OrderStatus string

const (
	OrderStatusFirstPayment OrderStatus = "first_payment"
	OrderStatusInProcess    OrderStatus = "in_process"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusInDelivery   OrderStatus = "in_delivery"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusDirectSale   OrderStatus = "direct_sale"
	OrderStatusAnnulled     OrderStatus = "annulled"
)

type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"          json:"id"`
	CustomerID       string          `gorm:"index;not null"                json:"customer_id"`
	Status           OrderStatus     `gorm:"index;not null"                json:"status"`
	PaymentMethod    string          `gorm:"not null"                      json:"payment_method"`
	OrderDate        time.Time       `gorm:"not null"                      json:"order_date"`
	DeliveryDate     time.Time       `gorm:"not null"                      json:"delivery_date"`
	InitialPayment   decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"initial_payment"`
	RemainingPayment decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"remaining_payment"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"total_amount"`
	LineItems        []OrderLineItem `gorm:"foreignKey:OrderID"            json:"line_items"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// BaseAmount is what the customer owes without any back-office adjustment.
func (o *Order) BaseAmount() decimal.Decimal {
	return o.InitialPayment.Add(o.RemainingPayment)
}

type OrderLineItem struct {
	ID        uint            `gorm:"primaryKey"                    json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"      json:"order_id"`
	ProductID uint            `gorm:"index;not null"                json:"product_id"`
	Variant   Variant         `gorm:"not null"                      json:"variant"`
	Quantity  int             `gorm:"not null;check:quantity > 0"   json:"quantity"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"subtotal"`
}
