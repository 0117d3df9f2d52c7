package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/order"
	"github.com/Skotchmaster/craft_store/internal/search"
	"github.com/Skotchmaster/craft_store/internal/util"
)

type AddItemRequest struct {
	ProductID         uint           `json:"product_id"`
	Variant           models.Variant `json:"variant"`
	Quantity          int            `json:"quantity"`
	CustomizationNote string         `json:"customization_note"`
}

type CartResponse struct {
	Key   string            `json:"key"`
	Lines []models.CartLine `json:"lines"`
	Total decimal.Decimal   `json:"total"`
}

type CheckoutRequest struct {
	PaymentMethod  string           `json:"payment_method"`
	InitialPayment *decimal.Decimal `json:"initial_payment"`
	DeliveryDate   string           `json:"delivery_date"`
}

type StatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type DeliveryDateRequest struct {
	DeliveryDate string `json:"delivery_date"`
}

type AdjustmentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type DetailsRequest struct {
	DeliveryDate string           `json:"delivery_date"`
	Adjustment   *decimal.Decimal `json:"adjustment"`
}

type OrderListResponse struct {
	Page   util.Page    `json:"page"`
	Orders []order.View `json:"orders"`
}

type OrderSearchResponse struct {
	Page   util.Page         `json:"page"`
	Orders []search.OrderDoc `json:"orders"`
}

type ProductListResponse struct {
	Page     util.Page        `json:"page"`
	Products []models.Product `json:"products"`
}

type StockResponse struct {
	ProductID uint `json:"product_id"`
	Stock     int  `json:"stock"`
}

type DeliveryResponse struct {
	Today    string `json:"today"`
	Earliest string `json:"earliest"`
	MinLead  int    `json:"min_lead_business_days"`
}

type InsufficientStockResponse struct {
	Message   string `json:"message"`
	ProductID uint   `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// ParseDate reads a YYYY-MM-DD date; an empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
