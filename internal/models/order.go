// internal/models/order.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is written once at checkout. Only Status changes afterwards and every
// change appends an OrderStatusEvent.
type Order struct {
	BaseModel
	OrderNumber      string          `json:"order_number" gorm:"size:40;uniqueIndex;not null"`
	CustomerID       *uuid.UUID      `json:"customer_id,omitempty" gorm:"type:uuid;index"`
	CustomerName     string          `json:"customer_name" gorm:"size:255;not null"`
	CustomerEmail    string          `json:"customer_email" gorm:"size:255;not null"`
	CustomerPhone    string          `json:"customer_phone,omitempty" gorm:"size:50"`
	ShippingAddress  JSONB           `json:"shipping_address,omitempty" gorm:"type:jsonb"`
	InfluencerID     *uuid.UUID      `json:"influencer_id,omitempty" gorm:"type:uuid;index"`
	ReferralCode     string          `json:"referral_code,omitempty" gorm:"size:32"`
	Subtotal         decimal.Decimal `json:"subtotal" gorm:"type:decimal(14,3);not null"`
	ShippingFee      decimal.Decimal `json:"shipping_fee" gorm:"type:decimal(14,3);not null"`
	GrandTotal       decimal.Decimal `json:"grand_total" gorm:"type:decimal(14,3);not null"`
	CommissionAmount decimal.Decimal `json:"commission_amount" gorm:"type:decimal(14,3);default:0"`
	Currency         string          `json:"currency" gorm:"size:3;default:'usd'"`
	Status           OrderStatus     `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentReference string          `json:"payment_reference,omitempty" gorm:"size:255"`

	// Relationships
	Items         []OrderItem        `json:"items" gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusEvent `json:"status_history" gorm:"foreignKey:OrderID"`
}

func (o *Order) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}
	return ids
}

type OrderItem struct {
	BaseModel
	OrderID    uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	CampaignID *uuid.UUID      `json:"campaign_id,omitempty" gorm:"type:uuid;index"`
	BrandID    uuid.UUID       `json:"brand_id" gorm:"type:uuid;not null;index"`
	Title      string          `json:"title" gorm:"size:255"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,3);not null"`
	Quantity   int64           `json:"quantity" gorm:"not null"`
	LineTotal  decimal.Decimal `json:"line_total" gorm:"type:decimal(14,3);not null"`
	Commission decimal.Decimal `json:"commission" gorm:"type:decimal(14,3);default:0"`
}

type OrderStatusEvent struct {
	BaseModel
	OrderID   uuid.UUID   `json:"order_id" gorm:"type:uuid;not null;index"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(20);not null"`
	Note      string      `json:"note,omitempty" gorm:"type:text"`
	ChangedBy *uuid.UUID  `json:"changed_by,omitempty" gorm:"type:uuid"`
}
