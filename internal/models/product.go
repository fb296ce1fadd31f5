// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	BrandID        uuid.UUID       `json:"brand_id" gorm:"type:uuid;not null;index"`
	CampaignID     *uuid.UUID      `json:"campaign_id,omitempty" gorm:"type:uuid;index"`
	Title          string          `json:"title" gorm:"size:255;not null"`
	Description    string          `json:"description" gorm:"type:text"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(12,3);not null"`
	CampaignPrice  decimal.Decimal `json:"campaign_price" gorm:"type:decimal(12,3);default:0"`
	TargetQuantity int64           `json:"target_quantity" gorm:"default:0"`
	SoldQuantity   int64           `json:"sold_quantity" gorm:"default:0"`
	StockQuantity  int64           `json:"stock_quantity" gorm:"default:0"`
	Images         pq.StringArray  `json:"images" gorm:"type:text[]"`
	Status         ProductStatus   `json:"status" gorm:"type:varchar(20);default:'draft';index"`
}

func (p *Product) IsCampaignProduct() bool {
	return p.CampaignID != nil
}

// AvailableStock is target minus sold for campaign products and the plain
// stock counter otherwise.
func (p *Product) AvailableStock() int64 {
	if p.IsCampaignProduct() {
		if p.TargetQuantity <= p.SoldQuantity {
			return 0
		}
		return p.TargetQuantity - p.SoldQuantity
	}
	if p.StockQuantity < 0 {
		return 0
	}
	return p.StockQuantity
}

func (p *Product) UnitPrice() decimal.Decimal {
	if p.IsCampaignProduct() && p.CampaignPrice.IsPositive() {
		return p.CampaignPrice
	}
	return p.Price
}
