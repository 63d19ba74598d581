package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/officinarestomod/marketplace-backend/pkg/enums"
)

// Package is a purchasable service offering (e.g. a restoration consultation
// bundle). Unlike restomods, packages can be sold any number of times.
type Package struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string         `gorm:"column:name;not null"`
	Description     *string        `gorm:"column:description"`
	PriceCents      int            `gorm:"column:price_cents;not null"`
	Currency        enums.Currency `gorm:"column:currency;not null;default:EUR"`
	Features        pq.StringArray `gorm:"column:features;type:text[]"`
	IsActive        bool           `gorm:"column:is_active;not null"`
	StripeProductID *string        `gorm:"column:stripe_product_id"`
	StripePriceID   *string        `gorm:"column:stripe_price_id"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
