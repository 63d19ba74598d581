package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/officinarestomod/marketplace-backend/pkg/enums"
)

// Restomod represents a sellable vehicle listing. A restomod is one-of-a-kind,
// so availability is the whole inventory story: available, reserved, or sold.
type Restomod struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string             `gorm:"column:name;not null"`
	Slug         string             `gorm:"column:slug;not null;uniqueIndex"`
	Description  *string            `gorm:"column:description"`
	Make         string             `gorm:"column:make;not null"`
	Model        string             `gorm:"column:model;not null"`
	Year         int                `gorm:"column:year;not null"`
	Price        decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	Currency     enums.Currency     `gorm:"column:currency;not null;default:EUR"`
	Availability enums.Availability `gorm:"column:availability;type:availability_enum;not null;default:available"`
	Features     pq.StringArray     `gorm:"column:features;type:text[]"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// PriceCents converts the listing price into the integer amount charged at checkout.
func (r Restomod) PriceCents() int {
	return int(r.Price.Mul(decimal.NewFromInt(100)).IntPart())
}
