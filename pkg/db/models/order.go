package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/officinarestomod/marketplace-backend/pkg/enums"
)

// Order is the ledger entry for a single purchase attempt, keyed by the payment
// provider's checkout session id. Rows are append-only: status moves along the
// transition table and nothing else is ever mutated.
type Order struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID         uuid.UUID              `gorm:"column:buyer_id;type:uuid;not null"`
	Buyer           *User                  `gorm:"foreignKey:BuyerID"`
	SubjectType     enums.OrderSubjectType `gorm:"column:subject_type;type:order_subject_enum;not null"`
	SubjectID       uuid.UUID              `gorm:"column:subject_id;type:uuid;not null"`
	SubjectName     string                 `gorm:"column:subject_name;not null"`
	AmountCents     int                    `gorm:"column:amount_cents;not null"`
	Currency        enums.Currency         `gorm:"column:currency;not null"`
	StripeSessionID string                 `gorm:"column:stripe_session_id;not null;uniqueIndex:uq_orders_stripe_session_id"`
	Status          enums.OrderStatus      `gorm:"column:status;type:order_status_enum;not null;default:pending"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
