package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/officinarestomod/marketplace-backend/pkg/enums"
)

// User is the principal behind access tokens and order ownership.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Email     string         `gorm:"column:email;not null;uniqueIndex"`
	Role      enums.UserRole `gorm:"column:role;type:user_role_enum;not null;default:buyer"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
