package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
)

// Repository defines persistence operations for restomods and packages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRestomodByID(ctx context.Context, id uuid.UUID) (*models.Restomod, error)
	FindRestomodBySlug(ctx context.Context, slug string) (*models.Restomod, error)
	ListRestomods(ctx context.Context) ([]models.Restomod, error)
	// MarkRestomodSold flips availability to sold unless it already is. The
	// update is conditional at the database so concurrent writers cannot both
	// claim the flip; it reports whether this call changed the row.
	MarkRestomodSold(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateRestomodAvailability(ctx context.Context, id uuid.UUID, availability enums.Availability) error
	FindPackageByID(ctx context.Context, id uuid.UUID) (*models.Package, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]models.Package, error)
}
