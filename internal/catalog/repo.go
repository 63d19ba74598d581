package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindRestomodByID(ctx context.Context, id uuid.UUID) (*models.Restomod, error) {
	var restomod models.Restomod
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&restomod).Error
	if err != nil {
		return nil, err
	}
	return &restomod, nil
}

func (r *repository) FindRestomodBySlug(ctx context.Context, slug string) (*models.Restomod, error) {
	var restomod models.Restomod
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&restomod).Error
	if err != nil {
		return nil, err
	}
	return &restomod, nil
}

func (r *repository) ListRestomods(ctx context.Context) ([]models.Restomod, error) {
	var restomods []models.Restomod
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&restomods).Error
	if err != nil {
		return nil, err
	}
	return restomods, nil
}

func (r *repository) MarkRestomodSold(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Restomod{}).
		Where("id = ? AND availability <> ?", id, enums.AvailabilitySold).
		Update("availability", enums.AvailabilitySold)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) UpdateRestomodAvailability(ctx context.Context, id uuid.UUID, availability enums.Availability) error {
	result := r.db.WithContext(ctx).
		Model(&models.Restomod{}).
		Where("id = ?", id).
		Update("availability", availability)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindPackageByID(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	var pkg models.Package
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&pkg).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *repository) ListPackages(ctx context.Context, activeOnly bool) ([]models.Package, error) {
	query := r.db.WithContext(ctx).Order("price_cents ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var packages []models.Package
	if err := query.Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}
