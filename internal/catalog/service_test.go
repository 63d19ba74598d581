package catalog

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
	pkgerrors "github.com/officinarestomod/marketplace-backend/pkg/errors"
	"github.com/officinarestomod/marketplace-backend/pkg/logger"
)

type fakeCatalogRepo struct {
	restomods map[uuid.UUID]*models.Restomod
	packages  map[uuid.UUID]*models.Package

	markSoldCalls int
	failMarkSold  error
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		restomods: map[uuid.UUID]*models.Restomod{},
		packages:  map[uuid.UUID]*models.Package{},
	}
}

func (f *fakeCatalogRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeCatalogRepo) FindRestomodByID(_ context.Context, id uuid.UUID) (*models.Restomod, error) {
	if restomod, ok := f.restomods[id]; ok {
		copied := *restomod
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepo) FindRestomodBySlug(_ context.Context, slug string) (*models.Restomod, error) {
	for _, restomod := range f.restomods {
		if restomod.Slug == slug {
			copied := *restomod
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepo) ListRestomods(_ context.Context) ([]models.Restomod, error) {
	out := make([]models.Restomod, 0, len(f.restomods))
	for _, restomod := range f.restomods {
		out = append(out, *restomod)
	}
	return out, nil
}

func (f *fakeCatalogRepo) MarkRestomodSold(_ context.Context, id uuid.UUID) (bool, error) {
	f.markSoldCalls++
	if f.failMarkSold != nil {
		return false, f.failMarkSold
	}
	restomod, ok := f.restomods[id]
	if !ok || restomod.Availability == enums.AvailabilitySold {
		return false, nil
	}
	restomod.Availability = enums.AvailabilitySold
	return true, nil
}

func (f *fakeCatalogRepo) UpdateRestomodAvailability(_ context.Context, id uuid.UUID, availability enums.Availability) error {
	restomod, ok := f.restomods[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	restomod.Availability = availability
	return nil
}

func (f *fakeCatalogRepo) FindPackageByID(_ context.Context, id uuid.UUID) (*models.Package, error) {
	if pkg, ok := f.packages[id]; ok {
		copied := *pkg
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepo) ListPackages(_ context.Context, activeOnly bool) ([]models.Package, error) {
	out := make([]models.Package, 0, len(f.packages))
	for _, pkg := range f.packages {
		if activeOnly && !pkg.IsActive {
			continue
		}
		out = append(out, *pkg)
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "catalog-test", Output: io.Discard})
}

func newCatalogService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)
	return svc
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(nil, testLogger())
	assert.Error(t, err)

	_, err = NewService(newFakeCatalogRepo(), nil)
	assert.Error(t, err)
}

func TestMarkSold(t *testing.T) {
	ctx := context.Background()

	t.Run("marks an available restomod", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		id := uuid.New()
		repo.restomods[id] = &models.Restomod{ID: id, Availability: enums.AvailabilityAvailable}
		svc := newCatalogService(t, repo)

		require.NoError(t, svc.MarkSold(ctx, id))
		assert.Equal(t, enums.AvailabilitySold, repo.restomods[id].Availability)
	})

	t.Run("already sold is a no-op success", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		id := uuid.New()
		repo.restomods[id] = &models.Restomod{ID: id, Availability: enums.AvailabilitySold}
		svc := newCatalogService(t, repo)

		require.NoError(t, svc.MarkSold(ctx, id))
		require.NoError(t, svc.MarkSold(ctx, id))
		assert.Equal(t, 2, repo.markSoldCalls)
	})

	t.Run("unknown restomod is not found", func(t *testing.T) {
		svc := newCatalogService(t, newFakeCatalogRepo())

		err := svc.MarkSold(ctx, uuid.New())
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func TestSetAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("admin override reverts sold", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		id := uuid.New()
		repo.restomods[id] = &models.Restomod{ID: id, Availability: enums.AvailabilitySold}
		svc := newCatalogService(t, repo)

		updated, err := svc.SetAvailability(ctx, id, enums.AvailabilityAvailable)
		require.NoError(t, err)
		assert.Equal(t, enums.AvailabilityAvailable, updated.Availability)
	})

	t.Run("rejects unknown availability value", func(t *testing.T) {
		svc := newCatalogService(t, newFakeCatalogRepo())

		_, err := svc.SetAvailability(ctx, uuid.New(), enums.Availability("archived"))
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("unknown restomod is not found", func(t *testing.T) {
		svc := newCatalogService(t, newFakeCatalogRepo())

		_, err := svc.SetAvailability(ctx, uuid.New(), enums.AvailabilityReserved)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func TestGetAvailability(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCatalogRepo()
	id := uuid.New()
	repo.restomods[id] = &models.Restomod{ID: id, Availability: enums.AvailabilityReserved}
	svc := newCatalogService(t, repo)

	availability, err := svc.GetAvailability(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.AvailabilityReserved, availability)

	_, err = svc.GetAvailability(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
