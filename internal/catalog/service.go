package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
	pkgerrors "github.com/officinarestomod/marketplace-backend/pkg/errors"
	"github.com/officinarestomod/marketplace-backend/pkg/logger"
)

// Service exposes catalog reads plus the availability lock operations.
type Service interface {
	GetRestomod(ctx context.Context, id uuid.UUID) (*models.Restomod, error)
	GetRestomodBySlug(ctx context.Context, slug string) (*models.Restomod, error)
	ListRestomods(ctx context.Context) ([]models.Restomod, error)
	GetAvailability(ctx context.Context, id uuid.UUID) (enums.Availability, error)
	// SetAvailability is the administrative override. It accepts any valid
	// target, including moving a sold restomod back to available; nothing else
	// in the system ever reverts sold.
	SetAvailability(ctx context.Context, id uuid.UUID, availability enums.Availability) (*models.Restomod, error)
	// MarkSold locks a restomod after a settled purchase. Calling it on an
	// already-sold restomod is a no-op success.
	MarkSold(ctx context.Context, id uuid.UUID) error
	GetPackage(ctx context.Context, id uuid.UUID) (*models.Package, error)
	ListPackages(ctx context.Context) ([]models.Package, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) GetRestomod(ctx context.Context, id uuid.UUID) (*models.Restomod, error) {
	restomod, err := s.repo.FindRestomodByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restomod not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restomod")
	}
	return restomod, nil
}

func (s *service) GetRestomodBySlug(ctx context.Context, slug string) (*models.Restomod, error) {
	restomod, err := s.repo.FindRestomodBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restomod not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restomod")
	}
	return restomod, nil
}

func (s *service) ListRestomods(ctx context.Context) ([]models.Restomod, error) {
	restomods, err := s.repo.ListRestomods(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing restomods")
	}
	return restomods, nil
}

func (s *service) GetAvailability(ctx context.Context, id uuid.UUID) (enums.Availability, error) {
	restomod, err := s.GetRestomod(ctx, id)
	if err != nil {
		return "", err
	}
	return restomod.Availability, nil
}

func (s *service) SetAvailability(ctx context.Context, id uuid.UUID, availability enums.Availability) (*models.Restomod, error) {
	if !availability.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid availability value").
			WithDetails(map[string]string{"availability": availability.String()})
	}

	if err := s.repo.UpdateRestomodAvailability(ctx, id, availability); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restomod not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating restomod availability")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"restomod_id":  id.String(),
		"availability": availability.String(),
	})
	s.logg.Info(logCtx, "restomod availability overridden")

	return s.GetRestomod(ctx, id)
}

func (s *service) MarkSold(ctx context.Context, id uuid.UUID) error {
	changed, err := s.repo.MarkRestomodSold(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking restomod sold")
	}
	if changed {
		s.logg.Info(s.logg.WithField(ctx, "restomod_id", id.String()), "restomod marked sold")
		return nil
	}

	// Conditional update matched nothing: either the restomod does not exist
	// or it was already sold. Only the former is an error.
	restomod, err := s.repo.FindRestomodByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "restomod not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restomod after sold check")
	}
	if restomod.Availability != enums.AvailabilitySold {
		return pkgerrors.New(pkgerrors.CodeInternal, "restomod sold update matched no row")
	}

	s.logg.Info(s.logg.WithField(ctx, "restomod_id", id.String()), "restomod already sold, mark ignored")
	return nil
}

func (s *service) GetPackage(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	pkg, err := s.repo.FindPackageByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading package")
	}
	return pkg, nil
}

func (s *service) ListPackages(ctx context.Context) ([]models.Package, error) {
	packages, err := s.repo.ListPackages(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing packages")
	}
	return packages, nil
}
