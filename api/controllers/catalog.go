package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/officinarestomod/marketplace-backend/api/responses"
	"github.com/officinarestomod/marketplace-backend/api/validators"
	"github.com/officinarestomod/marketplace-backend/internal/catalog"
	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
	pkgerrors "github.com/officinarestomod/marketplace-backend/pkg/errors"
	"github.com/officinarestomod/marketplace-backend/pkg/logger"
)

// ListRestomods returns the full catalog of listings.
func ListRestomods(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		restomods, err := svc.ListRestomods(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]RestomodResponse, 0, len(restomods))
		for i := range restomods {
			out = append(out, toRestomodResponse(&restomods[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// RestomodDetail returns a single listing. The path segment is either the
// listing id or its slug; public links use slugs.
func RestomodDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "restomodId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "restomod id is required"))
			return
		}

		var (
			restomod *models.Restomod
			err      error
		)
		if id, parseErr := uuid.Parse(raw); parseErr == nil {
			restomod, err = svc.GetRestomod(r.Context(), id)
		} else {
			restomod, err = svc.GetRestomodBySlug(r.Context(), raw)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRestomodResponse(restomod))
	}
}

// RestomodAvailability returns only the availability state of a listing.
func RestomodAvailability(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parseRestomodID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		availability, err := svc.GetAvailability(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"restomod_id":  id.String(),
			"availability": availability.String(),
		})
	}
}

type setAvailabilityRequest struct {
	Availability string `json:"availability" validate:"required,oneof=available reserved sold"`
}

// SetRestomodAvailability is the administrative override, including moving a
// sold listing back to available.
func SetRestomodAvailability(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parseRestomodID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		availability, err := enums.ParseAvailability(req.Availability)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid availability"))
			return
		}

		restomod, err := svc.SetAvailability(r.Context(), id, availability)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRestomodResponse(restomod))
	}
}

// ListPackages returns the active service packages.
func ListPackages(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		packages, err := svc.ListPackages(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]PackageResponse, 0, len(packages))
		for i := range packages {
			out = append(out, toPackageResponse(&packages[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func parseRestomodID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "restomodId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "restomod id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restomod id")
	}
	return id, nil
}
