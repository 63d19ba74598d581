package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/officinarestomod/marketplace-backend/api/middleware"
	"github.com/officinarestomod/marketplace-backend/api/responses"
	"github.com/officinarestomod/marketplace-backend/api/validators"
	"github.com/officinarestomod/marketplace-backend/internal/checkout"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
	pkgerrors "github.com/officinarestomod/marketplace-backend/pkg/errors"
	"github.com/officinarestomod/marketplace-backend/pkg/logger"
)

type checkoutRequest struct {
	SubjectType string `json:"subject_type" validate:"required,oneof=restomod package"`
	SubjectID   string `json:"subject_id" validate:"required,uuid4"`
}

type checkoutResponse struct {
	OrderID    string `json:"order_id"`
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
	Status     string `json:"status"`
	Settled    bool   `json:"settled"`
}

// Checkout opens a payment session for a restomod or a package.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subjectType, err := enums.ParseOrderSubjectType(req.SubjectType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subject type"))
			return
		}
		subjectID, err := uuid.Parse(req.SubjectID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subject id"))
			return
		}

		result, err := svc.Execute(r.Context(), buyerID, checkout.CheckoutInput{
			SubjectType: subjectType,
			SubjectID:   subjectID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:    result.Order.ID.String(),
			SessionID:  result.SessionID,
			SessionURL: result.SessionURL,
			Status:     result.Order.Status.String(),
			Settled:    result.Settled,
		})
	}
}
