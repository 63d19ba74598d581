package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/officinarestomod/marketplace-backend/pkg/db"
	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
	pkgerrors "github.com/officinarestomod/marketplace-backend/pkg/errors"
	"github.com/officinarestomod/marketplace-backend/pkg/logger"
	"github.com/officinarestomod/marketplace-backend/pkg/pagination"
)

// sessionIDConstraint is the unique index guarding one ledger row per session.
const sessionIDConstraint = "uq_orders_stripe_session_id"

// allowedSources maps a target status to the set of statuses it may be reached
// from. Statuses absent as sources are terminal for that edge.
var allowedSources = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusCompleted: {enums.OrderStatusPending},
	enums.OrderStatusCancelled: {enums.OrderStatusPending},
	enums.OrderStatusRefunded:  {enums.OrderStatusCompleted},
}

// Service exposes ledger operations for checkout, webhook handling, and the
// admin surface.
type Service interface {
	// CreatePending opens the ledger row for a new checkout session. A second
	// row for the same session id is an invariant breach, not a user error.
	CreatePending(ctx context.Context, input CreatePendingInput) (*models.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	// GetForBuyer loads an order only when it belongs to the buyer.
	GetForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	// Transition moves an order along the status table. Reaching a state the
	// order is already in resolves as a replay, not a failure.
	Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*TransitionResult, error)
	// Refund is the administrative completed-to-refunded edge.
	Refund(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds an order ledger service with the required dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) CreatePending(ctx context.Context, input CreatePendingInput) (*models.Order, error) {
	if strings.TrimSpace(input.StripeSessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	if !input.SubjectType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order subject type")
	}

	order := &models.Order{
		ID:              uuid.New(),
		BuyerID:         input.BuyerID,
		SubjectType:     input.SubjectType,
		SubjectID:       input.SubjectID,
		SubjectName:     input.SubjectName,
		AmountCents:     input.AmountCents,
		Currency:        input.Currency,
		StripeSessionID: input.StripeSessionID,
		Status:          enums.OrderStatusPending,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		if db.IsUniqueViolation(err, sessionIDConstraint) {
			// Session ids come from the payment provider and are unique by
			// contract; a collision means something upstream went badly wrong.
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout session already recorded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating pending order")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   created.ID.String(),
		"session_id": created.StripeSessionID,
	})
	s.logg.Info(logCtx, "pending order recorded")
	return created, nil
}

func (s *service) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	order, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order by session")
	}
	return order, nil
}

func (s *service) GetForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	// Hide other buyers' orders instead of revealing they exist.
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListForBuyer(ctx, buyerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing buyer orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return list, nil
}

func (s *service) Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*TransitionResult, error) {
	sources, ok := allowedSources[target]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no transition reaches the requested status").
			WithDetails(map[string]string{"target": target.String()})
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order for transition")
	}

	if order.Status == target {
		return &TransitionResult{Order: order, Replayed: true}, nil
	}

	if !containsStatus(sources, order.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed from current status").
			WithDetails(map[string]string{
				"from": order.Status.String(),
				"to":   target.String(),
			})
	}

	changed, err := s.repo.UpdateStatus(ctx, orderID, order.Status, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	if changed {
		order.Status = target
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"status":   target.String(),
		})
		s.logg.Info(logCtx, "order status transitioned")
		return &TransitionResult{Order: order}, nil
	}

	// A concurrent writer moved the row first. Re-read to decide whether that
	// writer applied the same transition.
	current, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "re-reading order after contended transition")
	}
	if current.Status == target {
		return &TransitionResult{Order: current, Replayed: true}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed from current status").
		WithDetails(map[string]string{
			"from": current.Status.String(),
			"to":   target.String(),
		})
}

func (s *service) Refund(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	result, err := s.Transition(ctx, orderID, enums.OrderStatusRefunded)
	if err != nil {
		return nil, err
	}
	if result.Replayed {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order already refunded, request ignored")
	}
	return result.Order, nil
}

func containsStatus(statuses []enums.OrderStatus, status enums.OrderStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
