package reconciler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/officinarestomod/marketplace-backend/internal/orders"
	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
	pkgerrors "github.com/officinarestomod/marketplace-backend/pkg/errors"
	"github.com/officinarestomod/marketplace-backend/pkg/logger"
	"github.com/officinarestomod/marketplace-backend/pkg/metrics"
	"github.com/officinarestomod/marketplace-backend/pkg/payment"
)

type orderLedger interface {
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*orders.TransitionResult, error)
}

type catalogLocker interface {
	MarkSold(ctx context.Context, id uuid.UUID) error
}

// Service applies verified payment events to the order ledger and, for
// restomod purchases, locks the catalog item. Both the checkout flow (for
// synchronously settled sessions) and the webhook endpoint feed it.
type Service struct {
	ledger  orderLedger
	catalog catalogLocker
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
}

// NewService builds a reconciler with the required dependencies. Metrics may
// be nil; the counters degrade to no-ops.
func NewService(ledger orderLedger, catalog catalogLocker, logg *logger.Logger, payMetrics *metrics.PaymentMetrics) (*Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("order ledger required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog locker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		ledger:  ledger,
		catalog: catalog,
		logg:    logg,
		metrics: payMetrics,
	}, nil
}

// HandleEvent applies one event. A nil event (a delivery the provider mapping
// does not care about) and an event for an unknown session both resolve to a
// nil error so the caller acknowledges the delivery; the provider must never
// retry what we cannot act on.
func (s *Service) HandleEvent(ctx context.Context, event *payment.Event) error {
	if event == nil {
		return nil
	}
	if !event.Type.IsTerminalTrigger() {
		return nil
	}

	s.metrics.IncReceived(event.Type.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ProviderEventID,
		"event_type": event.Type.String(),
		"session_id": event.SessionID,
	})

	order, err := s.ledger.FindBySessionID(ctx, event.SessionID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			s.metrics.IncDropped(event.Type.String())
			s.logg.Warn(logCtx, "payment event for unknown session dropped")
			return nil
		}
		return err
	}

	target := enums.OrderStatusCancelled
	if event.Type == payment.EventSessionCompleted {
		target = enums.OrderStatusCompleted
	}

	result, err := s.ledger.Transition(ctx, order.ID, target)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			// The order already settled another way (for example a refund
			// landed before a late completed delivery). The ledger row is the
			// truth; the stale event is acknowledged and forgotten.
			s.metrics.IncReplayed(event.Type.String())
			s.logg.Warn(logCtx, "payment event ignored, order already terminal")
			return nil
		}
		return err
	}

	if target == enums.OrderStatusCompleted && result.Order.SubjectType == enums.OrderSubjectRestomod {
		// The lock runs on replays too: if an earlier delivery settled the
		// ledger but died before locking the catalog, the provider's retry is
		// the only chance to repair it. MarkSold absorbs the duplicate.
		if err := s.catalog.MarkSold(ctx, result.Order.SubjectID); err != nil {
			return err
		}
	}

	if result.Replayed {
		s.metrics.IncReplayed(event.Type.String())
		s.logg.Info(logCtx, "duplicate payment event absorbed")
		return nil
	}

	s.metrics.IncApplied(event.Type.String())
	s.logg.Info(s.logg.WithOrderID(logCtx, result.Order.ID.String()), "payment event applied")
	return nil
}
