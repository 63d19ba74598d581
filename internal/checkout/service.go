package checkout

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

type subjectCatalog interface {
	GetRestomod(ctx context.Context, id uuid.UUID) (*models.Restomod, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*models.Package, error)
}

type orderLedger interface {
	CreatePending(ctx context.Context, input orders.CreatePendingInput) (*models.Order, error)
}

type eventApplier interface {
	HandleEvent(ctx context.Context, event *payment.Event) error
}

// CheckoutInput identifies what the buyer is purchasing.
type CheckoutInput struct {
	SubjectType enums.OrderSubjectType
	SubjectID   uuid.UUID
}

// CheckoutResult carries the session handle the frontend redirects to. Settled
// is true when the provider paid the session synchronously and the ledger has
// already been reconciled.
type CheckoutResult struct {
	Order      *models.Order
	SessionID  string
	SessionURL string
	Settled    bool
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	catalog  subjectCatalog
	ledger   orderLedger
	provider payment.Provider
	applier  eventApplier
	logg     *logger.Logger
	metrics  *metrics.PaymentMetrics
}

// NewService builds the checkout service. Metrics may be nil.
func NewService(
	catalog subjectCatalog,
	ledger orderLedger,
	provider payment.Provider,
	applier eventApplier,
	logg *logger.Logger,
	payMetrics *metrics.PaymentMetrics,
) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("order ledger required")
	}
	if provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if applier == nil {
		return nil, fmt.Errorf("event applier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		catalog:  catalog,
		ledger:   ledger,
		provider: provider,
		applier:  applier,
		logg:     logg,
		metrics:  payMetrics,
	}, nil
}

func (s *service) Execute(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if input.SubjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject id required")
	}

	subjectName, amountCents, currency, err := s.loadSubject(ctx, input)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateSession(ctx, payment.CreateSessionParams{
		SubjectName: subjectName,
		AmountCents: amountCents,
		Currency:    currency,
		BuyerRef:    buyerID.String(),
		Metadata: map[string]string{
			"subject_type": input.SubjectType.String(),
			"subject_id":   input.SubjectID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating checkout session")
	}

	order, err := s.ledger.CreatePending(ctx, orders.CreatePendingInput{
		BuyerID:         buyerID,
		SubjectType:     input.SubjectType,
		SubjectID:       input.SubjectID,
		SubjectName:     subjectName,
		AmountCents:     amountCents,
		Currency:        currency,
		StripeSessionID: session.ID,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSessionCreated(input.SubjectType.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   order.ID.String(),
		"session_id": session.ID,
		"subject":    input.SubjectType.String(),
	})
	s.logg.Info(logCtx, "checkout session created")

	result := &CheckoutResult{
		Order:      order,
		SessionID:  session.ID,
		SessionURL: session.URL,
	}

	// A synchronously settled session (the simulated provider) goes through
	// the same reconciliation path a webhook delivery would.
	if session.Paid {
		event := &payment.Event{
			ProviderEventID: "evt_sync_" + session.ID,
			Type:            payment.EventSessionCompleted,
			SessionID:       session.ID,
			BuyerRef:        buyerID.String(),
		}
		if err := s.applier.HandleEvent(ctx, event); err != nil {
			return nil, err
		}
		order.Status = enums.OrderStatusCompleted
		result.Settled = true
	}

	return result, nil
}

func (s *service) loadSubject(ctx context.Context, input CheckoutInput) (string, int, enums.Currency, error) {
	switch input.SubjectType {
	case enums.OrderSubjectRestomod:
		restomod, err := s.catalog.GetRestomod(ctx, input.SubjectID)
		if err != nil {
			return "", 0, "", err
		}
		if restomod.Availability != enums.AvailabilityAvailable {
			return "", 0, "", pkgerrors.New(pkgerrors.CodeConflict, "restomod is not available for purchase").
				WithDetails(map[string]string{"availability": restomod.Availability.String()})
		}
		return restomod.Name, restomod.PriceCents(), restomod.Currency, nil
	case enums.OrderSubjectPackage:
		pkg, err := s.catalog.GetPackage(ctx, input.SubjectID)
		if err != nil {
			return "", 0, "", err
		}
		if !pkg.IsActive {
			return "", 0, "", pkgerrors.New(pkgerrors.CodeConflict, "package is not purchasable")
		}
		return pkg.Name, pkg.PriceCents, pkg.Currency, nil
	default:
		return "", 0, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid subject type")
	}
}
