package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/officinarestomod/marketplace-backend/api/responses"
	pkgerrors "github.com/officinarestomod/marketplace-backend/pkg/errors"
	"github.com/officinarestomod/marketplace-backend/pkg/logger"
	"github.com/officinarestomod/marketplace-backend/pkg/payment"
)

// SignatureHeader carries the provider's payload signature.
const SignatureHeader = "Stripe-Signature"

type eventApplier interface {
	HandleEvent(ctx context.Context, event *payment.Event) error
}

type eventVerifier interface {
	VerifyAndParseEvent(payload []byte, signature string) (*payment.Event, error)
}

type deliveryGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// PaymentWebhook handles checkout session lifecycle deliveries from the
// payment provider. Unverifiable payloads are rejected; verified events the
// platform does not act on are acknowledged so the provider stops resending
// them.
func PaymentWebhook(svc eventApplier, provider eventVerifier, guard deliveryGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if provider == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment provider unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(SignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payload signature missing"))
			return
		}

		event, err := provider.VerifyAndParseEvent(payload, signature)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify payload signature"))
			return
		}
		if event == nil {
			// Verified but irrelevant to the ledger.
			responses.WriteSuccess(w, nil)
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ProviderEventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			if logg != nil {
				logCtx := logg.WithField(ctx, "event_id", event.ProviderEventID)
				logg.Info(logCtx, "duplicate webhook delivery suppressed")
			}
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			// Release the claim so the provider's retry gets another attempt.
			_ = guard.Delete(ctx, event.ProviderEventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
