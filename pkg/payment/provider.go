package payment

import (
	"context"

	"github.com/officinarestomod/marketplace-backend/pkg/enums"
)

// EventType identifies the provider-neutral checkout session events the
// reconciler understands.
type EventType string

const (
	EventSessionCompleted EventType = "session.completed"
	EventSessionExpired   EventType = "session.expired"
	EventSessionCancelled EventType = "session.cancelled"
)

// String implements fmt.Stringer.
func (t EventType) String() string {
	return string(t)
}

// IsTerminalTrigger reports whether the event drives a session to a terminal state.
func (t EventType) IsTerminalTrigger() bool {
	switch t {
	case EventSessionCompleted, EventSessionExpired, EventSessionCancelled:
		return true
	default:
		return false
	}
}

// Event is a transient, verified payment-provider notification. It is never
// persisted; the ledger row it refers to is the durable record.
type Event struct {
	// ProviderEventID is the provider's delivery id, used for replay suppression.
	ProviderEventID string
	Type            EventType
	SessionID       string
	BuyerRef        string
	Metadata        map[string]string
}

// CheckoutSession is the provider's answer to a session creation request.
type CheckoutSession struct {
	ID  string
	URL string
	// Paid is true when the provider settled the session synchronously (the
	// simulated provider does). The webhook flow leaves it false.
	Paid bool
}

// CreateSessionParams carries everything a provider needs to open a session.
type CreateSessionParams struct {
	SubjectName string
	AmountCents int
	Currency    enums.Currency
	BuyerRef    string
	Metadata    map[string]string
}

// Provider is the payment collaborator consumed by checkout and webhook
// handling. The implementation is chosen once at process start; nothing in the
// business logic branches on which one is wired.
type Provider interface {
	CreateSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error)
	// VerifyAndParseEvent authenticates a raw webhook delivery and maps it to a
	// neutral Event. Events the platform does not care about come back as
	// (nil, nil) so callers can acknowledge them without acting.
	VerifyAndParseEvent(payload []byte, signature string) (*Event, error)
}
