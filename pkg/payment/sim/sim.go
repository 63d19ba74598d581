package sim

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/officinarestomod/marketplace-backend/pkg/config"
	"github.com/officinarestomod/marketplace-backend/pkg/payment"
)

const sessionIDPrefix = "cs_sim_"

var errSecretRequired = errors.New("simulated provider requires a signing secret")

// Client is the simulated payment provider used for local development and demo
// environments. Sessions it creates come back already paid, so checkout can
// settle the order in the same request instead of waiting for a webhook.
type Client struct {
	signingSecret []byte
	successURL    string
}

var _ payment.Provider = (*Client)(nil)

// NewClient builds a simulated provider. The secret still matters: the webhook
// endpoint stays exercisable against this provider with HMAC-signed payloads.
func NewClient(cfg config.PaymentsConfig) (*Client, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errSecretRequired
	}
	return &Client{
		signingSecret: []byte(secret),
		successURL:    cfg.SuccessURL(),
	}, nil
}

// CreateSession mints a synthetic, already-settled checkout session.
func (c *Client) CreateSession(_ context.Context, params payment.CreateSessionParams) (*payment.CheckoutSession, error) {
	if c == nil {
		return nil, errors.New("simulated client not initialized")
	}
	if params.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", params.AmountCents)
	}

	id := sessionIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	return &payment.CheckoutSession{
		ID:   id,
		URL:  strings.Replace(c.successURL, "{CHECKOUT_SESSION_ID}", id, 1),
		Paid: true,
	}, nil
}

// simulatedEvent is the wire shape accepted on the webhook endpoint when the
// simulated provider is configured.
type simulatedEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	SessionID string            `json:"session_id"`
	BuyerRef  string            `json:"client_reference_id"`
	Metadata  map[string]string `json:"metadata"`
}

// VerifyAndParseEvent checks a hex-encoded HMAC-SHA256 signature over the raw
// payload and decodes the simulated event envelope. Unknown event types are
// acknowledged as (nil, nil), matching the Stripe client.
func (c *Client) VerifyAndParseEvent(payload []byte, signature string) (*payment.Event, error) {
	if c == nil {
		return nil, errors.New("simulated client not initialized")
	}

	if err := c.verifySignature(payload, signature); err != nil {
		return nil, err
	}

	var raw simulatedEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode simulated event: %w", err)
	}

	eventType := payment.EventType(raw.Type)
	switch eventType {
	case payment.EventSessionCompleted, payment.EventSessionExpired, payment.EventSessionCancelled:
	default:
		return nil, nil
	}

	if raw.SessionID == "" {
		return nil, errors.New("simulated event is missing session_id")
	}

	eventID := raw.ID
	if eventID == "" {
		eventID = "evt_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	return &payment.Event{
		ProviderEventID: eventID,
		Type:            eventType,
		SessionID:       raw.SessionID,
		BuyerRef:        raw.BuyerRef,
		Metadata:        raw.Metadata,
	}, nil
}

// Sign produces the signature header value for a payload. Test helpers and the
// local event injector use it to author deliveries the client will accept.
func (c *Client) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, c.signingSecret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) verifySignature(payload []byte, signature string) error {
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return fmt.Errorf("verify signature: malformed signature: %w", err)
	}

	mac := hmac.New(sha256.New, c.signingSecret)
	mac.Write(payload)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return errors.New("verify signature: signature mismatch")
	}
	return nil
}
