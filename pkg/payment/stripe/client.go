package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/officinarestomod/marketplace-backend/pkg/config"
	"github.com/officinarestomod/marketplace-backend/pkg/logger"
	"github.com/officinarestomod/marketplace-backend/pkg/payment"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client implements payment.Provider on top of Stripe Checkout.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
	successURL    string
	cancelURL     string
}

var _ payment.Provider = (*Client)(nil)

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.PaymentsConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Env)
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:           stripe.NewClient(apiKey),
		environment:   env,
		signingSecret: signingSecret,
		successURL:    cfg.SuccessURL(),
		cancelURL:     cfg.CancelURL(),
	}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// CreateSession opens a Stripe Checkout session for a one-off payment.
func (c *Client) CreateSession(ctx context.Context, params payment.CreateSessionParams) (*payment.CheckoutSession, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if params.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", params.AmountCents)
	}

	createParams := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		ClientReferenceID: stripe.String(params.BuyerRef),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(params.Currency.String())),
					UnitAmount: stripe.Int64(int64(params.AmountCents)),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(params.SubjectName),
					},
				},
			},
		},
	}
	if len(params.Metadata) > 0 {
		createParams.Metadata = params.Metadata
	}

	session, err := c.api.V1CheckoutSessions.Create(ctx, createParams)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &payment.CheckoutSession{
		ID:   session.ID,
		URL:  session.URL,
		Paid: session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}

// VerifyAndParseEvent checks the Stripe-Signature header and maps checkout
// session events onto the neutral event shape. Everything else is (nil, nil).
func (c *Client) VerifyAndParseEvent(payload []byte, signature string) (*payment.Event, error) {
	if c == nil {
		return nil, errors.New("stripe client not initialized")
	}

	event, err := webhook.ConstructEvent(payload, signature, c.signingSecret)
	if err != nil {
		return nil, fmt.Errorf("verify signature: %w", err)
	}

	var eventType payment.EventType
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		eventType = payment.EventSessionCompleted
	case stripe.EventTypeCheckoutSessionExpired:
		eventType = payment.EventSessionExpired
	default:
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session event: %w", err)
	}

	return &payment.Event{
		ProviderEventID: event.ID,
		Type:            eventType,
		SessionID:       session.ID,
		BuyerRef:        session.ClientReferenceID,
		Metadata:        session.Metadata,
	}, nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
