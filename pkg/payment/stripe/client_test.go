package stripe

import (
	"context"
	"testing"

	"github.com/officinarestomod/marketplace-backend/pkg/config"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
	"github.com/officinarestomod/marketplace-backend/pkg/payment"
)

func baseConfig() config.PaymentsConfig {
	return config.PaymentsConfig{
		Mode:        config.PaymentsModeStripe,
		APIKey:      "sk_test_123",
		Secret:      "whsec_123",
		Env:         "test",
		FrontendURL: "https://shop.example.com",
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.PaymentsConfig)
		wantErr bool
	}{
		{"valid test key", func(c *config.PaymentsConfig) {}, false},
		{"missing api key", func(c *config.PaymentsConfig) { c.APIKey = "" }, true},
		{"missing webhook secret", func(c *config.PaymentsConfig) { c.Secret = "" }, true},
		{"live env with test key", func(c *config.PaymentsConfig) { c.Env = "live" }, true},
		{"unknown env", func(c *config.PaymentsConfig) { c.Env = "staging" }, true},
		{"live env with live key", func(c *config.PaymentsConfig) {
			c.Env = "live"
			c.APIKey = "sk_live_123"
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			client, err := NewClient(context.Background(), cfg, nil)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.SigningSecret() != cfg.Secret {
				t.Fatalf("signing secret not retained")
			}
		})
	}
}

func TestCreateSessionRejectsNonPositiveAmount(t *testing.T) {
	client, err := NewClient(context.Background(), baseConfig(), nil)
	if err != nil {
		t.Fatalf("client setup: %v", err)
	}
	params := payment.CreateSessionParams{
		SubjectName: "1967 Mustang Fastback",
		AmountCents: 0,
		Currency:    enums.CurrencyEUR,
		BuyerRef:    "buyer-1",
	}
	if _, err := client.CreateSession(context.Background(), params); err == nil {
		t.Fatal("expected zero amount to be rejected")
	}
}

func TestVerifyAndParseEventRejectsBadSignature(t *testing.T) {
	client, err := NewClient(context.Background(), baseConfig(), nil)
	if err != nil {
		t.Fatalf("client setup: %v", err)
	}
	if _, err := client.VerifyAndParseEvent([]byte(`{"type":"checkout.session.completed"}`), "t=1,v1=bad"); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}
