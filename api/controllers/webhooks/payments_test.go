package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/officinarestomod/marketplace-backend/internal/reconciler"
	"github.com/officinarestomod/marketplace-backend/pkg/config"
	"github.com/officinarestomod/marketplace-backend/pkg/payment"
	"github.com/officinarestomod/marketplace-backend/pkg/payment/sim"
)

func newSimProvider(t *testing.T) *sim.Client {
	t.Helper()
	client, err := sim.NewClient(config.PaymentsConfig{
		Mode:        config.PaymentsModeSimulated,
		Secret:      "whsec_test",
		FrontendURL: "https://restomod.example.com",
	})
	if err != nil {
		t.Fatalf("sim client setup: %v", err)
	}
	return client
}

func newGuard(t *testing.T) *reconciler.IdempotencyGuard {
	t.Helper()
	guard, err := reconciler.NewIdempotencyGuard(newInMemoryStore(), time.Minute, "payments")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

func signedEvent(t *testing.T, provider *sim.Client, eventType string) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":                  "evt_" + uuid.NewString(),
		"type":                eventType,
		"session_id":          "cs_sim_" + uuid.NewString(),
		"client_reference_id": uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload, provider.Sign(payload)
}

func postWebhook(handler http.HandlerFunc, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPaymentWebhook_SuccessAndIdempotent(t *testing.T) {
	provider := newSimProvider(t)
	applier := &fakeEventApplier{}
	handler := PaymentWebhook(applier, provider, newGuard(t), nil)

	payload, signature := signedEvent(t, provider, "session.completed")

	rec := postWebhook(handler, payload, signature)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(applier.events) != 1 {
		t.Fatalf("expected one applied event, got %d", len(applier.events))
	}
	if applier.events[0].Type != payment.EventSessionCompleted {
		t.Fatalf("unexpected event type %q", applier.events[0].Type)
	}

	// Same delivery again: acknowledged, not reprocessed.
	rec2 := postWebhook(handler, payload, signature)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if len(applier.events) != 1 {
		t.Fatalf("expected duplicate suppressed, got %d applied events", len(applier.events))
	}
}

func TestPaymentWebhook_InvalidSignature(t *testing.T) {
	provider := newSimProvider(t)
	applier := &fakeEventApplier{}
	handler := PaymentWebhook(applier, provider, newGuard(t), nil)

	payload, _ := signedEvent(t, provider, "session.completed")

	rec := postWebhook(handler, payload, "deadbeef")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(applier.events) != 0 {
		t.Fatalf("applier should not run on signature failure")
	}
}

func TestPaymentWebhook_MissingSignature(t *testing.T) {
	provider := newSimProvider(t)
	applier := &fakeEventApplier{}
	handler := PaymentWebhook(applier, provider, newGuard(t), nil)

	payload, _ := signedEvent(t, provider, "session.completed")

	rec := postWebhook(handler, payload, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing signature, got %d", rec.Code)
	}
}

func TestPaymentWebhook_IrrelevantEventAcked(t *testing.T) {
	provider := newSimProvider(t)
	applier := &fakeEventApplier{}
	handler := PaymentWebhook(applier, provider, newGuard(t), nil)

	payload, signature := signedEvent(t, provider, "payment_intent.created")

	rec := postWebhook(handler, payload, signature)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for irrelevant event, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(applier.events) != 0 {
		t.Fatalf("irrelevant event should not reach the applier")
	}
}

func TestPaymentWebhook_ApplierFailureReleasesClaim(t *testing.T) {
	provider := newSimProvider(t)
	applier := &fakeEventApplier{failures: 1}
	handler := PaymentWebhook(applier, provider, newGuard(t), nil)

	payload, signature := signedEvent(t, provider, "session.completed")

	rec := postWebhook(handler, payload, signature)
	if rec.Code == http.StatusOK {
		t.Fatalf("expected failure status, got 200")
	}

	// The retry must get through: the first attempt released its claim.
	rec2 := postWebhook(handler, payload, signature)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on retry, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if len(applier.events) != 1 {
		t.Fatalf("expected retry to apply the event once, got %d", len(applier.events))
	}
}

type fakeEventApplier struct {
	events   []*payment.Event
	failures int
}

func (f *fakeEventApplier) HandleEvent(_ context.Context, event *payment.Event) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("ledger write failed")
	}
	f.events = append(f.events, event)
	return nil
}

type inMemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{values: map[string]string{}}
}

func (s *inMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *inMemoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = "1"
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}
