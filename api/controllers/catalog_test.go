package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
)

type stubCatalogService struct {
	getRestomodFn       func(ctx context.Context, id uuid.UUID) (*models.Restomod, error)
	getRestomodBySlugFn func(ctx context.Context, slug string) (*models.Restomod, error)
	listRestomodsFn     func(ctx context.Context) ([]models.Restomod, error)
	getAvailabilityFn   func(ctx context.Context, id uuid.UUID) (enums.Availability, error)
	setAvailabilityFn   func(ctx context.Context, id uuid.UUID, availability enums.Availability) (*models.Restomod, error)
	listPackagesFn      func(ctx context.Context) ([]models.Package, error)
}

func (s stubCatalogService) GetRestomod(ctx context.Context, id uuid.UUID) (*models.Restomod, error) {
	return s.getRestomodFn(ctx, id)
}

func (s stubCatalogService) GetRestomodBySlug(ctx context.Context, slug string) (*models.Restomod, error) {
	return s.getRestomodBySlugFn(ctx, slug)
}

func (s stubCatalogService) ListRestomods(ctx context.Context) ([]models.Restomod, error) {
	return s.listRestomodsFn(ctx)
}

func (s stubCatalogService) GetAvailability(ctx context.Context, id uuid.UUID) (enums.Availability, error) {
	return s.getAvailabilityFn(ctx, id)
}

func (s stubCatalogService) SetAvailability(ctx context.Context, id uuid.UUID, availability enums.Availability) (*models.Restomod, error) {
	return s.setAvailabilityFn(ctx, id, availability)
}

func (s stubCatalogService) MarkSold(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s stubCatalogService) GetPackage(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	return nil, nil
}

func (s stubCatalogService) ListPackages(ctx context.Context) ([]models.Package, error) {
	return s.listPackagesFn(ctx)
}

func withRestomodID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("restomodId", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sampleRestomod(availability enums.Availability) models.Restomod {
	return models.Restomod{
		ID:           uuid.New(),
		Name:         "Alfa Romeo Giulia Sprint GT",
		Slug:         "alfa-romeo-giulia-sprint-gt",
		Make:         "Alfa Romeo",
		Model:        "Giulia Sprint GT",
		Year:         1965,
		Price:        decimal.NewFromInt(145000),
		Currency:     enums.CurrencyEUR,
		Availability: availability,
	}
}

func TestRestomodAvailability(t *testing.T) {
	restomod := sampleRestomod(enums.AvailabilityReserved)
	svc := stubCatalogService{
		getAvailabilityFn: func(ctx context.Context, id uuid.UUID) (enums.Availability, error) {
			if id != restomod.ID {
				t.Fatalf("unexpected id %s", id)
			}
			return restomod.Availability, nil
		},
	}

	handler := RestomodAvailability(svc, nil)
	req := withRestomodID(httptest.NewRequest(http.MethodGet, "/", nil), restomod.ID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["availability"] != "reserved" {
		t.Fatalf("unexpected availability %q", envelope.Data["availability"])
	}
}

func TestRestomodAvailability_InvalidID(t *testing.T) {
	svc := stubCatalogService{}
	handler := RestomodAvailability(svc, nil)
	req := withRestomodID(httptest.NewRequest(http.MethodGet, "/", nil), "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRestomodDetail_BySlug(t *testing.T) {
	restomod := sampleRestomod(enums.AvailabilityAvailable)
	svc := stubCatalogService{
		getRestomodBySlugFn: func(ctx context.Context, slug string) (*models.Restomod, error) {
			if slug != restomod.Slug {
				t.Fatalf("unexpected slug %q", slug)
			}
			return &restomod, nil
		},
	}

	handler := RestomodDetail(svc, nil)
	req := withRestomodID(httptest.NewRequest(http.MethodGet, "/", nil), restomod.Slug)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data RestomodResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Slug != restomod.Slug {
		t.Fatalf("unexpected slug %q", envelope.Data.Slug)
	}
}

func TestSetRestomodAvailability(t *testing.T) {
	restomod := sampleRestomod(enums.AvailabilityAvailable)
	var gotTarget enums.Availability
	svc := stubCatalogService{
		setAvailabilityFn: func(ctx context.Context, id uuid.UUID, availability enums.Availability) (*models.Restomod, error) {
			gotTarget = availability
			updated := restomod
			updated.Availability = availability
			return &updated, nil
		},
	}

	handler := SetRestomodAvailability(svc, nil)
	body := strings.NewReader(`{"availability":"available"}`)
	req := withRestomodID(httptest.NewRequest(http.MethodPost, "/", body), restomod.ID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	if gotTarget != enums.AvailabilityAvailable {
		t.Fatalf("unexpected target %q", gotTarget)
	}
	var envelope struct {
		Data RestomodResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Availability != "available" {
		t.Fatalf("unexpected availability %q", envelope.Data.Availability)
	}
}

func TestSetRestomodAvailability_RejectsUnknownValue(t *testing.T) {
	svc := stubCatalogService{
		setAvailabilityFn: func(ctx context.Context, id uuid.UUID, availability enums.Availability) (*models.Restomod, error) {
			t.Fatalf("service should not be called for invalid input")
			return nil, nil
		},
	}

	handler := SetRestomodAvailability(svc, nil)
	body := strings.NewReader(`{"availability":"archived"}`)
	req := withRestomodID(httptest.NewRequest(http.MethodPost, "/", body), uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestListRestomods(t *testing.T) {
	listed := []models.Restomod{
		sampleRestomod(enums.AvailabilityAvailable),
		sampleRestomod(enums.AvailabilitySold),
	}
	svc := stubCatalogService{
		listRestomodsFn: func(ctx context.Context) ([]models.Restomod, error) {
			return listed, nil
		},
	}

	handler := ListRestomods(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []RestomodResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 restomods, got %d", len(envelope.Data))
	}
	if envelope.Data[0].Price != "145000.00" {
		t.Fatalf("unexpected price %q", envelope.Data[0].Price)
	}
}

func TestListPackages(t *testing.T) {
	svc := stubCatalogService{
		listPackagesFn: func(ctx context.Context) ([]models.Package, error) {
			return []models.Package{{
				ID:         uuid.New(),
				Name:       "Concours Detailing",
				PriceCents: 250000,
				Currency:   enums.CurrencyEUR,
				IsActive:   true,
			}}, nil
		},
	}

	handler := ListPackages(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []PackageResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].PriceCents != 250000 {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}
