package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/officinarestomod/marketplace-backend/api/middleware"
	internalorders "github.com/officinarestomod/marketplace-backend/internal/orders"
	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
	pkgerrors "github.com/officinarestomod/marketplace-backend/pkg/errors"
	"github.com/officinarestomod/marketplace-backend/pkg/pagination"
)

type stubOrdersService struct {
	getForBuyerFn  func(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	listForBuyerFn func(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error)
	listAllFn      func(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error)
	refundFn       func(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

func (s stubOrdersService) CreatePending(ctx context.Context, input internalorders.CreatePendingInput) (*models.Order, error) {
	return nil, nil
}

func (s stubOrdersService) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return nil, nil
}

func (s stubOrdersService) GetForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	return s.getForBuyerFn(ctx, orderID, buyerID)
}

func (s stubOrdersService) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	return s.listForBuyerFn(ctx, buyerID, params)
}

func (s stubOrdersService) ListAll(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
	return s.listAllFn(ctx, params, filters)
}

func (s stubOrdersService) Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*internalorders.TransitionResult, error) {
	return nil, nil
}

func (s stubOrdersService) Refund(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.refundFn(ctx, orderID)
}

func withOrderID(r *http.Request, id uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id.String())
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func asBuyer(r *http.Request, buyerID uuid.UUID) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), buyerID.String()))
}

func sampleOrder(buyerID uuid.UUID, status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		BuyerID:         buyerID,
		SubjectType:     enums.OrderSubjectRestomod,
		SubjectID:       uuid.New(),
		SubjectName:     "Lancia Fulvia Coupe",
		AmountCents:     9800000,
		Currency:        enums.CurrencyEUR,
		StripeSessionID: "cs_test_" + uuid.NewString(),
		Status:          status,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
}

func TestListOrders(t *testing.T) {
	buyerID := uuid.New()
	order := sampleOrder(buyerID, enums.OrderStatusCompleted)
	svc := stubOrdersService{
		listForBuyerFn: func(ctx context.Context, gotBuyer uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
			if gotBuyer != buyerID {
				t.Fatalf("unexpected buyer %s", gotBuyer)
			}
			if params.Limit != 10 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			return &internalorders.OrderList{Orders: []models.Order{*order}, NextCursor: "next"}, nil
		},
	}

	handler := ListOrders(svc, nil)
	req := asBuyer(httptest.NewRequest(http.MethodGet, "/?limit=10", nil), buyerID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data OrderListResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.Orders[0].ID != order.ID.String() {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
	if envelope.Data.NextCursor != "next" {
		t.Fatalf("expected next cursor, got %q", envelope.Data.NextCursor)
	}
}

func TestListOrders_Unauthenticated(t *testing.T) {
	handler := ListOrders(stubOrdersService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrderDetail_HidesOtherBuyersOrders(t *testing.T) {
	buyerID := uuid.New()
	orderID := uuid.New()
	svc := stubOrdersService{
		getForBuyerFn: func(ctx context.Context, gotOrder, gotBuyer uuid.UUID) (*models.Order, error) {
			if gotOrder != orderID || gotBuyer != buyerID {
				t.Fatalf("unexpected lookup %s/%s", gotOrder, gotBuyer)
			}
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	handler := OrderDetail(svc, nil)
	req := asBuyer(withOrderID(httptest.NewRequest(http.MethodGet, "/", nil), orderID), buyerID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminListOrders_ParsesFilters(t *testing.T) {
	buyerID := uuid.New()
	svc := stubOrdersService{
		listAllFn: func(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
			if filters.Status == nil || *filters.Status != enums.OrderStatusCompleted {
				t.Fatalf("expected completed status filter, got %v", filters.Status)
			}
			if filters.BuyerID == nil || *filters.BuyerID != buyerID {
				t.Fatalf("expected buyer filter, got %v", filters.BuyerID)
			}
			if filters.SubjectType == nil || *filters.SubjectType != enums.OrderSubjectRestomod {
				t.Fatalf("expected restomod subject filter, got %v", filters.SubjectType)
			}
			return &internalorders.OrderList{}, nil
		},
	}

	handler := AdminListOrders(svc, nil)
	target := "/?status=completed&buyer_id=" + buyerID.String() + "&subject_type=restomod"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestAdminListOrders_RejectsBadStatus(t *testing.T) {
	svc := stubOrdersService{
		listAllFn: func(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}

	handler := AdminListOrders(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/?status=shipped", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminRefundOrder(t *testing.T) {
	buyerID := uuid.New()
	order := sampleOrder(buyerID, enums.OrderStatusRefunded)
	svc := stubOrdersService{
		refundFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			if orderID != order.ID {
				t.Fatalf("unexpected order id %s", orderID)
			}
			return order, nil
		},
	}

	handler := AdminRefundOrder(svc, nil)
	req := withOrderID(httptest.NewRequest(http.MethodPost, "/", nil), order.ID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data AdminOrderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != "refunded" || envelope.Data.BuyerID != buyerID.String() {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestAdminRefundOrder_StateConflict(t *testing.T) {
	svc := stubOrdersService{
		refundFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed from current status")
		},
	}

	handler := AdminRefundOrder(svc, nil)
	req := withOrderID(httptest.NewRequest(http.MethodPost, "/", nil), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
