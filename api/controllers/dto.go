package controllers

import (
	"time"

	"github.com/officinarestomod/marketplace-backend/internal/orders"
	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
)

// OrderResponse is the public shape of a ledger row.
type OrderResponse struct {
	ID          string    `json:"id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   string    `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	AmountCents int       `json:"amount_cents"`
	Currency    string    `json:"currency"`
	SessionID   string    `json:"session_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AdminOrderResponse extends the order shape with the resolved buyer.
type AdminOrderResponse struct {
	OrderResponse
	BuyerID    string `json:"buyer_id"`
	BuyerName  string `json:"buyer_name,omitempty"`
	BuyerEmail string `json:"buyer_email,omitempty"`
}

// OrderListResponse is a page of orders plus the cursor for the next page.
type OrderListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// AdminOrderListResponse is the admin-perspective page.
type AdminOrderListResponse struct {
	Orders     []AdminOrderResponse `json:"orders"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// RestomodResponse is the public catalog shape of a listing.
type RestomodResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Description  *string  `json:"description,omitempty"`
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Year         int      `json:"year"`
	Price        string   `json:"price"`
	Currency     string   `json:"currency"`
	Availability string   `json:"availability"`
	Features     []string `json:"features,omitempty"`
}

// PackageResponse is the public shape of a service package.
type PackageResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	PriceCents  int      `json:"price_cents"`
	Currency    string   `json:"currency"`
	Features    []string `json:"features,omitempty"`
}

func toOrderResponse(order *models.Order) OrderResponse {
	return OrderResponse{
		ID:          order.ID.String(),
		SubjectType: order.SubjectType.String(),
		SubjectID:   order.SubjectID.String(),
		SubjectName: order.SubjectName,
		AmountCents: order.AmountCents,
		Currency:    order.Currency.String(),
		SessionID:   order.StripeSessionID,
		Status:      order.Status.String(),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

func toAdminOrderResponse(order *models.Order) AdminOrderResponse {
	out := AdminOrderResponse{
		OrderResponse: toOrderResponse(order),
		BuyerID:       order.BuyerID.String(),
	}
	if order.Buyer != nil {
		out.BuyerName = order.Buyer.Name
		out.BuyerEmail = order.Buyer.Email
	}
	return out
}

func toOrderListResponse(list *orders.OrderList) OrderListResponse {
	out := OrderListResponse{
		Orders:     make([]OrderResponse, 0, len(list.Orders)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Orders {
		out.Orders = append(out.Orders, toOrderResponse(&list.Orders[i]))
	}
	return out
}

func toAdminOrderListResponse(list *orders.OrderList) AdminOrderListResponse {
	out := AdminOrderListResponse{
		Orders:     make([]AdminOrderResponse, 0, len(list.Orders)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Orders {
		out.Orders = append(out.Orders, toAdminOrderResponse(&list.Orders[i]))
	}
	return out
}

func toRestomodResponse(restomod *models.Restomod) RestomodResponse {
	return RestomodResponse{
		ID:           restomod.ID.String(),
		Name:         restomod.Name,
		Slug:         restomod.Slug,
		Description:  restomod.Description,
		Make:         restomod.Make,
		Model:        restomod.Model,
		Year:         restomod.Year,
		Price:        restomod.Price.StringFixed(2),
		Currency:     restomod.Currency.String(),
		Availability: restomod.Availability.String(),
		Features:     restomod.Features,
	}
}

func toPackageResponse(pkg *models.Package) PackageResponse {
	return PackageResponse{
		ID:          pkg.ID.String(),
		Name:        pkg.Name,
		Description: pkg.Description,
		PriceCents:  pkg.PriceCents,
		Currency:    pkg.Currency.String(),
		Features:    pkg.Features,
	}
}
