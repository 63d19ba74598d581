package orders

import (
	"github.com/google/uuid"

	"github.com/officinarestomod/marketplace-backend/pkg/db/models"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
)

// OrderList is a page of ledger rows plus the cursor for the next page.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}

// ListFilters narrows the administrative ledger listing.
type ListFilters struct {
	Status      *enums.OrderStatus
	BuyerID     *uuid.UUID
	SubjectType *enums.OrderSubjectType
}

// CreatePendingInput captures everything needed to open a ledger row for a
// freshly created checkout session.
type CreatePendingInput struct {
	BuyerID         uuid.UUID
	SubjectType     enums.OrderSubjectType
	SubjectID       uuid.UUID
	SubjectName     string
	AmountCents     int
	Currency        enums.Currency
	StripeSessionID string
}

// TransitionResult reports how a status transition resolved. Replayed is true
// when the order was already in the target state, which callers treat as a
// duplicate delivery rather than an error.
type TransitionResult struct {
	Order    *models.Order
	Replayed bool
}
