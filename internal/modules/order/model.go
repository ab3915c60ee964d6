// README: Order aggregate, item snapshots, and status definitions.
package order

import (
	"fmt"
	"time"

	"aieats/internal/types"
)

type Status string

const (
	StatusPendingPayment       Status = "PendingPayment"
	StatusPaid                 Status = "Paid"
	StatusRejectedNoFunds      Status = "Rejected_Insufficient_Funds"
	StatusQueuedForPreparation Status = "Queued_For_Preparation"
	StatusInPreparation        Status = "In_Preparation"
	StatusOnHold               Status = "On_Hold"
	StatusReadyForDelivery     Status = "Ready_For_Delivery"
	StatusAwaitingPickup       Status = "Awaiting_Pickup"
	StatusOutForDelivery       Status = "Out_For_Delivery"
	StatusCompleted            Status = "Completed"
	StatusDeliveryFailed       Status = "Delivery_Failed"
)

// OrderItem snapshots the dish's unit price at creation time; later price
// changes on the dish never touch historical orders.
type OrderItem struct {
	DishID    types.ID
	Quantity  int
	UnitPrice types.Money
}

type Order struct {
	ID         types.ID
	CustomerID types.ID
	Items      []OrderItem

	OriginalPrice   types.Money
	DiscountApplied types.Money
	FinalPrice      types.Money

	Status        Status
	StatusVersion int
	Notes         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllowedTransitions represents the order state flow as code. Confirmation
// collapses Paid into the Queued_For_Preparation edge: callers observe a
// single state change and no Paid row is ever persisted on its own.
var AllowedTransitions = map[Status][]Status{
	StatusPendingPayment:       {StatusPaid, StatusQueuedForPreparation, StatusRejectedNoFunds},
	StatusPaid:                 {StatusQueuedForPreparation},
	StatusQueuedForPreparation: {StatusInPreparation, StatusOnHold},
	StatusInPreparation:        {StatusReadyForDelivery, StatusOnHold},
	StatusOnHold:               {StatusInPreparation},
	StatusReadyForDelivery:     {StatusAwaitingPickup},
	StatusAwaitingPickup:       {StatusOutForDelivery},
	StatusOutForDelivery:       {StatusCompleted, StatusDeliveryFailed},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError names the current and attempted states so callers can see
// exactly which precondition failed.
type TransitionError struct {
	Current   Status
	Attempted Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: order is %s, cannot move to %s", e.Current, e.Attempted)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Subtotal is the sum of item price × quantity.
func (o *Order) Subtotal() types.Money {
	var total types.Money
	for _, it := range o.Items {
		total += it.UnitPrice * types.Money(it.Quantity)
	}
	return total
}

// Reprice recomputes the derived price fields. This is the only place the
// pricing fields are written: 10% discount, rounded to the cent, when the
// customer holds VIP status at the time of the call.
func (o *Order) Reprice(isVIP bool) {
	o.OriginalPrice = o.Subtotal()
	if isVIP {
		o.DiscountApplied = o.OriginalPrice.Percent(10)
	} else {
		o.DiscountApplied = 0
	}
	o.FinalPrice = o.OriginalPrice - o.DiscountApplied
}
