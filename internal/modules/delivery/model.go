// README: Delivery bids and the delivery mini-lifecycle mirrored onto orders.
package delivery

import (
	"time"

	"aieats/internal/modules/order"
	"aieats/internal/types"
)

type BidStatus string

const (
	BidPending  BidStatus = "Pending"
	BidAccepted BidStatus = "Accepted"
	BidRejected BidStatus = "Rejected"
)

// Bid is one courier's offer to deliver an order. Many bids may exist per
// order; at most one becomes Accepted, which rejects every sibling Pending
// bid in the same operation.
type Bid struct {
	ID       types.ID
	OrderID  types.ID
	BidderID types.ID
	Amount   types.Money
	Status   BidStatus

	CreatedAt time.Time
}

type Status string

const (
	StatusAssigned       Status = "Assigned"
	StatusOutForDelivery Status = "Out_For_Delivery"
	StatusDelivered      Status = "Delivered"
	StatusFailed         Status = "Delivery_Failed"
)

// AllowedTransitions is the delivery lifecycle. Every edge here has a
// matching order edge that is applied in the same write.
var AllowedTransitions = map[Status][]Status{
	StatusAssigned:       {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered, StatusFailed},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// mirroredOrderStatus maps a delivery state onto the order state that must
// accompany it.
func mirroredOrderStatus(s Status) order.Status {
	switch s {
	case StatusOutForDelivery:
		return order.StatusOutForDelivery
	case StatusDelivered:
		return order.StatusCompleted
	case StatusFailed:
		return order.StatusDeliveryFailed
	}
	return ""
}

// Delivery is created when a bid is accepted and stays 1:1 with its order.
type Delivery struct {
	ID               types.ID
	OrderID          types.ID
	BidID            types.ID
	DeliveryPersonID types.ID
	Amount           types.Money

	Status        Status
	StatusVersion int

	CreatedAt   time.Time
	DeliveredAt *time.Time
}
