// README: Delivery service; bidding, manager assignment, and courier status updates.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aieats/internal/maps"
	"aieats/internal/modules/order"
	"aieats/internal/modules/user"
	"aieats/internal/types"
)

var (
	ErrNotFound              = errors.New("delivery or bid not found")
	ErrUnauthorized          = errors.New("caller is not allowed to perform this action")
	ErrValidation            = errors.New("invalid delivery input")
	ErrConflict              = errors.New("delivery state conflict")
	ErrInvalidTransition     = errors.New("invalid delivery state transition")
	ErrOrderNotReady         = errors.New("order is not open for bidding")
	ErrDuplicateBid          = errors.New("a pending bid for this order already exists")
	ErrBidResolved           = errors.New("bid has already been resolved")
	ErrJustificationRequired = errors.New("justification required for a non-minimal bid")
)

// JustificationError carries both amounts so the manager can see exactly how
// far the chosen bid sits above the cheapest one.
type JustificationError struct {
	Lowest   types.Money
	Selected types.Money
}

func (e *JustificationError) Error() string {
	return fmt.Sprintf("bid of %s exceeds lowest pending bid of %s; justification required",
		e.Selected, e.Lowest)
}

func (e *JustificationError) Unwrap() error { return ErrJustificationRequired }

type TransitionError struct {
	Current   Status
	Attempted Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: delivery is %s, cannot move to %s", e.Current, e.Attempted)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Directory is the slice of the user service the delivery flow needs.
type Directory interface {
	Get(ctx context.Context, id types.ID) (*user.User, error)
}

// Orders exposes the order lookups bidding depends on.
type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
	ReadyForDelivery(ctx context.Context) ([]order.Order, error)
}

// Estimator produces a travel estimate between two street addresses. Wired
// to the distance-matrix client in production; nil disables estimates.
type Estimator interface {
	Distance(ctx context.Context, origin, destination string) (maps.Estimate, error)
}

type Store interface {
	// CreateBid returns ErrDuplicateBid when the bidder already has a
	// pending bid on the same order.
	CreateBid(ctx context.Context, b *Bid) error
	GetBid(ctx context.Context, id types.ID) (*Bid, error)
	ListBids(ctx context.Context, orderID types.ID) ([]Bid, error)
	// Assign atomically accepts the chosen bid, rejects its pending
	// siblings, creates the delivery, and moves the order
	// Ready_For_Delivery → Awaiting_Pickup. Returns false when the bid or
	// order CAS lost.
	Assign(ctx context.Context, b *Bid, d *Delivery) (bool, error)
	Get(ctx context.Context, id types.ID) (*Delivery, error)
	// UpdateStatus applies the delivery CAS and the mirrored order CAS in
	// one write. deliveredAt is set only on terminal outcomes.
	UpdateStatus(ctx context.Context, d *Delivery, to Status, orderFrom, orderTo order.Status, deliveredAt *time.Time) (bool, error)
	ListByPerson(ctx context.Context, personID types.ID, statuses ...Status) ([]Delivery, error)
	CountCompletedSince(ctx context.Context, personID types.ID, since time.Time) (int, error)
}

type Service struct {
	store     Store
	directory Directory
	orders    Orders
	estimator Estimator

	now func() time.Time
}

func NewService(store Store, directory Directory, orders Orders, estimator Estimator) *Service {
	return &Service{
		store:     store,
		directory: directory,
		orders:    orders,
		estimator: estimator,
		now:       time.Now,
	}
}

type BidCommand struct {
	BidderID types.ID
	OrderID  types.ID
	Amount   types.Money
}

// SubmitBid records a courier's pending offer on a Ready_For_Delivery order.
// One pending bid per (order, bidder) pair. Demoted couriers may still bid;
// demotion affects standing, not work eligibility.
func (s *Service) SubmitBid(ctx context.Context, cmd BidCommand) (*Bid, error) {
	if cmd.Amount <= 0 {
		return nil, ErrValidation
	}
	bidder, err := s.directory.Get(ctx, cmd.BidderID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if bidder.Role.Kind != user.RoleDeliveryPerson || bidder.Status != user.StatusActive {
		return nil, ErrUnauthorized
	}
	o, err := s.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, ErrNotFound
	}
	if o.Status != order.StatusReadyForDelivery {
		return nil, ErrOrderNotReady
	}
	b := &Bid{
		ID:       types.NewID(),
		OrderID:  cmd.OrderID,
		BidderID: cmd.BidderID,
		Amount:   cmd.Amount,
		Status:   BidPending,
	}
	if err := s.store.CreateBid(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

type AssignCommand struct {
	ManagerID     types.ID
	BidID         types.ID
	Justification string
}

// Assign accepts one bid on behalf of a manager. Choosing any bid above the
// lowest pending amount requires a justification; the rejection names both
// amounts. On success all sibling pending bids are rejected, a delivery is
// created in Assigned, and the order moves to Awaiting_Pickup, atomically.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*Delivery, error) {
	if err := s.requireManager(ctx, cmd.ManagerID); err != nil {
		return nil, err
	}
	b, err := s.store.GetBid(ctx, cmd.BidID)
	if err != nil {
		return nil, err
	}
	if b.Status != BidPending {
		return nil, ErrBidResolved
	}
	bids, err := s.store.ListBids(ctx, b.OrderID)
	if err != nil {
		return nil, err
	}
	lowest := b.Amount
	for _, other := range bids {
		if other.Status == BidPending && other.Amount < lowest {
			lowest = other.Amount
		}
	}
	if b.Amount > lowest && cmd.Justification == "" {
		return nil, &JustificationError{Lowest: lowest, Selected: b.Amount}
	}

	d := &Delivery{
		ID:               types.NewID(),
		OrderID:          b.OrderID,
		BidID:            b.ID,
		DeliveryPersonID: b.BidderID,
		Amount:           b.Amount,
		Status:           StatusAssigned,
	}
	ok, err := s.store.Assign(ctx, b, d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return d, nil
}

// ConfirmPickup moves the caller's delivery Assigned → Out_For_Delivery and
// mirrors the order alongside it.
func (s *Service) ConfirmPickup(ctx context.Context, personID, deliveryID types.ID) (*Delivery, error) {
	return s.advance(ctx, personID, deliveryID, StatusOutForDelivery, order.StatusAwaitingPickup)
}

// Complete records the terminal outcome of an out-for-delivery run. succeeded
// selects Delivered/Completed versus Delivery_Failed on both records.
func (s *Service) Complete(ctx context.Context, personID, deliveryID types.ID, succeeded bool) (*Delivery, error) {
	target := StatusDelivered
	if !succeeded {
		target = StatusFailed
	}
	return s.advance(ctx, personID, deliveryID, target, order.StatusOutForDelivery)
}

func (s *Service) advance(ctx context.Context, personID, deliveryID types.ID, to Status, orderFrom order.Status) (*Delivery, error) {
	d, err := s.store.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d.DeliveryPersonID != personID {
		return nil, ErrUnauthorized
	}
	if !CanTransition(d.Status, to) {
		return nil, &TransitionError{Current: d.Status, Attempted: to}
	}
	var deliveredAt *time.Time
	if to == StatusDelivered || to == StatusFailed {
		t := s.now()
		deliveredAt = &t
	}
	ok, err := s.store.UpdateStatus(ctx, d, to, orderFrom, mirroredOrderStatus(to), deliveredAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	d.Status = to
	d.DeliveredAt = deliveredAt
	return d, nil
}

// AvailableOrder is a biddable order enriched with a best-effort travel
// estimate from the courier's address to the customer's.
type AvailableOrder struct {
	Order    order.Order
	Address  string
	Estimate *maps.Estimate
}

// AvailableOrders lists Ready_For_Delivery orders. Estimates are skipped
// when no estimator is configured, an address is missing, or the lookup
// fails; the listing itself never fails on estimate errors.
func (s *Service) AvailableOrders(ctx context.Context, personID types.ID) ([]AvailableOrder, error) {
	courier, err := s.directory.Get(ctx, personID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	orders, err := s.orders.ReadyForDelivery(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AvailableOrder, 0, len(orders))
	for _, o := range orders {
		av := AvailableOrder{Order: o}
		customer, err := s.directory.Get(ctx, o.CustomerID)
		if err == nil {
			av.Address = customer.Address
		}
		if s.estimator != nil && courier.Address != "" && av.Address != "" {
			if est, err := s.estimator.Distance(ctx, courier.Address, av.Address); err == nil {
				av.Estimate = &est
			}
		}
		out = append(out, av)
	}
	return out, nil
}

// ActiveDeliveries lists the caller's assigned and in-flight deliveries.
func (s *Service) ActiveDeliveries(ctx context.Context, personID types.ID) ([]Delivery, error) {
	return s.store.ListByPerson(ctx, personID, StatusAssigned, StatusOutForDelivery)
}

// History lists every delivery the caller has ever carried.
func (s *Service) History(ctx context.Context, personID types.ID) ([]Delivery, error) {
	return s.store.ListByPerson(ctx, personID)
}

// CompletedToday counts the caller's deliveries delivered since local
// midnight.
func (s *Service) CompletedToday(ctx context.Context, personID types.ID) (int, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.store.CountCompletedSince(ctx, personID, midnight)
}

// OrderBids lists all bids on an order for the manager's assignment view.
func (s *Service) OrderBids(ctx context.Context, managerID, orderID types.ID) ([]Bid, error) {
	if err := s.requireManager(ctx, managerID); err != nil {
		return nil, err
	}
	return s.store.ListBids(ctx, orderID)
}

func (s *Service) requireManager(ctx context.Context, id types.ID) error {
	u, err := s.directory.Get(ctx, id)
	if err != nil {
		return ErrUnauthorized
	}
	if u.Role.Kind != user.RoleManager || u.Status != user.StatusActive {
		return ErrUnauthorized
	}
	return nil
}
