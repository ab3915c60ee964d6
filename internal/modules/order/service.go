// README: Order service; creation, payment confirmation, and kitchen transitions.
package order

import (
	"context"
	"errors"

	"aieats/internal/modules/menu"
	"aieats/internal/modules/user"
	"aieats/internal/types"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrConflict          = errors.New("order state conflict")
	ErrInvalidTransition = errors.New("invalid order state transition")
	ErrInvalidCustomer   = errors.New("caller must be a customer or VIP")
	ErrUnauthorized      = errors.New("caller must be a chef")
	ErrInactiveAccount   = errors.New("account is not active")
	ErrNoBalance         = errors.New("account balance is empty")
	ErrDishUnavailable   = errors.New("dish not found or unavailable")
	ErrDishNotReceived   = errors.New("dish was not part of a delivered order")
	ErrValidation        = errors.New("invalid order input")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Accounts is the slice of the user service the order flow needs.
type Accounts interface {
	Get(ctx context.Context, id types.ID) (*user.User, error)
	ApplyWarning(ctx context.Context, id types.ID, reason string) error
	UpdateVIPStatus(ctx context.Context, id types.ID) (bool, error)
}

// Catalog resolves dishes for price snapshotting and receives ratings.
type Catalog interface {
	Get(ctx context.Context, id types.ID) (*menu.Dish, error)
	AddRating(ctx context.Context, dishID types.ID, rating int) error
}

type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id types.ID) (*Order, error)
	// UpdateStatus is an optimistic compare-and-swap on (status, status_version).
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, note string) (bool, error)
	// ApplyConfirm atomically moves the order PendingPayment →
	// Queued_For_Preparation, persists the repriced fields, debits the
	// customer (guarded by balance >= final price), bumps the customer's
	// spend counters, and increments each dish's order count. Either all
	// writes land or none do. Returns false when the order CAS lost;
	// ErrInsufficientFunds when the balance guard failed.
	ApplyConfirm(ctx context.Context, o *Order) (bool, error)
	ListByCustomer(ctx context.Context, customerID types.ID) ([]Order, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]Order, error)
}

type Service struct {
	store    Store
	accounts Accounts
	catalog  Catalog
}

func NewService(store Store, accounts Accounts, catalog Catalog) *Service {
	return &Service{store: store, accounts: accounts, catalog: catalog}
}

type ItemRequest struct {
	DishID   types.ID
	Quantity int
}

type CreateCommand struct {
	CustomerID types.ID
	Items      []ItemRequest
}

// Create validates the caller and dishes, snapshots unit prices, prices the
// order, and persists it in PendingPayment. The full affordability check
// happens at confirmation; creation only requires a nonzero balance.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if len(cmd.Items) == 0 {
		return nil, ErrValidation
	}
	customer, err := s.accounts.Get(ctx, cmd.CustomerID)
	if err != nil {
		return nil, ErrInvalidCustomer
	}
	if !customer.Role.CanOrder() {
		return nil, ErrInvalidCustomer
	}
	if customer.Status != user.StatusActive {
		return nil, ErrInactiveAccount
	}
	if customer.Balance <= 0 {
		return nil, ErrNoBalance
	}

	items := make([]OrderItem, 0, len(cmd.Items))
	for _, req := range cmd.Items {
		if req.Quantity < 1 {
			return nil, ErrValidation
		}
		dish, err := s.catalog.Get(ctx, req.DishID)
		if err != nil || !dish.IsAvailable {
			return nil, ErrDishUnavailable
		}
		items = append(items, OrderItem{
			DishID:    req.DishID,
			Quantity:  req.Quantity,
			UnitPrice: dish.Price,
		})
	}

	o := &Order{
		ID:         types.NewID(),
		CustomerID: cmd.CustomerID,
		Items:      items,
		Status:     StatusPendingPayment,
	}
	o.Reprice(customer.IsVIP)
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

type ConfirmResult struct {
	Order       *Order
	NewBalance  types.Money
	VIPUpgraded bool
}

// Confirm settles payment for a pending order. The discount is re-derived
// from the customer's VIP standing at confirmation time. On insufficient
// funds the order lands in Rejected_Insufficient_Funds, the customer is
// warned, and the balance is left untouched.
func (s *Service) Confirm(ctx context.Context, orderID types.ID) (*ConfirmResult, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPendingPayment {
		return nil, &TransitionError{Current: o.Status, Attempted: StatusQueuedForPreparation}
	}
	customer, err := s.accounts.Get(ctx, o.CustomerID)
	if err != nil {
		return nil, err
	}

	o.Reprice(customer.IsVIP)

	if customer.Balance < o.FinalPrice {
		return nil, s.rejectUnderfunded(ctx, o)
	}

	ok, err := s.store.ApplyConfirm(ctx, o)
	if errors.Is(err, ErrInsufficientFunds) {
		// Balance dropped between the read and the debit guard.
		return nil, s.rejectUnderfunded(ctx, o)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	upgraded, err := s.accounts.UpdateVIPStatus(ctx, o.CustomerID)
	if err != nil {
		return nil, err
	}
	customer, err = s.accounts.Get(ctx, o.CustomerID)
	if err != nil {
		return nil, err
	}
	o.Status = StatusQueuedForPreparation
	return &ConfirmResult{Order: o, NewBalance: customer.Balance, VIPUpgraded: upgraded}, nil
}

func (s *Service) rejectUnderfunded(ctx context.Context, o *Order) error {
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusRejectedNoFunds, o.StatusVersion, "")
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if err := s.accounts.ApplyWarning(ctx, o.CustomerID, "reckless order attempt with insufficient funds"); err != nil {
		return err
	}
	return ErrInsufficientFunds
}

// requireChef admits chefs, demoted included; a demotion changes standing,
// not kitchen duties.
func (s *Service) requireChef(ctx context.Context, id types.ID) error {
	u, err := s.accounts.Get(ctx, id)
	if err != nil {
		return ErrUnauthorized
	}
	if u.Role.Kind != user.RoleChef {
		return ErrUnauthorized
	}
	if u.Status != user.StatusActive {
		return ErrInactiveAccount
	}
	return nil
}

// StartPreparation moves a queued order into the kitchen.
func (s *Service) StartPreparation(ctx context.Context, chefID, orderID types.ID) error {
	if err := s.requireChef(ctx, chefID); err != nil {
		return err
	}
	return s.transition(ctx, orderID, StatusQueuedForPreparation, StatusInPreparation, "")
}

// CompletePreparation marks the order ready for delivery bidding.
func (s *Service) CompletePreparation(ctx context.Context, chefID, orderID types.ID) error {
	if err := s.requireChef(ctx, chefID); err != nil {
		return err
	}
	return s.transition(ctx, orderID, StatusInPreparation, StatusReadyForDelivery, "")
}

// Hold parks a queued or in-preparation order with a mandatory note.
func (s *Service) Hold(ctx context.Context, chefID, orderID types.ID, note string) error {
	if err := s.requireChef(ctx, chefID); err != nil {
		return err
	}
	if note == "" {
		return ErrValidation
	}
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusQueuedForPreparation && o.Status != StatusInPreparation {
		return &TransitionError{Current: o.Status, Attempted: StatusOnHold}
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusOnHold, o.StatusVersion, note)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// Resume returns an on-hold order to the kitchen.
func (s *Service) Resume(ctx context.Context, chefID, orderID types.ID) error {
	if err := s.requireChef(ctx, chefID); err != nil {
		return err
	}
	return s.transition(ctx, orderID, StatusOnHold, StatusInPreparation, "")
}

func (s *Service) transition(ctx context.Context, orderID types.ID, from, to Status, note string) error {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != from {
		return &TransitionError{Current: o.Status, Attempted: to}
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, from, to, o.StatusVersion, note)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) CustomerOrders(ctx context.Context, customerID types.ID) ([]Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

// RateDish folds a customer's rating into a dish's running average. Only a
// dish from one of the caller's delivered orders can be rated.
func (s *Service) RateDish(ctx context.Context, customerID, dishID types.ID, rating int) error {
	orders, err := s.store.ListByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	received := false
	for _, o := range orders {
		if o.Status != StatusCompleted {
			continue
		}
		for _, it := range o.Items {
			if it.DishID == dishID {
				received = true
			}
		}
	}
	if !received {
		return ErrDishNotReceived
	}
	return s.catalog.AddRating(ctx, dishID, rating)
}

// PreparationQueue lists orders waiting for a chef.
func (s *Service) PreparationQueue(ctx context.Context, chefID types.ID) ([]Order, error) {
	if err := s.requireChef(ctx, chefID); err != nil {
		return nil, err
	}
	return s.store.ListByStatus(ctx, StatusQueuedForPreparation)
}

// KitchenOrders lists orders a chef is or was working on.
func (s *Service) KitchenOrders(ctx context.Context, chefID types.ID) ([]Order, error) {
	if err := s.requireChef(ctx, chefID); err != nil {
		return nil, err
	}
	return s.store.ListByStatus(ctx, StatusInPreparation, StatusOnHold, StatusReadyForDelivery)
}

// ReadyForDelivery lists orders open for delivery bidding.
func (s *Service) ReadyForDelivery(ctx context.Context) ([]Order, error) {
	return s.store.ListByStatus(ctx, StatusReadyForDelivery)
}
