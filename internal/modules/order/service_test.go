// README: Order service tests; pricing, confirmation side effects, and kitchen transitions.
package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"aieats/internal/modules/menu"
	"aieats/internal/modules/user"
	"aieats/internal/types"
)

// TestCanTransition verifies the state machine transition table.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusPendingPayment, StatusQueuedForPreparation, true},
		{StatusQueuedForPreparation, StatusInPreparation, true},
		{StatusInPreparation, StatusReadyForDelivery, true},
		{StatusReadyForDelivery, StatusAwaitingPickup, true},
		{StatusAwaitingPickup, StatusOutForDelivery, true},
		{StatusOutForDelivery, StatusCompleted, true},
		{StatusOutForDelivery, StatusDeliveryFailed, true},
		// hold branch from both kitchen states, and resume
		{StatusQueuedForPreparation, StatusOnHold, true},
		{StatusInPreparation, StatusOnHold, true},
		{StatusOnHold, StatusInPreparation, true},
		// payment rejection
		{StatusPendingPayment, StatusRejectedNoFunds, true},
		// invalid: terminal states have no outgoing transitions
		{StatusCompleted, StatusOutForDelivery, false},
		{StatusDeliveryFailed, StatusOutForDelivery, false},
		{StatusRejectedNoFunds, StatusQueuedForPreparation, false},
		// invalid: skipping states
		{StatusPendingPayment, StatusInPreparation, false},
		{StatusQueuedForPreparation, StatusReadyForDelivery, false},
		{StatusReadyForDelivery, StatusOutForDelivery, false},
		{StatusOnHold, StatusReadyForDelivery, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// In-memory fixture: fake accounts, catalog, and a store that honors the
// ApplyConfirm contract (CAS + guarded debit + dish counters, all-or-nothing).
// ---------------------------------------------------------------------------

type fixture struct {
	mu     sync.Mutex
	users  map[types.ID]*user.User
	dishes map[types.ID]*menu.Dish
	orders map[types.ID]*Order

	warnings map[types.ID][]string
}

func newFixture() *fixture {
	return &fixture{
		users:    make(map[types.ID]*user.User),
		dishes:   make(map[types.ID]*menu.Dish),
		orders:   make(map[types.ID]*Order),
		warnings: make(map[types.ID][]string),
	}
}

func (f *fixture) addUser(u user.User) types.ID {
	if u.ID == "" {
		u.ID = types.NewID()
	}
	if u.Status == "" {
		u.Status = user.StatusActive
	}
	f.users[u.ID] = &u
	return u.ID
}

func (f *fixture) addDish(price types.Money, available bool) types.ID {
	id := types.NewID()
	f.dishes[id] = &menu.Dish{ID: id, Name: "dish", Category: "test", Price: price, IsAvailable: available}
	return id
}

// Accounts

func (f *fixture) Get(_ context.Context, id types.ID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fixture) ApplyWarning(_ context.Context, id types.ID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.WarningCount++
	f.warnings[id] = append(f.warnings[id], reason)
	return nil
}

func (f *fixture) UpdateVIPStatus(_ context.Context, id types.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	if u == nil || !u.Role.CanOrder() || u.WarningCount > 0 || u.IsVIP {
		return false, nil
	}
	if u.TotalSpent > types.FromDollars(100) || u.OrderCount >= 3 {
		u.IsVIP = true
		u.Role = user.Role{Kind: user.RoleVIP}
		return true, nil
	}
	return false, nil
}

// Catalog

type fixtureCatalog struct{ f *fixture }

func (c fixtureCatalog) Get(_ context.Context, id types.ID) (*menu.Dish, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	d, ok := c.f.dishes[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (c fixtureCatalog) AddRating(_ context.Context, dishID types.ID, rating int) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	d, ok := c.f.dishes[dishID]
	if !ok {
		return menu.ErrNotFound
	}
	if rating < 1 || rating > 5 {
		return menu.ErrValidation
	}
	total := d.AverageRating * float64(d.RatingCount)
	d.RatingCount++
	d.AverageRating = (total + float64(rating)) / float64(d.RatingCount)
	return nil
}

// Store

type fixtureStore struct{ f *fixture }

func (s fixtureStore) Create(_ context.Context, o *Order) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	cp := *o
	s.f.orders[o.ID] = &cp
	return nil
}

func (s fixtureStore) Get(_ context.Context, id types.ID) (*Order, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	o, ok := s.f.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s fixtureStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, note string) (bool, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	o, ok := s.f.orders[id]
	if !ok {
		return false, nil
	}
	if o.Status != from || o.StatusVersion != version {
		return false, nil
	}
	o.Status = to
	o.StatusVersion++
	if note != "" {
		o.Notes = note
	}
	return true, nil
}

func (s fixtureStore) ApplyConfirm(_ context.Context, o *Order) (bool, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	stored, ok := s.f.orders[o.ID]
	if !ok || stored.Status != StatusPendingPayment || stored.StatusVersion != o.StatusVersion {
		return false, nil
	}
	u := s.f.users[o.CustomerID]
	if u == nil || u.Balance < o.FinalPrice {
		return false, ErrInsufficientFunds
	}
	stored.Status = StatusQueuedForPreparation
	stored.StatusVersion++
	stored.OriginalPrice = o.OriginalPrice
	stored.DiscountApplied = o.DiscountApplied
	stored.FinalPrice = o.FinalPrice
	u.Balance -= o.FinalPrice
	u.TotalSpent += o.FinalPrice
	u.OrderCount++
	for _, it := range o.Items {
		if d := s.f.dishes[it.DishID]; d != nil {
			d.OrderCount += it.Quantity
		}
	}
	return true, nil
}

func (s fixtureStore) ListByCustomer(_ context.Context, customerID types.ID) ([]Order, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []Order
	for _, o := range s.f.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s fixtureStore) ListByStatus(_ context.Context, statuses ...Status) ([]Order, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []Order
	for _, o := range s.f.orders {
		for _, st := range statuses {
			if o.Status == st {
				out = append(out, *o)
			}
		}
	}
	return out, nil
}

func newTestService(f *fixture) *Service {
	return NewService(fixtureStore{f}, f, fixtureCatalog{f})
}

// ---------------------------------------------------------------------------
// Creation and pricing
// ---------------------------------------------------------------------------

func TestCreatePricing(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	dish := f.addDish(types.FromDollars(15), true)

	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(50)})
	o, err := svc.Create(ctx, CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: dish, Quantity: 2}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status != StatusPendingPayment {
		t.Fatalf("status = %s, want PendingPayment", o.Status)
	}
	if o.OriginalPrice != types.FromDollars(30) || o.DiscountApplied != 0 || o.FinalPrice != types.FromDollars(30) {
		t.Fatalf("pricing: %d/%d/%d", o.OriginalPrice, o.DiscountApplied, o.FinalPrice)
	}

	vipID := f.addUser(user.User{Role: user.Role{Kind: user.RoleVIP}, IsVIP: true, Balance: types.FromDollars(50)})
	o, err = svc.Create(ctx, CreateCommand{CustomerID: vipID, Items: []ItemRequest{{DishID: dish, Quantity: 2}}})
	if err != nil {
		t.Fatalf("vip create: %v", err)
	}
	if o.DiscountApplied != types.FromDollars(3) || o.FinalPrice != types.FromDollars(27) {
		t.Fatalf("vip pricing: discount=%d final=%d", o.DiscountApplied, o.FinalPrice)
	}
	if o.FinalPrice != o.OriginalPrice-o.DiscountApplied {
		t.Fatal("final != original - discount")
	}
}

func TestDiscountRoundsToCent(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	// 29.99 * 10% = 2.999 -> rounds to 3.00
	dish := f.addDish(2999, true)
	vipID := f.addUser(user.User{Role: user.Role{Kind: user.RoleVIP}, IsVIP: true, Balance: types.FromDollars(100)})

	o, err := svc.Create(ctx, CreateCommand{CustomerID: vipID, Items: []ItemRequest{{DishID: dish, Quantity: 1}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.DiscountApplied != 300 {
		t.Fatalf("discount = %d cents, want 300", o.DiscountApplied)
	}
	if o.FinalPrice != 2699 {
		t.Fatalf("final = %d cents, want 2699", o.FinalPrice)
	}
}

func TestCreatePreconditions(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	dish := f.addDish(types.FromDollars(10), true)
	offDish := f.addDish(types.FromDollars(10), false)

	chefID := f.addUser(user.User{Role: user.Role{Kind: user.RoleChef}, Balance: types.FromDollars(50)})
	pendingID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Status: user.StatusPendingApproval, Balance: types.FromDollars(50)})
	brokeID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: 0})
	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(50)})

	items := []ItemRequest{{DishID: dish, Quantity: 1}}
	cases := []struct {
		name string
		cmd  CreateCommand
		want error
	}{
		{"chef cannot order", CreateCommand{CustomerID: chefID, Items: items}, ErrInvalidCustomer},
		{"unknown caller", CreateCommand{CustomerID: "nobody", Items: items}, ErrInvalidCustomer},
		{"pending account", CreateCommand{CustomerID: pendingID, Items: items}, ErrInactiveAccount},
		{"zero balance", CreateCommand{CustomerID: brokeID, Items: items}, ErrNoBalance},
		{"unavailable dish", CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: offDish, Quantity: 1}}}, ErrDishUnavailable},
		{"unknown dish", CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: "nope", Quantity: 1}}}, ErrDishUnavailable},
		{"zero quantity", CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: dish, Quantity: 0}}}, ErrValidation},
		{"no items", CreateCommand{CustomerID: custID}, ErrValidation},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.cmd); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Confirmation
// ---------------------------------------------------------------------------

func TestConfirmDebitsAndQueues(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	dish := f.addDish(types.FromDollars(15), true)
	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(50)})

	o, err := svc.Create(ctx, CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: dish, Quantity: 2}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err := svc.Confirm(ctx, o.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.NewBalance != types.FromDollars(20) {
		t.Fatalf("balance = %d, want 2000", res.NewBalance)
	}
	got, _ := svc.Get(ctx, o.ID)
	if got.Status != StatusQueuedForPreparation {
		t.Fatalf("status = %s, want Queued_For_Preparation", got.Status)
	}
	if f.dishes[dish].OrderCount != 2 {
		t.Fatalf("dish order count = %d, want 2", f.dishes[dish].OrderCount)
	}
	u, _ := f.Get(ctx, custID)
	if u.TotalSpent != types.FromDollars(30) || u.OrderCount != 1 {
		t.Fatalf("spend counters: spent=%d orders=%d", u.TotalSpent, u.OrderCount)
	}
}

func TestConfirmInsufficientFunds(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	dish := f.addDish(types.FromDollars(30), true)
	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(5)})

	o, err := svc.Create(ctx, CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: dish, Quantity: 1}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.Confirm(ctx, o.ID)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	got, _ := svc.Get(ctx, o.ID)
	if got.Status != StatusRejectedNoFunds {
		t.Fatalf("status = %s, want Rejected_Insufficient_Funds", got.Status)
	}
	u, _ := f.Get(ctx, custID)
	if u.Balance != types.FromDollars(5) {
		t.Fatalf("balance mutated: %d", u.Balance)
	}
	if u.WarningCount != 1 {
		t.Fatalf("warning count = %d, want 1", u.WarningCount)
	}
}

func TestConfirmTwiceRejected(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	dish := f.addDish(types.FromDollars(10), true)
	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(50)})

	o, _ := svc.Create(ctx, CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: dish, Quantity: 1}}})
	if _, err := svc.Confirm(ctx, o.ID); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err := svc.Confirm(ctx, o.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second confirm err = %v, want ErrInvalidTransition", err)
	}
	var te *TransitionError
	if !errors.As(err, &te) || te.Current != StatusQueuedForPreparation {
		t.Fatalf("transition error detail: %v", err)
	}
	// only one debit landed
	u, _ := f.Get(ctx, custID)
	if u.Balance != types.FromDollars(40) {
		t.Fatalf("balance = %d, want 4000", u.Balance)
	}
}

func TestConfirmRepricesForFreshVIP(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	dish := f.addDish(types.FromDollars(20), true)
	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(100)})

	// order created while still a plain customer
	o, _ := svc.Create(ctx, CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: dish, Quantity: 1}}})
	if o.DiscountApplied != 0 {
		t.Fatalf("created discount = %d, want 0", o.DiscountApplied)
	}

	// promoted before confirmation: discount applies at confirmation time
	f.mu.Lock()
	f.users[custID].IsVIP = true
	f.users[custID].Role = user.Role{Kind: user.RoleVIP}
	f.mu.Unlock()

	res, err := svc.Confirm(ctx, o.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Order.DiscountApplied != types.FromDollars(2) || res.Order.FinalPrice != types.FromDollars(18) {
		t.Fatalf("repriced: discount=%d final=%d", res.Order.DiscountApplied, res.Order.FinalPrice)
	}
}

func TestConfirmTriggersVIPUpgrade(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	dish := f.addDish(types.FromDollars(10), true)
	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(100), OrderCount: 2})

	o, _ := svc.Create(ctx, CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: dish, Quantity: 1}}})
	res, err := svc.Confirm(ctx, o.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !res.VIPUpgraded {
		t.Fatal("third order did not trigger VIP upgrade")
	}
	u, _ := f.Get(ctx, custID)
	if !u.IsVIP {
		t.Fatal("user not marked VIP")
	}
}

func TestConfirmConcurrentSingleDebit(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	dish := f.addDish(types.FromDollars(10), true)
	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(50)})

	o, _ := svc.Create(ctx, CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: dish, Quantity: 1}}})

	const n = 4
	var wg sync.WaitGroup
	errs := make(chan error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Confirm(ctx, o.ID)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful confirm, got %d", success)
	}
	u, _ := f.Get(ctx, custID)
	if u.Balance != types.FromDollars(40) {
		t.Fatalf("balance = %d, want a single debit to 4000", u.Balance)
	}
}

// ---------------------------------------------------------------------------
// Kitchen transitions
// ---------------------------------------------------------------------------

func confirmedOrder(t *testing.T, f *fixture, svc *Service) types.ID {
	t.Helper()
	ctx := context.Background()
	dish := f.addDish(types.FromDollars(10), true)
	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(100)})
	o, err := svc.Create(ctx, CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: dish, Quantity: 1}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Confirm(ctx, o.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return o.ID
}

func TestRateDishRequiresDeliveredOrder(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	dish := f.addDish(types.FromDollars(10), true)
	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(100)})
	o, err := svc.Create(ctx, CreateCommand{CustomerID: custID, Items: []ItemRequest{{DishID: dish, Quantity: 1}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Confirm(ctx, o.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// still in the kitchen
	if err := svc.RateDish(ctx, custID, dish, 5); !errors.Is(err, ErrDishNotReceived) {
		t.Fatalf("rating before delivery err = %v, want ErrDishNotReceived", err)
	}

	f.orders[o.ID].Status = StatusCompleted

	otherDish := f.addDish(types.FromDollars(8), true)
	if err := svc.RateDish(ctx, custID, otherDish, 5); !errors.Is(err, ErrDishNotReceived) {
		t.Fatalf("rating an unordered dish err = %v, want ErrDishNotReceived", err)
	}
	strangerID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(10)})
	if err := svc.RateDish(ctx, strangerID, dish, 5); !errors.Is(err, ErrDishNotReceived) {
		t.Fatalf("stranger rating err = %v, want ErrDishNotReceived", err)
	}

	if err := svc.RateDish(ctx, custID, dish, 5); err != nil {
		t.Fatalf("rate delivered dish: %v", err)
	}
	d := f.dishes[dish]
	if d.RatingCount != 1 || d.AverageRating != 5 {
		t.Fatalf("dish rating = %v (%d votes), want 5 (1 vote)", d.AverageRating, d.RatingCount)
	}
}

func TestKitchenFlow(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	id := confirmedOrder(t, f, svc)
	chefID := f.addUser(user.User{Role: user.Role{Kind: user.RoleChef}})

	if err := svc.StartPreparation(ctx, chefID, id); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.CompletePreparation(ctx, chefID, id); err != nil {
		t.Fatalf("complete: %v", err)
	}
	o, _ := svc.Get(ctx, id)
	if o.Status != StatusReadyForDelivery {
		t.Fatalf("status = %s, want Ready_For_Delivery", o.Status)
	}
}

func TestKitchenRequiresChef(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	id := confirmedOrder(t, f, svc)
	custID := f.addUser(user.User{Role: user.Role{Kind: user.RoleCustomer}, Balance: types.FromDollars(10)})
	firedID := f.addUser(user.User{Role: user.Role{Kind: user.RoleChef}, Status: user.StatusTerminated})

	if err := svc.StartPreparation(ctx, custID, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("customer start err = %v, want ErrUnauthorized", err)
	}
	if err := svc.Hold(ctx, custID, id, "nope"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("customer hold err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.PreparationQueue(ctx, custID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("customer queue err = %v, want ErrUnauthorized", err)
	}
	if err := svc.StartPreparation(ctx, firedID, id); !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("terminated chef start err = %v, want ErrInactiveAccount", err)
	}
	o, _ := svc.Get(ctx, id)
	if o.Status != StatusQueuedForPreparation {
		t.Fatalf("order moved to %s without a chef", o.Status)
	}

	// demotion changes standing, not kitchen access
	demotedID := f.addUser(user.User{Role: user.Role{Kind: user.RoleChef, Demoted: true}})
	if err := svc.StartPreparation(ctx, demotedID, id); err != nil {
		t.Fatalf("demoted chef start: %v", err)
	}
}

func TestKitchenInvalidTransitions(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	id := confirmedOrder(t, f, svc)
	chefID := f.addUser(user.User{Role: user.Role{Kind: user.RoleChef}})

	// complete before start
	if err := svc.CompletePreparation(ctx, chefID, id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("complete from queued err = %v, want ErrInvalidTransition", err)
	}
	if err := svc.StartPreparation(ctx, chefID, id); err != nil {
		t.Fatalf("start: %v", err)
	}
	// start twice
	if err := svc.StartPreparation(ctx, chefID, id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double start err = %v, want ErrInvalidTransition", err)
	}
}

func TestHoldAndResume(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	id := confirmedOrder(t, f, svc)
	chefID := f.addUser(user.User{Role: user.Role{Kind: user.RoleChef}})

	if err := svc.Hold(ctx, chefID, id, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("hold without note err = %v, want ErrValidation", err)
	}
	if err := svc.Hold(ctx, chefID, id, "out of basil"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	o, _ := svc.Get(ctx, id)
	if o.Status != StatusOnHold || o.Notes != "out of basil" {
		t.Fatalf("held order: status=%s notes=%q", o.Status, o.Notes)
	}
	if err := svc.Resume(ctx, chefID, id); err != nil {
		t.Fatalf("resume: %v", err)
	}
	o, _ = svc.Get(ctx, id)
	if o.Status != StatusInPreparation {
		t.Fatalf("resumed status = %s", o.Status)
	}
	// hold is only valid from queued or in-preparation
	if err := svc.CompletePreparation(ctx, chefID, id); err != nil {
		t.Fatal(err)
	}
	if err := svc.Hold(ctx, chefID, id, "too late"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("hold from ready err = %v, want ErrInvalidTransition", err)
	}
}
