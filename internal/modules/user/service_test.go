// README: User service tests covering ledger, warning escalation, VIP, and complaint effects.
package user

import (
	"context"
	"sync"
	"testing"

	"aieats/internal/types"
)

// memStore is an in-memory Store used by service tests.
type memStore struct {
	mu    sync.Mutex
	users map[types.ID]User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[types.ID]User)}
}

func (m *memStore) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Update(_ context.Context, u *User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.ID]
	if !ok {
		return false, ErrNotFound
	}
	if cur.RowVersion != u.RowVersion {
		return false, nil
	}
	cp := *u
	cp.RowVersion++
	m.users[u.ID] = cp
	u.RowVersion++
	return true, nil
}

func (m *memStore) ListByStatus(_ context.Context, status Status) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if u.Status == status {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) ListEmployees(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if u.Role.IsEmployee() && u.Status != StatusTerminated {
			out = append(out, u)
		}
	}
	return out, nil
}

func seedUser(t *testing.T, store *memStore, u User) types.ID {
	t.Helper()
	if u.ID == "" {
		u.ID = types.NewID()
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if err := store.Create(context.Background(), &u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func TestParseRoleRoundTrip(t *testing.T) {
	for _, s := range []string{
		"Customer", "VIP", "Chef", "DeliveryPerson", "Manager",
		"Demoted_Chef", "Demoted_DeliveryPerson",
	} {
		r, err := ParseRole(s)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", s, err)
		}
		if r.String() != s {
			t.Errorf("round trip %q -> %q", s, r.String())
		}
	}
	if _, err := ParseRole("Demoted_Customer"); err == nil {
		t.Error("Demoted_Customer parsed, want error")
	}
	if _, err := ParseRole("Wizard"); err == nil {
		t.Error("Wizard parsed, want error")
	}
}

func TestDeposit(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	id := seedUser(t, store, User{Role: Role{Kind: RoleCustomer}, Balance: types.FromDollars(10)})

	bal, err := svc.Deposit(ctx, id, types.FromDollars(25.50))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if bal != types.FromDollars(35.50) {
		t.Fatalf("balance = %v, want 3550", bal)
	}

	if _, err := svc.Deposit(ctx, id, 0); err != ErrValidation {
		t.Fatalf("zero deposit err = %v, want ErrValidation", err)
	}
	if _, err := svc.Deposit(ctx, id, -100); err != ErrValidation {
		t.Fatalf("negative deposit err = %v, want ErrValidation", err)
	}
}

func TestApplyWarningVIPDemotion(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	id := seedUser(t, store, User{Role: Role{Kind: RoleVIP}, IsVIP: true, WarningCount: 1})

	if err := svc.ApplyWarning(ctx, id, "reckless order attempt"); err != nil {
		t.Fatalf("apply warning: %v", err)
	}
	u, _ := svc.Get(ctx, id)
	if u.Role.Kind != RoleCustomer || u.IsVIP || u.WarningCount != 0 {
		t.Fatalf("after demotion: role=%s isVIP=%v warnings=%d, want Customer/false/0",
			u.Role, u.IsVIP, u.WarningCount)
	}
	// demotion forgave past warnings; a single new warning does not re-trigger
	if err := svc.ApplyWarning(ctx, id, "again"); err != nil {
		t.Fatalf("apply warning: %v", err)
	}
	u, _ = svc.Get(ctx, id)
	if u.Status != StatusActive || u.WarningCount != 1 {
		t.Fatalf("after one post-demotion warning: status=%s warnings=%d", u.Status, u.WarningCount)
	}
}

func TestApplyWarningCustomerDeregistration(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	id := seedUser(t, store, User{Role: Role{Kind: RoleCustomer}, WarningCount: 2})

	if err := svc.ApplyWarning(ctx, id, "third strike"); err != nil {
		t.Fatalf("apply warning: %v", err)
	}
	u, _ := svc.Get(ctx, id)
	if u.Status != StatusDeregistered {
		t.Fatalf("status = %s, want Deregistered", u.Status)
	}
	// terminal: further warnings are ignored
	if err := svc.ApplyWarning(ctx, id, "noop"); err != nil {
		t.Fatalf("warning on terminal user: %v", err)
	}
	u, _ = svc.Get(ctx, id)
	if u.WarningCount != 3 {
		t.Fatalf("warning count mutated on terminal user: %d", u.WarningCount)
	}
}

func TestApplyWarningEmployeeNotEscalated(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	id := seedUser(t, store, User{Role: Role{Kind: RoleChef}, WarningCount: 5})

	if err := svc.ApplyWarning(ctx, id, "late"); err != nil {
		t.Fatalf("apply warning: %v", err)
	}
	u, _ := svc.Get(ctx, id)
	if u.Status != StatusActive || u.WarningCount != 6 {
		t.Fatalf("chef warning path: status=%s warnings=%d", u.Status, u.WarningCount)
	}
}

func TestUpdateVIPStatus(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	cases := []struct {
		name string
		u    User
		want bool
	}{
		{"by spend", User{Role: Role{Kind: RoleCustomer}, TotalSpent: types.FromDollars(150)}, true},
		{"by order count", User{Role: Role{Kind: RoleCustomer}, OrderCount: 3}, true},
		{"spend exactly 100 not enough", User{Role: Role{Kind: RoleCustomer}, TotalSpent: types.FromDollars(100)}, false},
		{"warnings block promotion", User{Role: Role{Kind: RoleCustomer}, OrderCount: 5, WarningCount: 1}, false},
		{"already vip", User{Role: Role{Kind: RoleVIP}, IsVIP: true, OrderCount: 9}, false},
		{"chef ineligible", User{Role: Role{Kind: RoleChef}, OrderCount: 9}, false},
	}
	for _, tc := range cases {
		id := seedUser(t, store, tc.u)
		got, err := svc.UpdateVIPStatus(ctx, id)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: promoted = %v, want %v", tc.name, got, tc.want)
		}
		if tc.want {
			u, _ := svc.Get(ctx, id)
			if !u.IsVIP || u.Role.Kind != RoleVIP {
				t.Errorf("%s: not actually promoted: %+v", tc.name, u)
			}
		}
	}
}

func TestApplyComplaintEffectTwoStrikes(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	id := seedUser(t, store, User{Role: Role{Kind: RoleChef}})

	// three weight-1 complaints: 0 -> 3 demotes and forgives
	for i := 0; i < 3; i++ {
		if err := svc.ApplyComplaintEffect(ctx, id, RoleChef, 1); err != nil {
			t.Fatalf("effect %d: %v", i, err)
		}
	}
	u, _ := svc.Get(ctx, id)
	if u.Role.String() != "Demoted_Chef" || u.DemotionsCount != 1 || u.NetComplaints != 0 {
		t.Fatalf("after first strike: role=%s demotions=%d net=%d", u.Role, u.DemotionsCount, u.NetComplaints)
	}

	// second climb to 3 terminates
	for i := 0; i < 3; i++ {
		if err := svc.ApplyComplaintEffect(ctx, id, RoleChef, 1); err != nil {
			t.Fatalf("effect %d: %v", i, err)
		}
	}
	u, _ = svc.Get(ctx, id)
	if u.Status != StatusTerminated {
		t.Fatalf("after second strike: status=%s, want Terminated", u.Status)
	}

	// terminated: no further changes accepted
	if err := svc.ApplyComplaintEffect(ctx, id, RoleChef, 1); err != nil {
		t.Fatalf("effect on terminated: %v", err)
	}
	after, _ := svc.Get(ctx, id)
	if after.NetComplaints != u.NetComplaints {
		t.Fatal("terminated employee mutated")
	}
}

func TestApplyComplaintEffectVIPWeight(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	id := seedUser(t, store, User{Role: Role{Kind: RoleDeliveryPerson}})

	// one VIP complaint (weight 2) plus one regular complaint demotes
	if err := svc.ApplyComplaintEffect(ctx, id, RoleDeliveryPerson, 2); err != nil {
		t.Fatal(err)
	}
	if err := svc.ApplyComplaintEffect(ctx, id, RoleDeliveryPerson, 1); err != nil {
		t.Fatal(err)
	}
	u, _ := svc.Get(ctx, id)
	if u.Role.String() != "Demoted_DeliveryPerson" {
		t.Fatalf("role = %s, want Demoted_DeliveryPerson", u.Role)
	}
}

func TestApplyComplaintEffectComplimentFloor(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	id := seedUser(t, store, User{Role: Role{Kind: RoleChef}, NetComplaints: 1})

	// compliments subtract but never push the score negative
	if err := svc.ApplyComplaintEffect(ctx, id, RoleChef, -1); err != nil {
		t.Fatal(err)
	}
	if err := svc.ApplyComplaintEffect(ctx, id, RoleChef, -2); err != nil {
		t.Fatal(err)
	}
	u, _ := svc.Get(ctx, id)
	if u.NetComplaints != 0 {
		t.Fatalf("net = %d, want 0", u.NetComplaints)
	}
}

func TestManagerGatedOperations(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	managerID := seedUser(t, store, User{Role: Role{Kind: RoleManager}})
	customerID := seedUser(t, store, User{Role: Role{Kind: RoleCustomer}})
	pendingID := seedUser(t, store, User{Role: Role{Kind: RoleCustomer}, Status: StatusPendingApproval})

	if err := svc.Hire(ctx, customerID, pendingID, RoleChef); err != ErrUnauthorized {
		t.Fatalf("non-manager hire err = %v, want ErrUnauthorized", err)
	}
	if err := svc.ApproveRegistration(ctx, managerID, pendingID, DecisionApprove, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	u, _ := svc.Get(ctx, pendingID)
	if u.Status != StatusActive {
		t.Fatalf("status = %s, want Active", u.Status)
	}
	// re-approval of a non-pending account is rejected
	if err := svc.ApproveRegistration(ctx, managerID, pendingID, DecisionApprove, ""); err != ErrValidation {
		t.Fatalf("second approve err = %v, want ErrValidation", err)
	}

	if err := svc.Hire(ctx, managerID, pendingID, RoleManager); err != ErrValidation {
		t.Fatalf("hire as manager err = %v, want ErrValidation", err)
	}
	if err := svc.Hire(ctx, managerID, pendingID, RoleChef); err != nil {
		t.Fatalf("hire: %v", err)
	}
	u, _ = svc.Get(ctx, pendingID)
	if u.Role.Kind != RoleChef {
		t.Fatalf("role = %s, want Chef", u.Role)
	}
}

func TestPromoteRestoresDemotedEmployee(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	managerID := seedUser(t, store, User{Role: Role{Kind: RoleManager}})
	chefID := seedUser(t, store, User{
		Role: Role{Kind: RoleChef, Demoted: true}, DemotionsCount: 1, NetComplaints: 2,
	})

	if err := svc.Promote(ctx, managerID, chefID); err != nil {
		t.Fatalf("promote: %v", err)
	}
	u, _ := svc.Get(ctx, chefID)
	if u.Role.String() != "Chef" || u.DemotionsCount != 0 || u.NetComplaints != 0 {
		t.Fatalf("after promote: role=%s demotions=%d net=%d", u.Role, u.DemotionsCount, u.NetComplaints)
	}

	// promoting a non-demoted user is invalid
	if err := svc.Promote(ctx, managerID, chefID); err != ErrValidation {
		t.Fatalf("promote non-demoted err = %v, want ErrValidation", err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	id, err := svc.Register(ctx, RegisterCommand{Email: "a@b.c", Password: "pw", Name: "A"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	u, _ := svc.Get(ctx, id)
	if u.Status != StatusPendingApproval || u.Role.Kind != RoleCustomer {
		t.Fatalf("fresh user: %+v", u)
	}

	if _, err := svc.Register(ctx, RegisterCommand{Email: "a@b.c", Password: "pw", Name: "A"}); err != ErrEmailTaken {
		t.Fatalf("duplicate register err = %v, want ErrEmailTaken", err)
	}

	if _, err := svc.Login(ctx, "a@b.c", "wrong"); err != ErrBadLogin {
		t.Fatalf("bad password err = %v, want ErrBadLogin", err)
	}
	got, err := svc.Login(ctx, "a@b.c", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != id {
		t.Fatalf("login returned %s, want %s", got.ID, id)
	}

	// blacklisted accounts may not log in
	u, _ = svc.Get(ctx, id)
	u.Status = StatusBlacklisted
	if _, err := store.Update(ctx, u); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, "a@b.c", "pw"); err != ErrInactive {
		t.Fatalf("blacklisted login err = %v, want ErrInactive", err)
	}
}

func TestConcurrentWarningsSerialized(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	id := seedUser(t, store, User{Role: Role{Kind: RoleChef}})

	const n = 8
	var wg sync.WaitGroup
	results := make(chan error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- svc.ApplyWarning(ctx, id, "race")
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	applied := 0
	for err := range results {
		switch err {
		case nil:
			applied++
		case ErrConflict:
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	u, _ := svc.Get(ctx, id)
	if u.WarningCount != applied {
		t.Fatalf("warning count %d != successful writes %d (lost update)", u.WarningCount, applied)
	}
}
