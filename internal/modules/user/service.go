// README: User service; registration, ledger operations, warning/VIP escalation, and complaint effects.
package user

import (
	"context"
	"errors"

	"aieats/internal/auth"
	"aieats/internal/types"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrConflict     = errors.New("user record conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("invalid input")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInactive     = errors.New("account is not active")
	ErrBadLogin     = errors.New("invalid email or password")
)

type Store interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id types.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update persists the full record iff RowVersion still matches,
	// then bumps it. Returns false when the compare-and-swap lost.
	Update(ctx context.Context, u *User) (bool, error)
	ListByStatus(ctx context.Context, status Status) ([]User, error)
	ListEmployees(ctx context.Context) ([]User, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type RegisterCommand struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Address  string
}

// Register creates a new customer account pending manager approval.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (types.ID, error) {
	if cmd.Email == "" || cmd.Password == "" || cmd.Name == "" {
		return "", ErrValidation
	}
	if existing, err := s.store.GetByEmail(ctx, cmd.Email); err == nil && existing != nil {
		return "", ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	hash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return "", err
	}
	u := &User{
		ID:           types.NewID(),
		Email:        cmd.Email,
		PasswordHash: hash,
		Name:         cmd.Name,
		Phone:        cmd.Phone,
		Address:      cmd.Address,
		Role:         Role{Kind: RoleCustomer},
		Status:       StatusPendingApproval,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return "", err
	}
	return u.ID, nil
}

// Login checks credentials and returns the user. Rejected and blacklisted
// accounts may not log in; pending accounts may (they just cannot order yet).
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBadLogin
	}
	if err != nil {
		return nil, err
	}
	if u.Status == StatusRejected || u.Status == StatusBlacklisted {
		return nil, ErrInactive
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrBadLogin
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*User, error) {
	return s.store.Get(ctx, id)
}

// Deposit credits the user's balance. Each call is a distinct deposit.
func (s *Service) Deposit(ctx context.Context, id types.ID, amount types.Money) (types.Money, error) {
	if amount <= 0 {
		return 0, ErrValidation
	}
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if u.Status.Terminal() {
		return 0, ErrInactive
	}
	u.Balance += amount
	if err := s.save(ctx, u); err != nil {
		return 0, err
	}
	return u.Balance, nil
}

// ApplyWarning increments the warning counter and runs the escalation rules:
// a VIP reaching 2 warnings is demoted to Customer with counters forgiven,
// a Customer reaching 3 is deregistered. Employee and manager roles are not
// subject to this path.
func (s *Service) ApplyWarning(ctx context.Context, id types.ID, reason string) error {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.Status.Terminal() {
		return nil
	}
	u.WarningCount++
	switch u.Role.Kind {
	case RoleVIP:
		if u.WarningCount >= 2 {
			u.Role = Role{Kind: RoleCustomer}
			u.IsVIP = false
			u.WarningCount = 0
		}
	case RoleCustomer:
		if u.WarningCount >= 3 {
			u.Status = StatusDeregistered
		}
	}
	return s.save(ctx, u)
}

// UpdateVIPStatus promotes an eligible customer to VIP. Returns true only
// when a promotion actually happened; users with warnings, non-customer
// roles, or existing VIP status are left unchanged.
func (s *Service) UpdateVIPStatus(ctx context.Context, id types.ID) (bool, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if !u.Role.CanOrder() || u.WarningCount > 0 || u.IsVIP {
		return false, nil
	}
	if u.TotalSpent > types.FromDollars(100) || u.OrderCount >= 3 {
		u.IsVIP = true
		u.Role = Role{Kind: RoleVIP}
		if err := s.save(ctx, u); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ApplyComplaintEffect adjusts an employee's net complaint score. Positive
// weight comes from valid complaints, negative weight from valid compliments
// (the score never drops below zero). Reaching 3 triggers the two-strike
// rule: first a demotion that forgives the score, then termination.
func (s *Service) ApplyComplaintEffect(ctx context.Context, id types.ID, entity RoleKind, weight int) error {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.Status.Terminal() {
		// Terminated employees accept no further role changes.
		return nil
	}
	u.NetComplaints += weight
	if u.NetComplaints < 0 {
		u.NetComplaints = 0
	}
	if (entity == RoleChef || entity == RoleDeliveryPerson) && u.NetComplaints >= 3 {
		if u.DemotionsCount == 0 {
			u.Role = Role{Kind: entity, Demoted: true}
			u.DemotionsCount++
			u.NetComplaints = 0
		} else {
			u.Status = StatusTerminated
		}
	}
	return s.save(ctx, u)
}

// Discipline applies one strike to an employee directly, outside the net
// complaint counter: a first strike demotes and forgives the score, a
// second terminates. No-op on terminal or already-demoted employees.
func (s *Service) Discipline(ctx context.Context, id types.ID, entity RoleKind) error {
	if entity != RoleChef && entity != RoleDeliveryPerson {
		return ErrValidation
	}
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.Status.Terminal() || u.Role.Demoted {
		return nil
	}
	if u.DemotionsCount == 0 {
		u.Role = Role{Kind: entity, Demoted: true}
		u.DemotionsCount++
		u.NetComplaints = 0
	} else {
		u.Status = StatusTerminated
	}
	return s.save(ctx, u)
}

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// ApproveRegistration lets a manager activate or reject a pending account.
func (s *Service) ApproveRegistration(ctx context.Context, managerID, userID types.ID, decision Decision, reason string) error {
	if err := s.requireManager(ctx, managerID); err != nil {
		return err
	}
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.Status != StatusPendingApproval {
		return ErrValidation
	}
	switch decision {
	case DecisionApprove:
		u.Status = StatusActive
	case DecisionReject:
		u.Status = StatusRejected
		if reason == "" {
			reason = "Application rejected by manager."
		}
		u.RejectionReason = reason
	default:
		return ErrValidation
	}
	return s.save(ctx, u)
}

func (s *Service) PendingRegistrations(ctx context.Context) ([]User, error) {
	return s.store.ListByStatus(ctx, StatusPendingApproval)
}

func (s *Service) Employees(ctx context.Context) ([]User, error) {
	return s.store.ListEmployees(ctx)
}

// Blacklist marks a user as blacklisted (terminal).
func (s *Service) Blacklist(ctx context.Context, managerID, userID types.ID) error {
	if err := s.requireManager(ctx, managerID); err != nil {
		return err
	}
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	u.Status = StatusBlacklisted
	return s.save(ctx, u)
}

// Hire converts a user into an active employee with the given role.
func (s *Service) Hire(ctx context.Context, managerID, userID types.ID, kind RoleKind) error {
	if err := s.requireManager(ctx, managerID); err != nil {
		return err
	}
	if kind != RoleChef && kind != RoleDeliveryPerson {
		return ErrValidation
	}
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	u.Role = Role{Kind: kind}
	u.Status = StatusActive
	return s.save(ctx, u)
}

// Fire converts an employee back into an active customer.
func (s *Service) Fire(ctx context.Context, managerID, userID types.ID, reason string) error {
	if err := s.requireManager(ctx, managerID); err != nil {
		return err
	}
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if reason == "" {
		reason = "Terminated by manager"
	}
	u.Role = Role{Kind: RoleCustomer}
	u.Status = StatusActive
	u.TerminationReason = reason
	return s.save(ctx, u)
}

// Promote restores a demoted employee to the full role and forgives the
// demotion and complaint counters.
func (s *Service) Promote(ctx context.Context, managerID, userID types.ID) error {
	if err := s.requireManager(ctx, managerID); err != nil {
		return err
	}
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !u.Role.Demoted {
		return ErrValidation
	}
	u.Role = Role{Kind: u.Role.Kind}
	u.DemotionsCount = 0
	u.NetComplaints = 0
	return s.save(ctx, u)
}

// PayBonus credits an employee's balance.
func (s *Service) PayBonus(ctx context.Context, managerID, userID types.ID, amount types.Money) (types.Money, error) {
	if err := s.requireManager(ctx, managerID); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, ErrValidation
	}
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	u.Balance += amount
	if err := s.save(ctx, u); err != nil {
		return 0, err
	}
	return u.Balance, nil
}

func (s *Service) requireManager(ctx context.Context, id types.ID) error {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return ErrUnauthorized
	}
	if m.Role.Kind != RoleManager {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) save(ctx context.Context, u *User) error {
	ok, err := s.store.Update(ctx, u)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
