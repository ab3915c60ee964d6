// README: Reputation engine; periodic performance evaluation of chefs and couriers.
package reputation

import (
	"context"
	"errors"

	"aieats/internal/modules/complaint"
	"aieats/internal/modules/user"
	"aieats/internal/types"
)

var (
	ErrNotFound     = errors.New("employee not found")
	ErrUnauthorized = errors.New("caller is not allowed to perform this action")
	ErrNotEmployee  = errors.New("user is not a chef or delivery person")
)

const (
	// demotionAvgThreshold and demotionNetThreshold gate the discipline
	// path: average rating below 2.0 or net complaints at 3 or above.
	demotionAvgThreshold = 2.0
	demotionNetThreshold = 3

	// bonusAvgThreshold and bonusComplimentThreshold gate the bonus
	// signal: average above 4.0 or at least 3 valid compliments.
	bonusAvgThreshold        = 4.0
	bonusComplimentThreshold = 3
)

// Accounts is the slice of the user service the evaluation needs.
type Accounts interface {
	Get(ctx context.Context, id types.ID) (*user.User, error)
	Discipline(ctx context.Context, id types.ID, entity user.RoleKind) error
}

// Complaints supplies the aggregate of an employee's Valid filings.
type Complaints interface {
	ValidStats(ctx context.Context, targetID types.ID) (complaint.Stats, error)
}

type Service struct {
	accounts   Accounts
	complaints Complaints
}

func NewService(accounts Accounts, complaints Complaints) *Service {
	return &Service{accounts: accounts, complaints: complaints}
}

// Outcome describes what a single evaluation concluded and applied.
// Demotion/termination and bonus eligibility are independent signals; both
// can be set in the same call.
type Outcome struct {
	EmployeeID    types.ID
	EntityType    user.RoleKind
	AverageRating float64
	NetComplaints int
	Compliments   int

	Demoted       bool
	Terminated    bool
	BonusEligible bool
}

// Evaluate derives an employee's standing from their Valid filings and
// applies the two-strike discipline when the gate fires. The gate only
// applies to employees in their non-demoted role, which makes repeated
// evaluations with no new complaints a pure read: once demoted, nothing
// changes until a manager re-promotes the employee.
//
// Only a manager or the employee themselves may call it.
func (s *Service) Evaluate(ctx context.Context, callerID, employeeID types.ID) (*Outcome, error) {
	if err := s.authorize(ctx, callerID, employeeID); err != nil {
		return nil, err
	}
	emp, err := s.accounts.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.Role.Kind != user.RoleChef && emp.Role.Kind != user.RoleDeliveryPerson {
		return nil, ErrNotEmployee
	}
	stats, err := s.complaints.ValidStats(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		EmployeeID:    employeeID,
		EntityType:    emp.Role.Kind,
		AverageRating: stats.AverageRating(),
		NetComplaints: stats.NetComplaints(),
		Compliments:   stats.Compliments,
	}

	underperforming := out.AverageRating < demotionAvgThreshold ||
		out.NetComplaints >= demotionNetThreshold
	if underperforming && !emp.Role.Demoted && !emp.Status.Terminal() {
		if err := s.accounts.Discipline(ctx, employeeID, emp.Role.Kind); err != nil {
			return nil, err
		}
		if emp.DemotionsCount == 0 {
			out.Demoted = true
		} else {
			out.Terminated = true
		}
	}

	// A demotion leaves the account Active, so a demoted-and-praised
	// employee can still be flagged for a bonus in the same call.
	// Termination cannot.
	if emp.Status == user.StatusActive && !out.Terminated &&
		(out.AverageRating > bonusAvgThreshold || out.Compliments >= bonusComplimentThreshold) {
		out.BonusEligible = true
	}
	return out, nil
}

func (s *Service) authorize(ctx context.Context, callerID, employeeID types.ID) error {
	if callerID == employeeID {
		return nil
	}
	caller, err := s.accounts.Get(ctx, callerID)
	if err != nil {
		return ErrUnauthorized
	}
	if caller.Role.Kind != user.RoleManager || caller.Status != user.StatusActive {
		return ErrUnauthorized
	}
	return nil
}
