// README: User aggregate, role variants, and account status definitions.
package user

import (
	"fmt"
	"strings"
	"time"

	"aieats/internal/types"
)

type RoleKind string

const (
	RoleCustomer       RoleKind = "Customer"
	RoleVIP            RoleKind = "VIP"
	RoleChef           RoleKind = "Chef"
	RoleDeliveryPerson RoleKind = "DeliveryPerson"
	RoleManager        RoleKind = "Manager"
)

// Role is a tagged variant: the role kind plus a demotion marker for
// employees. The persisted form keeps the legacy strings ("Demoted_Chef"),
// but no in-process logic string-matches on prefixes.
type Role struct {
	Kind    RoleKind
	Demoted bool
}

func (r Role) String() string {
	if r.Demoted {
		return "Demoted_" + string(r.Kind)
	}
	return string(r.Kind)
}

func ParseRole(s string) (Role, error) {
	demoted := strings.HasPrefix(s, "Demoted_")
	kind := RoleKind(strings.TrimPrefix(s, "Demoted_"))
	switch kind {
	case RoleCustomer, RoleVIP, RoleChef, RoleDeliveryPerson, RoleManager:
	default:
		return Role{}, fmt.Errorf("unknown role %q", s)
	}
	if demoted && kind != RoleChef && kind != RoleDeliveryPerson {
		return Role{}, fmt.Errorf("role %q cannot be demoted", kind)
	}
	return Role{Kind: kind, Demoted: demoted}, nil
}

// IsEmployee reports whether the role is a disciplinable employee role
// (chef or delivery person, demoted or not).
func (r Role) IsEmployee() bool {
	return r.Kind == RoleChef || r.Kind == RoleDeliveryPerson
}

// CanOrder reports whether the role may create orders.
func (r Role) CanOrder() bool {
	return r.Kind == RoleCustomer || r.Kind == RoleVIP
}

type Status string

const (
	StatusPendingApproval Status = "PendingApproval"
	StatusActive          Status = "Active"
	StatusRejected        Status = "Rejected"
	StatusBlacklisted     Status = "Blacklisted"
	StatusTerminated      Status = "Terminated"
	StatusDeregistered    Status = "Deregistered"
)

// Terminal reports whether the status admits no further mutation.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusBlacklisted, StatusTerminated, StatusDeregistered:
		return true
	}
	return false
}

type User struct {
	ID           types.ID
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Address      string

	Role   Role
	Status Status
	IsVIP  bool

	Balance    types.Money
	TotalSpent types.Money
	OrderCount int

	WarningCount   int
	NetComplaints  int
	DemotionsCount int

	RejectionReason   string
	TerminationReason string

	// RowVersion serializes read-modify-write cycles on the record;
	// a stale writer loses the compare-and-swap and gets ErrConflict.
	RowVersion int

	CreatedAt time.Time
	UpdatedAt time.Time
}
