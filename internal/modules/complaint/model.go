// README: Complaint and compliment records adjudicated by managers.
package complaint

import (
	"time"

	"aieats/internal/modules/user"
	"aieats/internal/types"
)

type Status string

const (
	StatusPendingReview Status = "PendingReview"
	StatusValid         Status = "Valid"
	StatusInvalid       Status = "Invalid"
	StatusEscalated     Status = "Escalated"
)

// Complaint covers both complaints and compliments; IsComplaint selects
// which. Rating 0 is reserved for unrated filings; 1 through 5 feed the
// target's performance average once the filing is marked Valid. Once
// resolved the record is immutable apart from its resolution metadata.
type Complaint struct {
	ID         types.ID
	FromUserID types.ID
	// ToUserID is empty when the target could not be resolved at filing.
	ToUserID types.ID
	// EntityType is the role category of the target at filing time.
	EntityType  user.RoleKind
	IsComplaint bool
	Rating      int
	// Weight is 2 for VIP filers, 1 otherwise.
	Weight      int
	Description string

	Status         Status
	ResolutionNote string
	ResolvedBy     types.ID

	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Resolved reports whether the complaint has left PendingReview.
func (c *Complaint) Resolved() bool {
	return c.Status != StatusPendingReview
}
