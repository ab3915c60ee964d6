// README: Complaint service; filing, manager adjudication, and discipline routing.
package complaint

import (
	"context"
	"errors"
	"time"

	"aieats/internal/modules/user"
	"aieats/internal/types"
)

var (
	ErrNotFound        = errors.New("complaint not found")
	ErrUnauthorized    = errors.New("caller is not allowed to perform this action")
	ErrValidation      = errors.New("invalid complaint input")
	ErrConflict        = errors.New("complaint state conflict")
	ErrAlreadyResolved = errors.New("complaint has already been resolved")
)

// alertThreshold is the pending backlog size that raises the manager alert.
const alertThreshold = 3

// Accounts is the slice of the user service complaint resolution needs.
type Accounts interface {
	Get(ctx context.Context, id types.ID) (*user.User, error)
	ApplyWarning(ctx context.Context, id types.ID, reason string) error
	ApplyComplaintEffect(ctx context.Context, id types.ID, entity user.RoleKind, weight int) error
}

type Store interface {
	Create(ctx context.Context, c *Complaint) error
	Get(ctx context.Context, id types.ID) (*Complaint, error)
	// Resolve is a CAS from PendingReview; returns false when the
	// complaint was resolved concurrently.
	Resolve(ctx context.Context, id types.ID, outcome Status, note string, resolvedBy types.ID, resolvedAt time.Time) (bool, error)
	ListPending(ctx context.Context) ([]Complaint, error)
	ListByTarget(ctx context.Context, userID types.ID) ([]Complaint, error)
	ListByFiler(ctx context.Context, userID types.ID) ([]Complaint, error)
	CountPending(ctx context.Context) (int, error)
	// ValidStats aggregates the target's Valid filings for the
	// reputation engine.
	ValidStats(ctx context.Context, targetID types.ID) (Stats, error)
}

// Stats summarizes a user's Valid filings. RatingSum and RatingCount cover
// only Valid complaints carrying a nonzero rating.
type Stats struct {
	Complaints  int
	Compliments int
	RatingSum   int
	RatingCount int
}

// AverageRating is the mean of rated Valid complaints; 5.0 when none exist.
func (s Stats) AverageRating() float64 {
	if s.RatingCount == 0 {
		return 5.0
	}
	return float64(s.RatingSum) / float64(s.RatingCount)
}

// NetComplaints is valid complaints minus valid compliments, floored at 0.
func (s Stats) NetComplaints() int {
	n := s.Complaints - s.Compliments
	if n < 0 {
		return 0
	}
	return n
}

// AlertCache is an optional read-through cache for the pending backlog count.
type AlertCache interface {
	Get(ctx context.Context) (int, bool)
	Set(ctx context.Context, n int)
}

type Service struct {
	store    Store
	accounts Accounts
	cache    AlertCache

	now func() time.Time
}

func NewService(store Store, accounts Accounts, cache AlertCache) *Service {
	return &Service{store: store, accounts: accounts, cache: cache, now: time.Now}
}

type FileCommand struct {
	FromUserID types.ID
	// ToUserID may be empty when the filer could not identify the target.
	ToUserID types.ID
	// EntityType is only consulted when ToUserID is empty; otherwise the
	// target's current role decides.
	EntityType  user.RoleKind
	IsComplaint bool
	Rating      int
	Description string
}

// File records a complaint or compliment in PendingReview. A VIP filer's
// record carries weight 2.
func (s *Service) File(ctx context.Context, cmd FileCommand) (*Complaint, error) {
	if cmd.Rating < 0 || cmd.Rating > 5 {
		return nil, ErrValidation
	}
	filer, err := s.accounts.Get(ctx, cmd.FromUserID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if filer.Status != user.StatusActive {
		return nil, ErrUnauthorized
	}
	entity := cmd.EntityType
	if cmd.ToUserID != "" {
		if cmd.ToUserID == cmd.FromUserID {
			return nil, ErrValidation
		}
		target, err := s.accounts.Get(ctx, cmd.ToUserID)
		if err != nil {
			return nil, ErrNotFound
		}
		entity = target.Role.Kind
	}
	weight := 1
	if filer.IsVIP {
		weight = 2
	}
	c := &Complaint{
		ID:          types.NewID(),
		FromUserID:  cmd.FromUserID,
		ToUserID:    cmd.ToUserID,
		EntityType:  entity,
		IsComplaint: cmd.IsComplaint,
		Rating:      cmd.Rating,
		Weight:      weight,
		Description: cmd.Description,
		Status:      StatusPendingReview,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

type ResolveCommand struct {
	ManagerID   types.ID
	ComplaintID types.ID
	Outcome     Status
	Note        string
}

// Resolve adjudicates a PendingReview complaint. Valid complaints against
// Chef or DeliveryPerson targets route into the two-strike discipline with
// the filing's weight; valid compliments subtract the same weight. A valid
// compliment against a non-employee warns the filer instead, as does any
// Invalid outcome. Escalated records the note and stops.
func (s *Service) Resolve(ctx context.Context, cmd ResolveCommand) (*Complaint, error) {
	if err := s.requireManager(ctx, cmd.ManagerID); err != nil {
		return nil, err
	}
	switch cmd.Outcome {
	case StatusValid, StatusInvalid, StatusEscalated:
	default:
		return nil, ErrValidation
	}
	c, err := s.store.Get(ctx, cmd.ComplaintID)
	if err != nil {
		return nil, err
	}
	if c.Resolved() {
		return nil, ErrAlreadyResolved
	}

	resolvedAt := s.now()
	ok, err := s.store.Resolve(ctx, c.ID, cmd.Outcome, cmd.Note, cmd.ManagerID, resolvedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	c.Status = cmd.Outcome
	c.ResolutionNote = cmd.Note
	c.ResolvedBy = cmd.ManagerID
	c.ResolvedAt = &resolvedAt

	if err := s.applyOutcome(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) applyOutcome(ctx context.Context, c *Complaint) error {
	switch c.Status {
	case StatusInvalid:
		return s.accounts.ApplyWarning(ctx, c.FromUserID, "complaint dismissed as invalid")
	case StatusEscalated:
		return nil
	}

	// Valid
	disciplinable := c.EntityType == user.RoleChef || c.EntityType == user.RoleDeliveryPerson
	if c.IsComplaint {
		if c.ToUserID == "" {
			return nil
		}
		if disciplinable {
			return s.accounts.ApplyComplaintEffect(ctx, c.ToUserID, c.EntityType, c.Weight)
		}
		return s.accounts.ApplyWarning(ctx, c.ToUserID, "valid complaint upheld")
	}
	// compliment
	if c.ToUserID != "" && disciplinable {
		return s.accounts.ApplyComplaintEffect(ctx, c.ToUserID, c.EntityType, -c.Weight)
	}
	return s.accounts.ApplyWarning(ctx, c.FromUserID, "compliment filed against a non-employee")
}

// Pending lists the adjudication queue for a manager.
func (s *Service) Pending(ctx context.Context, managerID types.ID) ([]Complaint, error) {
	if err := s.requireManager(ctx, managerID); err != nil {
		return nil, err
	}
	return s.store.ListPending(ctx)
}

// Received lists the filings targeting a user.
func (s *Service) Received(ctx context.Context, userID types.ID) ([]Complaint, error) {
	return s.store.ListByTarget(ctx, userID)
}

// Submitted lists the filings a user has made.
func (s *Service) Submitted(ctx context.Context, userID types.ID) ([]Complaint, error) {
	return s.store.ListByFiler(ctx, userID)
}

// ValidStats exposes the aggregate the reputation engine evaluates.
func (s *Service) ValidStats(ctx context.Context, targetID types.ID) (Stats, error) {
	return s.store.ValidStats(ctx, targetID)
}

// PendingAlert reports the pending backlog size and whether it has reached
// the alert threshold. The count is served from the cache when fresh.
func (s *Service) PendingAlert(ctx context.Context, managerID types.ID) (int, bool, error) {
	if err := s.requireManager(ctx, managerID); err != nil {
		return 0, false, err
	}
	if s.cache != nil {
		if n, ok := s.cache.Get(ctx); ok {
			return n, n >= alertThreshold, nil
		}
	}
	n, err := s.store.CountPending(ctx)
	if err != nil {
		return 0, false, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, n)
	}
	return n, n >= alertThreshold, nil
}

func (s *Service) requireManager(ctx context.Context, id types.ID) error {
	u, err := s.accounts.Get(ctx, id)
	if err != nil {
		return ErrUnauthorized
	}
	if u.Role.Kind != user.RoleManager || u.Status != user.StatusActive {
		return ErrUnauthorized
	}
	return nil
}
