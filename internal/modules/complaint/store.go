// README: Complaint store backed by PostgreSQL.
package complaint

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aieats/internal/types"
)

const complaintColumns = `
	id, from_user_id, to_user_id, entity_type, is_complaint, rating, weight,
	description, status, resolution_note, resolved_by, created_at, resolved_at`

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, c *Complaint) error {
	c.CreatedAt = time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO complaints (
			id, from_user_id, to_user_id, entity_type, is_complaint, rating,
			weight, description, status, created_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10)`,
		string(c.ID), string(c.FromUserID), string(c.ToUserID), string(c.EntityType),
		c.IsComplaint, c.Rating, c.Weight, c.Description, string(c.Status), c.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Complaint, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, string(id))
	return scanComplaint(row)
}

func (s *PGStore) Resolve(ctx context.Context, id types.ID, outcome Status, note string, resolvedBy types.ID, resolvedAt time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE complaints SET
			status = $1, resolution_note = $2, resolved_by = $3, resolved_at = $4
		WHERE id = $5 AND status = $6`,
		string(outcome), note, string(resolvedBy), resolvedAt,
		string(id), string(StatusPendingReview),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) ListPending(ctx context.Context) ([]Complaint, error) {
	return s.list(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE status = $1 ORDER BY created_at`,
		string(StatusPendingReview))
}

func (s *PGStore) ListByTarget(ctx context.Context, userID types.ID) ([]Complaint, error) {
	return s.list(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE to_user_id = $1 ORDER BY created_at DESC`,
		string(userID))
}

func (s *PGStore) ListByFiler(ctx context.Context, userID types.ID) ([]Complaint, error) {
	return s.list(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE from_user_id = $1 ORDER BY created_at DESC`,
		string(userID))
}

func (s *PGStore) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM complaints WHERE status = $1`,
		string(StatusPendingReview)).Scan(&n)
	return n, err
}

func (s *PGStore) ValidStats(ctx context.Context, targetID types.ID) (Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE is_complaint),
			COUNT(*) FILTER (WHERE NOT is_complaint),
			COALESCE(SUM(rating) FILTER (WHERE is_complaint AND rating > 0), 0),
			COUNT(*) FILTER (WHERE is_complaint AND rating > 0)
		FROM complaints
		WHERE to_user_id = $1 AND status = $2`,
		string(targetID), string(StatusValid),
	).Scan(&st.Complaints, &st.Compliments, &st.RatingSum, &st.RatingCount)
	return st, err
}

func (s *PGStore) list(ctx context.Context, query string, args ...any) ([]Complaint, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanComplaint(row pgx.Row) (*Complaint, error) {
	var c Complaint
	var toUser, resolvedBy *string
	err := row.Scan(
		&c.ID, &c.FromUserID, &toUser, &c.EntityType, &c.IsComplaint, &c.Rating,
		&c.Weight, &c.Description, &c.Status, &c.ResolutionNote, &resolvedBy,
		&c.CreatedAt, &c.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if toUser != nil {
		c.ToUserID = types.ID(*toUser)
	}
	if resolvedBy != nil {
		c.ResolvedBy = types.ID(*resolvedBy)
	}
	return &c, nil
}
