// README: Chat store backed by PostgreSQL.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aieats/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateEntry(ctx context.Context, e *Entry) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := s.db.Exec(ctx, `
		INSERT INTO kb_entries (id, question, answer, keywords, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.ID), e.Question, e.Answer, e.Keywords, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (s *PGStore) UpdateEntry(ctx context.Context, e *Entry) error {
	e.UpdatedAt = time.Now()
	tag, err := s.db.Exec(ctx, `
		UPDATE kb_entries SET question = $1, answer = $2, keywords = $3, updated_at = $4
		WHERE id = $5`,
		e.Question, e.Answer, e.Keywords, e.UpdatedAt, string(e.ID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) GetEntry(ctx context.Context, id types.ID) (*Entry, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, question, answer, keywords, created_at, updated_at
		FROM kb_entries WHERE id = $1`, string(id))
	var e Entry
	err := row.Scan(&e.ID, &e.Question, &e.Answer, &e.Keywords, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PGStore) ListEntries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, question, answer, keywords, created_at, updated_at
		FROM kb_entries ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Keywords, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStore) CreateAnswer(ctx context.Context, a *Answer) error {
	a.CreatedAt = time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO chat_answers (
			id, user_id, question, text, source, rating, flagged, flag_reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(a.ID), string(a.UserID), a.Question, a.Text, string(a.Source),
		a.Rating, a.Flagged, a.FlagReason, a.CreatedAt,
	)
	return err
}

func (s *PGStore) GetAnswer(ctx context.Context, id types.ID) (*Answer, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, question, text, source, rating, flagged, flag_reason, created_at
		FROM chat_answers WHERE id = $1`, string(id))
	return scanAnswer(row)
}

func (s *PGStore) SetRating(ctx context.Context, id types.ID, rating int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE chat_answers SET rating = $1 WHERE id = $2`, rating, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) SetFlag(ctx context.Context, id types.ID, flagged bool, reason string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE chat_answers SET flagged = $1, flag_reason = $2 WHERE id = $3`,
		flagged, reason, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListFlagged(ctx context.Context) ([]Answer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, question, text, source, rating, flagged, flag_reason, created_at
		FROM chat_answers WHERE flagged ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAnswer(row pgx.Row) (*Answer, error) {
	var a Answer
	err := row.Scan(
		&a.ID, &a.UserID, &a.Question, &a.Text, &a.Source,
		&a.Rating, &a.Flagged, &a.FlagReason, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
