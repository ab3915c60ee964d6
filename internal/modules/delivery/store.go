// README: Delivery store backed by PostgreSQL; transactional bid assignment and mirrored status writes.
package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"aieats/internal/modules/order"
	"aieats/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Relies on the partial unique index on (order_id, bidder_id) WHERE status =
// 'Pending' to enforce one pending bid per pair under concurrency.
func (s *PGStore) CreateBid(ctx context.Context, b *Bid) error {
	b.CreatedAt = time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO delivery_bids (id, order_id, bidder_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(b.ID), string(b.OrderID), string(b.BidderID),
		int64(b.Amount), string(b.Status), b.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateBid
	}
	return err
}

func (s *PGStore) GetBid(ctx context.Context, id types.ID) (*Bid, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, order_id, bidder_id, amount, status, created_at
		FROM delivery_bids WHERE id = $1`, string(id))
	return scanBid(row)
}

func (s *PGStore) ListBids(ctx context.Context, orderID types.ID) ([]Bid, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, bidder_id, amount, status, created_at
		FROM delivery_bids WHERE order_id = $1 ORDER BY amount, created_at`,
		string(orderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *PGStore) Assign(ctx context.Context, b *Bid, d *Delivery) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE delivery_bids SET status = $1
		WHERE id = $2 AND status = $3`,
		string(BidAccepted), string(b.ID), string(BidPending),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE delivery_bids SET status = $1
		WHERE order_id = $2 AND status = $3 AND id != $4`,
		string(BidRejected), string(b.OrderID), string(BidPending), string(b.ID),
	)
	if err != nil {
		return false, err
	}

	tag, err = tx.Exec(ctx, `
		UPDATE orders SET
			status = $1,
			status_version = status_version + 1,
			updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		string(order.StatusAwaitingPickup), string(b.OrderID), string(order.StatusReadyForDelivery),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	d.CreatedAt = time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO deliveries (
			id, order_id, bid_id, delivery_person_id, amount,
			status, status_version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(d.ID), string(d.OrderID), string(d.BidID), string(d.DeliveryPersonID),
		int64(d.Amount), string(d.Status), d.StatusVersion, d.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Delivery, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, order_id, bid_id, delivery_person_id, amount,
		       status, status_version, created_at, delivered_at
		FROM deliveries WHERE id = $1`, string(id))
	return scanDelivery(row)
}

func (s *PGStore) UpdateStatus(ctx context.Context, d *Delivery, to Status, orderFrom, orderTo order.Status, deliveredAt *time.Time) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE deliveries SET
			status = $1,
			status_version = status_version + 1,
			delivered_at = COALESCE($2, delivered_at)
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to), deliveredAt, string(d.ID), string(d.Status), d.StatusVersion,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	tag, err = tx.Exec(ctx, `
		UPDATE orders SET
			status = $1,
			status_version = status_version + 1,
			updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		string(orderTo), string(d.OrderID), string(orderFrom),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PGStore) ListByPerson(ctx context.Context, personID types.ID, statuses ...Status) ([]Delivery, error) {
	query := `
		SELECT id, order_id, bid_id, delivery_person_id, amount,
		       status, status_version, created_at, delivered_at
		FROM deliveries WHERE delivery_person_id = $1`
	args := []any{string(personID)}
	if len(statuses) > 0 {
		vals := make([]string, len(statuses))
		for i, st := range statuses {
			vals[i] = string(st)
		}
		query += ` AND status = ANY($2)`
		args = append(args, vals)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *PGStore) CountCompletedSince(ctx context.Context, personID types.ID, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM deliveries
		WHERE delivery_person_id = $1 AND status = $2 AND delivered_at >= $3`,
		string(personID), string(StatusDelivered), since,
	).Scan(&n)
	return n, err
}

func scanBid(row pgx.Row) (*Bid, error) {
	var b Bid
	var amount int64
	err := row.Scan(&b.ID, &b.OrderID, &b.BidderID, &amount, &b.Status, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Amount = types.Money(amount)
	return &b, nil
}

func scanDelivery(row pgx.Row) (*Delivery, error) {
	var d Delivery
	var amount int64
	err := row.Scan(
		&d.ID, &d.OrderID, &d.BidID, &d.DeliveryPersonID, &amount,
		&d.Status, &d.StatusVersion, &d.CreatedAt, &d.DeliveredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Amount = types.Money(amount)
	return &d, nil
}
