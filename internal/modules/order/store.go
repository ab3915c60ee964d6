// README: Order store backed by PostgreSQL; optimistic status CAS and the transactional confirm.
package order

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

func (s *PGStore) Create(ctx context.Context, o *Order) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, customer_id, original_price, discount_applied, final_price,
			status, status_version, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(o.ID), string(o.CustomerID),
		int64(o.OriginalPrice), int64(o.DiscountApplied), int64(o.FinalPrice),
		string(o.Status), o.StatusVersion, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	for i, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, position, dish_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			string(o.ID), i, string(it.DishID), it.Quantity, int64(it.UnitPrice),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, customer_id, original_price, discount_applied, final_price,
		       status, status_version, notes, created_at, updated_at
		FROM orders WHERE id = $1`, string(id))
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, note string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders SET
			status = $1,
			status_version = status_version + 1,
			notes = CASE WHEN $2 != '' THEN $2 ELSE notes END,
			updated_at = NOW()
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to), note, string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) ApplyConfirm(ctx context.Context, o *Order) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET
			status = $1,
			status_version = status_version + 1,
			original_price = $2, discount_applied = $3, final_price = $4,
			updated_at = NOW()
		WHERE id = $5 AND status = $6 AND status_version = $7`,
		string(StatusQueuedForPreparation),
		int64(o.OriginalPrice), int64(o.DiscountApplied), int64(o.FinalPrice),
		string(o.ID), string(StatusPendingPayment), o.StatusVersion,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	tag, err = tx.Exec(ctx, `
		UPDATE users SET
			balance = balance - $1,
			total_spent = total_spent + $1,
			order_count = order_count + 1,
			row_version = row_version + 1,
			updated_at = NOW()
		WHERE id = $2 AND balance >= $1`,
		int64(o.FinalPrice), string(o.CustomerID),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, ErrInsufficientFunds
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx,
			`UPDATE dishes SET order_count = order_count + $1 WHERE id = $2`,
			it.Quantity, string(it.DishID),
		)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PGStore) ListByCustomer(ctx context.Context, customerID types.ID) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, customer_id, original_price, discount_applied, final_price,
		       status, status_version, notes, created_at, updated_at
		FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`,
		string(customerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanOrdersWithItems(ctx, rows)
}

func (s *PGStore) ListByStatus(ctx context.Context, statuses ...Status) ([]Order, error) {
	vals := make([]string, len(statuses))
	for i, st := range statuses {
		vals[i] = string(st)
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, customer_id, original_price, discount_applied, final_price,
		       status, status_version, notes, created_at, updated_at
		FROM orders WHERE status = ANY($1) ORDER BY created_at`,
		vals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanOrdersWithItems(ctx, rows)
}

func (s *PGStore) scanOrdersWithItems(ctx context.Context, rows pgx.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PGStore) loadItems(ctx context.Context, o *Order) error {
	rows, err := s.db.Query(ctx, `
		SELECT dish_id, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY position`,
		string(o.ID))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		var price int64
		if err := rows.Scan(&it.DishID, &it.Quantity, &price); err != nil {
			return err
		}
		it.UnitPrice = types.Money(price)
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var original, discount, final int64
	err := row.Scan(
		&o.ID, &o.CustomerID, &original, &discount, &final,
		&o.Status, &o.StatusVersion, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.OriginalPrice = types.Money(original)
	o.DiscountApplied = types.Money(discount)
	o.FinalPrice = types.Money(final)
	return &o, nil
}
