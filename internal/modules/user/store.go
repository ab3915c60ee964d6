// README: User store backed by PostgreSQL.
package user

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

const userColumns = `
	id, email, password_hash, name, phone, address,
	role, status, is_vip,
	balance, total_spent, order_count,
	warning_count, net_complaints, demotions_count,
	rejection_reason, termination_reason,
	row_version, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, u *User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, name, phone, address,
			role, status, is_vip,
			balance, total_spent, order_count,
			warning_count, net_complaints, demotions_count,
			rejection_reason, termination_reason,
			row_version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12,
			$13, $14, $15,
			$16, $17,
			$18, $19, $20
		)`,
		string(u.ID), u.Email, u.PasswordHash, u.Name, u.Phone, u.Address,
		u.Role.String(), string(u.Status), u.IsVIP,
		int64(u.Balance), int64(u.TotalSpent), u.OrderCount,
		u.WarningCount, u.NetComplaints, u.DemotionsCount,
		u.RejectionReason, u.TerminationReason,
		u.RowVersion, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, string(id))
	return scanUser(row)
}

func (s *PGStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *PGStore) Update(ctx context.Context, u *User) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET
			role = $1, status = $2, is_vip = $3,
			balance = $4, total_spent = $5, order_count = $6,
			warning_count = $7, net_complaints = $8, demotions_count = $9,
			rejection_reason = $10, termination_reason = $11,
			row_version = row_version + 1, updated_at = NOW()
		WHERE id = $12 AND row_version = $13`,
		u.Role.String(), string(u.Status), u.IsVIP,
		int64(u.Balance), int64(u.TotalSpent), u.OrderCount,
		u.WarningCount, u.NetComplaints, u.DemotionsCount,
		u.RejectionReason, u.TerminationReason,
		string(u.ID), u.RowVersion,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		u.RowVersion++
		return true, nil
	}
	return false, nil
}

func (s *PGStore) ListByStatus(ctx context.Context, status Status) ([]User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE status = $1 ORDER BY created_at DESC`,
		string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (s *PGStore) ListEmployees(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE role IN ('Chef', 'DeliveryPerson', 'Demoted_Chef', 'Demoted_DeliveryPerson')
		  AND status != 'Terminated'
		ORDER BY role, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role, status string
	var balance, totalSpent int64
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Address,
		&role, &status, &u.IsVIP,
		&balance, &totalSpent, &u.OrderCount,
		&u.WarningCount, &u.NetComplaints, &u.DemotionsCount,
		&u.RejectionReason, &u.TerminationReason,
		&u.RowVersion, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role, err = ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Status = Status(status)
	u.Balance = types.Money(balance)
	u.TotalSpent = types.Money(totalSpent)
	return &u, nil
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
