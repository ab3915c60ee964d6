// README: Dish store backed by PostgreSQL.
package menu

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

const dishColumns = `
	id, name, description, category, image_url,
	price, is_available, order_count, average_rating, rating_count,
	tags, created_at`

func (s *PGStore) Create(ctx context.Context, d *Dish) error {
	d.CreatedAt = time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO dishes (
			id, name, description, category, image_url,
			price, is_available, order_count, average_rating, rating_count,
			tags, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		string(d.ID), d.Name, d.Description, d.Category, d.ImageURL,
		int64(d.Price), d.IsAvailable, d.OrderCount, d.AverageRating, d.RatingCount,
		d.Tags, d.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Dish, error) {
	row := s.db.QueryRow(ctx, `SELECT `+dishColumns+` FROM dishes WHERE id = $1`, string(id))
	return scanDish(row)
}

func (s *PGStore) Update(ctx context.Context, d *Dish) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE dishes SET
			name = $1, description = $2, category = $3, image_url = $4,
			price = $5, is_available = $6,
			order_count = $7, average_rating = $8, rating_count = $9, tags = $10
		WHERE id = $11`,
		d.Name, d.Description, d.Category, d.ImageURL,
		int64(d.Price), d.IsAvailable,
		d.OrderCount, d.AverageRating, d.RatingCount, d.Tags,
		string(d.ID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) List(ctx context.Context) ([]Dish, error) {
	rows, err := s.db.Query(ctx, `SELECT `+dishColumns+` FROM dishes ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDishes(rows)
}

func (s *PGStore) ListPopular(ctx context.Context, limit int) ([]Dish, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+dishColumns+` FROM dishes WHERE is_available ORDER BY order_count DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDishes(rows)
}

func scanDish(row pgx.Row) (*Dish, error) {
	var d Dish
	var price int64
	err := row.Scan(
		&d.ID, &d.Name, &d.Description, &d.Category, &d.ImageURL,
		&price, &d.IsAvailable, &d.OrderCount, &d.AverageRating, &d.RatingCount,
		&d.Tags, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Price = types.Money(price)
	return &d, nil
}

func scanDishes(rows pgx.Rows) ([]Dish, error) {
	var out []Dish
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
