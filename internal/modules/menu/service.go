// README: Menu service; dish CRUD and availability, manager-gated mutation.
package menu

import (
	"context"
	"errors"

	"aieats/internal/modules/user"
	"aieats/internal/types"
)

var (
	ErrNotFound     = errors.New("dish not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("invalid dish input")
)

type Store interface {
	Create(ctx context.Context, d *Dish) error
	Get(ctx context.Context, id types.ID) (*Dish, error)
	Update(ctx context.Context, d *Dish) error
	List(ctx context.Context) ([]Dish, error)
	ListPopular(ctx context.Context, limit int) ([]Dish, error)
}

// Directory resolves user records for role checks.
type Directory interface {
	Get(ctx context.Context, id types.ID) (*user.User, error)
}

type Service struct {
	store Store
	users Directory
}

func NewService(store Store, users Directory) *Service {
	return &Service{store: store, users: users}
}

type DishInput struct {
	Name        string
	Description string
	Category    string
	ImageURL    string
	Price       types.Money
	Tags        []string
}

func (s *Service) Add(ctx context.Context, managerID types.ID, in DishInput) (types.ID, error) {
	if err := s.requireManager(ctx, managerID); err != nil {
		return "", err
	}
	if in.Name == "" || in.Category == "" || in.Price <= 0 {
		return "", ErrValidation
	}
	d := &Dish{
		ID:          types.NewID(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Price:       in.Price,
		IsAvailable: true,
		Tags:        in.Tags,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

func (s *Service) Update(ctx context.Context, managerID, dishID types.ID, in DishInput) error {
	if err := s.requireManager(ctx, managerID); err != nil {
		return err
	}
	d, err := s.store.Get(ctx, dishID)
	if err != nil {
		return err
	}
	if in.Name != "" {
		d.Name = in.Name
	}
	if in.Description != "" {
		d.Description = in.Description
	}
	if in.Category != "" {
		d.Category = in.Category
	}
	if in.ImageURL != "" {
		d.ImageURL = in.ImageURL
	}
	if in.Price > 0 {
		d.Price = in.Price
	}
	if in.Tags != nil {
		d.Tags = in.Tags
	}
	return s.store.Update(ctx, d)
}

func (s *Service) SetAvailability(ctx context.Context, managerID, dishID types.ID, available bool) error {
	if err := s.requireManager(ctx, managerID); err != nil {
		return err
	}
	d, err := s.store.Get(ctx, dishID)
	if err != nil {
		return err
	}
	d.IsAvailable = available
	return s.store.Update(ctx, d)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Dish, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Dish, error) {
	return s.store.List(ctx)
}

func (s *Service) Popular(ctx context.Context, limit int) ([]Dish, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.ListPopular(ctx, limit)
}

// AddRating folds a 1-5 rating into the dish's running average.
func (s *Service) AddRating(ctx context.Context, dishID types.ID, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrValidation
	}
	d, err := s.store.Get(ctx, dishID)
	if err != nil {
		return err
	}
	total := d.AverageRating * float64(d.RatingCount)
	d.RatingCount++
	d.AverageRating = (total + float64(rating)) / float64(d.RatingCount)
	return s.store.Update(ctx, d)
}

func (s *Service) requireManager(ctx context.Context, id types.ID) error {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return ErrUnauthorized
	}
	if u.Role.Kind != user.RoleManager {
		return ErrUnauthorized
	}
	return nil
}
