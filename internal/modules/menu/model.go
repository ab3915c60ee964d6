// README: Dish catalog model.
package menu

import (
	"time"

	"aieats/internal/types"
)

type Dish struct {
	ID          types.ID
	Name        string
	Description string
	Category    string
	ImageURL    string
	Price       types.Money
	IsAvailable bool

	// OrderCount is bumped when an order containing the dish is confirmed;
	// the running average rating comes from customer dish ratings.
	OrderCount    int
	AverageRating float64
	RatingCount   int

	Tags      []string
	CreatedAt time.Time
}
