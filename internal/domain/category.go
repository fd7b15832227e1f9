package domain

import "context"

// Category classifies events. Category management is outside this core; only
// existence checks and reads are needed here.
// swagger:model Category
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryRepository defines the category lookups this core needs.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*Category, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}
