package postgres

import (
	"context"
	"database/sql"
	"errors"

	"afisha/internal/domain"
)

type categoryRepository struct {
	DB *sql.DB
}

func NewCategoryRepository(db *sql.DB) domain.CategoryRepository {
	return &categoryRepository{
		DB: db,
	}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `SELECT id, name FROM categories WHERE id = $1`
	cat := &domain.Category{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&cat.ID, &cat.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return cat, nil
}

func (r *categoryRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
