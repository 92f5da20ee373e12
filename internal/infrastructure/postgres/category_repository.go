package postgres

import (
	"context"

	domain "eventboard/backend/internal/domain/event"
)

// CategoryRepository persists categories in PostgreSQL.
type CategoryRepository struct {
	db DBTX
}

// NewCategoryRepository constructs a repository.
func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

var _ domain.CategoryRepository = (*CategoryRepository)(nil)

// Create inserts a new category and sets its id.
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `INSERT INTO categories (name) VALUES ($1) RETURNING id`
	if err := r.db.QueryRow(ctx, query, category.Name).Scan(&category.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCategory
		}
		return err
	}
	return nil
}

// List returns all categories sorted by name.
func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	const query = `SELECT id, name FROM categories ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// Delete removes a category. Categories still referenced by events are
// kept and reported as ErrCategoryInUse.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM categories WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}
