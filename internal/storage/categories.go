package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

const categoryColumns = `id, name, type, icon, color, is_default, created_at`

func scanCategory(row rowScanner) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory creates a new category. Names are unique per type.
func (q *queries) CreateCategory(ctx context.Context, category *model.Category) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateCategory(category); err != nil {
		return 0, err
	}

	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	result, err := q.q.ExecContext(ctx, `
		INSERT INTO categories (name, type, icon, color, is_default, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		category.Name, category.Type, category.Icon, category.Color, category.IsDefault, category.CreatedAt.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("%w: category %q (%s)", common.ErrDuplicateEntry, category.Name, category.Type)
		}
		return 0, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get category ID: %w", err)
	}
	category.ID = id

	slog.Info("created new category", "name", category.Name, "type", category.Type, "id", id)
	q.notify(model.ChangeEvent{Entity: model.EntityCategory, Op: model.OpCreated, ID: id})
	return id, nil
}

// GetCategory returns a category by id.
func (q *queries) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	c, err := scanCategory(q.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewReferenceError("category", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return c, nil
}

// GetCategoryByName returns the category with exactly this name and type.
func (q *queries) GetCategoryByName(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	c, err := scanCategory(q.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ? AND type = ?`, name, categoryType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q (%s): %w", name, categoryType, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return c, nil
}

// GetOrCreateCategory looks a category up by name and type and inserts it on a miss.
func (q *queries) GetOrCreateCategory(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error) {
	c, err := q.GetCategoryByName(ctx, name, categoryType)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	c = &model.Category{Name: name, Type: categoryType}
	if _, err := q.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCategories returns categories ordered by type and name. A nil type
// returns both kinds.
func (q *queries) ListCategories(ctx context.Context, categoryType *model.CategoryType) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories`
	var args []any
	if categoryType != nil {
		query += ` WHERE type = ?`
		args = append(args, *categoryType)
	}
	query += ` ORDER BY type, name`

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}
