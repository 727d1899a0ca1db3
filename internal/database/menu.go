package database

import (
	"context"
	"fmt"

	"restobar/internal/domain"
	"restobar/internal/models"

	"github.com/google/uuid"
)

const menuColumns = `id, name, description, price, category, is_available, is_vegetarian, is_vegan,
	is_gluten_free, spicy_level, created_at, updated_at`

func (db *DB) ListMenuItems(ctx context.Context) ([]*models.MenuItem, error) {
	items := []*models.MenuItem{}
	if err := db.SelectContext(ctx, &items, `SELECT `+menuColumns+` FROM menu_items ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

func (db *DB) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	stampCreated(&item.CreatedAt, &item.UpdatedAt)

	query := `INSERT INTO menu_items (` + menuColumns + `) VALUES (
			:id, :name, :description, :price, :category, :is_available, :is_vegetarian, :is_vegan,
			:is_gluten_free, :spicy_level, :created_at, :updated_at)`
	if _, err := db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}
	return nil
}

var _ domain.MenuRepository = (*DB)(nil)
