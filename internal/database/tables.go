package database

import (
	"context"
	"fmt"
	"time"

	"restobar/internal/domain"
	"restobar/internal/models"

	"github.com/google/uuid"
)

const tableColumns = `id, number, capacity, location, is_available, created_at, updated_at`

func (db *DB) ListTables(ctx context.Context) ([]*models.Table, error) {
	tables := []*models.Table{}
	err := db.SelectContext(ctx, &tables, `SELECT `+tableColumns+` FROM dining_tables ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

func (db *DB) GetTable(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	err := db.GetContext(ctx, &table, `SELECT `+tableColumns+` FROM dining_tables WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &table, nil
}

func (db *DB) CreateTable(ctx context.Context, table *models.Table) error {
	if table.ID == "" {
		table.ID = uuid.NewString()
	}
	stampCreated(&table.CreatedAt, &table.UpdatedAt)

	query := `INSERT INTO dining_tables (` + tableColumns + `)
			VALUES (:id, :number, :capacity, :location, :is_available, :created_at, :updated_at)`
	if _, err := db.NamedExecContext(ctx, query, table); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (db *DB) UpdateTable(ctx context.Context, id string, patch models.TablePatch) (*models.Table, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var table models.Table
	if err := tx.GetContext(ctx, &table, `SELECT `+tableColumns+` FROM dining_tables WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}

	patch.Apply(&table)
	table.UpdatedAt = time.Now()

	query := `UPDATE dining_tables SET number = :number, capacity = :capacity, location = :location,
			is_available = :is_available, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, &table); err != nil {
		return nil, fmt.Errorf("failed to update table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &table, nil
}

func (db *DB) DeleteTable(ctx context.Context, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM dining_tables WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete table: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RemoveTable counts the referencing bookings and deletes the table in one
// transaction.
func (db *DB) RemoveTable(ctx context.Context, id string, restrict bool) (models.TableRemoval, error) {
	var res models.TableRemoval

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	counts := struct {
		Referencing int `db:"referencing"`
		Active      int `db:"active"`
	}{}
	query := `SELECT COUNT(*) AS referencing, COALESCE(SUM(status != ?), 0) AS active
		FROM bookings WHERE table_id = ?`
	if err := tx.GetContext(ctx, &counts, query, models.StatusCancelled, id); err != nil {
		return res, fmt.Errorf("failed to count table bookings: %w", err)
	}
	res.Referencing, res.Active = counts.Referencing, counts.Active

	if restrict && res.Active > 0 {
		return res, domain.ErrTableInUse
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM dining_tables WHERE id = ?`, id)
	if err != nil {
		return res, fmt.Errorf("failed to delete table: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return res, err
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("failed to commit transaction: %w", err)
	}
	res.Removed = affected > 0
	return res, nil
}

var (
	_ domain.TableRepository = (*DB)(nil)
	_ domain.TableRemover    = (*DB)(nil)
)

// stampCreated fills zero timestamps with the current time.
func stampCreated(createdAt, updatedAt *time.Time) {
	now := time.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}
