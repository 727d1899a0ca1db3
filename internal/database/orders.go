package database

import (
	"context"
	"fmt"

	"restobar/internal/domain"
	"restobar/internal/models"

	"github.com/google/uuid"
)

const orderColumns = `id, customer_name, customer_email, customer_phone, table_id, total, status,
	order_type, payment_status, payment_method, created_at, updated_at`

type orderItemRow struct {
	OrderID  string `db:"order_id"`
	Position int    `db:"position"`
	models.OrderItem
}

func (db *DB) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return db.selectOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY rowid`)
}

func (db *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := db.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	if err := db.attachItems(ctx, []*models.Order{&order}); err != nil {
		return nil, err
	}
	return &order, nil
}

func (db *DB) GetOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error) {
	return db.selectOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = ? ORDER BY rowid`, status)
}

func (db *DB) GetOrdersByTable(ctx context.Context, tableID string) ([]*models.Order, error) {
	return db.selectOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE table_id = ? ORDER BY rowid`, tableID)
}

// CreateOrder stores the order and its line items together.
func (db *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	stampCreated(&order.CreatedAt, &order.UpdatedAt)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO orders (` + orderColumns + `) VALUES (
			:id, :customer_name, :customer_email, :customer_phone, :table_id, :total, :status,
			:order_type, :payment_status, :payment_method, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i, item := range order.Items {
		_, err := tx.ExecContext(ctx, `INSERT INTO order_items
				(order_id, position, menu_item_id, name, price, quantity, special_instructions)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
			order.ID, i, item.MenuItemID, item.Name, item.Price, item.Quantity, item.SpecialInstructions)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *DB) selectOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	orders := []*models.Order{}
	if err := db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	if err := db.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (db *DB) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*models.Order, len(orders))
	for _, o := range orders {
		o.Items = []models.OrderItem{}
		byID[o.ID] = o
	}

	rows := []orderItemRow{}
	query := `SELECT order_id, position, menu_item_id, name, price, quantity, special_instructions
			FROM order_items ORDER BY order_id, position`
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}

	for _, row := range rows {
		if o, ok := byID[row.OrderID]; ok {
			o.Items = append(o.Items, row.OrderItem)
		}
	}
	return nil
}

var _ domain.OrderRepository = (*DB)(nil)
