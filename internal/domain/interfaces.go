package domain

import (
	"context"
	"time"

	"restobar/internal/models"
)

type TableRepository interface {
	ListTables(ctx context.Context) ([]*models.Table, error)
	GetTable(ctx context.Context, id string) (*models.Table, error)
	CreateTable(ctx context.Context, table *models.Table) error
	UpdateTable(ctx context.Context, id string, patch models.TablePatch) (*models.Table, error)
	DeleteTable(ctx context.Context, id string) (bool, error)
}

// BookingRepository writes only through the *WithLock methods, which refuse
// a confirmed booking on a slot another confirmed booking holds.
type BookingRepository interface {
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error)
	GetBookingsByTable(ctx context.Context, tableID string) ([]*models.Booking, error)
	ListConfirmedAt(ctx context.Context, date, tm string) ([]*models.Booking, error)
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	UpdateBookingWithLock(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) (bool, error)
}

type OrderRepository interface {
	ListOrders(ctx context.Context) ([]*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error)
	GetOrdersByTable(ctx context.Context, tableID string) ([]*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
}

type MenuRepository interface {
	ListMenuItems(ctx context.Context) ([]*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
}

// TableRemover deletes a table atomically with respect to booking writes.
// With restrict set it refuses with ErrTableInUse while any non-cancelled
// booking references the table.
type TableRemover interface {
	RemoveTable(ctx context.Context, id string, restrict bool) (models.TableRemoval, error)
}

// SlotLocker serializes check-and-insert on one slot across processes.
type SlotLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
