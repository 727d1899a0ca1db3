package database

import (
	"context"
	"fmt"
	"time"

	"restobar/internal/domain"
	"restobar/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, customer_name, customer_phone, customer_email, table_id, party_size,
	date, time, special_requests, status, created_at, updated_at`

const insertBooking = `INSERT INTO bookings (` + bookingColumns + `) VALUES (
	:id, :customer_name, :customer_phone, :customer_email, :table_id, :party_size,
	:date, :time, :special_requests, :status, :created_at, :updated_at)`

const countConfirmedAtSlot = `SELECT COUNT(*) FROM bookings
	WHERE date = ? AND time = ? AND table_id = ? AND status = ? AND id != ?`

func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	return db.selectBookings(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY rowid`)
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := db.GetContext(ctx, &booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

func (db *DB) GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	return db.selectBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE date = ? ORDER BY rowid`, date)
}

func (db *DB) GetBookingsByTable(ctx context.Context, tableID string) ([]*models.Booking, error) {
	return db.selectBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE table_id = ? ORDER BY rowid`, tableID)
}

func (db *DB) ListConfirmedAt(ctx context.Context, date, tm string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE date = ? AND time = ? AND status = ? ORDER BY rowid`
	return db.selectBookings(ctx, query, date, tm, models.StatusConfirmed)
}

// CreateBookingWithLock checks the slot and inserts in one transaction.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if booking.Occupies() {
		taken, err := slotTaken(ctx, tx, booking, "")
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrSlotTaken
		}
	}

	prepareBooking(booking)
	if _, err := tx.NamedExecContext(ctx, insertBooking, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateBookingWithLock rejects the patch with ErrSlotTaken when the merged
// booking is confirmed into a slot another confirmed booking holds.
func (db *DB) UpdateBookingWithLock(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var booking models.Booking
	if err := tx.GetContext(ctx, &booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}

	patch.Apply(&booking)
	if patch.TouchesSlot() && booking.Occupies() {
		taken, err := slotTaken(ctx, tx, &booking, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrSlotTaken
		}
	}
	booking.UpdatedAt = time.Now()

	query := `UPDATE bookings SET customer_name = :customer_name, customer_phone = :customer_phone,
			customer_email = :customer_email, table_id = :table_id, party_size = :party_size,
			date = :date, time = :time, special_requests = :special_requests, status = :status,
			updated_at = :updated_at
			WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, &booking); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &booking, nil
}

func (db *DB) DeleteBooking(ctx context.Context, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (db *DB) selectBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	bookings := []*models.Booking{}
	if err := db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	return bookings, nil
}

func slotTaken(ctx context.Context, tx *sqlx.Tx, b *models.Booking, exceptID string) (bool, error) {
	var count int
	err := tx.GetContext(ctx, &count, countConfirmedAtSlot, b.Date, b.Time, b.TableID, models.StatusConfirmed, exceptID)
	if err != nil {
		return false, fmt.Errorf("failed to check slot in tx: %w", err)
	}
	return count > 0, nil
}

func prepareBooking(booking *models.Booking) {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	stampCreated(&booking.CreatedAt, &booking.UpdatedAt)
}

var _ domain.BookingRepository = (*DB)(nil)
