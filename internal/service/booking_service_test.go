package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"restobar/internal/domain"
	"restobar/internal/events"
	"restobar/internal/models"
	"restobar/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBookingService_Create(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	spec := bookingSpec("t1", "2025-06-01", "19:00")
	spec.Status = models.StatusPending
	spec.SpecialRequests = "birthday"

	booking, err := env.bookingSvc.Create(ctx, spec)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.StatusConfirmed, booking.Status, "create always confirms")
	assert.Equal(t, booking.CreatedAt, booking.UpdatedAt)

	got, err := env.bookingSvc.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", got.CustomerName)
	assert.Equal(t, "555-0100", got.CustomerPhone)
	assert.Equal(t, "alice@example.com", got.CustomerEmail)
	assert.Equal(t, "t1", got.TableID)
	assert.Equal(t, 2, got.PartySize)
	assert.Equal(t, "2025-06-01", got.Date)
	assert.Equal(t, "19:00", got.Time)
	assert.Equal(t, "birthday", got.SpecialRequests)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	assert.Equal(t, []string{events.EventBookingCreated}, env.events.seen())
}

func TestBookingService_CreateDefaultsPartySize(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	spec := bookingSpec("t1", "2025-06-01", "19:00")
	spec.PartySize = 0

	booking, err := env.bookingSvc.Create(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPartySize, booking.PartySize)
}

func TestBookingService_CreateValidation(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.BookingSpec)
		field  string
	}{
		{"missing name", func(s *models.BookingSpec) { s.CustomerName = "  " }, "customer_name"},
		{"missing phone", func(s *models.BookingSpec) { s.CustomerPhone = "" }, "customer_phone"},
		{"missing table", func(s *models.BookingSpec) { s.TableID = "" }, "table_id"},
		{"missing date", func(s *models.BookingSpec) { s.Date = "" }, "date"},
		{"missing time", func(s *models.BookingSpec) { s.Time = "" }, "time"},
		{"bad date", func(s *models.BookingSpec) { s.Date = "01/06/2025" }, "date"},
		{"bad time", func(s *models.BookingSpec) { s.Time = "7pm" }, "time"},
		{"one-digit hour", func(s *models.BookingSpec) { s.Time = "7:00" }, "time"},
		{"one-digit month", func(s *models.BookingSpec) { s.Date = "2025-6-01" }, "date"},
		{"negative party", func(s *models.BookingSpec) { s.PartySize = -3 }, "party_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := bookingSpec("t1", "2025-06-01", "19:00")
			tt.mutate(&spec)

			_, err := env.bookingSvc.Create(ctx, spec)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.True(t, domain.IsValidation(err, tt.field), "got %v", err)
		})
	}

	all, err := env.bookingSvc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBookingService_SlotTimeIsCanonical(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "07:00"))
	require.NoError(t, err)

	// same physical slot spelled differently
	_, err = env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "7:00"))
	assert.True(t, domain.IsValidation(err, "time"), "got %v", err)

	other, err := env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:00"))
	require.NoError(t, err)

	shortTime := "7:00"
	_, err = env.bookingSvc.Update(ctx, other.ID, models.BookingPatch{Time: &shortTime})
	assert.True(t, domain.IsValidation(err, "time"), "got %v", err)

	all, err := env.bookingSvc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "07:00", all[0].Time)
	assert.Equal(t, "19:00", all[1].Time)
}

func TestBookingService_CreateConflict(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:00"))
	require.NoError(t, err)

	_, err = env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:00"))
	assert.ErrorIs(t, err, domain.ErrSlotTaken)

	// other table or other time is fine
	_, err = env.bookingSvc.Create(ctx, bookingSpec("t2", "2025-06-01", "19:00"))
	require.NoError(t, err)
	_, err = env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:30"))
	require.NoError(t, err)
}

func TestBookingService_ConcurrentCreate(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			spec := bookingSpec("t1", "2025-06-01", "19:00")
			spec.CustomerName = fmt.Sprintf("Guest %d", id)
			_, err := env.bookingSvc.Create(ctx, spec)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrSlotTaken)
	}
	assert.Equal(t, 1, succeeded)

	confirmed, err := env.bookings.ListConfirmedAt(ctx, "2025-06-01", "19:00")
	require.NoError(t, err)
	assert.Len(t, confirmed, 1)
}

func TestBookingService_Update(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	booking, err := env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:00"))
	require.NoError(t, err)

	party := 4
	updated, err := env.bookingSvc.Update(ctx, booking.ID, models.BookingPatch{PartySize: &party})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.PartySize)
	assert.Equal(t, "Alice Smith", updated.CustomerName)
	assert.False(t, updated.UpdatedAt.Before(booking.UpdatedAt))

	_, err = env.bookingSvc.Update(ctx, "missing", models.BookingPatch{PartySize: &party})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	empty := ""
	_, err = env.bookingSvc.Update(ctx, booking.ID, models.BookingPatch{CustomerPhone: &empty})
	assert.True(t, domain.IsValidation(err, "customer_phone"))

	unknown := models.BookingStatus("no-show")
	_, err = env.bookingSvc.Update(ctx, booking.ID, models.BookingPatch{Status: &unknown})
	assert.True(t, domain.IsValidation(err, "status"))
}

func TestBookingService_UpdateIntoTakenSlot(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:00"))
	require.NoError(t, err)
	second, err := env.bookingSvc.Create(ctx, bookingSpec("t2", "2025-06-01", "19:00"))
	require.NoError(t, err)

	t1 := "t1"
	_, err = env.bookingSvc.Update(ctx, second.ID, models.BookingPatch{TableID: &t1})
	assert.ErrorIs(t, err, domain.ErrSlotTaken)

	// a cancelled booking may move anywhere, but cannot be re-confirmed into a held slot
	cancelled := models.StatusCancelled
	_, err = env.bookingSvc.Update(ctx, second.ID, models.BookingPatch{Status: &cancelled, TableID: &t1})
	require.NoError(t, err)

	confirmed := models.StatusConfirmed
	_, err = env.bookingSvc.Update(ctx, second.ID, models.BookingPatch{Status: &confirmed})
	assert.ErrorIs(t, err, domain.ErrSlotTaken)
}

func TestBookingService_StatusTransitions(t *testing.T) {
	confirmed := models.StatusConfirmed
	pending := models.StatusPending
	cancelled := models.StatusCancelled

	t.Run("free-form by default", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		ctx := context.Background()

		b, err := env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:00"))
		require.NoError(t, err)

		_, err = env.bookingSvc.Update(ctx, b.ID, models.BookingPatch{Status: &pending})
		require.NoError(t, err)
		_, err = env.bookingSvc.Update(ctx, b.ID, models.BookingPatch{Status: &cancelled})
		require.NoError(t, err)
	})

	t.Run("strict", func(t *testing.T) {
		env := newTestEnv(t, envOptions{strict: true})
		ctx := context.Background()

		b, err := env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:00"))
		require.NoError(t, err)

		_, err = env.bookingSvc.Update(ctx, b.ID, models.BookingPatch{Status: &pending})
		require.NoError(t, err)
		_, err = env.bookingSvc.Update(ctx, b.ID, models.BookingPatch{Status: &cancelled})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		_, err = env.bookingSvc.Update(ctx, b.ID, models.BookingPatch{Status: &confirmed})
		require.NoError(t, err)
		_, err = env.bookingSvc.Update(ctx, b.ID, models.BookingPatch{Status: &cancelled})
		require.NoError(t, err)
	})
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(models.StatusConfirmed, models.StatusCancelled))
	assert.True(t, canTransition(models.StatusCancelled, models.StatusConfirmed))
	assert.True(t, canTransition(models.StatusConfirmed, models.StatusPending))
	assert.True(t, canTransition(models.StatusPending, models.StatusConfirmed))
	assert.True(t, canTransition(models.StatusPending, models.StatusPending))
	assert.False(t, canTransition(models.StatusPending, models.StatusCancelled))
	assert.False(t, canTransition(models.StatusCancelled, models.StatusPending))
}

func TestBookingService_CancelAndDelete(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	b, err := env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:00"))
	require.NoError(t, err)

	cancelled, err := env.bookingSvc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	deleted, err := env.bookingSvc.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = env.bookingSvc.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, []string{
		events.EventBookingCreated,
		events.EventBookingCancelled,
		events.EventBookingDeleted,
	}, env.events.seen())
}

func TestBookingService_GetByDate(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	slots := []struct{ date, tm string }{
		{"2025-05-31", "19:00"},
		{"2025-06-01", "19:00"},
		{"2025-06-01", "20:00"},
		{"2025-06-02", "19:00"},
	}
	for _, slot := range slots {
		_, err := env.bookingSvc.Create(ctx, bookingSpec("t1", slot.date, slot.tm))
		require.NoError(t, err)
	}

	got, err := env.bookingSvc.GetByDate(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, b := range got {
		assert.Equal(t, "2025-06-01", b.Date)
	}

	none, err := env.bookingSvc.GetByDate(ctx, "2025-06")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBookingService_GetByTable(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:00"))
	require.NoError(t, err)
	_, err = env.bookingSvc.Create(ctx, bookingSpec("t2", "2025-06-01", "19:00"))
	require.NoError(t, err)
	cancelled, err := env.bookingSvc.Create(ctx, bookingSpec("t1", "2025-06-02", "19:00"))
	require.NoError(t, err)
	_, err = env.bookingSvc.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	got, err := env.bookingSvc.GetByTable(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 2, "cancelled bookings included")
	for _, b := range got {
		assert.Equal(t, "t1", b.TableID)
	}
}

func TestBookingService_Search(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	alice := bookingSpec("t1", "2025-06-01", "19:00")
	bob := bookingSpec("t2", "2025-06-01", "19:00")
	bob.CustomerName = "Bob Jones"
	bob.CustomerEmail = "BOB@Example.org"
	bob.CustomerPhone = "555-0199"
	for _, spec := range []models.BookingSpec{alice, bob} {
		_, err := env.bookingSvc.Create(ctx, spec)
		require.NoError(t, err)
	}

	tests := []struct {
		term string
		want []string
	}{
		{"alice", []string{"Alice Smith"}},
		{"example.org", []string{"Bob Jones"}},
		{"0199", []string{"Bob Jones"}},
		{"555", []string{"Alice Smith", "Bob Jones"}},
		{"", []string{"Alice Smith", "Bob Jones"}},
		{"carol", nil},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, err := env.bookingSvc.Search(ctx, tt.term)
			require.NoError(t, err)

			var names []string
			for _, b := range got {
				names = append(names, b.CustomerName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

type stubLocker struct {
	err error
}

func (s stubLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	if s.err != nil {
		return nil, s.err
	}
	return func() {}, nil
}

func TestBookingService_SlotLocked(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ledger := repository.NewMemoryBookingLedger()
	svc := NewBookingService(ledger, stubLocker{err: domain.ErrSlotLocked}, nil, BookingOptions{}, &logger)

	_, err := svc.Create(context.Background(), bookingSpec("t1", "2025-06-01", "19:00"))
	assert.ErrorIs(t, err, domain.ErrSlotLocked)

	all, err := ledger.ListBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

// flakyLocker reports the slot as locked for the first busy attempts.
type flakyLocker struct {
	busy     int
	attempts int
}

func (f *flakyLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	f.attempts++
	if f.attempts <= f.busy {
		return nil, domain.ErrSlotLocked
	}
	return func() {}, nil
}

func TestBookingService_SlotLockRetry(t *testing.T) {
	logger := zerolog.New(io.Discard)
	retry := LockRetry{Attempts: 3, Delay: time.Millisecond}

	t.Run("succeeds once the lock frees up", func(t *testing.T) {
		locker := &flakyLocker{busy: 2}
		svc := NewBookingService(repository.NewMemoryBookingLedger(), locker, nil, BookingOptions{LockRetry: retry}, &logger)

		_, err := svc.Create(context.Background(), bookingSpec("t1", "2025-06-01", "19:00"))
		require.NoError(t, err)
		assert.Equal(t, 3, locker.attempts)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		locker := &flakyLocker{busy: 10}
		svc := NewBookingService(repository.NewMemoryBookingLedger(), locker, nil, BookingOptions{LockRetry: retry}, &logger)

		_, err := svc.Create(context.Background(), bookingSpec("t1", "2025-06-01", "19:00"))
		assert.ErrorIs(t, err, domain.ErrSlotLocked)
		assert.Equal(t, 4, locker.attempts)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		locker := &flakyLocker{busy: 10}
		slow := LockRetry{Attempts: 3, Delay: time.Hour}
		svc := NewBookingService(repository.NewMemoryBookingLedger(), locker, nil, BookingOptions{LockRetry: slow}, &logger)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Create(ctx, bookingSpec("t1", "2025-06-01", "19:00"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBookingService_PublishFailureDoesNotFailWrite(t *testing.T) {
	logger := zerolog.New(io.Discard)
	bus := new(mockEventBus)
	svc := NewBookingService(repository.NewMemoryBookingLedger(), nil, bus, BookingOptions{}, &logger)

	bus.On("PublishJSON", events.EventBookingCreated, mock.MatchedBy(func(p events.BookingEventPayload) bool {
		return p.TableID == "t1" && p.Status == string(models.StatusConfirmed)
	})).Return(errors.New("bus down")).Once()

	b, err := svc.Create(context.Background(), bookingSpec("t1", "2025-06-01", "19:00"))
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	bus.AssertExpectations(t)
}
