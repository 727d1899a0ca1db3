package service

import (
	"io"
	"sync"
	"testing"

	"restobar/internal/events"
	"restobar/internal/models"
	"restobar/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

// recorder collects the types of published events in order.
type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) handle(event *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, event.Type)
	return nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

type testEnv struct {
	tables       *repository.MemoryTableRegistry
	bookings     *repository.MemoryBookingLedger
	orders       *repository.MemoryOrderStore
	menu         *repository.MemoryMenuStore
	bus          *events.EventBus
	events       *recorder
	tableSvc     *TableService
	bookingSvc   *BookingService
	availability *AvailabilityService
}

type envOptions struct {
	deletePolicy  string
	partySizeMode string
	strict        bool
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	logger := zerolog.New(io.Discard)
	env := &testEnv{
		tables:   repository.NewMemoryTableRegistry(),
		bookings: repository.NewMemoryBookingLedger(),
		orders:   repository.NewMemoryOrderStore(),
		menu:     repository.NewMemoryMenuStore(),
		bus:      events.NewEventBus(),
		events:   &recorder{},
	}
	for _, et := range []string{
		events.EventBookingCreated, events.EventBookingUpdated, events.EventBookingCancelled,
		events.EventBookingDeleted, events.EventTableCreated, events.EventTableUpdated, events.EventTableDeleted,
	} {
		env.bus.Subscribe(et, env.events.handle)
	}

	env.tableSvc = NewTableService(env.tables, repository.NewMemoryTableRemover(env.tables, env.bookings), env.bus,
		opts.deletePolicy, &logger)
	env.bookingSvc = NewBookingService(env.bookings, repository.NewMemorySlotLocker(), env.bus,
		BookingOptions{StrictStatusTransitions: opts.strict}, &logger)
	env.availability = NewAvailabilityService(env.tables, env.bookings, opts.partySizeMode, &logger)
	return env
}

func bookingSpec(tableID, date, tm string) models.BookingSpec {
	return models.BookingSpec{
		CustomerName:  "Alice Smith",
		CustomerPhone: "555-0100",
		CustomerEmail: "alice@example.com",
		TableID:       tableID,
		PartySize:     2,
		Date:          date,
		Time:          tm,
	}
}

func boolPtr(v bool) *bool { return &v }
