package repository

import (
	"context"
	"sync"
	"time"

	"restobar/internal/domain"
	"restobar/internal/models"

	"github.com/google/uuid"
)

// MemoryTableRegistry keeps tables in creation order.
type MemoryTableRegistry struct {
	mu     sync.RWMutex
	tables []*models.Table
}

func NewMemoryTableRegistry() *MemoryTableRegistry {
	return &MemoryTableRegistry{}
}

func (r *MemoryTableRegistry) ListTables(ctx context.Context) ([]*models.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Table, 0, len(r.tables))
	for _, t := range r.tables {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryTableRegistry) GetTable(ctx context.Context, id string) (*models.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	cp := *r.tables[idx]
	return &cp, nil
}

func (r *MemoryTableRegistry) CreateTable(ctx context.Context, table *models.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if table.ID == "" {
		table.ID = uuid.NewString()
	}
	stampCreated(&table.CreatedAt, &table.UpdatedAt)

	cp := *table
	r.tables = append(r.tables, &cp)
	return nil
}

func (r *MemoryTableRegistry) UpdateTable(ctx context.Context, id string, patch models.TablePatch) (*models.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}

	updated := *r.tables[idx]
	patch.Apply(&updated)
	updated.UpdatedAt = time.Now()
	r.tables[idx] = &updated

	cp := updated
	return &cp, nil
}

func (r *MemoryTableRegistry) DeleteTable(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	r.tables = append(r.tables[:idx], r.tables[idx+1:]...)
	return true, nil
}

func (r *MemoryTableRegistry) indexOf(id string) int {
	for i, t := range r.tables {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// MemoryBookingLedger keeps bookings in creation order. All writes share one
// mutex, so the *WithLock methods check and write atomically.
type MemoryBookingLedger struct {
	mu       sync.RWMutex
	bookings []*models.Booking
}

func NewMemoryBookingLedger() *MemoryBookingLedger {
	return &MemoryBookingLedger{}
}

func (l *MemoryBookingLedger) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	return l.filter(func(*models.Booking) bool { return true }), nil
}

func (l *MemoryBookingLedger) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	cp := *l.bookings[idx]
	return &cp, nil
}

func (l *MemoryBookingLedger) GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	return l.filter(func(b *models.Booking) bool { return b.Date == date }), nil
}

func (l *MemoryBookingLedger) GetBookingsByTable(ctx context.Context, tableID string) ([]*models.Booking, error) {
	return l.filter(func(b *models.Booking) bool { return b.TableID == tableID }), nil
}

func (l *MemoryBookingLedger) ListConfirmedAt(ctx context.Context, date, tm string) ([]*models.Booking, error) {
	return l.filter(func(b *models.Booking) bool {
		return b.Date == date && b.Time == tm && b.Occupies()
	}), nil
}

func (l *MemoryBookingLedger) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if booking.Occupies() && l.slotTaken(booking, "") {
		return domain.ErrSlotTaken
	}
	l.insert(booking)
	return nil
}

func (l *MemoryBookingLedger) UpdateBookingWithLock(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	return l.update(id, patch)
}

func (l *MemoryBookingLedger) DeleteBooking(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	before := len(l.bookings)
	kept := l.bookings[:0]
	for _, b := range l.bookings {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	l.bookings = kept
	return len(l.bookings) != before, nil
}

func (l *MemoryBookingLedger) update(id string, patch models.BookingPatch) (*models.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}

	updated := *l.bookings[idx]
	patch.Apply(&updated)
	if patch.TouchesSlot() && updated.Occupies() && l.slotTaken(&updated, id) {
		return nil, domain.ErrSlotTaken
	}
	updated.UpdatedAt = time.Now()
	l.bookings[idx] = &updated

	cp := updated
	return &cp, nil
}

func (l *MemoryBookingLedger) insert(booking *models.Booking) {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	stampCreated(&booking.CreatedAt, &booking.UpdatedAt)

	cp := *booking
	l.bookings = append(l.bookings, &cp)
}

// slotTaken must be called with l.mu held.
func (l *MemoryBookingLedger) slotTaken(b *models.Booking, exceptID string) bool {
	for _, other := range l.bookings {
		if other.ID == exceptID || !other.Occupies() {
			continue
		}
		if other.Date == b.Date && other.Time == b.Time && other.TableID == b.TableID {
			return true
		}
	}
	return false
}

func (l *MemoryBookingLedger) filter(keep func(*models.Booking) bool) []*models.Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*models.Booking, 0)
	for _, b := range l.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

func (l *MemoryBookingLedger) indexOf(id string) int {
	for i, b := range l.bookings {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// MemoryOrderStore is the read side the dashboard aggregates over.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders []*models.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{}
}

func (s *MemoryOrderStore) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return s.filter(func(*models.Order) bool { return true }), nil
}

func (s *MemoryOrderStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	matches := s.filter(func(o *models.Order) bool { return o.ID == id })
	if len(matches) == 0 {
		return nil, domain.ErrNotFound
	}
	return matches[0], nil
}

func (s *MemoryOrderStore) GetOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error) {
	return s.filter(func(o *models.Order) bool { return o.Status == status }), nil
}

func (s *MemoryOrderStore) GetOrdersByTable(ctx context.Context, tableID string) ([]*models.Order, error) {
	return s.filter(func(o *models.Order) bool { return o.TableID == tableID }), nil
}

func (s *MemoryOrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	stampCreated(&order.CreatedAt, &order.UpdatedAt)

	s.orders = append(s.orders, copyOrder(order))
	return nil
}

func (s *MemoryOrderStore) filter(keep func(*models.Order) bool) []*models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Order, 0)
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, copyOrder(o))
		}
	}
	return out
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp
}

type MemoryMenuStore struct {
	mu    sync.RWMutex
	items []*models.MenuItem
}

func NewMemoryMenuStore() *MemoryMenuStore {
	return &MemoryMenuStore{}
}

func (s *MemoryMenuStore) ListMenuItems(ctx context.Context) ([]*models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.MenuItem, 0, len(s.items))
	for _, item := range s.items {
		cp := *item
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryMenuStore) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	stampCreated(&item.CreatedAt, &item.UpdatedAt)

	cp := *item
	s.items = append(s.items, &cp)
	return nil
}

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

// MemorySlotLocker holds slot locks inside the process.
type MemorySlotLocker struct {
	mu    sync.Mutex
	locks map[string]lockEntry
}

type lockEntry struct {
	token     string
	expiresAt time.Time
}

func NewMemorySlotLocker() *MemorySlotLocker {
	return &MemorySlotLocker{locks: make(map[string]lockEntry)}
}

func (m *MemorySlotLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	now := time.Now()
	token := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.locks[key]; ok && now.Before(entry.expiresAt) {
		return nil, domain.ErrSlotLocked
	}
	m.locks[key] = lockEntry{token: token, expiresAt: now.Add(ttl)}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if entry, ok := m.locks[key]; ok && entry.token == token {
			delete(m.locks, key)
		}
	}, nil
}

// MemoryTableRemover deletes from a table registry while holding the booking
// ledger's write lock, so no booking lands between the check and the delete.
type MemoryTableRemover struct {
	tables   *MemoryTableRegistry
	bookings *MemoryBookingLedger
}

func NewMemoryTableRemover(tables *MemoryTableRegistry, bookings *MemoryBookingLedger) *MemoryTableRemover {
	return &MemoryTableRemover{tables: tables, bookings: bookings}
}

func (r *MemoryTableRemover) RemoveTable(ctx context.Context, id string, restrict bool) (models.TableRemoval, error) {
	r.bookings.mu.Lock()
	defer r.bookings.mu.Unlock()

	var res models.TableRemoval
	for _, b := range r.bookings.bookings {
		if b.TableID != id {
			continue
		}
		res.Referencing++
		if b.Status != models.StatusCancelled {
			res.Active++
		}
	}
	if restrict && res.Active > 0 {
		return res, domain.ErrTableInUse
	}

	removed, err := r.tables.DeleteTable(ctx, id)
	res.Removed = removed
	return res, err
}

var _ domain.TableRemover = (*MemoryTableRemover)(nil)
