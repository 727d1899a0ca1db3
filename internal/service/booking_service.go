package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"restobar/internal/domain"
	"restobar/internal/events"
	"restobar/internal/metrics"
	"restobar/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingOptions struct {
	// StrictStatusTransitions limits status changes to confirmed<->cancelled
	// and confirmed<->pending.
	StrictStatusTransitions bool
	LockTTL                 time.Duration
	// LockRetry applies when the slot lock is held by another writer.
	LockRetry LockRetry
}

// BookingService is the booking ledger. Writes are serialized per instance and
// the slot check runs inside create and update.
type BookingService struct {
	mu       sync.Mutex
	bookings domain.BookingRepository
	locker   domain.SlotLocker
	eventBus domain.EventPublisher
	opts     BookingOptions
	logger   *zerolog.Logger
}

func NewBookingService(
	bookings domain.BookingRepository,
	locker domain.SlotLocker,
	eventBus domain.EventPublisher,
	opts BookingOptions,
	logger *zerolog.Logger,
) *BookingService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = models.DefaultSlotLockTTL * time.Second
	}
	return &BookingService{
		bookings: bookings,
		locker:   locker,
		eventBus: eventBus,
		opts:     opts,
		logger:   logger,
	}
}

func (s *BookingService) List(ctx context.Context) ([]*models.Booking, error) {
	return s.bookings.ListBookings(ctx)
}

func (s *BookingService) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return s.bookings.GetBooking(ctx, id)
}

// GetByDate returns bookings whose date equals date exactly.
func (s *BookingService) GetByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	return s.bookings.GetBookingsByDate(ctx, date)
}

// GetByTable returns the bookings that reference tableID, in any status.
func (s *BookingService) GetByTable(ctx context.Context, tableID string) ([]*models.Booking, error) {
	return s.bookings.GetBookingsByTable(ctx, tableID)
}

// Create validates the input and stores a confirmed booking. It fails with
// ErrSlotTaken when another confirmed booking holds the same slot.
func (s *BookingService) Create(ctx context.Context, spec models.BookingSpec) (*models.Booking, error) {
	if spec.PartySize == 0 {
		spec.PartySize = models.DefaultPartySize
	}
	if err := validateBookingSpec(spec); err != nil {
		return nil, err
	}

	now := time.Now()
	booking := &models.Booking{
		ID:              uuid.NewString(),
		CustomerName:    strings.TrimSpace(spec.CustomerName),
		CustomerPhone:   strings.TrimSpace(spec.CustomerPhone),
		CustomerEmail:   strings.TrimSpace(spec.CustomerEmail),
		TableID:         spec.TableID,
		PartySize:       spec.PartySize,
		Date:            spec.Date,
		Time:            spec.Time,
		SpecialRequests: spec.SpecialRequests,
		Status:          models.StatusConfirmed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.lockSlot(ctx, booking.SlotKey())
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.bookings.CreateBookingWithLock(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			metrics.IncBookingConflict()
			s.logger.Warn().Str("slot", booking.SlotKey()).Msg("booking rejected: slot taken")
		}
		return nil, err
	}

	metrics.IncBookingCreated()
	s.logger.Info().Str("booking_id", booking.ID).Str("slot", booking.SlotKey()).Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking)
	return booking, nil
}

// Update merges patch into the booking. A merged confirmed booking may not
// land on a slot another confirmed booking holds.
func (s *BookingService) Update(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	if err := validateBookingPatch(patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && s.opts.StrictStatusTransitions && !canTransition(current.Status, *patch.Status) {
		return nil, domain.ErrInvalidTransition
	}

	merged := *current
	patch.Apply(&merged)
	if patch.TouchesSlot() && merged.Occupies() {
		release, err := s.lockSlot(ctx, merged.SlotKey())
		if err != nil {
			return nil, err
		}
		defer release()
	}

	updated, err := s.bookings.UpdateBookingWithLock(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			metrics.IncBookingConflict()
			s.logger.Warn().Str("booking_id", id).Str("slot", merged.SlotKey()).Msg("booking update rejected: slot taken")
		}
		return nil, err
	}

	eventType := events.EventBookingUpdated
	if current.Status != models.StatusCancelled && updated.Status == models.StatusCancelled {
		eventType = events.EventBookingCancelled
	}
	s.publishEvent(eventType, updated)
	return updated, nil
}

// Cancel releases the booking's slot by setting its status to cancelled.
func (s *BookingService) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	cancelled := models.StatusCancelled
	return s.Update(ctx, id, models.BookingPatch{Status: &cancelled})
}

// Delete removes the booking and reports whether it existed.
func (s *BookingService) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.bookings.DeleteBooking(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}

	s.logger.Info().Str("booking_id", id).Msg("booking deleted")
	s.publishEvent(events.EventBookingDeleted, booking)
	return true, nil
}

// Search matches name and email case-insensitively and phone as a substring.
// An empty term returns every booking.
func (s *BookingService) Search(ctx context.Context, term string) ([]*models.Booking, error) {
	all, err := s.bookings.ListBookings(ctx)
	if err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return all, nil
	}

	needle := strings.ToLower(term)
	matches := make([]*models.Booking, 0)
	for _, b := range all {
		if strings.Contains(strings.ToLower(b.CustomerName), needle) ||
			strings.Contains(strings.ToLower(b.CustomerEmail), needle) ||
			strings.Contains(b.CustomerPhone, term) {
			matches = append(matches, b)
		}
	}
	return matches, nil
}

func (s *BookingService) lockSlot(ctx context.Context, key string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	release, tries, err := s.opts.LockRetry.acquire(ctx, s.locker, key, s.opts.LockTTL)
	if err != nil {
		s.logger.Warn().Err(err).Str("slot", key).Int("attempts", tries).Msg("slot lock not acquired")
		return nil, err
	}
	if tries > 1 {
		s.logger.Debug().Str("slot", key).Int("attempts", tries).Msg("slot lock acquired after waiting")
	}
	return release, nil
}

func canTransition(from, to models.BookingStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case models.StatusConfirmed:
		return to == models.StatusCancelled || to == models.StatusPending
	case models.StatusCancelled, models.StatusPending:
		return to == models.StatusConfirmed
	}
	return false
}

func validateBookingSpec(spec models.BookingSpec) error {
	required := []struct {
		field string
		value string
	}{
		{"customer_name", spec.CustomerName},
		{"customer_phone", spec.CustomerPhone},
		{"table_id", spec.TableID},
		{"date", spec.Date},
		{"time", spec.Time},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.Invalid(r.field, "is required")
		}
	}

	if !models.ValidDate(spec.Date) {
		return domain.Invalid("date", "must be YYYY-MM-DD")
	}
	if !models.ValidTime(spec.Time) {
		return domain.Invalid("time", "must be HH:MM")
	}
	if spec.PartySize < 0 {
		return domain.Invalid("party_size", "must be positive")
	}
	return nil
}

func validateBookingPatch(p models.BookingPatch) error {
	required := []struct {
		field string
		value *string
	}{
		{"customer_name", p.CustomerName},
		{"customer_phone", p.CustomerPhone},
		{"table_id", p.TableID},
	}
	for _, r := range required {
		if r.value != nil && strings.TrimSpace(*r.value) == "" {
			return domain.Invalid(r.field, "must not be empty")
		}
	}

	if p.Date != nil && !models.ValidDate(*p.Date) {
		return domain.Invalid("date", "must be YYYY-MM-DD")
	}
	if p.Time != nil && !models.ValidTime(*p.Time) {
		return domain.Invalid("time", "must be HH:MM")
	}
	if p.PartySize != nil && *p.PartySize <= 0 {
		return domain.Invalid("party_size", "must be positive")
	}
	if p.Status != nil && !p.Status.Valid() {
		return domain.Invalid("status", "unknown status "+string(*p.Status))
	}
	return nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:    booking.ID,
		CustomerName: booking.CustomerName,
		TableID:      booking.TableID,
		PartySize:    booking.PartySize,
		Date:         booking.Date,
		Time:         booking.Time,
		Status:       string(booking.Status),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}
