package service

import (
	"context"
	"sort"

	"restobar/internal/domain"
	"restobar/internal/metrics"
	"restobar/internal/models"

	"github.com/rs/zerolog"
)

// AvailabilityService answers whether a (date, time) slot can take a booking.
type AvailabilityService struct {
	tables        domain.TableRepository
	bookings      domain.BookingRepository
	partySizeMode string
	logger        *zerolog.Logger
}

func NewAvailabilityService(
	tables domain.TableRepository,
	bookings domain.BookingRepository,
	partySizeMode string,
	logger *zerolog.Logger,
) *AvailabilityService {
	if partySizeMode == "" {
		partySizeMode = models.PartySizeModeCapacity
	}
	return &AvailabilityService{
		tables:        tables,
		bookings:      bookings,
		partySizeMode: partySizeMode,
		logger:        logger,
	}
}

// IsAvailable checks one table when TableID is set, otherwise whether any
// table can seat PartySize. With neither it returns true.
func (s *AvailabilityService) IsAvailable(ctx context.Context, q models.AvailabilityQuery) (bool, error) {
	available, err := s.isAvailable(ctx, q)
	if err != nil {
		return false, err
	}

	metrics.ObserveAvailability(available)
	s.logger.Debug().
		Str("date", q.Date).
		Str("time", q.Time).
		Str("table_id", q.TableID).
		Int("party_size", q.PartySize).
		Bool("available", available).
		Msg("availability checked")
	return available, nil
}

func (s *AvailabilityService) isAvailable(ctx context.Context, q models.AvailabilityQuery) (bool, error) {
	if q.TableID == "" && q.PartySize <= 0 {
		return true, nil
	}
	if err := validateSlot(q); err != nil {
		return false, err
	}

	confirmed, err := s.bookings.ListConfirmedAt(ctx, q.Date, q.Time)
	if err != nil {
		return false, err
	}

	if q.TableID != "" {
		for _, b := range confirmed {
			if b.TableID == q.TableID {
				return false, nil
			}
		}
		return true, nil
	}

	if s.partySizeMode == models.PartySizeModeLegacy {
		return len(confirmed) < models.LegacyTableCount, nil
	}

	free, err := s.freeTables(ctx, confirmed, q.PartySize)
	if err != nil {
		return false, err
	}
	return len(free) > 0, nil
}

// FreeTables lists in-service tables that seat PartySize and have no
// confirmed booking at (Date, Time), smallest first.
func (s *AvailabilityService) FreeTables(ctx context.Context, q models.AvailabilityQuery) ([]*models.Table, error) {
	if err := validateSlot(q); err != nil {
		return nil, err
	}
	confirmed, err := s.bookings.ListConfirmedAt(ctx, q.Date, q.Time)
	if err != nil {
		return nil, err
	}
	return s.freeTables(ctx, confirmed, q.PartySize)
}

func (s *AvailabilityService) freeTables(ctx context.Context, confirmed []*models.Booking, partySize int) ([]*models.Table, error) {
	tables, err := s.tables.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	held := make(map[string]struct{}, len(confirmed))
	for _, b := range confirmed {
		held[b.TableID] = struct{}{}
	}

	free := make([]*models.Table, 0, len(tables))
	for _, t := range tables {
		if _, ok := held[t.ID]; ok {
			continue
		}
		if t.Fits(partySize) {
			free = append(free, t)
		}
	}

	sort.SliceStable(free, func(i, j int) bool {
		if free[i].Capacity != free[j].Capacity {
			return free[i].Capacity < free[j].Capacity
		}
		return free[i].Number < free[j].Number
	})
	return free, nil
}

func validateSlot(q models.AvailabilityQuery) error {
	if !models.ValidDate(q.Date) {
		return domain.Invalid("date", "must be YYYY-MM-DD")
	}
	if !models.ValidTime(q.Time) {
		return domain.Invalid("time", "must be HH:MM")
	}
	return nil
}
