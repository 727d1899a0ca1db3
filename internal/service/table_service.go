package service

import (
	"context"
	"errors"
	"time"

	"restobar/internal/domain"
	"restobar/internal/events"
	"restobar/internal/metrics"
	"restobar/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TableService is the table registry. Table numbers are not required to be unique.
type TableService struct {
	tables       domain.TableRepository
	remover      domain.TableRemover
	eventBus     domain.EventPublisher
	deletePolicy string
	logger       *zerolog.Logger
}

func NewTableService(
	tables domain.TableRepository,
	remover domain.TableRemover,
	eventBus domain.EventPublisher,
	deletePolicy string,
	logger *zerolog.Logger,
) *TableService {
	if deletePolicy == "" {
		deletePolicy = models.DeletePolicyOrphan
	}
	return &TableService{
		tables:       tables,
		remover:      remover,
		eventBus:     eventBus,
		deletePolicy: deletePolicy,
		logger:       logger,
	}
}

func (s *TableService) List(ctx context.Context) ([]*models.Table, error) {
	return s.tables.ListTables(ctx)
}

func (s *TableService) GetByID(ctx context.Context, id string) (*models.Table, error) {
	return s.tables.GetTable(ctx, id)
}

func (s *TableService) Create(ctx context.Context, spec models.TableSpec) (*models.Table, error) {
	if spec.Location == "" {
		spec.Location = models.LocationIndoor
	}
	if err := validateTable(spec.Number, spec.Capacity, spec.Location); err != nil {
		return nil, err
	}

	available := true
	if spec.IsAvailable != nil {
		available = *spec.IsAvailable
	}

	now := time.Now()
	table := &models.Table{
		ID:          uuid.NewString(),
		Number:      spec.Number,
		Capacity:    spec.Capacity,
		Location:    spec.Location,
		IsAvailable: available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tables.CreateTable(ctx, table); err != nil {
		return nil, err
	}

	s.logger.Info().Str("table_id", table.ID).Int("number", table.Number).Msg("table created")
	s.publishEvent(events.EventTableCreated, table, 0)
	return table, nil
}

func (s *TableService) Update(ctx context.Context, id string, patch models.TablePatch) (*models.Table, error) {
	if err := validateTablePatch(patch); err != nil {
		return nil, err
	}

	table, err := s.tables.UpdateTable(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventTableUpdated, table, 0)
	return table, nil
}

// SetAvailability takes a table in or out of service.
func (s *TableService) SetAvailability(ctx context.Context, id string, available bool) (*models.Table, error) {
	return s.Update(ctx, id, models.TablePatch{IsAvailable: &available})
}

// Delete removes the table. Under the orphan policy bookings that reference
// it are kept; under restrict it fails with ErrTableInUse while any
// non-cancelled booking points at it.
func (s *TableService) Delete(ctx context.Context, id string) (bool, error) {
	table, err := s.tables.GetTable(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	restrict := s.deletePolicy == models.DeletePolicyRestrict
	res, err := s.remover.RemoveTable(ctx, id, restrict)
	if err != nil {
		if errors.Is(err, domain.ErrTableInUse) {
			s.logger.Warn().Str("table_id", id).Int("active_bookings", res.Active).Msg("table delete refused")
		}
		return false, err
	}
	if !res.Removed {
		return false, nil
	}

	metrics.IncTableDeleted(s.deletePolicy)
	if res.Referencing > 0 {
		s.logger.Warn().Str("table_id", id).Int("orphaned_bookings", res.Referencing).Msg("table deleted with bookings still referencing it")
	}
	s.publishEvent(events.EventTableDeleted, table, res.Referencing)
	return true, nil
}

func validateTable(number, capacity int, location models.Location) error {
	if number <= 0 {
		return domain.Invalid("number", "must be positive")
	}
	if capacity <= 0 {
		return domain.Invalid("capacity", "must be positive")
	}
	if !location.Valid() {
		return domain.Invalid("location", "unknown location "+string(location))
	}
	return nil
}

func validateTablePatch(p models.TablePatch) error {
	if p.Number != nil && *p.Number <= 0 {
		return domain.Invalid("number", "must be positive")
	}
	if p.Capacity != nil && *p.Capacity <= 0 {
		return domain.Invalid("capacity", "must be positive")
	}
	if p.Location != nil && !p.Location.Valid() {
		return domain.Invalid("location", "unknown location "+string(*p.Location))
	}
	return nil
}

func (s *TableService) publishEvent(eventType string, table *models.Table, orphaned int) {
	if s.eventBus == nil {
		return
	}

	payload := events.TableEventPayload{
		TableID:          table.ID,
		Number:           table.Number,
		Capacity:         table.Capacity,
		Location:         string(table.Location),
		IsAvailable:      table.IsAvailable,
		OrphanedBookings: orphaned,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("table_id", table.ID).Msg("publish event error")
	}
}
