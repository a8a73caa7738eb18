package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/aviary-labs/flightdesk/internal/model"
	"github.com/aviary-labs/flightdesk/internal/monitoring"
)

// RosterStore reads the reference rosters of schedulable entities.
type RosterStore interface {
	ListActive(ctx context.Context, entityType model.EntityType) ([]model.EntityRef, error)
}

// SlotStore persists schedule slots.
type SlotStore interface {
	BulkCreate(ctx context.Context, slots []model.ScheduleSlot) (int64, error)
	BlockedIDs(ctx context.Context, entityType model.EntityType, date, startTime string) (map[string]struct{}, error)
	GetByEntity(ctx context.Context, entityType model.EntityType, entityID, fromDate, toDate string) ([]model.ScheduleSlot, error)
}

// RosterCache is an optional read-through cache in front of the roster
// query. Implementations must be safe for concurrent use.
type RosterCache interface {
	Get(ctx context.Context, entityType model.EntityType) ([]model.EntityRef, bool)
	Set(ctx context.Context, entityType model.EntityType, refs []model.EntityRef)
}

// ScheduleService owns slot initialization and availability resolution.
type ScheduleService struct {
	rosters RosterStore
	slots   SlotStore
	cache   RosterCache
	logger  *zap.Logger
}

func NewScheduleService(rosters RosterStore, slots SlotStore, cache RosterCache, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		rosters: rosters,
		slots:   slots,
		cache:   cache,
		logger:  logger,
	}
}

// InitializeSchedule bulk-creates open hour slots for an entity over a
// date window. Administrators only. Slots that already exist for the
// same key are left untouched; the returned count is rows actually
// created.
func (s *ScheduleService) InitializeSchedule(ctx context.Context, actor model.Actor, entityType model.EntityType, entityID, startDate string, numDays, startHour, endHour int) (int64, error) {
	if !actor.IsAdministrator() {
		return 0, ErrForbidden
	}
	if entityID == "" {
		return 0, validationf("entity_id is required")
	}

	slots, err := model.ExpandSchedule(entityType, entityID, startDate, numDays, startHour, endHour)
	if err != nil {
		return 0, validationf("%v", err)
	}

	created, err := s.slots.BulkCreate(ctx, slots)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Schedule initialized",
		zap.String("entity_type", string(entityType)),
		zap.String("entity_id", entityID),
		zap.String("start_date", startDate),
		zap.Int("num_days", numDays),
		zap.Int64("slots_created", created),
		zap.Int("slots_skipped", len(slots)-int(created)),
	)
	return created, nil
}

// ResolveAvailability returns the entities of a type free for the exact
// (date, startTime) slot: the active roster minus every id holding a
// reserved slot there. Pure projection, safe to call repeatedly.
func (s *ScheduleService) ResolveAvailability(ctx context.Context, entityType model.EntityType, date, startTime string) ([]model.EntityRef, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, validationf("%v", err)
	}
	start, err := model.ParseTimeOfDay(startTime)
	if err != nil {
		return nil, validationf("%v", err)
	}

	roster, err := s.roster(ctx, entityType)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return []model.EntityRef{}, nil
	}

	blocked, err := s.slots.BlockedIDs(ctx, entityType, date, start)
	if err != nil {
		return nil, err
	}

	monitoring.AvailabilityQueries.WithLabelValues(string(entityType)).Inc()
	return subtractBlocked(roster, blocked), nil
}

// GetEntitySchedule returns an entity's slots over a date range.
func (s *ScheduleService) GetEntitySchedule(ctx context.Context, entityType model.EntityType, entityID, fromDate, toDate string) ([]model.ScheduleSlot, error) {
	if _, err := model.ParseDate(fromDate); err != nil {
		return nil, validationf("%v", err)
	}
	if _, err := model.ParseDate(toDate); err != nil {
		return nil, validationf("%v", err)
	}
	return s.slots.GetByEntity(ctx, entityType, entityID, fromDate, toDate)
}

func (s *ScheduleService) roster(ctx context.Context, entityType model.EntityType) ([]model.EntityRef, error) {
	if s.cache != nil {
		if refs, ok := s.cache.Get(ctx, entityType); ok {
			return refs, nil
		}
	}
	refs, err := s.rosters.ListActive(ctx, entityType)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, entityType, refs)
	}
	return refs, nil
}

// subtractBlocked returns roster entries whose id is not in blocked,
// preserving roster order. The result has exactly len(roster)-K entries
// where K is the number of roster ids present in blocked.
func subtractBlocked(roster []model.EntityRef, blocked map[string]struct{}) []model.EntityRef {
	free := make([]model.EntityRef, 0, len(roster))
	for _, ref := range roster {
		if _, ok := blocked[ref.ID]; ok {
			continue
		}
		free = append(free, ref)
	}
	return free
}
