package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aviary-labs/flightdesk/internal/model"
)

type fakeRosterStore struct {
	refs  []model.EntityRef
	err   error
	calls int
}

func (f *fakeRosterStore) ListActive(_ context.Context, _ model.EntityType) ([]model.EntityRef, error) {
	f.calls++
	return f.refs, f.err
}

type fakeSlotStore struct {
	created     []model.ScheduleSlot
	createCount int64
	blocked     map[string]struct{}
	slots       []model.ScheduleSlot
	err         error
}

func (f *fakeSlotStore) BulkCreate(_ context.Context, slots []model.ScheduleSlot) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = slots
	if f.createCount > 0 {
		return f.createCount, nil
	}
	return int64(len(slots)), nil
}

func (f *fakeSlotStore) BlockedIDs(_ context.Context, _ model.EntityType, _, _ string) (map[string]struct{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.blocked == nil {
		return map[string]struct{}{}, nil
	}
	return f.blocked, nil
}

func (f *fakeSlotStore) GetByEntity(_ context.Context, _ model.EntityType, _, _, _ string) ([]model.ScheduleSlot, error) {
	return f.slots, f.err
}

type fakeRosterCache struct {
	entries map[model.EntityType][]model.EntityRef
	sets    int
}

func (f *fakeRosterCache) Get(_ context.Context, entityType model.EntityType) ([]model.EntityRef, bool) {
	refs, ok := f.entries[entityType]
	return refs, ok
}

func (f *fakeRosterCache) Set(_ context.Context, entityType model.EntityType, refs []model.EntityRef) {
	if f.entries == nil {
		f.entries = map[model.EntityType][]model.EntityRef{}
	}
	f.entries[entityType] = refs
	f.sets++
}

func roster(ids ...string) []model.EntityRef {
	refs := make([]model.EntityRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, model.EntityRef{ID: id, DisplayName: "Entity " + id})
	}
	return refs
}

var (
	admin      = model.Actor{UserID: "admin-1", Role: model.RoleAdministrator}
	student    = model.Actor{UserID: "stu-1", Role: model.RoleStudent}
	instructor = model.Actor{UserID: "cfi-1", Role: model.RoleInstructor}
)

func TestInitializeSchedule(t *testing.T) {
	slots := &fakeSlotStore{}
	svc := NewScheduleService(&fakeRosterStore{}, slots, nil, zap.NewNop())

	created, err := svc.InitializeSchedule(context.Background(), admin, model.EntityAircraft, "ac-1", "2024-06-01", 7, 9, 17)
	require.NoError(t, err)
	assert.Equal(t, int64(56), created)
	assert.Len(t, slots.created, 56)
}

func TestInitializeScheduleRequiresAdministrator(t *testing.T) {
	svc := NewScheduleService(&fakeRosterStore{}, &fakeSlotStore{}, nil, zap.NewNop())

	for _, actor := range []model.Actor{student, instructor} {
		_, err := svc.InitializeSchedule(context.Background(), actor, model.EntityAircraft, "ac-1", "2024-06-01", 7, 9, 17)
		assert.ErrorIs(t, err, ErrForbidden)
	}
}

func TestInitializeScheduleRejectsBadWindow(t *testing.T) {
	svc := NewScheduleService(&fakeRosterStore{}, &fakeSlotStore{}, nil, zap.NewNop())

	_, err := svc.InitializeSchedule(context.Background(), admin, model.EntityAircraft, "ac-1", "2024-06-01", 7, 17, 9)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.InitializeSchedule(context.Background(), admin, model.EntityAircraft, "", "2024-06-01", 7, 9, 17)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolveAvailabilitySubtractsBlocked(t *testing.T) {
	rosters := &fakeRosterStore{refs: roster("a", "b", "c", "d", "e")}
	slots := &fakeSlotStore{blocked: map[string]struct{}{"b": {}, "d": {}}}
	svc := NewScheduleService(rosters, slots, nil, zap.NewNop())

	free, err := svc.ResolveAvailability(context.Background(), model.EntityCFI, "2024-06-01", "10:00")
	require.NoError(t, err)

	// N roster entries minus K blocked, original order preserved.
	require.Len(t, free, 3)
	assert.Equal(t, "a", free[0].ID)
	assert.Equal(t, "c", free[1].ID)
	assert.Equal(t, "e", free[2].ID)
}

func TestResolveAvailabilityAllBlocked(t *testing.T) {
	rosters := &fakeRosterStore{refs: roster("a", "b")}
	slots := &fakeSlotStore{blocked: map[string]struct{}{"a": {}, "b": {}}}
	svc := NewScheduleService(rosters, slots, nil, zap.NewNop())

	free, err := svc.ResolveAvailability(context.Background(), model.EntityAircraft, "2024-06-01", "10:00")
	require.NoError(t, err)
	assert.Empty(t, free)
}

func TestResolveAvailabilityEmptyRoster(t *testing.T) {
	svc := NewScheduleService(&fakeRosterStore{}, &fakeSlotStore{}, nil, zap.NewNop())

	free, err := svc.ResolveAvailability(context.Background(), model.EntityStudent, "2024-06-01", "10:00")
	require.NoError(t, err)
	assert.NotNil(t, free)
	assert.Empty(t, free)
}

func TestResolveAvailabilityValidatesInput(t *testing.T) {
	svc := NewScheduleService(&fakeRosterStore{}, &fakeSlotStore{}, nil, zap.NewNop())

	_, err := svc.ResolveAvailability(context.Background(), model.EntityCFI, "June 1st", "10:00")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ResolveAvailability(context.Background(), model.EntityCFI, "2024-06-01", "10am")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolveAvailabilityUsesCache(t *testing.T) {
	rosters := &fakeRosterStore{refs: roster("a", "b")}
	cache := &fakeRosterCache{}
	svc := NewScheduleService(rosters, &fakeSlotStore{}, cache, zap.NewNop())

	_, err := svc.ResolveAvailability(context.Background(), model.EntityCFI, "2024-06-01", "10:00")
	require.NoError(t, err)
	_, err = svc.ResolveAvailability(context.Background(), model.EntityCFI, "2024-06-01", "11:00")
	require.NoError(t, err)

	assert.Equal(t, 1, rosters.calls, "second lookup should hit the cache")
	assert.Equal(t, 1, cache.sets)
}

func TestResolveAvailabilityPropagatesStoreError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewScheduleService(&fakeRosterStore{err: boom}, &fakeSlotStore{}, nil, zap.NewNop())

	_, err := svc.ResolveAvailability(context.Background(), model.EntityCFI, "2024-06-01", "10:00")
	assert.ErrorIs(t, err, boom)
}

func TestGetEntityScheduleValidatesDates(t *testing.T) {
	svc := NewScheduleService(&fakeRosterStore{}, &fakeSlotStore{}, nil, zap.NewNop())

	_, err := svc.GetEntitySchedule(context.Background(), model.EntityAircraft, "ac-1", "bad", "2024-06-07")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubtractBlockedLeavesRosterIntact(t *testing.T) {
	in := roster("a", "b", "c")
	out := subtractBlocked(in, map[string]struct{}{"z": {}})
	assert.Equal(t, in, out)
}
