package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendafacil/booking-api/internal/model"
	"github.com/agendafacil/booking-api/internal/policy"
	apperr "github.com/agendafacil/booking-api/pkg/errors"
)

type fakeServiceRepo struct {
	services map[uuid.UUID]*model.Service
}

func (r *fakeServiceRepo) Create(_ context.Context, s *model.Service) error {
	s.ID = uuid.New()
	r.services[s.ID] = s
	return nil
}

func (r *fakeServiceRepo) Get(_ context.Context, id uuid.UUID) (*model.Service, error) {
	s, ok := r.services[id]
	if !ok {
		return nil, apperr.NotFound("service")
	}
	return s, nil
}

func (r *fakeServiceRepo) Update(_ context.Context, s *model.Service) error {
	if _, ok := r.services[s.ID]; !ok {
		return apperr.NotFound("service")
	}
	r.services[s.ID] = s
	return nil
}

func (r *fakeServiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.services[id]; !ok {
		return apperr.NotFound("service")
	}
	delete(r.services, id)
	return nil
}

func (r *fakeServiceRepo) List(_ context.Context) ([]*model.Service, error) {
	out := make([]*model.Service, 0, len(r.services))
	for _, s := range r.services {
		out = append(out, s)
	}
	return out, nil
}

// fakeBookingCounter implements only the method the catalog needs.
type fakeBookingCounter struct {
	activeCounts map[uuid.UUID]int
}

func (f *fakeBookingCounter) Create(context.Context, *model.Booking) error { return nil }
func (f *fakeBookingCounter) Get(context.Context, uuid.UUID) (*model.Booking, error) {
	return nil, apperr.NotFound("booking")
}
func (f *fakeBookingCounter) Update(context.Context, *model.Booking) error { return nil }
func (f *fakeBookingCounter) ListByUser(context.Context, uuid.UUID, bool) ([]*model.Booking, error) {
	return nil, nil
}
func (f *fakeBookingCounter) ListAll(context.Context) ([]*model.Booking, error) { return nil, nil }
func (f *fakeBookingCounter) ListRange(context.Context, uuid.UUID, string, string) ([]*model.Booking, error) {
	return nil, nil
}
func (f *fakeBookingCounter) BookedTimes(context.Context, uuid.UUID, string) ([]string, error) {
	return nil, nil
}
func (f *fakeBookingCounter) CountActiveByService(_ context.Context, id uuid.UUID) (int, error) {
	return f.activeCounts[id], nil
}

func adminCtx() context.Context {
	return policy.WithActor(context.Background(), &policy.Actor{
		UserID:  uuid.New(),
		IsAdmin: true,
	})
}

func userCtx() context.Context {
	return policy.WithActor(context.Background(), &policy.Actor{UserID: uuid.New()})
}

func validCreateReq() *model.CreateServiceRequest {
	return &model.CreateServiceRequest{
		Name:            "Consultation",
		StartTime:       "09:00",
		EndTime:         "17:00",
		DurationMinutes: 30,
		AllowedWeekdays: []int{1, 2, 3, 4, 5},
		Category:        "medical",
	}
}

func newTestCatalog() (*Service, *fakeServiceRepo, *fakeBookingCounter) {
	services := &fakeServiceRepo{services: make(map[uuid.UUID]*model.Service)}
	bookings := &fakeBookingCounter{activeCounts: make(map[uuid.UUID]int)}
	return NewService(services, bookings, nil, zerolog.Nop()), services, bookings
}

func TestCreateService(t *testing.T) {
	svc, _, _ := newTestCatalog()

	created, err := svc.Create(adminCtx(), validCreateReq())
	require.NoError(t, err)

	assert.Equal(t, "09:00", created.StartTime)
	assert.Equal(t, "17:00", created.EndTime)
	assert.Equal(t, model.CategoryMedical, created.Category)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestCreateServiceNormalizesTimes(t *testing.T) {
	svc, _, _ := newTestCatalog()

	req := validCreateReq()
	req.StartTime = "9:00 AM"
	req.EndTime = "5:00 PM"

	created, err := svc.Create(adminCtx(), req)
	require.NoError(t, err)
	assert.Equal(t, "09:00", created.StartTime)
	assert.Equal(t, "17:00", created.EndTime)
}

func TestCreateServiceAdminOnly(t *testing.T) {
	svc, _, _ := newTestCatalog()

	_, err := svc.Create(userCtx(), validCreateReq())
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = svc.Create(context.Background(), validCreateReq())
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthorized))
}

func TestCreateServiceValidation(t *testing.T) {
	svc, _, _ := newTestCatalog()

	tests := []struct {
		name   string
		mutate func(*model.CreateServiceRequest)
	}{
		{"end before start", func(r *model.CreateServiceRequest) { r.StartTime = "17:00"; r.EndTime = "09:00" }},
		{"end equals start", func(r *model.CreateServiceRequest) { r.EndTime = "09:00" }},
		{"bad start time", func(r *model.CreateServiceRequest) { r.StartTime = "25:00" }},
		{"duration too short", func(r *model.CreateServiceRequest) { r.DurationMinutes = 3 }},
		{"no weekdays", func(r *model.CreateServiceRequest) { r.AllowedWeekdays = nil }},
		{"weekday out of range", func(r *model.CreateServiceRequest) { r.AllowedWeekdays = []int{7} }},
		{"unknown category", func(r *model.CreateServiceRequest) { r.Category = "grooming" }},
		{"negative price", func(r *model.CreateServiceRequest) { p := -10.0; r.Price = &p }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateReq()
			tt.mutate(req)

			_, err := svc.Create(adminCtx(), req)
			assert.True(t, apperr.IsKind(err, apperr.KindValidationError), "got %v", err)
		})
	}
}

func TestCreateServiceDefaults(t *testing.T) {
	svc, _, _ := newTestCatalog()

	req := validCreateReq()
	req.DurationMinutes = 0
	req.Category = ""

	created, err := svc.Create(adminCtx(), req)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSlotDuration, created.DurationMinutes)
	assert.Equal(t, model.CategoryOther, created.Category)
}

func TestUpdateService(t *testing.T) {
	svc, _, _ := newTestCatalog()

	created, err := svc.Create(adminCtx(), validCreateReq())
	require.NoError(t, err)

	updated, err := svc.Update(adminCtx(), created.ID, &model.UpdateServiceRequest{
		Name:            "Extended consultation",
		StartTime:       "08:00",
		EndTime:         "18:00",
		DurationMinutes: 60,
		AllowedWeekdays: []int{6},
		Category:        "therapy",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Extended consultation", updated.Name)
	assert.Equal(t, 60, updated.DurationMinutes)
}

func TestUpdateUnknownService(t *testing.T) {
	svc, _, _ := newTestCatalog()

	_, err := svc.Update(adminCtx(), uuid.New(), &model.UpdateServiceRequest{
		Name:            "Ghost",
		StartTime:       "09:00",
		EndTime:         "10:00",
		AllowedWeekdays: []int{1},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeleteServiceBlockedByActiveBookings(t *testing.T) {
	svc, _, bookings := newTestCatalog()

	created, err := svc.Create(adminCtx(), validCreateReq())
	require.NoError(t, err)

	bookings.activeCounts[created.ID] = 2

	err = svc.Delete(adminCtx(), created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindValidationError))

	// cancelled bookings do not block
	bookings.activeCounts[created.ID] = 0
	assert.NoError(t, svc.Delete(adminCtx(), created.ID))
}

func TestDeleteServiceAdminOnly(t *testing.T) {
	svc, _, _ := newTestCatalog()

	created, err := svc.Create(adminCtx(), validCreateReq())
	require.NoError(t, err)

	err = svc.Delete(userCtx(), created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestListCacheInvalidatedOnWrite(t *testing.T) {
	svc, _, _ := newTestCatalog()

	initial, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, initial)

	_, err = svc.Create(adminCtx(), validCreateReq())
	require.NoError(t, err)

	after, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, after, 1)
}

func TestGetServesFromCache(t *testing.T) {
	svc, repo, _ := newTestCatalog()

	created, err := svc.Create(adminCtx(), validCreateReq())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)

	// remove from the backing store; the cached copy should still serve
	delete(repo.services, created.ID)

	cached, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, cached.ID)
}
