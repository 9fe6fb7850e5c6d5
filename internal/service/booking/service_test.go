package booking

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendafacil/booking-api/internal/model"
	"github.com/agendafacil/booking-api/internal/policy"
	apperr "github.com/agendafacil/booking-api/pkg/errors"
)

// fakeBookingRepo enforces the same active-slot uniqueness the
// database index provides, so conflict behavior is testable without
// Postgres.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*model.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*model.Booking)}
}

func (r *fakeBookingRepo) Create(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bookings {
		if existing.Active() &&
			existing.ServiceID == b.ServiceID &&
			existing.Date == b.Date &&
			existing.Time == b.Time {
			return apperr.TimeConflict()
		}
	}

	clone := *b
	clone.ID = uuid.New()
	r.bookings[clone.ID] = &clone
	b.ID = clone.ID
	return nil
}

func (r *fakeBookingRepo) Get(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking")
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.ID]; !ok {
		return apperr.NotFound("booking")
	}
	clone := *b
	r.bookings[b.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) ListByUser(_ context.Context, userID uuid.UUID, includeCancelled bool) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Booking
	for _, b := range r.bookings {
		if b.UserID != userID {
			continue
		}
		if !includeCancelled && !b.Active() {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeBookingRepo) ListRange(_ context.Context, serviceID uuid.UUID, fromDate, toDate string) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Booking
	for _, b := range r.bookings {
		if b.ServiceID != serviceID || !b.Active() {
			continue
		}
		if b.Date < fromDate || b.Date >= toDate {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeBookingRepo) BookedTimes(_ context.Context, serviceID uuid.UUID, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, b := range r.bookings {
		if b.ServiceID == serviceID && b.Date == date && b.Active() {
			out = append(out, b.Time)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) CountActiveByService(_ context.Context, serviceID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, b := range r.bookings {
		if b.ServiceID == serviceID && b.Active() {
			count++
		}
	}
	return count, nil
}

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
	r.services[s.ID] = s
	return nil
}

func (r *fakeServiceRepo) Delete(_ context.Context, id uuid.UUID) error {
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

type testEnv struct {
	svc       *Service
	bookings  *fakeBookingRepo
	serviceID uuid.UUID
	userID    uuid.UUID
	adminID   uuid.UUID
}

// newTestEnv seeds one service open 09:00-10:00 with 30-minute slots
// on every weekday: exactly two slots per day, 09:00 and 09:30.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	services := &fakeServiceRepo{services: make(map[uuid.UUID]*model.Service)}
	service := &model.Service{
		Name:            "Consultation",
		StartTime:       "09:00",
		EndTime:         "10:00",
		DurationMinutes: 30,
		AllowedWeekdays: pq.Int64Array{0, 1, 2, 3, 4, 5, 6},
		Category:        model.CategoryMedical,
	}
	require.NoError(t, services.Create(context.Background(), service))

	bookings := newFakeBookingRepo()
	svc := NewService(bookings, services, nil, nil, nil, nil, zerolog.Nop())

	return &testEnv{
		svc:       svc,
		bookings:  bookings,
		serviceID: service.ID,
		userID:    uuid.New(),
		adminID:   uuid.New(),
	}
}

func (e *testEnv) userCtx() context.Context {
	return policy.WithActor(context.Background(), &policy.Actor{
		UserID: e.userID,
		Email:  "user@example.com",
	})
}

func (e *testEnv) adminCtx() context.Context {
	return policy.WithActor(context.Background(), &policy.Actor{
		UserID:  e.adminID,
		Email:   "admin@example.com",
		IsAdmin: true,
	})
}

func (e *testEnv) createReq() *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		Name:      "Alice",
		ServiceID: e.serviceID,
		Date:      "2024-06-03", // a Monday
		Time:      "09:00",
		UserID:    e.userID,
	}
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)

	booking, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, "09:00", booking.Time)
	assert.NotEqual(t, uuid.Nil, booking.ID)
}

func TestCreateBookingNormalizesTwelveHourTime(t *testing.T) {
	env := newTestEnv(t)

	req := env.createReq()
	req.Time = "9:30 AM"

	booking, err := env.svc.Create(env.userCtx(), req)
	require.NoError(t, err)
	assert.Equal(t, "09:30", booking.Time)
}

func TestCreateBookingRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), env.createReq())
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthorized))
}

func TestCreateBookingForAnotherUserForbidden(t *testing.T) {
	env := newTestEnv(t)

	req := env.createReq()
	req.UserID = uuid.New()

	_, err := env.svc.Create(env.userCtx(), req)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestCreateBookingUnknownService(t *testing.T) {
	env := newTestEnv(t)

	req := env.createReq()
	req.ServiceID = uuid.New()

	_, err := env.svc.Create(env.userCtx(), req)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreateBookingWeekdayNotOffered(t *testing.T) {
	env := newTestEnv(t)

	// restrict the service to Mondays only
	service, err := env.svc.services.Get(context.Background(), env.serviceID)
	require.NoError(t, err)
	service.AllowedWeekdays = pq.Int64Array{1}

	req := env.createReq()
	req.Date = "2024-06-04" // a Tuesday

	_, err = env.svc.Create(env.userCtx(), req)
	assert.True(t, apperr.IsKind(err, apperr.KindValidationError))
}

func TestCreateBookingTimeOutsideSlots(t *testing.T) {
	env := newTestEnv(t)

	for _, badTime := range []string{"09:15", "10:00", "08:30"} {
		req := env.createReq()
		req.Time = badTime

		_, err := env.svc.Create(env.userCtx(), req)
		assert.True(t, apperr.IsKind(err, apperr.KindValidationError), "time %s", badTime)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	_, err = env.svc.Create(env.userCtx(), env.createReq())
	assert.True(t, apperr.IsKind(err, apperr.KindTimeConflict))
}

func TestCreateBookingConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(t)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Create(env.userCtx(), env.createReq())
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperr.IsKind(err, apperr.KindTimeConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicted)
}

func TestCancelRebookFreesSlot(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	require.NoError(t, env.svc.Cancel(env.userCtx(), first.ID))

	second, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCancelBooking(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	require.NoError(t, env.svc.Cancel(env.userCtx(), created.ID))

	cancelled, err := env.bookings.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, env.userID, *cancelled.CancelledBy)
}

func TestCancelIsTerminal(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)
	require.NoError(t, env.svc.Cancel(env.userCtx(), created.ID))

	stamped, err := env.bookings.Get(context.Background(), created.ID)
	require.NoError(t, err)

	err = env.svc.Cancel(env.userCtx(), created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidStatus))

	after, err := env.bookings.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, stamped.CancelledAt, after.CancelledAt)
}

func TestCancelByStrangerForbidden(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	strangerCtx := policy.WithActor(context.Background(), &policy.Actor{UserID: uuid.New()})
	err = env.svc.Cancel(strangerCtx, created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestCancelByAdmin(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	require.NoError(t, env.svc.Cancel(env.adminCtx(), created.ID))

	cancelled, err := env.bookings.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, env.adminID, *cancelled.CancelledBy)
}

func TestUpdateStatusAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	err = env.svc.UpdateStatus(env.userCtx(), created.ID, model.BookingStatusPending)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	require.NoError(t, env.svc.UpdateStatus(env.adminCtx(), created.ID, model.BookingStatusPending))

	updated, err := env.bookings.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, updated.Status)
}

func TestUpdateStatusRejectsUnknownState(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	err = env.svc.UpdateStatus(env.adminCtx(), created.ID, model.BookingStatus("done"))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidStatus))
}

func TestUpdateStatusToCancelledStampsMetadata(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	require.NoError(t, env.svc.UpdateStatus(env.adminCtx(), created.ID, model.BookingStatusCancelled))

	cancelled, err := env.bookings.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, env.adminID, *cancelled.CancelledBy)
}

func TestListMineHidesCancelledByDefault(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	req := env.createReq()
	req.Time = "09:30"
	_, err = env.svc.Create(env.userCtx(), req)
	require.NoError(t, err)

	require.NoError(t, env.svc.Cancel(env.userCtx(), first.ID))

	visible, err := env.svc.ListMine(env.userCtx(), false)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	all, err := env.svc.ListMine(env.userCtx(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListAllBookingsAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ListAllBookings(env.userCtx())
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = env.svc.ListAllBookings(env.adminCtx())
	assert.NoError(t, err)
}

func TestGetBookingAccess(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	_, err = env.svc.Get(env.userCtx(), created.ID)
	assert.NoError(t, err)

	_, err = env.svc.Get(env.adminCtx(), created.ID)
	assert.NoError(t, err)

	strangerCtx := policy.WithActor(context.Background(), &policy.Actor{UserID: uuid.New()})
	_, err = env.svc.Get(strangerCtx, created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestAvailabilityExcludesBookedSlots(t *testing.T) {
	env := newTestEnv(t)

	req := env.createReq()
	req.Time = "09:30"
	_, err := env.svc.Create(env.userCtx(), req)
	require.NoError(t, err)

	availability, err := env.svc.Availability(context.Background(), env.serviceID, "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, availability.Slots)
}

func TestAvailabilityOnClosedWeekday(t *testing.T) {
	env := newTestEnv(t)

	service, err := env.svc.services.Get(context.Background(), env.serviceID)
	require.NoError(t, err)
	service.AllowedWeekdays = pq.Int64Array{1}

	availability, err := env.svc.Availability(context.Background(), env.serviceID, "2024-06-04")
	require.NoError(t, err)
	assert.Empty(t, availability.Slots)
}

func TestMonthAvailability(t *testing.T) {
	env := newTestEnv(t)

	// fill both slots on June 3rd, one slot on June 4th
	_, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	req := env.createReq()
	req.Time = "09:30"
	_, err = env.svc.Create(env.userCtx(), req)
	require.NoError(t, err)

	req = env.createReq()
	req.Date = "2024-06-04"
	_, err = env.svc.Create(env.userCtx(), req)
	require.NoError(t, err)

	availability, err := env.svc.MonthAvailability(context.Background(), env.serviceID, 2024, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, availability.SlotsPerDay)
	assert.Equal(t, []string{"2024-06-03"}, availability.FullyBookedDates)
}

func TestMonthAvailabilityIgnoresCancelled(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.Create(env.userCtx(), env.createReq())
	require.NoError(t, err)

	req := env.createReq()
	req.Time = "09:30"
	_, err = env.svc.Create(env.userCtx(), req)
	require.NoError(t, err)

	require.NoError(t, env.svc.Cancel(env.userCtx(), first.ID))

	availability, err := env.svc.MonthAvailability(context.Background(), env.serviceID, 2024, 6)
	require.NoError(t, err)
	assert.Empty(t, availability.FullyBookedDates)
}

func TestListMonthRejectsBadMonth(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ListMonth(env.userCtx(), env.serviceID, 2024, 13)
	assert.True(t, apperr.IsKind(err, apperr.KindValidationError))
}
