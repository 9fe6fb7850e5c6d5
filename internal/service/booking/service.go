package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agendafacil/booking-api/internal/model"
	"github.com/agendafacil/booking-api/internal/policy"
	"github.com/agendafacil/booking-api/internal/repository"
	"github.com/agendafacil/booking-api/internal/schedule"
	apperr "github.com/agendafacil/booking-api/pkg/errors"
	"github.com/agendafacil/booking-api/pkg/metrics"
)

// Publisher pushes change events onto the booking feed.
type Publisher interface {
	PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking)
}

// Notifier delivers booking emails. Delivery is best effort and never
// fails the request.
type Notifier interface {
	BookingConfirmed(to string, booking *model.Booking, serviceName string) error
	BookingCancelled(to string, booking *model.Booking) error
}

type Service struct {
	bookings repository.BookingRepository
	services repository.ServiceRepository
	users    repository.UserRepository
	events   Publisher
	notifier Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewService(
	bookings repository.BookingRepository,
	services repository.ServiceRepository,
	users repository.UserRepository,
	events Publisher,
	notifier Notifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		bookings: bookings,
		services: services,
		users:    users,
		events:   events,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Create books a slot for the acting user. The active-uniqueness
// invariant is enforced by the storage layer's partial unique index,
// so two concurrent requests for the same slot yield exactly one
// confirmed booking and one time-conflict.
func (s *Service) Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	actor, err := policy.Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if req.UserID != actor.UserID {
		return nil, apperr.Forbidden("bookings may only be created for your own account")
	}

	if len(req.Note) > model.MaxNoteLength {
		return nil, apperr.Validation(fmt.Sprintf("note exceeds %d characters", model.MaxNoteLength))
	}

	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return nil, apperr.Validation("date must be in YYYY-MM-DD form")
	}

	slotTime, err := schedule.Canonicalize(req.Time)
	if err != nil {
		return nil, apperr.Validation("invalid time string")
	}

	service, err := s.services.Get(ctx, req.ServiceID)
	if err != nil {
		return nil, s.wrap(err, apperr.KindFetchFailed, "failed to load service")
	}

	if !service.AllowsWeekday(int(date.Weekday())) {
		return nil, apperr.Validation("service is not offered on that weekday")
	}

	slots, err := schedule.GenerateSlotStrings(service.StartTime, service.EndTime, service.DurationMinutes)
	if err != nil {
		return nil, apperr.Failed(apperr.KindFetchFailed, "service has unparseable working hours", err)
	}
	if !contains(slots, slotTime) {
		return nil, apperr.Validation("time is not a bookable slot for this service")
	}

	booking := &model.Booking{
		CustomerName: req.Name,
		UserID:       req.UserID,
		ServiceID:    req.ServiceID,
		Date:         req.Date,
		Time:         slotTime,
		Note:         req.Note,
		Status:       model.BookingStatusConfirmed,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		if apperr.IsKind(err, apperr.KindTimeConflict) {
			if s.metrics != nil {
				s.metrics.BookingConflicts.Inc()
			}
			return nil, err
		}
		return nil, s.wrap(err, apperr.KindInsertFailed, "failed to create the booking")
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Inc()
	}
	if s.events != nil {
		s.events.PublishBookingEvent(ctx, "booking.created", booking)
	}
	s.notifyConfirmed(ctx, booking, service.Name)

	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("service_id", booking.ServiceID.String()).
		Str("date", booking.Date).
		Str("time", booking.Time).
		Msg("booking created")

	return booking, nil
}

// Cancel transitions a booking to cancelled. Cancelled is terminal:
// repeating the call fails with invalid-status and the cancellation
// stamp is never overwritten.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	booking, err := s.getForActor(ctx, id)
	if err != nil {
		return err
	}

	if booking.Status == model.BookingStatusCancelled {
		return apperr.InvalidStatus("booking is already cancelled")
	}

	actor, _ := policy.FromContext(ctx)
	now := time.Now()
	booking.Status = model.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.CancelledBy = &actor.UserID

	if err := s.bookings.Update(ctx, booking); err != nil {
		return s.wrap(err, apperr.KindUpdateFailed, "failed to cancel the booking")
	}

	if s.metrics != nil {
		s.metrics.BookingsCancelled.Inc()
	}
	if s.events != nil {
		s.events.PublishBookingEvent(ctx, "booking.cancelled", booking)
	}
	s.notifyCancelled(ctx, booking)

	s.logger.Info().
		Str("booking_id", id.String()).
		Str("cancelled_by", actor.UserID.String()).
		Msg("booking cancelled")

	return nil
}

// UpdateStatus is the admin override: any of the three states may be
// set. Moving into cancelled stamps the cancellation metadata once;
// an already-cancelled booking keeps its original stamp.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error {
	actor, err := policy.AdminOnly(ctx)
	if err != nil {
		return err
	}

	if !status.Valid() {
		return apperr.InvalidStatus(fmt.Sprintf("unknown status %q", status))
	}

	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		return s.wrap(err, apperr.KindFetchFailed, "failed to load booking")
	}

	if status == model.BookingStatusCancelled && booking.Status != model.BookingStatusCancelled {
		now := time.Now()
		booking.CancelledAt = &now
		booking.CancelledBy = &actor.UserID
	}
	booking.Status = status

	if err := s.bookings.Update(ctx, booking); err != nil {
		return s.wrap(err, apperr.KindUpdateFailed, "failed to update booking status")
	}

	if s.events != nil {
		s.events.PublishBookingEvent(ctx, "booking.status_changed", booking)
	}
	return nil
}

// ListMine returns the acting user's bookings, newest date first.
// Cancelled bookings are hidden unless asked for.
func (s *Service) ListMine(ctx context.Context, includeCancelled bool) ([]*model.Booking, error) {
	actor, err := policy.Authenticated(ctx)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListByUser(ctx, actor.UserID, includeCancelled)
	if err != nil {
		return nil, s.wrap(err, apperr.KindFetchFailed, "failed to fetch your bookings")
	}
	return bookings, nil
}

// ListAllBookings is the admin view, newest created first.
func (s *Service) ListAllBookings(ctx context.Context) ([]*model.Booking, error) {
	if _, err := policy.AdminOnly(ctx); err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, s.wrap(err, apperr.KindFetchFailed, "failed to fetch bookings")
	}
	return bookings, nil
}

// ListMonth returns the active bookings of a service for one calendar
// month, the input the booking wizard needs to grey out full dates.
func (s *Service) ListMonth(ctx context.Context, serviceID uuid.UUID, year, month int) ([]*model.Booking, error) {
	if _, err := policy.Authenticated(ctx); err != nil {
		return nil, err
	}

	from, to, err := monthBounds(year, month)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListRange(ctx, serviceID, from, to)
	if err != nil {
		return nil, s.wrap(err, apperr.KindFetchFailed, "failed to fetch month bookings")
	}
	return bookings, nil
}

// Get returns one booking to its owner or an admin.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.getForActor(ctx, id)
}

// Availability computes the free slots of a service on one date.
func (s *Service) Availability(ctx context.Context, serviceID uuid.UUID, dateStr string) (*model.DayAvailability, error) {
	date, err := time.Parse(model.DateLayout, dateStr)
	if err != nil {
		return nil, apperr.Validation("date must be in YYYY-MM-DD form")
	}

	service, err := s.services.Get(ctx, serviceID)
	if err != nil {
		return nil, s.wrap(err, apperr.KindFetchFailed, "failed to load service")
	}

	out := &model.DayAvailability{ServiceID: serviceID, Date: dateStr, Slots: []string{}}
	if !service.AllowsWeekday(int(date.Weekday())) {
		return out, nil
	}

	slots, err := schedule.GenerateSlotStrings(service.StartTime, service.EndTime, service.DurationMinutes)
	if err != nil {
		return nil, apperr.Failed(apperr.KindFetchFailed, "service has unparseable working hours", err)
	}

	booked, err := s.bookings.BookedTimes(ctx, serviceID, dateStr)
	if err != nil {
		return nil, s.wrap(err, apperr.KindFetchFailed, "failed to fetch booked times")
	}

	out.Slots = append(out.Slots, schedule.AvailableSlots(slots, booked)...)
	return out, nil
}

// MonthAvailability flags the fully booked dates of a month.
func (s *Service) MonthAvailability(ctx context.Context, serviceID uuid.UUID, year, month int) (*model.MonthAvailability, error) {
	service, err := s.services.Get(ctx, serviceID)
	if err != nil {
		return nil, s.wrap(err, apperr.KindFetchFailed, "failed to load service")
	}

	slotsPerDay, err := schedule.SlotCount(service.StartTime, service.EndTime, service.DurationMinutes)
	if err != nil {
		return nil, apperr.Failed(apperr.KindFetchFailed, "service has unparseable working hours", err)
	}

	from, to, err := monthBounds(year, month)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListRange(ctx, serviceID, from, to)
	if err != nil {
		return nil, s.wrap(err, apperr.KindFetchFailed, "failed to fetch month bookings")
	}

	days := make([]schedule.BookingDay, 0, len(bookings))
	for _, b := range bookings {
		days = append(days, schedule.BookingDay{Date: b.Date, Cancelled: !b.Active()})
	}

	full := schedule.FullyBookedDates(days, slotsPerDay)
	if full == nil {
		full = []string{}
	}

	return &model.MonthAvailability{
		ServiceID:        serviceID,
		Year:             year,
		Month:            month,
		SlotsPerDay:      slotsPerDay,
		FullyBookedDates: full,
	}, nil
}

func (s *Service) getForActor(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	if _, err := policy.Authenticated(ctx); err != nil {
		return nil, err
	}

	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		return nil, s.wrap(err, apperr.KindFetchFailed, "failed to load booking")
	}

	if _, err := policy.OwnerOrAdmin(ctx, booking.UserID); err != nil {
		return nil, err
	}
	return booking, nil
}

// wrap passes through application errors and hides everything else
// behind a generic kind, keeping internal detail out of responses.
func (s *Service) wrap(err error, kind apperr.Kind, message string) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	return apperr.Failed(kind, message, err)
}

func (s *Service) notifyConfirmed(ctx context.Context, booking *model.Booking, serviceName string) {
	if s.notifier == nil || s.users == nil {
		return
	}
	user, err := s.users.Get(ctx, booking.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("skipping confirmation email, user lookup failed")
		return
	}
	if err := s.notifier.BookingConfirmed(user.Email, booking, serviceName); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", booking.ID.String()).Msg("confirmation email failed")
	}
}

func (s *Service) notifyCancelled(ctx context.Context, booking *model.Booking) {
	if s.notifier == nil || s.users == nil {
		return
	}
	user, err := s.users.Get(ctx, booking.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("skipping cancellation email, user lookup failed")
		return
	}
	if err := s.notifier.BookingCancelled(user.Email, booking); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", booking.ID.String()).Msg("cancellation email failed")
	}
}

func monthBounds(year, month int) (string, string, error) {
	if month < 1 || month > 12 || year < 1 {
		return "", "", apperr.Validation("invalid year or month")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return from.Format(model.DateLayout), to.Format(model.DateLayout), nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
