package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/agendafacil/booking-api/internal/model"
	"github.com/agendafacil/booking-api/internal/policy"
	"github.com/agendafacil/booking-api/internal/repository"
	"github.com/agendafacil/booking-api/internal/schedule"
	apperr "github.com/agendafacil/booking-api/pkg/errors"
)

const (
	cacheTTL     = 5 * time.Minute
	listCacheKey = "services:all"
)

// Publisher pushes catalog change events onto the service feed.
type Publisher interface {
	PublishServiceEvent(ctx context.Context, eventType string, service *model.Service)
}

// Service manages the bookable-service catalog. Reads are cached; any
// write invalidates.
type Service struct {
	services repository.ServiceRepository
	bookings repository.BookingRepository
	events   Publisher
	cache    *cache.Cache
	logger   zerolog.Logger
}

func NewService(
	services repository.ServiceRepository,
	bookings repository.BookingRepository,
	events Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		services: services,
		bookings: bookings,
		events:   events,
		cache:    cache.New(cacheTTL, 10*time.Minute),
		logger:   logger,
	}
}

// List returns every service. Public: the catalog is browsable
// without a session.
func (s *Service) List(ctx context.Context) ([]*model.Service, error) {
	if cached, ok := s.cache.Get(listCacheKey); ok {
		return cached.([]*model.Service), nil
	}

	services, err := s.services.List(ctx)
	if err != nil {
		return nil, wrap(err, apperr.KindFetchFailed, "failed to fetch services")
	}

	s.cache.Set(listCacheKey, services, cache.DefaultExpiration)
	return services, nil
}

// Get returns one service by ID. Public.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	key := "service:" + id.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.Service), nil
	}

	service, err := s.services.Get(ctx, id)
	if err != nil {
		return nil, wrap(err, apperr.KindFetchFailed, "failed to fetch service")
	}

	s.cache.Set(key, service, cache.DefaultExpiration)
	return service, nil
}

// Create adds a service to the catalog. Admin only.
func (s *Service) Create(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	if _, err := policy.AdminOnly(ctx); err != nil {
		return nil, err
	}

	service, err := buildService(req.Name, req.StartTime, req.EndTime, req.DurationMinutes, req.AllowedWeekdays, req.Category, req.Price)
	if err != nil {
		return nil, err
	}

	if err := s.services.Create(ctx, service); err != nil {
		return nil, wrap(err, apperr.KindInsertFailed, "failed to create the service")
	}

	s.invalidate(service.ID)
	if s.events != nil {
		s.events.PublishServiceEvent(ctx, "service.created", service)
	}

	s.logger.Info().Str("service_id", service.ID.String()).Str("name", service.Name).Msg("service created")
	return service, nil
}

// Update replaces a service's definition. Admin only.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	if _, err := policy.AdminOnly(ctx); err != nil {
		return nil, err
	}

	existing, err := s.services.Get(ctx, id)
	if err != nil {
		return nil, wrap(err, apperr.KindFetchFailed, "failed to fetch service")
	}

	updated, err := buildService(req.Name, req.StartTime, req.EndTime, req.DurationMinutes, req.AllowedWeekdays, req.Category, req.Price)
	if err != nil {
		return nil, err
	}
	updated.Base = existing.Base

	if err := s.services.Update(ctx, updated); err != nil {
		return nil, wrap(err, apperr.KindUpdateFailed, "failed to update the service")
	}

	s.invalidate(id)
	if s.events != nil {
		s.events.PublishServiceEvent(ctx, "service.updated", updated)
	}
	return updated, nil
}

// Delete removes a service. Admin only. A service with active
// bookings cannot be removed; cancelled bookings do not block.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := policy.AdminOnly(ctx); err != nil {
		return err
	}

	service, err := s.services.Get(ctx, id)
	if err != nil {
		return wrap(err, apperr.KindFetchFailed, "failed to fetch service")
	}

	active, err := s.bookings.CountActiveByService(ctx, id)
	if err != nil {
		return wrap(err, apperr.KindFetchFailed, "failed to count service bookings")
	}
	if active > 0 {
		return apperr.Validation(fmt.Sprintf("service has %d active bookings and cannot be deleted", active))
	}

	if err := s.services.Delete(ctx, id); err != nil {
		return wrap(err, apperr.KindDeleteFailed, "failed to delete the service")
	}

	s.invalidate(id)
	if s.events != nil {
		s.events.PublishServiceEvent(ctx, "service.deleted", service)
	}

	s.logger.Info().Str("service_id", id.String()).Msg("service deleted")
	return nil
}

func (s *Service) invalidate(id uuid.UUID) {
	s.cache.Delete(listCacheKey)
	s.cache.Delete("service:" + id.String())
}

// buildService validates and normalizes the shared fields of create
// and update into a persistable record. Times are canonicalized first
// so the start/end comparison is meaningful for both notations.
func buildService(name, startTime, endTime string, duration int, weekdays []int, category string, price *float64) (*model.Service, error) {
	start, err := schedule.ParseClock(startTime)
	if err != nil {
		return nil, apperr.Validation("invalid start time")
	}
	end, err := schedule.ParseClock(endTime)
	if err != nil {
		return nil, apperr.Validation("invalid end time")
	}
	if end <= start {
		return nil, apperr.Validation("end time must be after start time")
	}

	if duration == 0 {
		duration = model.DefaultSlotDuration
	}
	if duration < 5 {
		return nil, apperr.Validation("slot duration must be at least 5 minutes")
	}

	if len(weekdays) == 0 {
		return nil, apperr.Validation("at least one weekday must be allowed")
	}
	seen := make(map[int]struct{}, len(weekdays))
	days := make(pq.Int64Array, 0, len(weekdays))
	for _, d := range weekdays {
		if d < 0 || d > 6 {
			return nil, apperr.Validation("weekdays must be between 0 (Sunday) and 6 (Saturday)")
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, int64(d))
	}

	cat := model.ServiceCategory(category)
	if cat == "" {
		cat = model.CategoryOther
	}
	switch cat {
	case model.CategoryMedical, model.CategoryExam, model.CategoryTherapy, model.CategoryOther:
	default:
		return nil, apperr.Validation("unknown service category")
	}

	if price != nil && *price < 0 {
		return nil, apperr.Validation("price cannot be negative")
	}

	return &model.Service{
		Name:            name,
		StartTime:       start.String(),
		EndTime:         end.String(),
		DurationMinutes: duration,
		AllowedWeekdays: days,
		Category:        cat,
		Price:           price,
	}, nil
}

func wrap(err error, kind apperr.Kind, message string) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	return apperr.Failed(kind, message, err)
}
