package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/agendafacil/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles account records
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	// ServiceRepository handles the bookable service catalog
	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Service, error)
	}

	// BookingRepository handles booking records. Create relies on the
	// partial unique index over (service_id, date, time) for
	// non-cancelled rows and reports a violation as time-conflict.
	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		Update(ctx context.Context, booking *model.Booking) error
		ListByUser(ctx context.Context, userID uuid.UUID, includeCancelled bool) ([]*model.Booking, error)
		ListAll(ctx context.Context) ([]*model.Booking, error)
		ListRange(ctx context.Context, serviceID uuid.UUID, fromDate, toDate string) ([]*model.Booking, error)
		BookedTimes(ctx context.Context, serviceID uuid.UUID, date string) ([]string, error)
		CountActiveByService(ctx context.Context, serviceID uuid.UUID) (int, error)
	}
)
