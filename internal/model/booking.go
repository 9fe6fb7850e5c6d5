package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the three booking states.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusPending, BookingStatusCancelled:
		return true
	}
	return false
}

// MaxNoteLength bounds the free-form note on a booking.
const MaxNoteLength = 500

// Booking is a reservation of one service at one date and time by one
// user. Date is ISO "YYYY-MM-DD"; Time is canonical "HH:MM". At most
// one non-cancelled booking may exist per (service, date, time) -
// enforced by a partial unique index at the storage layer.
type Booking struct {
	Base
	CustomerName string        `json:"customer_name" db:"customer_name"`
	UserID       uuid.UUID     `json:"user_id" db:"user_id"`
	ServiceID    uuid.UUID     `json:"service_id" db:"service_id"`
	Date         string        `json:"date" db:"date"`
	Time         string        `json:"time" db:"time"`
	Note         string        `json:"note,omitempty" db:"note"`
	Status       BookingStatus `json:"status" db:"status"`
	CancelledAt  *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelledBy  *uuid.UUID    `json:"cancelled_by,omitempty" db:"cancelled_by"`
}

// Active reports whether the booking still occupies its slot.
func (b *Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}

// CreateBookingRequest represents booking creation parameters
type CreateBookingRequest struct {
	Name      string    `json:"name" binding:"required"`
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	Date      string    `json:"date" binding:"required,datestr"`
	Time      string    `json:"time" binding:"required,timestr"`
	Note      string    `json:"note" binding:"omitempty,max=500"`
	UserID    uuid.UUID `json:"user_id" binding:"required"`
}

// UpdateBookingStatusRequest represents a status transition request
type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required,oneof=confirmed pending cancelled"`
}

// DayAvailability is the slot view for one service on one date.
type DayAvailability struct {
	ServiceID uuid.UUID `json:"service_id"`
	Date      string    `json:"date"`
	Slots     []string  `json:"slots"`
}

// MonthAvailability flags the dates of a month that have no free
// slots left for a service.
type MonthAvailability struct {
	ServiceID        uuid.UUID `json:"service_id"`
	Year             int       `json:"year"`
	Month            int       `json:"month"`
	SlotsPerDay      int       `json:"slots_per_day"`
	FullyBookedDates []string  `json:"fully_booked_dates"`
}
