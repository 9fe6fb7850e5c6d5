package model

import (
	"github.com/lib/pq"
)

type ServiceCategory string

const (
	CategoryMedical ServiceCategory = "medical"
	CategoryExam    ServiceCategory = "exam"
	CategoryTherapy ServiceCategory = "therapy"
	CategoryOther   ServiceCategory = "other"
)

// DefaultSlotDuration is the slot length in minutes when a service
// does not specify one.
const DefaultSlotDuration = 30

// Service is a bookable offering. StartTime and EndTime are stored in
// canonical 24-hour "HH:MM" form; inbound requests may also use
// "H:MM AM/PM" and are normalized before persistence.
type Service struct {
	Base
	Name            string          `json:"name" db:"name"`
	StartTime       string          `json:"start_time" db:"start_time"`
	EndTime         string          `json:"end_time" db:"end_time"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`
	AllowedWeekdays pq.Int64Array   `json:"allowed_weekdays" db:"allowed_weekdays"`
	Category        ServiceCategory `json:"category" db:"category"`
	Price           *float64        `json:"price,omitempty" db:"price"`
}

// AllowsWeekday reports whether the service accepts bookings on the
// given weekday (Sunday = 0).
func (s *Service) AllowsWeekday(weekday int) bool {
	for _, d := range s.AllowedWeekdays {
		if int(d) == weekday {
			return true
		}
	}
	return false
}

// CreateServiceRequest represents service creation parameters
type CreateServiceRequest struct {
	Name            string   `json:"name" binding:"required"`
	StartTime       string   `json:"start_time" binding:"required,timestr"`
	EndTime         string   `json:"end_time" binding:"required,timestr"`
	DurationMinutes int      `json:"duration_minutes" binding:"omitempty,min=5"`
	AllowedWeekdays []int    `json:"allowed_weekdays" binding:"required,dive,min=0,max=6"`
	Category        string   `json:"category" binding:"omitempty,oneof=medical exam therapy other"`
	Price           *float64 `json:"price" binding:"omitempty,min=0"`
}

// UpdateServiceRequest represents service update parameters
type UpdateServiceRequest struct {
	Name            string   `json:"name" binding:"required"`
	StartTime       string   `json:"start_time" binding:"required,timestr"`
	EndTime         string   `json:"end_time" binding:"required,timestr"`
	DurationMinutes int      `json:"duration_minutes" binding:"omitempty,min=5"`
	AllowedWeekdays []int    `json:"allowed_weekdays" binding:"required,dive,min=0,max=6"`
	Category        string   `json:"category" binding:"omitempty,oneof=medical exam therapy other"`
	Price           *float64 `json:"price" binding:"omitempty,min=0"`
}
