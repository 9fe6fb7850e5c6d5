package booking

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agendafacil/booking-api/internal/model"
	"github.com/agendafacil/booking-api/internal/service/booking"
	apperr "github.com/agendafacil/booking-api/pkg/errors"
	"github.com/agendafacil/booking-api/pkg/httputil"
)

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public availability endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	services := rg.Group("/services")
	{
		services.GET("/:id/availability", h.Availability)
		services.GET("/:id/availability/month", h.MonthAvailability)
	}
}

// RegisterProtectedRoutes mounts the endpoints that need a session.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
	rg.GET("/services/:id/bookings/month", h.ListMonth)
}

// RegisterAdminRoutes mounts the administrative booking endpoints.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.GET("", h.ListAllBookings)
		bookings.PATCH("/:id/status", h.UpdateBookingStatus)
	}
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation(err.Error()))
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid booking ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid booking ID"))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"cancelled": id})
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	includeCancelled := c.Query("include_cancelled") == "true"

	bookings, err := h.service.ListMine(c.Request.Context(), includeCancelled)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bookings)
}

func (h *Handler) ListAllBookings(c *gin.Context) {
	bookings, err := h.service.ListAllBookings(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bookings)
}

func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid booking ID"))
		return
	}

	var req model.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation(err.Error()))
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "status": req.Status})
}

func (h *Handler) ListMonth(c *gin.Context) {
	serviceID, year, month, ok := h.monthParams(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListMonth(c.Request.Context(), serviceID, year, month)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bookings)
}

func (h *Handler) Availability(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid service ID"))
		return
	}

	date := c.Query("date")
	if date == "" {
		httputil.RespondWithError(c, apperr.Validation("date query parameter is required"))
		return
	}

	availability, err := h.service.Availability(c.Request.Context(), serviceID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, availability)
}

func (h *Handler) MonthAvailability(c *gin.Context) {
	serviceID, year, month, ok := h.monthParams(c)
	if !ok {
		return
	}

	availability, err := h.service.MonthAvailability(c.Request.Context(), serviceID, year, month)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, availability)
}

func (h *Handler) monthParams(c *gin.Context) (uuid.UUID, int, int, bool) {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid service ID"))
		return uuid.Nil, 0, 0, false
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("year query parameter is required"))
		return uuid.Nil, 0, 0, false
	}

	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("month query parameter is required"))
		return uuid.Nil, 0, 0, false
	}

	return serviceID, year, month, true
}
