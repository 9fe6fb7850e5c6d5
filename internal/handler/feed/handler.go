package feed

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agendafacil/booking-api/internal/service/feed"
	apperr "github.com/agendafacil/booking-api/pkg/errors"
	"github.com/agendafacil/booking-api/pkg/httputil"
	"github.com/agendafacil/booking-api/pkg/metrics"
)

type Handler struct {
	service *feed.Service
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewHandler(service *feed.Service, m *metrics.Metrics, logger zerolog.Logger) *Handler {
	return &Handler{service: service, metrics: m, logger: logger}
}

// RegisterAdminRoutes mounts the live event streams. These are
// server-sent event endpoints; admin dashboards subscribe instead of
// polling the list endpoints.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	events := rg.Group("/events")
	{
		events.GET("/bookings", h.StreamBookings)
		events.GET("/services", h.StreamServices)
	}
}

func (h *Handler) StreamBookings(c *gin.Context) {
	h.stream(c, feed.ChannelBookings)
}

func (h *Handler) StreamServices(c *gin.Context) {
	h.stream(c, feed.ChannelServices)
}

func (h *Handler) stream(c *gin.Context, channel string) {
	events, err := h.service.Subscribe(c.Request.Context(), channel)
	if err != nil {
		httputil.RespondWithError(c, apperr.Failed(apperr.KindFetchFailed, "failed to open event stream", err))
		return
	}

	if h.metrics != nil {
		h.metrics.FeedSubscribers.Inc()
		defer h.metrics.FeedSubscribers.Dec()
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	h.logger.Debug().Str("channel", channel).Msg("feed subscriber connected")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
