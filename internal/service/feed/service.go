package feed

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agendafacil/booking-api/internal/model"
	"github.com/agendafacil/booking-api/pkg/messaging"
	"github.com/agendafacil/booking-api/pkg/metrics"
)

const (
	// ChannelBookings carries booking lifecycle events.
	ChannelBookings = "bookings.events"
	// ChannelServices carries catalog change events.
	ChannelServices = "services.events"
)

// Service fans change events out over the message broker so admin
// dashboards can follow along without polling. Publishing is best
// effort: a broker outage never fails the originating request.
type Service struct {
	broker  messaging.Broker
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewService(broker messaging.Broker, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{broker: broker, metrics: m, logger: logger}
}

// PublishBookingEvent emits a booking lifecycle event.
func (s *Service) PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking) {
	s.publish(ctx, ChannelBookings, eventType, booking)
}

// PublishServiceEvent emits a catalog change event.
func (s *Service) PublishServiceEvent(ctx context.Context, eventType string, service *model.Service) {
	s.publish(ctx, ChannelServices, eventType, service)
}

// Subscribe opens a raw event stream on one channel. The stream closes
// when ctx is cancelled.
func (s *Service) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return s.broker.Subscribe(ctx, channel)
}

func (s *Service) publish(ctx context.Context, channel, eventType string, payload interface{}) {
	msg := messaging.Message{Type: eventType, Payload: payload}
	if err := s.broker.Publish(ctx, channel, msg); err != nil {
		s.logger.Warn().Err(err).Str("channel", channel).Str("type", eventType).Msg("event publish failed")
		return
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(channel).Inc()
	}
}
