package email

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/agendafacil/booking-api/internal/model"
)

type Config struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
}

// Mailer sends booking notification emails over SMTP. When disabled it
// logs the intent and drops the message, which keeps local development
// free of an SMTP dependency.
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
	logger zerolog.Logger
}

func NewMailer(cfg Config, logger zerolog.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}
}

// BookingConfirmed emails the slot details after a successful booking.
func (m *Mailer) BookingConfirmed(to string, booking *model.Booking, serviceName string) error {
	subject := "Your booking is confirmed"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour booking for %s on %s at %s is confirmed.\r\n\r\nBooking reference: %s\r\n",
		booking.CustomerName, serviceName, booking.Date, booking.Time, booking.ID,
	)
	return m.send(to, subject, body)
}

// BookingCancelled emails a cancellation notice.
func (m *Mailer) BookingCancelled(to string, booking *model.Booking) error {
	subject := "Your booking was cancelled"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour booking on %s at %s has been cancelled.\r\n\r\nBooking reference: %s\r\n",
		booking.CustomerName, booking.Date, booking.Time, booking.ID,
	)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	if !m.cfg.Enabled {
		m.logger.Debug().Str("to", to).Str("subject", subject).Msg("email disabled, dropping message")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
