package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"travelenda/internal/bookings"

	"github.com/wneessen/go-mail"
)

// Email is one plain-text message to a guest.
type Email struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// SMTPSender delivers email through an authenticated SMTP relay.
type SMTPSender struct {
	config SMTPConfig
}

func NewSMTPSender(config SMTPConfig) (*SMTPSender, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return nil, fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if config.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &SMTPSender{config: config}, nil
}

func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	m := mail.NewMsg()
	if err := m.FromFormat(s.config.FromName, s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := m.AddToFormat(email.ToName, email.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	m.Subject(email.Subject)
	m.SetBodyString(mail.TypeTextPlain, email.Text)

	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(s.config.Timeout),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTLSConfig(&tls.Config{ServerName: s.config.Host}),
	}
	if s.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}

	client, err := mail.NewClient(s.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client (host=%s port=%d): %w", s.config.Host, s.config.Port, err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email (host=%s port=%d): %w", s.config.Host, s.config.Port, err)
	}
	return nil
}

// ConfirmationMailer emails the guest when a booking is confirmed or cancelled.
type ConfirmationMailer struct {
	sender        EmailSender
	publicBaseURL string
}

func NewConfirmationMailer(sender EmailSender, publicBaseURL string) *ConfirmationMailer {
	return &ConfirmationMailer{sender: sender, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (m *ConfirmationMailer) Name() string { return "confirmation_email" }

func (m *ConfirmationMailer) Handles(eventType bookings.EventType) bool {
	return eventType == bookings.EventBookingConfirmed || eventType == bookings.EventBookingCancelled
}

func (m *ConfirmationMailer) Handle(ctx context.Context, event bookings.Event) error {
	email, ok := m.compose(event)
	if !ok {
		return nil
	}
	return m.sender.Send(ctx, email)
}

func (m *ConfirmationMailer) compose(event bookings.Event) (Email, bool) {
	b := event.Booking
	if b.Guest.Email == "" {
		return Email{}, false
	}

	var subject, intro string
	switch event.Type {
	case bookings.EventBookingConfirmed:
		subject = fmt.Sprintf("Booking confirmed: %s at %s", b.ConfirmationNumber, b.HotelName)
		intro = fmt.Sprintf("Hi %s,\n\nYour stay is booked. Keep this email for check-in.", b.Guest.FirstName)
	case bookings.EventBookingCancelled:
		subject = fmt.Sprintf("Booking cancelled: %s", b.ConfirmationNumber)
		intro = fmt.Sprintf("Hi %s,\n\nYour booking has been cancelled.", b.Guest.FirstName)
	default:
		return Email{}, false
	}

	var body strings.Builder
	body.WriteString(intro)
	body.WriteString("\n\n")
	body.WriteString(bookings.ExportText(&b))
	if m.publicBaseURL != "" {
		fmt.Fprintf(&body, "\nView your booking: %s/bookings/%s\n", m.publicBaseURL, b.ID)
	}

	return Email{
		To:      b.Guest.Email,
		ToName:  strings.TrimSpace(b.Guest.FirstName + " " + b.Guest.LastName),
		Subject: subject,
		Text:    body.String(),
	}, true
}
