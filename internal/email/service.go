package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Service sends transactional mail. Only the flows the app actually
// uses: password resets and reschedule acknowledgements.
type Service interface {
	SendPasswordReset(ctx context.Context, to string, token string) error
	SendRescheduleAck(ctx context.Context, to string, doctor string, requestedTime string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	ResetURL    string
}

type service struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewService(cfg Config) Service {
	return &service{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *service) SendPasswordReset(ctx context.Context, to string, token string) error {
	body := fmt.Sprintf(
		"<p>We received a request to reset your password.</p>"+
			"<p><a href=%q>Reset your password</a></p>"+
			"<p>This link expires in one hour. If you did not request a reset, ignore this email.</p>",
		fmt.Sprintf("%s?token=%s", s.cfg.ResetURL, token),
	)
	return s.send(ctx, to, "Reset your password", body)
}

func (s *service) SendRescheduleAck(ctx context.Context, to string, doctor string, requestedTime string) error {
	body := fmt.Sprintf(
		"<p>We received your request to reschedule your appointment with %s to %s.</p>"+
			"<p>The clinic will confirm the new time shortly.</p>",
		doctor, requestedTime,
	)
	return s.send(ctx, to, "Reschedule request received", body)
}

func (s *service) SendCustom(ctx context.Context, to string, subject string, content string) error {
	return s.send(ctx, to, subject, content)
}

func (s *service) send(_ context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
