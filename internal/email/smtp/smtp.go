// Package smtp sends transactional portal mail over SMTP.
package smtp

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medjourney/portal-api/internal/email"
)

type Config struct {
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"SMTP_FROM"`
	BaseURL  string `mapstructure:"base_url" envconfig:"SMTP_BASE_URL"`
}

type service struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

func NewService(cfg Config) email.Service {
	return &service{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		baseURL: cfg.BaseURL,
	}
}

func (s *service) send(_ context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *service) SendVerification(ctx context.Context, to string, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`
		<p>Welcome to your surgery journey portal.</p>
		<p>Please confirm your email address by clicking the link below:</p>
		<p><a href="%s">Verify my email</a></p>
		<p>The link expires in 24 hours.</p>`, link)
	return s.send(ctx, to, "Verify your email address", body)
}

func (s *service) SendPasswordReset(ctx context.Context, to string, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`
		<p>We received a request to reset your password.</p>
		<p><a href="%s">Reset my password</a></p>
		<p>If you did not request this, you can ignore this email.</p>`, link)
	return s.send(ctx, to, "Reset your password", body)
}

func (s *service) SendWelcome(ctx context.Context, to string, name string) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your account is ready. You can now track your surgery plan,
		recovery tasks and documents from the portal.</p>`, name)
	return s.send(ctx, to, "Welcome to the portal", body)
}

func (s *service) SendCustom(ctx context.Context, to string, subject string, content string) error {
	return s.send(ctx, to, subject, content)
}
