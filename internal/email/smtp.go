package email

import (
	"fmt"

	"github.com/loveaihub/loveaihub/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email over SMTP
type Mailer struct {
	cfg     config.EmailConfig
	baseURL string
	dialer  *gomail.Dialer
}

// NewMailer creates a new SMTP mailer
func NewMailer(cfg config.EmailConfig, baseURL string) *Mailer {
	return &Mailer{
		cfg:     cfg,
		baseURL: baseURL,
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendPasswordResetEmail mails a password-reset link
func (m *Mailer) SendPasswordResetEmail(to, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token)

	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Reset your LoveAIHub password</h2>
			<p>We received a request to reset your password. Click the link below to choose a new one:</p>
			<p><a href="%s">Reset Password</a></p>
			<p>Or copy and paste this URL into your browser:</p>
			<p>%s</p>
			<p>This link will expire in 1 hour. If you didn't request a reset, you can ignore this email.</p>
		</body>
		</html>
	`, resetURL, resetURL)

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.FromAddress, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset your LoveAIHub password")
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}
