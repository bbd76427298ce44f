package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/pliu/prava/internal/logging"
)

// Sender mails one-time codes over SMTP. With no Host it only logs them,
// which is what local development relies on.
type Sender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string

	log  logging.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(host, port, username, password, from string, log logging.Logger) *Sender {
	return &Sender{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		log:      log,
		send:     smtp.SendMail,
	}
}

var otpTemplate = template.Must(template.New("otp").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px; }
        .code { font-size: 2em; letter-spacing: 0.3em; text-align: center; font-weight: bold; }
        .footer { margin-top: 20px; font-size: 0.8em; color: #777; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <p>Your Prava verification code is:</p>
        <p class="code">{{.Code}}</p>
        <p>It expires in a few minutes. If you didn't ask for it, you can ignore this email.</p>
        <div class="footer"><p>Prava</p></div>
    </div>
</body>
</html>
`))

const otpSubject = "Your Prava verification code"

func (s *Sender) SendOTP(ctx context.Context, to, code string) error {
	var body bytes.Buffer
	if err := otpTemplate.Execute(&body, map[string]string{"Code": code}); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	if s.Host == "" {
		s.log.Info(ctx, "smtp not configured, otp not mailed", "to", to, "code", code)
		return nil
	}

	msg := buildMessage(s.From, to, otpSubject, body.String())
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)
	if err := s.send(addr, auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.Debug(ctx, "otp mailed", "to", to)
	return nil
}

// buildMessage writes headers in a fixed order so messages are reproducible.
func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	for _, h := range [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="UTF-8"`},
	} {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
