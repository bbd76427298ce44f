package email

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pliu/prava/internal/logging"
)

func TestSendOTP_WithoutHostLogsCode(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	s := NewSender("", "587", "", "", "no-reply@prava.local", log)
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("nothing should be sent without a host")
		return nil
	}

	require.NoError(t, s.SendOTP(context.Background(), "alice@example.com", "123456"))
	require.Contains(t, buf.String(), `"code":"123456"`)
	require.Contains(t, buf.String(), "alice@example.com")
}

func TestSendOTP_SMTP(t *testing.T) {
	req := require.New(t)
	s := NewSender("smtp.example.com", "2525", "user", "pass", "no-reply@prava.local", logging.Discard())

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	req.NoError(s.SendOTP(context.Background(), "alice@example.com", "654321"))
	req.Equal("smtp.example.com:2525", gotAddr)
	req.Equal([]string{"alice@example.com"}, gotTo)
	req.True(bytes.HasPrefix(gotMsg, []byte("From: no-reply@prava.local\r\nTo: alice@example.com\r\n")))
	req.Contains(string(gotMsg), "Subject: "+otpSubject)
	req.Contains(string(gotMsg), "654321")
}

func TestSendOTP_SMTPFailure(t *testing.T) {
	s := NewSender("smtp.example.com", "25", "", "", "no-reply@prava.local", logging.Discard())
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := s.SendOTP(context.Background(), "alice@example.com", "000000")
	require.ErrorContains(t, err, "connection refused")
}
