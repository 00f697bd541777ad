package notification

import (
	"context"
	"fmt"
	"net/smtp"
)

type MailConfig struct {
	Host     string
	Port     int64
	Username string
	Password string
	From     string
}

type Mail struct {
	cfg MailConfig
}

func NewMail(cfg MailConfig) *Mail { return &Mail{cfg: cfg} }

func (m *Mail) Send(ctx context.Context, rcpt Recipient, content Content) error {
	if rcpt.Email == "" {
		return fmt.Errorf("recipient %d has no email address", rcpt.UserID)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	msg := []byte("To: " + rcpt.Email + "\r\n" +
		"From: " + m.cfg.From + "\r\n" +
		"Subject: [" + content.Level + "] " + content.Title + "\r\n" +
		"\r\n" + content.Body + "\r\n")
	return smtp.SendMail(addr, auth, m.cfg.From, []string{rcpt.Email}, msg)
}
