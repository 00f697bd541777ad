package notification

import (
	"context"
	"fmt"
)

type WhatsAppConfig struct {
	BusinessID   string
	Token        string
	TemplateName string
}

// WhatsAppClient 消息应用网关接口
type WhatsAppClient interface {
	SendTemplate(ctx context.Context, phone, template string, params []string) error
}

type WhatsApp struct {
	cfg WhatsAppConfig
	cli WhatsAppClient
}

func NewWhatsApp(cfg WhatsAppConfig, cli WhatsAppClient) *WhatsApp {
	return &WhatsApp{cfg: cfg, cli: cli}
}

func (w *WhatsApp) Send(ctx context.Context, rcpt Recipient, content Content) error {
	if w.cli == nil {
		return fmt.Errorf("WhatsAppClient not configured")
	}
	if rcpt.Phone == "" {
		return fmt.Errorf("recipient %d has no phone number", rcpt.UserID)
	}
	return w.cli.SendTemplate(ctx, rcpt.Phone, w.cfg.TemplateName, []string{content.Title, content.Body})
}
