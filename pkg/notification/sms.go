package notification

import (
	"context"
	"fmt"
)

type SMSConfig struct {
	AccessKeyId     string
	AccessKeySecret string
	SignName        string
	TemplateCode    string
	Endpoint        string
}

// SMSClient 便于替换/注入的发送接口（适配真实 SDK）
type SMSClient interface {
	Send(ctx context.Context, phone, sign, template string, params map[string]string) error
}

type SMS struct {
	cfg SMSConfig
	cli SMSClient
}

func NewSMS(cfg SMSConfig, cli SMSClient) *SMS { return &SMS{cfg: cfg, cli: cli} }

func (a *SMS) Send(ctx context.Context, rcpt Recipient, content Content) error {
	if a.cli == nil {
		return fmt.Errorf("SMSClient not configured")
	}
	if rcpt.Phone == "" {
		return fmt.Errorf("recipient %d has no phone number", rcpt.UserID)
	}
	params := map[string]string{
		"alert": content.AlertID,
		"title": content.Title,
		"body":  content.Body,
	}
	return a.cli.Send(ctx, rcpt.Phone, a.cfg.SignName, a.cfg.TemplateCode, params)
}
