package notification

import (
	"context"
	"fmt"
)

type PushConfig struct {
	AppKey       string
	MasterSecret string
}

type PushClient interface {
	Push(ctx context.Context, title, content string, audience map[string]interface{}, extras map[string]interface{}) error
}

type Push struct {
	cfg PushConfig
	cli PushClient
}

func NewPush(cfg PushConfig, cli PushClient) *Push { return &Push{cfg: cfg, cli: cli} }

func (p *Push) Send(ctx context.Context, rcpt Recipient, content Content) error {
	if p.cli == nil {
		return fmt.Errorf("PushClient not configured")
	}
	if rcpt.DeviceAlias == "" {
		return fmt.Errorf("recipient %d has no device alias", rcpt.UserID)
	}
	aud := map[string]interface{}{"alias": []string{rcpt.DeviceAlias}}
	extras := map[string]interface{}{"alertId": content.AlertID, "level": content.Level}
	for k, v := range content.Extras {
		extras[k] = v
	}
	return p.cli.Push(ctx, content.Title, content.Body, aud, extras)
}
