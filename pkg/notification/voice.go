package notification

import (
	"context"
	"fmt"
)

// VoiceClient 语音外呼网关接口（TTS 播报）
type VoiceClient interface {
	Call(ctx context.Context, phone, text string) error
}

type Voice struct {
	cli VoiceClient
}

func NewVoice(cli VoiceClient) *Voice { return &Voice{cli: cli} }

func (v *Voice) Send(ctx context.Context, rcpt Recipient, content Content) error {
	if v.cli == nil {
		return fmt.Errorf("VoiceClient not configured")
	}
	if rcpt.Phone == "" {
		return fmt.Errorf("recipient %d has no phone number", rcpt.UserID)
	}
	return v.cli.Call(ctx, rcpt.Phone, content.Title+"。"+content.Body)
}
