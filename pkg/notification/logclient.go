package notification

import (
	"context"

	"SwasthyaWatch/pkg/logger"

	"go.uber.org/zap"
)

// LogClient 开发环境的通道客户端：不接真实网关，只打日志。
// 同时实现 SMSClient、PushClient、WhatsAppClient 与 VoiceClient。
type LogClient struct{}

func (LogClient) Send(ctx context.Context, phone, sign, template string, params map[string]string) error {
	logger.Info("sms (log only)", zap.String("phone", phone), zap.Any("params", params))
	return nil
}

func (LogClient) Push(ctx context.Context, title, content string, audience map[string]interface{}, extras map[string]interface{}) error {
	logger.Info("push (log only)", zap.String("title", title), zap.Any("audience", audience))
	return nil
}

func (LogClient) SendTemplate(ctx context.Context, phone, template string, params []string) error {
	logger.Info("whatsapp (log only)", zap.String("phone", phone), zap.Strings("params", params))
	return nil
}

func (LogClient) Call(ctx context.Context, phone, text string) error {
	logger.Info("voice (log only)", zap.String("phone", phone))
	return nil
}
