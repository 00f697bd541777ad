package alerting

import (
	"context"
	"strconv"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/notification"
	"SwasthyaWatch/pkg/sse"
	"SwasthyaWatch/pkg/ws"

	"gorm.io/gorm"
)

// InAppSender in_app 通道：落库站内通知，再经 SSE 与 WebSocket 实时推送。
// 落库成功即视为 sent；推送是尽力而为的加速，不影响投递结果。
type InAppSender struct {
	db     *gorm.DB
	sseHub *sse.Hub
	wsHub  *ws.Hub
}

func NewInAppSender(db *gorm.DB, sseHub *sse.Hub, wsHub *ws.Hub) *InAppSender {
	return &InAppSender{db: db, sseHub: sseHub, wsHub: wsHub}
}

func (s *InAppSender) Send(ctx context.Context, rcpt notification.Recipient, content notification.Content) error {
	n := &models.InAppNotification{
		UserID:   rcpt.UserID,
		AlertRef: content.AlertID,
		Title:    content.Title,
		Body:     content.Body,
		Level:    models.AlertLevel(content.Level),
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return err
	}

	uid := strconv.FormatUint(uint64(rcpt.UserID), 10)
	if s.sseHub != nil {
		s.sseHub.SendTo(uid, "alert", n)
	}
	if s.wsHub != nil {
		s.wsHub.SendTo(uid, "alert", n)
	}
	return nil
}
