package alerting

import (
	"context"
	"strings"
	"sync"
	"time"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/errors"
	"SwasthyaWatch/pkg/logger"
	"SwasthyaWatch/pkg/metrics"
	"SwasthyaWatch/pkg/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const heldDND = "held: do-not-disturb"

type sendResult struct {
	userID  uint
	channel models.Channel
	state   models.DeliveryState
	errMsg  string
}

// Dispatch 对告警的全部接收人发起投递
func (s *Service) Dispatch(ctx context.Context, alertDBID uint) error {
	var alert models.Alert
	if err := s.db.First(&alert, alertDBID).Error; err != nil {
		return errors.Wrap(err, "load alert for dispatch")
	}
	if alert.Status.IsTerminal() {
		return nil
	}

	var rcpts []models.AlertRecipient
	if err := s.db.Where("alert_id = ?", alert.ID).Find(&rcpts).Error; err != nil {
		return errors.Wrap(err, "load recipients")
	}
	return s.dispatchRecipients(ctx, &alert, rcpts)
}

// dispatchRecipients 按接收人×通道并行发送。单对失败不影响其它对；
// 免打扰窗口内的接收人记 pending，窗口关闭后由 ReleaseHeld 补发。
func (s *Service) dispatchRecipients(ctx context.Context, alert *models.Alert, rcpts []models.AlertRecipient) error {
	if len(rcpts) == 0 {
		return nil
	}

	contacts, err := s.loadContacts(rcpts)
	if err != nil {
		return err
	}

	content := notification.Content{
		AlertID: alert.AlertID,
		Title:   alert.Title,
		Body:    alert.Message,
		Level:   string(alert.Level),
	}
	now := s.now()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []sendResult
		sem     = make(chan struct{}, s.sendParallel)
	)

	for _, rcpt := range rcpts {
		channels := rcpt.Channels
		if len(channels) == 0 {
			channels = alert.Channels
		}
		if inDNDWindow(now, rcpt.DNDStart, rcpt.DNDEnd) {
			for _, ch := range channels {
				mu.Lock()
				results = append(results, sendResult{rcpt.UserID, ch, models.DeliveryPending, heldDND})
				mu.Unlock()
			}
			continue
		}
		for _, ch := range channels {
			wg.Add(1)
			go func(rcpt models.AlertRecipient, ch models.Channel) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				res := sendResult{userID: rcpt.UserID, channel: ch, state: models.DeliverySent}
				err := s.gateway.Send(ctx, string(ch), contacts[rcpt.UserID], content)
				if err != nil {
					res.state = models.DeliveryFailed
					res.errMsg = err.Error()
					metrics.DispatchTotal.WithLabelValues(string(ch), "failed").Inc()
				} else {
					metrics.DispatchTotal.WithLabelValues(string(ch), "sent").Inc()
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}(rcpt, ch)
		}
	}
	wg.Wait()

	return s.recordDispatch(alert, results)
}

// recordDispatch 在告警锁内写回结果：覆盖各通道状态、追加批次日志、全量重算聚合
func (s *Service) recordDispatch(alert *models.Alert, results []sendResult) error {
	if len(results) == 0 {
		return nil
	}

	unlock := s.locks.Lock(alert.ID)
	defer unlock()

	now := s.now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		type tally struct {
			attempted, succeeded, failed int
			errs                         []string
		}
		byChannel := make(map[models.Channel]*tally)

		for _, r := range results {
			status := models.DeliveryStatus{
				AlertID:   alert.ID,
				UserID:    r.userID,
				Channel:   r.channel,
				State:     r.state,
				Error:     r.errMsg,
				Timestamp: now,
			}
			// 同通道旧状态被覆盖
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "alert_id"}, {Name: "user_id"}, {Name: "channel"}},
				DoUpdates: clause.AssignmentColumns([]string{"state", "error", "timestamp"}),
			}).Create(&status).Error; err != nil {
				return err
			}

			if r.state == models.DeliveryPending {
				continue // 被免打扰挂起的不计入批次
			}
			t := byChannel[r.channel]
			if t == nil {
				t = &tally{}
				byChannel[r.channel] = t
			}
			t.attempted++
			if r.state == models.DeliveryFailed {
				t.failed++
				t.errs = append(t.errs, r.errMsg)
			} else {
				t.succeeded++
			}
		}

		for ch, t := range byChannel {
			var prev int64
			if err := tx.Model(&models.DeliveryAttempt{}).
				Where("alert_id = ? AND channel = ?", alert.ID, ch).
				Count(&prev).Error; err != nil {
				return err
			}
			attempt := models.DeliveryAttempt{
				AlertID:   alert.ID,
				AttemptID: uuid.NewString(),
				AttemptNo: int(prev) + 1,
				Channel:   ch,
				Attempted: t.attempted,
				Succeeded: t.succeeded,
				Failed:    t.failed,
				Errors:    t.errs,
			}
			if err := tx.Create(&attempt).Error; err != nil {
				return err
			}
		}

		if err := tx.First(alert, alert.ID).Error; err != nil {
			return err
		}
		return s.recountDelivery(tx, alert)
	})
}

// ReleaseHeld 补发免打扰窗口已关闭的挂起投递，由周期任务调用
func (s *Service) ReleaseHeld(ctx context.Context) error {
	var held []models.DeliveryStatus
	err := s.db.Where("state = ? AND error = ?", models.DeliveryPending, heldDND).Find(&held).Error
	if err != nil {
		return errors.Wrap(err, "load held deliveries")
	}
	if len(held) == 0 {
		return nil
	}

	now := s.now()
	byAlert := make(map[uint][]models.DeliveryStatus)
	for _, h := range held {
		byAlert[h.AlertID] = append(byAlert[h.AlertID], h)
	}

	for alertID, statuses := range byAlert {
		var alert models.Alert
		if err := s.db.First(&alert, alertID).Error; err != nil {
			logger.Warn("held delivery: alert gone", zap.Uint("alertId", alertID), zap.Error(err))
			continue
		}
		if alert.Status.IsTerminal() {
			continue
		}

		// 只补发窗口已关闭的接收人，且只补挂起的那些通道
		var due []models.AlertRecipient
		for _, st := range statuses {
			var rcpt models.AlertRecipient
			if err := s.db.Where("alert_id = ? AND user_id = ?", alertID, st.UserID).First(&rcpt).Error; err != nil {
				continue
			}
			if inDNDWindow(now, rcpt.DNDStart, rcpt.DNDEnd) {
				continue
			}
			rcpt.Channels = []models.Channel{st.Channel}
			rcpt.DNDStart, rcpt.DNDEnd = "", ""
			due = append(due, rcpt)
		}
		if len(due) == 0 {
			continue
		}
		if err := s.dispatchRecipients(ctx, &alert, due); err != nil {
			logger.Warn("held delivery redispatch failed", zap.String("alertId", alert.AlertID), zap.Error(err))
		}
	}
	return nil
}

// MarkReceipt 通道网关的送达/已读回执
func (s *Service) MarkReceipt(ctx context.Context, publicID string, userID uint, channel models.Channel, state models.DeliveryState) error {
	if state != models.DeliveryDelivered && state != models.DeliveryRead {
		return errors.WithCodef(errors.CodeInvalidRequest, "receipt state must be delivered or read, got %q", state)
	}
	alert, err := s.getByPublicID(publicID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(alert.ID)
	defer unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.DeliveryStatus{}).
			Where("alert_id = ? AND user_id = ? AND channel = ?", alert.ID, userID, channel).
			Updates(map[string]interface{}{"state": state, "timestamp": s.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.WithCode(errors.CodeNotFound, "no delivery record for receipt")
		}
		return s.recountDelivery(tx, alert)
	})
}

// loadContacts 取接收人的联系方式
func (s *Service) loadContacts(rcpts []models.AlertRecipient) (map[uint]notification.Recipient, error) {
	ids := make([]uint, 0, len(rcpts))
	for _, r := range rcpts {
		ids = append(ids, r.UserID)
	}
	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "load recipient contacts")
	}
	m := make(map[uint]notification.Recipient, len(users))
	for _, u := range users {
		m[u.ID] = notification.Recipient{
			UserID:      u.ID,
			Phone:       u.Phone,
			Email:       u.Email,
			DeviceAlias: u.DeviceAlias,
		}
	}
	return m, nil
}

// inDNDWindow 判断 now 是否落在 "HH:MM"–"HH:MM" 免打扰窗口内（可跨午夜）
func inDNDWindow(now time.Time, start, end string) bool {
	if start == "" || end == "" {
		return false
	}
	s, ok1 := parseHHMM(start)
	e, ok2 := parseHHMM(end)
	if !ok1 || !ok2 || s == e {
		return false
	}
	cur := now.Hour()*60 + now.Minute()
	if s < e {
		return cur >= s && cur < e
	}
	return cur >= s || cur < e // 跨午夜
}

func parseHHMM(v string) (int, bool) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, false
	}
	h, m := 0, 0
	for _, c := range parts[0] {
		if c < '0' || c > '9' {
			return 0, false
		}
		h = h*10 + int(c-'0')
	}
	for _, c := range parts[1] {
		if c < '0' || c > '9' {
			return 0, false
		}
		m = m*10 + int(c-'0')
	}
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
