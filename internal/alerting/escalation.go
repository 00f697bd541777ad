package alerting

import (
	"context"
	"time"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/logger"
	"SwasthyaWatch/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EscalationSweep 周期扫描：找出状态仍为 active、定时器已到期的告警并执行升级。
// 存储不可用时整轮跳过，下个周期重试，不做半截更新。
func (s *Service) EscalationSweep(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.SweepDuration.WithLabelValues("escalation").Observe(time.Since(start).Seconds()) }()

	now := s.now()
	var timers []models.EscalationTimer
	err := s.db.
		Joins("JOIN alerts ON alerts.id = escalation_timers.alert_id").
		Where("escalation_timers.is_active = ? AND escalation_timers.trigger_time <= ?", true, now).
		Where("alerts.status = ?", models.StatusActive).
		Find(&timers).Error
	if err != nil {
		metrics.SweepFailures.WithLabelValues("escalation").Inc()
		logger.Error("escalation sweep query failed", zap.Error(err))
		return
	}

	for _, t := range timers {
		if err := s.fireTimer(ctx, t); err != nil {
			logger.Error("escalation timer failed",
				zap.Uint("timerId", t.ID), zap.Uint("alertId", t.AlertID), zap.Error(err))
		}
	}
}

// fireTimer 执行单个到期定时器。先以 CAS 抢占（is_active true→false），
// 抢占失败说明已被其它扫描触发过；已触发的定时器永不二次触发。
func (s *Service) fireTimer(ctx context.Context, t models.EscalationTimer) error {
	res := s.db.Model(&models.EscalationTimer{}).
		Where("id = ? AND is_active = ?", t.ID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil // 已被触发
	}

	unlock := s.locks.Lock(t.AlertID)
	defer unlock()

	var alert models.Alert
	if err := s.db.First(&alert, t.AlertID).Error; err != nil {
		return err
	}
	// 抢占与加锁之间告警可能已被确认/解决
	if alert.Status != models.StatusActive {
		return nil
	}

	escalateTo, err := s.escalateTargets(ctx, &alert, t.Action)
	if err != nil {
		return err
	}

	var added []models.AlertRecipient
	err = s.db.Transaction(func(tx *gorm.DB) error {
		switch t.Action {
		case models.ActionIncreaseLevel:
			alert.Level = nextLevel(alert.Level)
		case models.ActionChangeDelivery:
			alert.Channels = models.DefaultEscalationChannels()
			if err := tx.Model(&models.Alert{}).Where("id = ?", alert.ID).
				Update("channels", alert.Channels).Error; err != nil {
				return err
			}
		}
		if t.Action == models.ActionIncreaseLevel {
			if err := tx.Model(&models.Alert{}).Where("id = ?", alert.ID).
				Update("level", alert.Level).Error; err != nil {
				return err
			}
		}

		var txErr error
		added, txErr = s.applyEscalation(tx, &alert, escalateTo, "system", "escalation timer "+t.Name+" elapsed")
		return txErr
	})
	if err != nil {
		return err
	}

	metrics.EscalationsFired.Inc()
	logger.Info("alert escalated",
		zap.String("alertId", alert.AlertID),
		zap.String("action", string(t.Action)),
		zap.Int("newRecipients", len(added)))

	if len(added) > 0 {
		go func() {
			if err := s.dispatchRecipients(context.Background(), &alert, added); err != nil {
				logger.Warn("escalation dispatch failed", zap.String("alertId", alert.AlertID), zap.Error(err))
			}
		}()
	}
	return nil
}

// escalateTargets 定时器动作的升级对象：优先取匹配规则的 escalateTo，
// 否则回落到影响范围内的主管
func (s *Service) escalateTargets(ctx context.Context, alert *models.Alert, action models.EscalationAction) ([]uint, error) {
	var rules []models.EscalationRule
	if err := s.db.Where("alert_id = ?", alert.ID).Find(&rules).Error; err != nil {
		return nil, err
	}
	for _, r := range rules {
		if r.Action == action && len(r.EscalateTo) > 0 {
			return r.EscalateTo, nil
		}
	}
	for _, r := range rules {
		if len(r.EscalateTo) > 0 {
			return r.EscalateTo, nil
		}
	}
	return s.resolver.Supervisors(ctx, alert.Areas)
}

func nextLevel(l models.AlertLevel) models.AlertLevel {
	switch l {
	case models.LevelInfo:
		return models.LevelWarning
	case models.LevelWarning:
		return models.LevelCritical
	default:
		return models.LevelEmergency
	}
}
