package alerting

import (
	"context"
	"time"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/logger"
	"SwasthyaWatch/pkg/metrics"

	"go.uber.org/zap"
)

// ArchiveSweep 周期归档：expiresAt 已过且 autoArchive 的告警批量置为 archived。
// 与升级/确认机制相互独立，是唯一写入 archived 的路径。
func (s *Service) ArchiveSweep(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.SweepDuration.WithLabelValues("archival").Observe(time.Since(start).Seconds()) }()

	now := s.now()
	res := s.db.Model(&models.Alert{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Where("auto_archive = ?", true).
		Where("status <> ?", models.StatusArchived).
		Update("status", models.StatusArchived)
	if res.Error != nil {
		metrics.SweepFailures.WithLabelValues("archival").Inc()
		logger.Error("archival sweep failed", zap.Error(res.Error))
		return
	}
	archived := res.RowsAffected

	// 没有 expiresAt 的按兜底延迟归档
	var candidates []models.Alert
	err := s.db.
		Where("expires_at IS NULL AND auto_archive = ? AND status <> ?", true, models.StatusArchived).
		Find(&candidates).Error
	if err != nil {
		metrics.SweepFailures.WithLabelValues("archival").Inc()
		logger.Error("archival fallback query failed", zap.Error(err))
		return
	}
	var dueIDs []uint
	for _, a := range candidates {
		days := a.ArchiveAfterDays
		if days <= 0 {
			days = 30
		}
		if a.CreatedAt.AddDate(0, 0, days).Before(now) {
			dueIDs = append(dueIDs, a.ID)
		}
	}
	if len(dueIDs) > 0 {
		res := s.db.Model(&models.Alert{}).Where("id IN ?", dueIDs).
			Update("status", models.StatusArchived)
		if res.Error != nil {
			metrics.SweepFailures.WithLabelValues("archival").Inc()
			logger.Error("archival fallback update failed", zap.Error(res.Error))
			return
		}
		archived += res.RowsAffected
	}

	if archived > 0 {
		// 归档告警上还挂着的定时器一并失效
		err := s.db.Model(&models.EscalationTimer{}).
			Where("is_active = ? AND alert_id IN (?)", true,
				s.db.Model(&models.Alert{}).Select("id").Where("status = ?", models.StatusArchived)).
			Update("is_active", false).Error
		if err != nil {
			logger.Error("deactivating timers of archived alerts failed", zap.Error(err))
		}

		metrics.AlertsArchived.Add(float64(archived))
		logger.Info("alerts archived", zap.Int64("count", archived))
	}
}
