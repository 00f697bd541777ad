package handlers

import (
	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/response"

	"github.com/gin-gonic/gin"
)

type bucketCount struct {
	Key string `json:"key" gorm:"column:k"`
	N   int64  `json:"count" gorm:"column:n"`
}

// handleDashboardSummary 告警总览：按状态/级别/类型分桶，加活跃告警的响应情况
func (h *Handlers) handleDashboardSummary(c *gin.Context) {
	var byStatus, byLevel, byType []bucketCount
	if err := h.db.Model(&models.Alert{}).
		Select("status as k, count(*) as n").Group("status").Scan(&byStatus).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	if err := h.db.Model(&models.Alert{}).
		Select("level as k, count(*) as n").Group("level").Scan(&byLevel).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	if err := h.db.Model(&models.Alert{}).
		Select("type as k, count(*) as n").Group("type").Scan(&byType).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}

	var active struct {
		N       int64
		AckRate float64
	}
	h.db.Model(&models.Alert{}).
		Select("count(*) as n, coalesce(avg(ack_rate), 0) as ack_rate").
		Where("status = ?", models.StatusActive).Scan(&active)

	var recent []models.Alert
	h.db.Order("id desc").Limit(10).Find(&recent)

	response.Success(c, "success", gin.H{
		"byStatus":      byStatus,
		"byLevel":       byLevel,
		"byType":        byType,
		"activeCount":   active.N,
		"activeAckRate": active.AckRate,
		"recent":        recent,
	})
}

// handleResponseAnalytics 投递与确认表现：逐级别的发送/送达/确认比率
func (h *Handlers) handleResponseAnalytics(c *gin.Context) {
	type levelStats struct {
		Level     string  `json:"level" gorm:"column:level"`
		Alerts    int64   `json:"alerts" gorm:"column:alerts"`
		Sent      int64   `json:"sent" gorm:"column:sent"`
		Delivered int64   `json:"delivered" gorm:"column:delivered"`
		Read      int64   `json:"read" gorm:"column:readn"`
		Failed    int64   `json:"failed" gorm:"column:failed"`
		Acks      int64   `json:"acks" gorm:"column:acks"`
		AckRate   float64 `json:"ackRate" gorm:"column:ack_rate"`
	}
	var stats []levelStats
	err := h.db.Model(&models.Alert{}).
		Select(`level, count(*) as alerts,
			sum(sent_count) as sent, sum(delivered_count) as delivered,
			sum(read_count) as readn, sum(failed_count) as failed,
			sum(ack_count) as acks, coalesce(avg(ack_rate), 0) as ack_rate`).
		Group("level").Scan(&stats).Error
	if err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}

	var escalated int64
	h.db.Model(&models.EscalationEntry{}).Distinct("alert_id").Count(&escalated)

	response.Success(c, "success", gin.H{
		"byLevel":         stats,
		"escalatedAlerts": escalated,
	})
}
