package handlers

import (
	"net/http"
	"strconv"

	"SwasthyaWatch/internal/alerting"
	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) handleCreateAlert(c *gin.Context) {
	var req alerting.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SourceKind == "" {
		req.SourceKind = models.SourceUser
	}
	alert, err := h.alerts.Create(c.Request.Context(), req)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Created(c, "alert created", alert)
}

func (h *Handlers) handleListAlerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	alerts, err := h.alerts.List(c.Request.Context(), alerting.ListFilter{
		Status: models.AlertStatus(c.Query("status")),
		Level:  models.AlertLevel(c.Query("level")),
		Type:   models.AlertType(c.Query("type")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, "success", gin.H{"alerts": alerts})
}

func (h *Handlers) handleGetAlert(c *gin.Context) {
	alert, err := h.alerts.Get(c.Request.Context(), c.Param("alertId"))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, "success", alert)
}

func (h *Handlers) handleGetAlertDetail(c *gin.Context) {
	detail, err := h.alerts.GetDetail(c.Request.Context(), c.Param("alertId"))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, "success", detail)
}

type ackRequest struct {
	UserID   uint     `json:"userId" binding:"required"`
	Actions  []string `json:"actions"`
	Comments string   `json:"comments"`
	Location string   `json:"location"`
}

func (h *Handlers) handleAcknowledge(c *gin.Context) {
	var req ackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alert, err := h.alerts.Acknowledge(c.Request.Context(), c.Param("alertId"), req.UserID, req.Actions, req.Comments, req.Location)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, "acknowledged", gin.H{
		"status":    alert.Status,
		"ackCount":  alert.AckCount,
		"ackRate":   alert.AckRate,
		"threshold": (alert.TotalRecipients + 1) / 2,
	})
}

type resolveRequest struct {
	ResolvedBy       uint                  `json:"resolvedBy" binding:"required"`
	ResolutionType   models.ResolutionType `json:"resolutionType" binding:"required"`
	Comments         string                `json:"comments"`
	ActionsTaken     []string              `json:"actionsTaken"`
	FollowUpRequired bool                  `json:"followUpRequired"`
}

func (h *Handlers) handleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alert, err := h.alerts.Resolve(c.Request.Context(), c.Param("alertId"), req.ResolvedBy, req.Comments, req.ResolutionType, req.ActionsTaken, req.FollowUpRequired)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, "resolved", alert)
}

func (h *Handlers) handleCancel(c *gin.Context) {
	var req struct {
		CancelledBy uint `json:"cancelledBy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alert, err := h.alerts.Cancel(c.Request.Context(), c.Param("alertId"), req.CancelledBy)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, "cancelled", alert)
}

type escalateRequest struct {
	EscalatedBy string `json:"escalatedBy" binding:"required"`
	EscalateTo  []uint `json:"escalateTo"`
	Reason      string `json:"reason"`
}

func (h *Handlers) handleEscalate(c *gin.Context) {
	var req escalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alert, err := h.alerts.Escalate(c.Request.Context(), c.Param("alertId"), req.EscalatedBy, req.EscalateTo, req.Reason)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, "escalated", alert)
}

type receiptRequest struct {
	UserID  uint                 `json:"userId" binding:"required"`
	Channel models.Channel       `json:"channel" binding:"required"`
	State   models.DeliveryState `json:"state" binding:"required"`
}

// handleReceipt 通道网关回调：送达/已读回执
func (h *Handlers) handleReceipt(c *gin.Context) {
	var req receiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.alerts.MarkReceipt(c.Request.Context(), c.Param("alertId"), req.UserID, req.Channel, req.State); err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, "receipt recorded", nil)
}

// handleRedispatch 操作员手动补发
func (h *Handlers) handleRedispatch(c *gin.Context) {
	alert, err := h.alerts.Get(c.Request.Context(), c.Param("alertId"))
	if err != nil {
		failWith(c, err)
		return
	}
	if err := h.alerts.Dispatch(c.Request.Context(), alert.ID); err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, "dispatched", nil)
}
