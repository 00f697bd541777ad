package handlers

import (
	"net/http"

	"SwasthyaWatch/internal/alerting"
	"SwasthyaWatch/pkg/config"
	"SwasthyaWatch/pkg/errors"
	"SwasthyaWatch/pkg/middleware"
	"SwasthyaWatch/pkg/response"
	"SwasthyaWatch/pkg/sse"
	"SwasthyaWatch/pkg/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handlers struct {
	db     *gorm.DB
	alerts *alerting.Service
	sseHub *sse.Hub
	wsHub  *ws.Hub
	idem   middleware.IdemStore
}

func NewHandlers(db *gorm.DB, alerts *alerting.Service, sseHub *sse.Hub, wsHub *ws.Hub, idem middleware.IdemStore) *Handlers {
	return &Handlers{
		db:     db,
		alerts: alerts,
		sseHub: sseHub,
		wsHub:  wsHub,
		idem:   idem,
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.APIPrefix)

	// Register System Module Routes
	h.registerSystemRoutes(r)

	// Register Business Module Routes
	h.registerAlertRoutes(r)
	h.registerDirectoryRoutes(r)
	h.registerGeoRoutes(r)
	h.registerHealthRoutes(r)
	h.registerWaterRoutes(r)
	h.registerNotificationRoutes(r)
	h.registerDashboardRoutes(r)
	h.registerStreamRoutes(r)
}

func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	alerts := r.Group("alerts")
	{
		// 创建接幂等窗口，拦截重复提交
		alerts.POST("", middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{Store: h.idem}), h.handleCreateAlert)

		alerts.GET("", h.handleListAlerts)

		alerts.GET("/:alertId", h.handleGetAlert)

		alerts.GET("/:alertId/detail", h.handleGetAlertDetail)

		alerts.POST("/:alertId/acknowledge", h.handleAcknowledge)

		alerts.POST("/:alertId/resolve", h.handleResolve)

		alerts.POST("/:alertId/cancel", h.handleCancel)

		alerts.POST("/:alertId/escalate", h.handleEscalate)

		alerts.POST("/:alertId/receipt", h.handleReceipt)

		alerts.POST("/:alertId/redispatch", h.handleRedispatch)
	}
}

func (h *Handlers) registerDirectoryRoutes(r *gin.RouterGroup) {
	users := r.Group("users")
	{
		users.POST("", h.handleCreateUser)

		users.GET("", h.handleListUsers)

		users.GET("/:id", h.handleGetUser)

		users.PUT("/:id", h.handleUpdateUser)

		users.PUT("/:id/preferences", h.handleUpdateUserPreferences)

		users.DELETE("/:id", h.handleDeleteUser)
	}
}

func (h *Handlers) registerGeoRoutes(r *gin.RouterGroup) {
	geo := r.Group("geo")
	{
		geo.POST("/districts", h.handleCreateDistrict)
		geo.GET("/districts", h.handleListDistricts)

		geo.POST("/blocks", h.handleCreateBlock)
		geo.GET("/blocks", h.handleListBlocks)

		geo.POST("/villages", h.handleCreateVillage)
		geo.GET("/villages", h.handleListVillages)

		geo.POST("/tokens", h.handleIssueToken)
		geo.POST("/tokens/redeem", h.handleRedeemToken)
	}
}

func (h *Handlers) registerHealthRoutes(r *gin.RouterGroup) {
	health := r.Group("health")
	{
		health.POST("/patients", h.handleCreatePatient)
		health.GET("/patients", h.handleListPatients)

		health.POST("/vaccinations", h.handleCreateVaccination)
		health.GET("/vaccinations/due", h.handleListDueVaccinations)

		health.POST("/cases", h.handleReportCase)
		health.GET("/cases", h.handleListCases)
	}
}

func (h *Handlers) registerWaterRoutes(r *gin.RouterGroup) {
	water := r.Group("water")
	{
		water.POST("/tests", h.handleCreateWaterTest)
		water.GET("/tests", h.handleListWaterTests)
	}
}

func (h *Handlers) registerNotificationRoutes(r *gin.RouterGroup) {
	notificationGroup := r.Group("notifications")
	{
		notificationGroup.GET("", h.handleListNotifications)

		notificationGroup.GET("/unread-count", h.handleUnreadNotificationCount)

		notificationGroup.PUT("/read/:id", h.handleMarkNotificationRead)

		notificationGroup.POST("/readAll", h.handleReadAllNotifications)
	}
}

func (h *Handlers) registerDashboardRoutes(r *gin.RouterGroup) {
	dash := r.Group("dashboard")
	{
		dash.GET("/summary", h.handleDashboardSummary)

		dash.GET("/response", h.handleResponseAnalytics)
	}
}

func (h *Handlers) registerStreamRoutes(r *gin.RouterGroup) {
	stream := r.Group("stream")
	{
		stream.GET("/sse", h.handleSSE)

		stream.GET("/ws", h.handleWS)
	}
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.GET("/health", h.HealthCheck)
	}
}

// failWith 按业务错误码映射 HTTP 状态
func failWith(c *gin.Context, err error) {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		response.NotFound(c, err.Error())
	case errors.CodeAlertTerminal, errors.CodeDuplicateAck:
		response.FailWithStatus(c, http.StatusConflict, err.Error())
	case errors.CodeNoRecipients:
		response.FailWithStatus(c, http.StatusUnprocessableEntity, err.Error())
	case errors.CodeInvalidRequest, errors.CodeInvalidTargeting,
		errors.CodeInvalidExpiry, errors.CodeUnknownAction:
		response.Fail(c, err.Error(), nil)
	default:
		response.FailWithStatus(c, http.StatusInternalServerError, err.Error())
	}
}
