package alerting

import (
	"context"
	"fmt"
	"time"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/cache"
	"SwasthyaWatch/pkg/errors"
	"SwasthyaWatch/pkg/logger"
	"SwasthyaWatch/pkg/metrics"
	"SwasthyaWatch/pkg/notification"
	"SwasthyaWatch/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service 告警引擎：创建、确认、解决、升级与读取。
// 同一告警上的写操作经 keyedLocks 串行化。
type Service struct {
	db       *gorm.DB
	gateway  *notification.Gateway
	resolver *Resolver
	locks    *keyedLocks

	sendParallel int
	now          func() time.Time
}

func NewService(db *gorm.DB, gw *notification.Gateway, c cache.Cache) *Service {
	return &Service{
		db:           db,
		gateway:      gw,
		resolver:     NewResolver(db, c),
		locks:        newKeyedLocks(),
		sendParallel: 32,
		now:          time.Now,
	}
}

// WithClock 注入时钟（测试用）
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RuleSpec 创建请求中的升级规则
type RuleSpec struct {
	Condition  models.EscalationCondition `json:"condition"`
	Threshold  int                        `json:"threshold"`
	Action     models.EscalationAction    `json:"action"`
	EscalateTo []uint                     `json:"escalateTo"`
}

// CreateRequest 创建告警的入参
type CreateRequest struct {
	SourceKind models.SourceKind `json:"sourceKind"`
	SourceRef  string            `json:"sourceRef"`

	Type    models.AlertType  `json:"type"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Level   models.AlertLevel `json:"level"`

	Areas    models.AffectedAreas  `json:"affectedAreas"`
	Audience models.TargetAudience `json:"targetAudience"`

	Channels     []models.Channel `json:"channels"`
	ScheduledFor *time.Time       `json:"scheduledFor"`
	Recurrence   string           `json:"recurrence"`

	Priority     models.AlertPriority `json:"priority"`
	AutoEscalate bool                 `json:"autoEscalate"`
	Rules        []RuleSpec           `json:"escalationRules"`

	ExpiresAt        *time.Time `json:"expiresAt"`
	AutoArchive      bool       `json:"autoArchive"`
	ArchiveAfterDays int        `json:"archiveAfterDays"`
}

// defaultPriority 级别到初始优先级的映射
func defaultPriority(l models.AlertLevel) models.AlertPriority {
	switch l {
	case models.LevelEmergency:
		return models.PriorityEmergency
	case models.LevelCritical:
		return models.PriorityUrgent
	case models.LevelWarning:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// Create 创建告警：解析接收人、落库、注册升级定时器。
// 同步返回违反的约束；投递由监听器异步发起。
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Alert, error) {
	now := s.now()

	if !req.Type.Valid() {
		return nil, errors.WithCodef(errors.CodeInvalidRequest, "unknown alert type %q", req.Type)
	}
	if !req.Level.Valid() {
		return nil, errors.WithCodef(errors.CodeInvalidRequest, "unknown alert level %q", req.Level)
	}
	if !req.Audience.Kind.Valid() {
		return nil, errors.WithCodef(errors.CodeInvalidTargeting, "unknown audience kind %q", req.Audience.Kind)
	}
	if len(req.Channels) == 0 {
		req.Channels = []models.Channel{models.ChannelInApp}
	}
	for _, ch := range req.Channels {
		if !ch.Valid() {
			return nil, errors.WithCodef(errors.CodeInvalidRequest, "unknown channel %q", ch)
		}
	}
	for _, r := range req.Rules {
		if !r.Action.Valid() {
			return nil, errors.WithCodef(errors.CodeUnknownAction, "unknown escalation action %q", r.Action)
		}
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(now) {
		return nil, errors.WithCode(errors.CodeInvalidExpiry, "expiresAt must not be in the past")
	}
	if req.Priority == "" {
		req.Priority = defaultPriority(req.Level)
	}
	if !req.Priority.Valid() {
		return nil, errors.WithCodef(errors.CodeInvalidRequest, "unknown priority %q", req.Priority)
	}
	if req.ArchiveAfterDays <= 0 {
		req.ArchiveAfterDays = 30
	}

	users, err := s.resolver.Resolve(ctx, req.Audience, req.Areas)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errors.WithCode(errors.CodeNoRecipients, "targeting matched no recipients")
	}

	alert := &models.Alert{
		SourceKind:       req.SourceKind,
		SourceRef:        req.SourceRef,
		TriggerAt:        now,
		Type:             req.Type,
		Title:            req.Title,
		Message:          req.Message,
		Level:            req.Level,
		Areas:            req.Areas,
		Audience:         req.Audience,
		ExpiresAt:        req.ExpiresAt,
		AutoArchive:      req.AutoArchive,
		ArchiveAfterDays: req.ArchiveAfterDays,
		Channels:         req.Channels,
		ScheduledFor:     req.ScheduledFor,
		Recurrence:       req.Recurrence,
		Status:           models.StatusActive,
		Priority:         req.Priority,
		AutoEscalate:     req.AutoEscalate,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		seq, err := nextSequence(tx)
		if err != nil {
			return err
		}
		alert.AlertID = fmt.Sprintf("ALT-SYS-%04d", seq)

		if err := tx.Create(alert).Error; err != nil {
			return err
		}

		for _, u := range users {
			rcpt := buildRecipient(alert, &u, "resolver")
			if err := tx.Create(rcpt).Error; err != nil {
				return err
			}
		}

		for _, r := range req.Rules {
			rule := &models.EscalationRule{
				AlertID:    alert.ID,
				Condition:  r.Condition,
				Threshold:  r.Threshold,
				Action:     r.Action,
				EscalateTo: r.EscalateTo,
			}
			if err := tx.Create(rule).Error; err != nil {
				return err
			}
		}

		if req.AutoEscalate {
			timer := &models.EscalationTimer{
				AlertID:     alert.ID,
				Name:        "auto-escalation",
				TriggerTime: now.Add(req.Level.EscalationDeadline()),
				IsActive:    true,
				Action:      timerAction(req.Rules),
			}
			if err := tx.Create(timer).Error; err != nil {
				return err
			}
		}

		return s.recountDelivery(tx, alert)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create alert")
	}

	metrics.AlertsCreated.WithLabelValues(string(alert.Level)).Inc()
	logger.Info("alert created",
		zap.String("alertId", alert.AlertID),
		zap.String("level", string(alert.Level)),
		zap.Int("recipients", alert.TotalRecipients))

	util.Sig().Emit(models.SigAlertCreated, alert)
	return alert, nil
}

// timerAction 取第一条时间型规则的动作，缺省升级给上级
func timerAction(rules []RuleSpec) models.EscalationAction {
	for _, r := range rules {
		if r.Condition == models.CondTimeBased {
			return r.Action
		}
	}
	return models.ActionEscalateToSupervisor
}

// buildRecipient 把目录用户转为接收人，复制其投递偏好
func buildRecipient(alert *models.Alert, u *models.User, addedBy string) *models.AlertRecipient {
	channels := alert.Channels
	if addedBy == "escalation" {
		channels = models.DefaultEscalationChannels()
	}
	return &models.AlertRecipient{
		AlertID:          alert.ID,
		UserID:           u.ID,
		Channels:         channels,
		PreferredChannel: u.PreferredChannel,
		DNDStart:         u.DNDStart,
		DNDEnd:           u.DNDEnd,
		BatchFrequency:   u.BatchFrequency,
		AddedBy:          addedBy,
	}
}

// nextSequence 单行序列自增，在事务内保证单调
func nextSequence(tx *gorm.DB) (int64, error) {
	var seq models.AlertSequence
	if err := tx.Where(models.AlertSequence{ID: 1}).FirstOrCreate(&seq).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&models.AlertSequence{}).Where("id = ?", 1).
		Update("value", gorm.Expr("value + 1")).Error; err != nil {
		return 0, err
	}
	if err := tx.First(&seq, 1).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// Acknowledge 记录确认；确认数达到 ceil(0.5×接收人数) 时翻转状态。
// 同一用户重复确认幂等，不重复计数。
func (s *Service) Acknowledge(ctx context.Context, publicID string, userID uint, actions []string, comments, location string) (*models.Alert, error) {
	alert, err := s.getByPublicID(publicID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(alert.ID)
	defer unlock()

	if err := s.db.First(alert, alert.ID).Error; err != nil {
		return nil, errors.Wrap(err, "reload alert")
	}
	if alert.Status == models.StatusArchived || alert.Status == models.StatusCancelled {
		return nil, errors.WithCodef(errors.CodeAlertTerminal, "alert %s is %s", alert.AlertID, alert.Status)
	}

	var existing models.Acknowledgment
	err = s.db.Where("alert_id = ? AND user_id = ?", alert.ID, userID).First(&existing).Error
	if err == nil {
		// 重复提交：幂等返回，不改变计数
		return alert, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(err, "check acknowledgment")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		ack := &models.Acknowledgment{
			AlertID:  alert.ID,
			UserID:   userID,
			AckedAt:  s.now(),
			Actions:  actions,
			Comments: comments,
			Location: location,
		}
		if err := tx.Create(ack).Error; err != nil {
			return err
		}

		var ackCount int64
		if err := tx.Model(&models.Acknowledgment{}).Where("alert_id = ?", alert.ID).Count(&ackCount).Error; err != nil {
			return err
		}

		// 50% 阈值是固定设计常量
		threshold := (alert.TotalRecipients + 1) / 2
		if alert.Status == models.StatusActive && int(ackCount) >= threshold && threshold > 0 {
			alert.Status = models.StatusAcknowledged
		}
		return s.recountDelivery(tx, alert)
	})
	if err != nil {
		return nil, errors.Wrap(err, "record acknowledgment")
	}

	metrics.AcksTotal.Inc()
	return alert, nil
}

// Resolve 显式解决。expired 是半终态，归档前仍可解决。
func (s *Service) Resolve(ctx context.Context, publicID string, resolvedBy uint, comments string, rtype models.ResolutionType, actionsTaken []string, followUp bool) (*models.Alert, error) {
	if !rtype.Valid() {
		return nil, errors.WithCodef(errors.CodeInvalidRequest, "unknown resolution type %q", rtype)
	}

	alert, err := s.getByPublicID(publicID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(alert.ID)
	defer unlock()

	if err := s.db.First(alert, alert.ID).Error; err != nil {
		return nil, errors.Wrap(err, "reload alert")
	}
	if alert.Status.IsTerminal() {
		return nil, errors.WithCodef(errors.CodeAlertTerminal, "alert %s is %s", alert.AlertID, alert.Status)
	}

	now := s.now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		alert.Status = models.StatusResolved
		alert.ResolvedBy = &resolvedBy
		alert.ResolvedAt = &now
		alert.ResolutionType = rtype
		alert.ResolutionComments = comments
		alert.ActionsTaken = actionsTaken
		alert.FollowUpRequired = followUp
		if err := tx.Save(alert).Error; err != nil {
			return err
		}
		// 挂起的定时器一并失效，避免迟到的扫描复活已关闭的告警
		return deactivateTimers(tx, alert.ID)
	})
	if err != nil {
		return nil, errors.Wrap(err, "resolve alert")
	}

	logger.Info("alert resolved", zap.String("alertId", alert.AlertID), zap.String("type", string(rtype)))
	return alert, nil
}

// Cancel 显式取消
func (s *Service) Cancel(ctx context.Context, publicID string, cancelledBy uint) (*models.Alert, error) {
	alert, err := s.getByPublicID(publicID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(alert.ID)
	defer unlock()

	if err := s.db.First(alert, alert.ID).Error; err != nil {
		return nil, errors.Wrap(err, "reload alert")
	}
	if alert.Status.IsTerminal() {
		return nil, errors.WithCodef(errors.CodeAlertTerminal, "alert %s is %s", alert.AlertID, alert.Status)
	}

	now := s.now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		alert.Status = models.StatusCancelled
		alert.CancelledBy = &cancelledBy
		alert.CancelledAt = &now
		if err := tx.Save(alert).Error; err != nil {
			return err
		}
		return deactivateTimers(tx, alert.ID)
	})
	if err != nil {
		return nil, errors.Wrap(err, "cancel alert")
	}
	return alert, nil
}

// Escalate 操作员手动升级（定时器之外的路径）
func (s *Service) Escalate(ctx context.Context, publicID string, escalatedBy string, escalateTo []uint, reason string) (*models.Alert, error) {
	alert, err := s.getByPublicID(publicID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(alert.ID)
	defer unlock()

	if err := s.db.First(alert, alert.ID).Error; err != nil {
		return nil, errors.Wrap(err, "reload alert")
	}
	if alert.Status.IsTerminal() {
		return nil, errors.WithCodef(errors.CodeAlertTerminal, "alert %s is %s", alert.AlertID, alert.Status)
	}

	var added []models.AlertRecipient
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		added, txErr = s.applyEscalation(tx, alert, escalateTo, escalatedBy, reason)
		return txErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "escalate alert")
	}

	if len(added) > 0 {
		go s.dispatchRecipients(context.Background(), alert, added)
	}
	return alert, nil
}

// applyEscalation 追加升级链条目、补充接收人并提升优先级。
// 只增不改：升级从不直接改 status。
func (s *Service) applyEscalation(tx *gorm.DB, alert *models.Alert, escalateTo []uint, by, reason string) ([]models.AlertRecipient, error) {
	var chainLen int64
	if err := tx.Model(&models.EscalationEntry{}).Where("alert_id = ?", alert.ID).Count(&chainLen).Error; err != nil {
		return nil, err
	}

	entry := &models.EscalationEntry{
		AlertID:     alert.ID,
		Level:       int(chainLen) + 1,
		Recipients:  escalateTo,
		EscalatedAt: s.now(),
		EscalatedBy: by,
		Reason:      reason,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}

	var added []models.AlertRecipient
	for _, uid := range escalateTo {
		var n int64
		if err := tx.Model(&models.AlertRecipient{}).
			Where("alert_id = ? AND user_id = ?", alert.ID, uid).Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			continue
		}
		var u models.User
		if err := tx.First(&u, uid).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, err
		}
		rcpt := buildRecipient(alert, &u, "escalation")
		if err := tx.Create(rcpt).Error; err != nil {
			return nil, err
		}
		added = append(added, *rcpt)
	}

	if alert.Priority != models.PriorityEmergency {
		alert.Priority = alert.Priority.Next()
	}
	if err := s.recountDelivery(tx, alert); err != nil {
		return nil, err
	}
	return added, nil
}

// deactivateTimers 关停一条告警上所有挂起的定时器
func deactivateTimers(tx *gorm.DB, alertID uint) error {
	return tx.Model(&models.EscalationTimer{}).
		Where("alert_id = ? AND is_active = ?", alertID, true).
		Update("is_active", false).Error
}

// recountDelivery 从逐接收人逐通道的状态全量重算聚合计数，
// 避免并发更新下的重复累加。每次接收人/投递变更后调用。
func (s *Service) recountDelivery(tx *gorm.DB, alert *models.Alert) error {
	var total int64
	if err := tx.Model(&models.AlertRecipient{}).Where("alert_id = ?", alert.ID).Count(&total).Error; err != nil {
		return err
	}

	type stateCount struct {
		State models.DeliveryState
		N     int64
	}
	var rows []stateCount
	if err := tx.Model(&models.DeliveryStatus{}).
		Select("state, count(*) as n").
		Where("alert_id = ?", alert.ID).
		Group("state").Scan(&rows).Error; err != nil {
		return err
	}

	var sent, delivered, read, failed int64
	for _, r := range rows {
		switch r.State {
		case models.DeliverySent:
			sent = r.N
		case models.DeliveryDelivered:
			delivered = r.N
		case models.DeliveryRead:
			read = r.N
		case models.DeliveryFailed:
			failed = r.N
		}
	}

	var acks int64
	if err := tx.Model(&models.Acknowledgment{}).Where("alert_id = ?", alert.ID).Count(&acks).Error; err != nil {
		return err
	}

	alert.TotalRecipients = int(total)
	alert.SentCount = int(sent)
	alert.DeliveredCount = int(delivered)
	alert.ReadCount = int(read)
	alert.FailedCount = int(failed)
	alert.AckCount = int(acks)
	if total > 0 {
		alert.AckRate = float64(acks) / float64(total)
	} else {
		alert.AckRate = 0
	}

	return tx.Model(&models.Alert{}).Where("id = ?", alert.ID).Updates(map[string]interface{}{
		"status":           alert.Status,
		"priority":         alert.Priority,
		"total_recipients": alert.TotalRecipients,
		"sent_count":       alert.SentCount,
		"delivered_count":  alert.DeliveredCount,
		"read_count":       alert.ReadCount,
		"failed_count":     alert.FailedCount,
		"ack_count":        alert.AckCount,
		"ack_rate":         alert.AckRate,
	}).Error
}

func (s *Service) getByPublicID(publicID string) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.Where("alert_id = ?", publicID).First(&alert).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.WithCodef(errors.CodeNotFound, "alert %s not found", publicID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load alert")
	}
	return &alert, nil
}

// Get 返回告警及其公开状态
func (s *Service) Get(ctx context.Context, publicID string) (*models.Alert, error) {
	return s.getByPublicID(publicID)
}

// Detail 读取接口的完整视图
type Detail struct {
	Alert      *models.Alert            `json:"alert"`
	Recipients []models.AlertRecipient  `json:"recipients"`
	Deliveries []models.DeliveryStatus  `json:"deliveries"`
	Attempts   []models.DeliveryAttempt `json:"attempts"`
	Chain      []models.EscalationEntry `json:"escalationChain"`
	Acks       []models.Acknowledgment  `json:"acknowledgments"`
	Timers     []models.EscalationTimer `json:"timers"`
}

// GetDetail 汇总一条告警的全部子记录
func (s *Service) GetDetail(ctx context.Context, publicID string) (*Detail, error) {
	alert, err := s.getByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	d := &Detail{Alert: alert}
	id := alert.ID
	if err := s.db.Where("alert_id = ?", id).Order("id").Find(&d.Recipients).Error; err != nil {
		return nil, errors.Wrap(err, "load recipients")
	}
	if err := s.db.Where("alert_id = ?", id).Find(&d.Deliveries).Error; err != nil {
		return nil, errors.Wrap(err, "load deliveries")
	}
	if err := s.db.Where("alert_id = ?", id).Order("id").Find(&d.Attempts).Error; err != nil {
		return nil, errors.Wrap(err, "load attempts")
	}
	if err := s.db.Where("alert_id = ?", id).Order("level").Find(&d.Chain).Error; err != nil {
		return nil, errors.Wrap(err, "load chain")
	}
	if err := s.db.Where("alert_id = ?", id).Order("id").Find(&d.Acks).Error; err != nil {
		return nil, errors.Wrap(err, "load acks")
	}
	if err := s.db.Where("alert_id = ?", id).Find(&d.Timers).Error; err != nil {
		return nil, errors.Wrap(err, "load timers")
	}
	return d, nil
}

// ListFilter 列表筛选
type ListFilter struct {
	Status models.AlertStatus
	Level  models.AlertLevel
	Type   models.AlertType
	Limit  int
	Offset int
}

// List 按筛选条件返回告警
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Alert, error) {
	q := s.db.Model(&models.Alert{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	var alerts []models.Alert
	err := q.Order("id desc").Limit(f.Limit).Offset(f.Offset).Find(&alerts).Error
	return alerts, err
}
