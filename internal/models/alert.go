package models

import "time"

// AffectedAreas 影响范围过滤：行政区 ID 集合，或中心点+半径
type AffectedAreas struct {
	VillageIDs  []uint  `json:"villageIds,omitempty"`
	BlockIDs    []uint  `json:"blockIds,omitempty"`
	DistrictIDs []uint  `json:"districtIds,omitempty"`
	CenterLat   float64 `json:"centerLat,omitempty"`
	CenterLng   float64 `json:"centerLng,omitempty"`
	RadiusKm    float64 `json:"radiusKm,omitempty"`
}

// CustomCriteria 自定义人群筛选条件
type CustomCriteria struct {
	MinAge           int      `json:"minAge,omitempty"`
	MaxAge           int      `json:"maxAge,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	HealthConditions []string `json:"healthConditions,omitempty"`
	VillageIDs       []uint   `json:"villageIds,omitempty"`
}

// TargetAudience 目标受众规则
type TargetAudience struct {
	Kind    AudienceKind    `json:"kind"`
	UserIDs []uint          `json:"userIds,omitempty"` // explicit
	Roles   []Role          `json:"roles,omitempty"`   // role
	Custom  *CustomCriteria `json:"custom,omitempty"`  // custom
}

// Alert 告警主记录。接收人、投递状态、升级链、定时器、确认记录
// 全部拆为按 alert_id 关联的子表，避免整文档重写竞争。
type Alert struct {
	ID      uint   `gorm:"primaryKey"`
	AlertID string `gorm:"uniqueIndex;size:32"` // ALT-SYS-0001，单调分配，不可变

	// 来源
	SourceKind SourceKind `gorm:"size:32"`
	SourceRef  string     `gorm:"size:128"` // 触发实体引用（病例 ID、水样 ID 等）
	TriggerAt  time.Time

	// 分类
	Type    AlertType  `gorm:"size:32;index"`
	Title   string     `gorm:"size:256"`
	Message string     `gorm:"type:text"`
	Level   AlertLevel `gorm:"size:16;index"`

	// 目标
	Areas    AffectedAreas  `gorm:"serializer:json"`
	Audience TargetAudience `gorm:"serializer:json"`

	// 过期与归档
	ExpiresAt        *time.Time `gorm:"index"`
	AutoArchive      bool
	ArchiveAfterDays int `gorm:"default:30"` // 未设置 expiresAt 时的兜底归档延迟

	// 投递配置
	Channels     []Channel  `gorm:"serializer:json"`
	ScheduledFor *time.Time // 为空表示立即投递
	Recurrence   string     `gorm:"size:64"`

	// 状态
	Status       AlertStatus   `gorm:"size:16;index"`
	Priority     AlertPriority `gorm:"size:16"`
	AutoEscalate bool

	// 解决信息
	ResolvedBy         *uint
	ResolvedAt         *time.Time
	ResolutionType     ResolutionType `gorm:"size:32"`
	ResolutionComments string         `gorm:"type:text"`
	ActionsTaken       []string       `gorm:"serializer:json"`
	FollowUpRequired   bool

	// 取消信息
	CancelledBy *uint
	CancelledAt *time.Time

	// 缓存的投递统计，recipients 每次变更后重算
	TotalRecipients int
	SentCount       int
	DeliveredCount  int
	ReadCount       int
	FailedCount     int
	AckCount        int
	AckRate         float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AlertRecipient 接收人，(alert_id, user_id) 唯一
type AlertRecipient struct {
	ID      uint `gorm:"primaryKey"`
	AlertID uint `gorm:"index:idx_recipient_alert_user,unique"`
	UserID  uint `gorm:"index:idx_recipient_alert_user,unique"`

	Channels         []Channel `gorm:"serializer:json"`
	PreferredChannel Channel   `gorm:"size:16"`
	DNDStart         string    `gorm:"size:5"` // "22:00"，空表示无免打扰窗口
	DNDEnd           string    `gorm:"size:5"`
	BatchFrequency   string    `gorm:"size:16"` // immediate/hourly/daily
	AddedBy          string    `gorm:"size:32"` // resolver / escalation / operator

	CreatedAt time.Time
}

// DeliveryStatus 每接收人每通道一条，重复投递覆盖同通道旧值
type DeliveryStatus struct {
	ID      uint    `gorm:"primaryKey"`
	AlertID uint    `gorm:"index:idx_delivery_key,unique"`
	UserID  uint    `gorm:"index:idx_delivery_key,unique"`
	Channel Channel `gorm:"index:idx_delivery_key,unique;size:16"`

	State     DeliveryState `gorm:"size:16"`
	Error     string        `gorm:"size:512"`
	Timestamp time.Time
}

// DeliveryAttempt 批次投递日志，只追加
type DeliveryAttempt struct {
	ID        uint    `gorm:"primaryKey"`
	AlertID   uint    `gorm:"index"`
	AttemptID string  `gorm:"size:36"` // uuid
	AttemptNo int
	Channel   Channel  `gorm:"size:16"`
	Attempted int
	Succeeded int
	Failed    int
	Errors    []string `gorm:"serializer:json"`
	CreatedAt time.Time
}

// EscalationRule 升级规则
type EscalationRule struct {
	ID         uint                `gorm:"primaryKey"`
	AlertID    uint                `gorm:"index"`
	Condition  EscalationCondition `gorm:"size:32"`
	Threshold  int                 // 分钟数或计数，随 Condition 解释
	Action     EscalationAction    `gorm:"size:32"`
	EscalateTo []uint              `gorm:"serializer:json"`
}

// EscalationEntry 升级链条目，只追加，Level 严格递增
type EscalationEntry struct {
	ID          uint   `gorm:"primaryKey"`
	AlertID     uint   `gorm:"index"`
	Level       int
	Recipients  []uint `gorm:"serializer:json"`
	EscalatedAt time.Time
	EscalatedBy string `gorm:"size:64"` // "system" 或操作员 ID
	Reason      string `gorm:"size:256"`
}

// EscalationTimer 持久化的升级定时器。扫描用 (is_active, trigger_time) 索引查到期项，
// 触发前先以 CAS 方式置 is_active=false 抢占，保证至少一次扫描下的幂等。
type EscalationTimer struct {
	ID          uint             `gorm:"primaryKey"`
	AlertID     uint             `gorm:"index"`
	Name        string           `gorm:"size:64"`
	TriggerTime time.Time        `gorm:"index:idx_timer_due"`
	IsActive    bool             `gorm:"index:idx_timer_due"`
	Action      EscalationAction `gorm:"size:32"`
	CreatedAt   time.Time
}

// Acknowledgment 确认记录，(alert_id, user_id) 唯一，写入时去重
type Acknowledgment struct {
	ID       uint `gorm:"primaryKey"`
	AlertID  uint `gorm:"index:idx_ack_alert_user,unique"`
	UserID   uint `gorm:"index:idx_ack_alert_user,unique"`
	AckedAt  time.Time
	Actions  []string `gorm:"serializer:json"`
	Comments string   `gorm:"size:512"`
	Location string   `gorm:"size:128"`
}

// AlertSequence 单行序列表，分配 ALT-SYS-#### 编号
type AlertSequence struct {
	ID    uint `gorm:"primaryKey"`
	Value int64
}
