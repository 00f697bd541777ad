package models

import "time"

// AlertLevel 告警级别，决定升级截止时间
type AlertLevel string

const (
	LevelInfo      AlertLevel = "info"
	LevelWarning   AlertLevel = "warning"
	LevelCritical  AlertLevel = "critical"
	LevelEmergency AlertLevel = "emergency"
)

func (l AlertLevel) Valid() bool {
	switch l {
	case LevelInfo, LevelWarning, LevelCritical, LevelEmergency:
		return true
	}
	return false
}

// EscalationDeadline 按级别返回自动升级等待时长
func (l AlertLevel) EscalationDeadline() time.Duration {
	switch l {
	case LevelEmergency:
		return 15 * time.Minute
	case LevelCritical:
		return 30 * time.Minute
	case LevelWarning:
		return 60 * time.Minute
	default:
		return 240 * time.Minute
	}
}

// AlertStatus 告警状态机的状态
type AlertStatus string

const (
	StatusActive       AlertStatus = "active"
	StatusAcknowledged AlertStatus = "acknowledged"
	StatusResolved     AlertStatus = "resolved"
	StatusExpired      AlertStatus = "expired"
	StatusCancelled    AlertStatus = "cancelled"
	StatusArchived     AlertStatus = "archived"
)

// IsTerminal 终态不再接受确认、解决、升级操作
func (s AlertStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusCancelled || s == StatusArchived
}

// AlertPriority 优先级，只升不降（除非操作员显式覆盖）
type AlertPriority string

const (
	PriorityLow       AlertPriority = "low"
	PriorityMedium    AlertPriority = "medium"
	PriorityHigh      AlertPriority = "high"
	PriorityUrgent    AlertPriority = "urgent"
	PriorityEmergency AlertPriority = "emergency"
)

var priorityOrder = []AlertPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent, PriorityEmergency}

// Next 返回升一级后的优先级，emergency 封顶
func (p AlertPriority) Next() AlertPriority {
	for i, v := range priorityOrder {
		if v == p && i+1 < len(priorityOrder) {
			return priorityOrder[i+1]
		}
	}
	return PriorityEmergency
}

func (p AlertPriority) Valid() bool {
	for _, v := range priorityOrder {
		if v == p {
			return true
		}
	}
	return false
}

// Channel 投递通道
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelPush     Channel = "push"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelVoice    Channel = "voice"
	ChannelInApp    Channel = "in_app"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelPush, ChannelWhatsApp, ChannelVoice, ChannelInApp:
		return true
	}
	return false
}

// DefaultEscalationChannels 升级新增接收人使用的默认通道
func DefaultEscalationChannels() []Channel {
	return []Channel{ChannelSMS, ChannelEmail, ChannelPush}
}

// DeliveryState 单通道投递结果
type DeliveryState string

const (
	DeliveryPending   DeliveryState = "pending"
	DeliverySent      DeliveryState = "sent"
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryRead      DeliveryState = "read"
	DeliveryFailed    DeliveryState = "failed"
)

// AlertType 告警业务类型
type AlertType string

const (
	TypeHealthEmergency    AlertType = "health_emergency"
	TypeOutbreak           AlertType = "outbreak"
	TypeWaterContamination AlertType = "water_contamination"
	TypeVaccinationDue     AlertType = "vaccination_reminder"
	TypeAppointment        AlertType = "appointment"
	TypeSystemNotice       AlertType = "system_notice"
	TypeProgramUpdate      AlertType = "program_update"
	TypeCompliance         AlertType = "compliance"
	TypeInfrastructure     AlertType = "infrastructure"
	TypeWeather            AlertType = "weather"
	TypeSupplyChain        AlertType = "supply_chain"
)

func (t AlertType) Valid() bool {
	switch t {
	case TypeHealthEmergency, TypeOutbreak, TypeWaterContamination, TypeVaccinationDue,
		TypeAppointment, TypeSystemNotice, TypeProgramUpdate, TypeCompliance,
		TypeInfrastructure, TypeWeather, TypeSupplyChain:
		return true
	}
	return false
}

// SourceKind 触发来源
type SourceKind string

const (
	SourceUser      SourceKind = "user"
	SourceSystem    SourceKind = "system"
	SourceAutomated SourceKind = "automated_process"
	SourceExternal  SourceKind = "external_system"
)

// AudienceKind 目标受众的选取方式
type AudienceKind string

const (
	AudienceExplicit   AudienceKind = "explicit"
	AudienceRole       AudienceKind = "role"
	AudienceGeographic AudienceKind = "geographic"
	AudienceAll        AudienceKind = "all"
	AudienceCustom     AudienceKind = "custom"
)

func (a AudienceKind) Valid() bool {
	switch a {
	case AudienceExplicit, AudienceRole, AudienceGeographic, AudienceAll, AudienceCustom:
		return true
	}
	return false
}

// EscalationCondition 升级规则触发条件
type EscalationCondition string

const (
	CondTimeBased       EscalationCondition = "time_based"
	CondAckBased        EscalationCondition = "ack_based"
	CondSeverityBased   EscalationCondition = "severity_based"
	CondDeliveryFailure EscalationCondition = "delivery_failure"
)

// EscalationAction 升级规则动作
type EscalationAction string

const (
	ActionEscalateToSupervisor EscalationAction = "escalate_to_supervisor"
	ActionIncreaseLevel        EscalationAction = "increase_alert_level"
	ActionAddRecipients        EscalationAction = "add_recipients"
	ActionChangeDelivery       EscalationAction = "change_delivery_method"
)

func (a EscalationAction) Valid() bool {
	switch a {
	case ActionEscalateToSupervisor, ActionIncreaseLevel, ActionAddRecipients, ActionChangeDelivery:
		return true
	}
	return false
}

// ResolutionType 解决方式
type ResolutionType string

const (
	ResolutionSystemAuto         ResolutionType = "system_auto"
	ResolutionManual             ResolutionType = "manual_intervention"
	ResolutionEscalationResolved ResolutionType = "escalation_resolved"
	ResolutionFalseAlarm         ResolutionType = "false_alarm"
)

func (r ResolutionType) Valid() bool {
	switch r {
	case ResolutionSystemAuto, ResolutionManual, ResolutionEscalationResolved, ResolutionFalseAlarm:
		return true
	}
	return false
}

// Role 目录中的用户角色
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleDistrictOfficer Role = "district_officer"
	RoleBlockOfficer    Role = "block_officer"
	RoleHealthWorker    Role = "health_worker"
	RoleSupervisor      Role = "supervisor"
	RoleVillager        Role = "villager"
)
