package models

import "time"

// InAppNotification 站内通知，in_app 通道落库后经 SSE/WebSocket 推送
type InAppNotification struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"index"`
	AlertRef  string     `gorm:"size:32;index"` // 告警公开编号 ALT-SYS-####
	Title     string     `gorm:"size:256"`
	Body      string     `gorm:"type:text"`
	Level     AlertLevel `gorm:"size:16"`
	Read      bool
	CreatedAt time.Time
}

// 信号名，进程内事件总线使用
const (
	SigAlertCreated      = "alert:created"
	SigWaterContaminated = "water:contaminated"
	SigOutbreakDetected  = "disease:outbreak"
)

// ContaminationEvent 水污染信号载荷
type ContaminationEvent struct {
	Test       WaterQualityTest
	ReportedBy uint
}

// OutbreakEvent 疫情信号载荷：同村同病确诊数达阈值
type OutbreakEvent struct {
	Disease    string
	VillageID  uint
	CaseCount  int
	ReportedBy uint
}
