package models

import "time"

// User 目录中的用户：角色、地理归属、联系方式与人群属性
type User struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"size:128"`
	Role   Role   `gorm:"size:32;index"`
	Active bool   `gorm:"index"`

	// 联系方式，按通道取用
	Phone       string `gorm:"size:20"`
	Email       string `gorm:"size:128"`
	DeviceAlias string `gorm:"size:64"` // 推送别名

	// 地理归属（服务范围）
	VillageID  *uint `gorm:"index"`
	BlockID    *uint `gorm:"index"`
	DistrictID *uint `gorm:"index"`
	Lat        float64
	Lng        float64

	// 自定义人群筛选使用的属性
	Age              int
	Gender           string   `gorm:"size:16"`
	HealthConditions []string `gorm:"serializer:json"`

	// 个人投递偏好
	PreferredChannel Channel `gorm:"size:16"`
	DNDStart         string  `gorm:"size:5"`
	DNDEnd           string  `gorm:"size:5"`
	BatchFrequency   string  `gorm:"size:16"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
