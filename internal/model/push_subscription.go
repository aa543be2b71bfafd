package model

import (
	"gorm.io/datatypes"
)

// PushSubscription Web Push 订阅
// 浏览器端提交的订阅端点，实际推送由外部通道完成，本系统只负责存取
type PushSubscription struct {
	BaseModel
	ShopID int64 `gorm:"index;not null"`

	// 订阅端点，全局唯一；同一端点重复订阅按 upsert 处理
	Endpoint string `gorm:"size:512;uniqueIndex;not null"`

	// 加密参数 p256dh / auth（PostgreSQL JSONB）
	Keys datatypes.JSONMap `gorm:"type:jsonb"`

	UserAgent string `gorm:"size:255"`
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
