package model

import (
	"time"
)

// ChatSource 消息来源渠道
const (
	ChatSourceMessenger = "messenger"
	ChatSourceInstagram = "instagram"
)

// ChatHistory 聊天记录，只追加不修改
// 一条记录为一轮对话：客户进线消息 + 回复（AI 生成或人工）
type ChatHistory struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	ShopID     int64 `gorm:"index;not null"`
	CustomerID int64 `gorm:"index;not null"`

	// 内容
	Message  string `gorm:"type:text;not null"`
	Response string `gorm:"type:text"`

	// 来源与回复方式
	Source string `gorm:"size:20;default:'messenger'"`
	IsAI   bool   `gorm:"default:false"` // true 表示回复由模型生成，计入套餐配额

	CreatedAt time.Time `gorm:"index"`
}

func (ChatHistory) TableName() string {
	return "chat_history"
}

// Answered 本轮是否已有回复
func (c *ChatHistory) Answered() bool {
	return c.Response != ""
}
