package repository

import (
	"context"
	"time"

	"smarthub_v1_202601/internal/model"

	"gorm.io/gorm"
)

// ==================== 聚合结果 ====================

// ConversationRow 会话汇总行
// 按客户分组取最后一轮消息 ID，消息内容与时间由上层随行补查
type ConversationRow struct {
	CustomerID    int64
	LastMessageID int64
	MessageCount  int64
}

// ==================== ChatRepository 聊天记录仓库 ====================

// ChatRepository 聊天记录仓库接口
// 记录只追加，不提供更新/删除
type ChatRepository interface {
	Append(ctx context.Context, entry *model.ChatHistory) error
	// ListByCustomer 按客户查最近 N 轮，时间倒序
	ListByCustomer(ctx context.Context, shopID, customerID int64, limit int) ([]model.ChatHistory, error)
	GetByID(ctx context.Context, id, shopID int64) (*model.ChatHistory, error)
	// CountAISince AI 回复计数，配额核算用
	CountAISince(ctx context.Context, shopID int64, since time.Time) (int64, error)
	// Conversations 按客户分组的会话汇总
	Conversations(ctx context.Context, shopID int64, limit int) ([]ConversationRow, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建聊天记录仓库
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Append(ctx context.Context, entry *model.ChatHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *chatRepository) ListByCustomer(ctx context.Context, shopID, customerID int64, limit int) ([]model.ChatHistory, error) {
	var entries []model.ChatHistory
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND customer_id = ?", shopID, customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *chatRepository) GetByID(ctx context.Context, id, shopID int64) (*model.ChatHistory, error) {
	var entry model.ChatHistory
	err := r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", id, shopID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *chatRepository) CountAISince(ctx context.Context, shopID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChatHistory{}).
		Where("shop_id = ? AND is_ai = ? AND created_at >= ?", shopID, true, since).
		Count(&count).Error
	return count, err
}

func (r *chatRepository) Conversations(ctx context.Context, shopID int64, limit int) ([]ConversationRow, error) {
	var rows []ConversationRow
	err := r.db.WithContext(ctx).Model(&model.ChatHistory{}).
		Where("shop_id = ?", shopID).
		Select("customer_id, MAX(id) as last_message_id, COUNT(*) as message_count").
		Group("customer_id").
		Order("last_message_id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
