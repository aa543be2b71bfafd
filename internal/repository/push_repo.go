package repository

import (
	"context"

	"smarthub_v1_202601/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== PushSubscriptionRepository 推送订阅仓库 ====================

// PushSubscriptionRepository 推送订阅仓库接口
type PushSubscriptionRepository interface {
	// Upsert 同一 endpoint 重复订阅时刷新 keys
	Upsert(ctx context.Context, sub *model.PushSubscription) error
	DeleteByEndpoint(ctx context.Context, shopID int64, endpoint string) (int64, error)
	ListByShop(ctx context.Context, shopID int64) ([]model.PushSubscription, error)
}

type pushSubscriptionRepository struct {
	db *gorm.DB
}

// NewPushSubscriptionRepository 创建推送订阅仓库
func NewPushSubscriptionRepository(db *gorm.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

func (r *pushSubscriptionRepository) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"shop_id", "keys", "user_agent", "updated_at"}),
	}).Create(sub).Error
}

func (r *pushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, shopID int64, endpoint string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("shop_id = ? AND endpoint = ?", shopID, endpoint).
		Delete(&model.PushSubscription{})
	return result.RowsAffected, result.Error
}

func (r *pushSubscriptionRepository) ListByShop(ctx context.Context, shopID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Find(&subs).Error
	return subs, err
}
