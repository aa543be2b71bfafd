package service

import (
	"context"
	"errors"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"

	"gorm.io/datatypes"
)

// ==================== 错误定义 ====================

var (
	// ErrSubscriptionNotFound 订阅不存在或不归属当前租户
	ErrSubscriptionNotFound = errors.New("推送订阅不存在")
)

// ==================== NotificationService 推送订阅服务 ====================

// NotificationService 推送订阅服务
// 只管理订阅存取，实际推送投递由外部通道负责
type NotificationService struct {
	pushRepo repository.PushSubscriptionRepository
}

// NewNotificationService 创建推送订阅服务
func NewNotificationService(pushRepo repository.PushSubscriptionRepository) *NotificationService {
	return &NotificationService{pushRepo: pushRepo}
}

// Subscribe 保存/刷新订阅，按 endpoint 幂等
func (s *NotificationService) Subscribe(ctx context.Context, shopID int64, endpoint string, keys map[string]interface{}, userAgent string) (*model.PushSubscription, error) {
	sub := &model.PushSubscription{
		ShopID:    shopID,
		Endpoint:  endpoint,
		Keys:      datatypes.JSONMap(keys),
		UserAgent: userAgent,
	}
	if err := s.pushRepo.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe 取消订阅，条件带 shop_id：删不到行即视为不存在
func (s *NotificationService) Unsubscribe(ctx context.Context, shopID int64, endpoint string) error {
	affected, err := s.pushRepo.DeleteByEndpoint(ctx, shopID, endpoint)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// ListByShop 店铺的全部订阅
func (s *NotificationService) ListByShop(ctx context.Context, shopID int64) ([]model.PushSubscription, error) {
	return s.pushRepo.ListByShop(ctx, shopID)
}
