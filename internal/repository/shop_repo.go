package repository

import (
	"context"
	"time"

	"smarthub_v1_202601/internal/model"

	"gorm.io/gorm"
)

// ==================== ShopRepository 店铺仓库 ====================

// ShopRepository 店铺仓库接口
// 所有按归属查询的方法必须带 owner_id 条件，这是租户隔离的第一道过滤
type ShopRepository interface {
	Create(ctx context.Context, shop *model.Shop) error
	GetByID(ctx context.Context, id int64) (*model.Shop, error)
	// GetByIDAndOwner 按 ID 查询并校验归属，跨租户查询返回 gorm.ErrRecordNotFound
	GetByIDAndOwner(ctx context.Context, id int64, ownerID string) (*model.Shop, error)
	// ListByOwner 查询归属某身份的全部店铺
	ListByOwner(ctx context.Context, ownerID string) ([]model.Shop, error)
	// FirstByOwner 查询归属某身份的第一家店铺
	FirstByOwner(ctx context.Context, ownerID string) (*model.Shop, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	GetByPageID(ctx context.Context, pageID string) (*model.Shop, error)
	Update(ctx context.Context, shop *model.Shop) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// 周期任务用：查找 Page Token 即将过期的店铺
	FindExpiringTokenShops(ctx context.Context, before time.Time) ([]model.Shop, error)
}

type shopRepository struct {
	db *gorm.DB
}

// NewShopRepository 创建店铺仓库
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) Create(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *shopRepository) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	var shop model.Shop
	err := r.db.WithContext(ctx).First(&shop, id).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) GetByIDAndOwner(ctx context.Context, id int64, ownerID string) (*model.Shop, error) {
	var shop model.Shop
	// 前端可以传店铺 ID 切换上下文，但归属必须在这里重新核对
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&shops).Error
	return shops, err
}

func (r *shopRepository) FirstByOwner(ctx context.Context, ownerID string) (*model.Shop, error) {
	var shop model.Shop
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Shop{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

func (r *shopRepository) GetByPageID(ctx context.Context, pageID string) (*model.Shop, error) {
	var shop model.Shop
	err := r.db.WithContext(ctx).
		Where("facebook_page_id = ?", pageID).
		First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) Update(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Save(shop).Error
}

func (r *shopRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Shop{}).Where("id = ?", id).Updates(fields).Error
}

func (r *shopRepository) FindExpiringTokenShops(ctx context.Context, before time.Time) ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("facebook_page_access_token <> ''").
		Where("token_expires_at IS NOT NULL AND token_expires_at < ?", before).
		Find(&shops).Error
	return shops, err
}
