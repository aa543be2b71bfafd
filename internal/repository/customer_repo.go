package repository

import (
	"context"
	"time"

	"smarthub_v1_202601/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== CustomerRepository 客户仓库 ====================

// CustomerRepository 客户仓库接口
// 全部方法按 shop_id 过滤
type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	// GetByIDAndShop 按 ID 查询并校验租户归属
	GetByIDAndShop(ctx context.Context, id, shopID int64) (*model.Customer, error)
	GetByFacebookID(ctx context.Context, shopID int64, facebookID string) (*model.Customer, error)
	// UpsertByFacebookID 按 (shop_id, facebook_id) 幂等创建，聊天进线时调用
	UpsertByFacebookID(ctx context.Context, customer *model.Customer) error
	List(ctx context.Context, shopID int64, page, pageSize int) ([]model.Customer, int64, error)
	CountByShop(ctx context.Context, shopID int64) (int64, error)
	CountByShopSince(ctx context.Context, shopID int64, since time.Time) (int64, error)
	UpdateFields(ctx context.Context, id, shopID int64, fields map[string]interface{}) error
	TouchLastSeen(ctx context.Context, id int64) error
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓库
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) GetByIDAndShop(ctx context.Context, id, shopID int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", id, shopID).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) GetByFacebookID(ctx context.Context, shopID int64, facebookID string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND facebook_id = ?", shopID, facebookID).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) UpsertByFacebookID(ctx context.Context, customer *model.Customer) error {
	// 冲突时只刷新展示字段，不动 VIP 等运营标记
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_id"}, {Name: "facebook_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "last_seen_at", "updated_at"}),
	}).Create(customer).Error
}

func (r *customerRepository) List(ctx context.Context, shopID int64, page, pageSize int) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Customer{}).Where("shop_id = ?", shopID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	err := db.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&customers).Error

	return customers, total, err
}

func (r *customerRepository) CountByShop(ctx context.Context, shopID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Customer{}).
		Where("shop_id = ?", shopID).
		Count(&count).Error
	return count, err
}

func (r *customerRepository) CountByShopSince(ctx context.Context, shopID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Customer{}).
		Where("shop_id = ? AND created_at >= ?", shopID, since).
		Count(&count).Error
	return count, err
}

func (r *customerRepository) UpdateFields(ctx context.Context, id, shopID int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ? AND shop_id = ?", id, shopID).
		Updates(fields).Error
}

func (r *customerRepository) TouchLastSeen(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", id).
		Update("last_seen_at", now).Error
}
