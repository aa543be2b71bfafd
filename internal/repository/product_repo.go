package repository

import (
	"context"

	"smarthub_v1_202601/internal/model"

	"gorm.io/gorm"
)

// ==================== ProductRepository 商品仓库 ====================

// ProductRepository 商品仓库接口
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	CreateBatch(ctx context.Context, products []model.Product) error
	// GetByIDAndShop 按 ID 查询并校验租户归属
	GetByIDAndShop(ctx context.Context, id, shopID int64) (*model.Product, error)
	List(ctx context.Context, shopID int64, page, pageSize int) ([]model.Product, int64, error)
	// ListTop 取店铺前 N 个商品，AI 回复拼 Prompt 用
	ListTop(ctx context.Context, shopID int64, limit int) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id, shopID int64, fields map[string]interface{}) error
	// Delete 软删除，条件里同样带 shop_id
	Delete(ctx context.Context, id, shopID int64) error
	CountByShop(ctx context.Context, shopID int64) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) CreateBatch(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(products, 100).Error
}

func (r *productRepository) GetByIDAndShop(ctx context.Context, id, shopID int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", id, shopID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, shopID int64, page, pageSize int) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Product{}).Where("shop_id = ?", shopID)

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
		Find(&products).Error

	return products, total, err
}

func (r *productRepository) ListTop(ctx context.Context, shopID int64, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepository) UpdateFields(ctx context.Context, id, shopID int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND shop_id = ?", id, shopID).
		Updates(fields).Error
}

func (r *productRepository) Delete(ctx context.Context, id, shopID int64) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", id, shopID).
		Delete(&model.Product{}).Error
}

func (r *productRepository) CountByShop(ctx context.Context, shopID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("shop_id = ?", shopID).
		Count(&count).Error
	return count, err
}
