package repository

import (
	"context"

	"smarthub_v1_202601/internal/model"

	"gorm.io/gorm"
)

// ==================== PlanRepository 套餐目录仓库 ====================

// PlanRepository 套餐目录仓库接口
// 目录只读展示，能力限制查 model 静态表，不在此处
type PlanRepository interface {
	// ListActive 启用中的套餐，按 sort_order 升序
	ListActive(ctx context.Context) ([]model.Plan, error)
	GetByName(ctx context.Context, name string) (*model.Plan, error)
	Create(ctx context.Context, plan *model.Plan) error
}

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository 创建套餐目录仓库
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) ListActive(ctx context.Context) ([]model.Plan, error) {
	var plans []model.Plan
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Find(&plans).Error
	return plans, err
}

func (r *planRepository) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) Create(ctx context.Context, plan *model.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}
