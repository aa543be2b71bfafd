package service

import (
	"context"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"
)

// ==================== PlanService 套餐服务 ====================

// PlanService 套餐目录服务
// 只读展示；能力判定直接查 model 静态表，不经过这里
type PlanService struct {
	planRepo repository.PlanRepository
}

// NewPlanService 创建套餐服务
func NewPlanService(planRepo repository.PlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

// PlanVO 套餐展示结构
type PlanVO struct {
	Name           string  `json:"name"`
	DisplayName    string  `json:"display_name"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	Currency       string  `json:"currency"`
	MaxShops       int     `json:"max_shops"`
	AIMessageQuota int     `json:"ai_message_quota"`
	ModelTier      string  `json:"model_tier"`
	Instagram      bool    `json:"instagram"`
}

// ListActive 启用中的套餐，按 sort_order 升序，附带静态能力表
func (s *PlanService) ListActive(ctx context.Context) ([]PlanVO, error) {
	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	vos := make([]PlanVO, len(plans))
	for i, p := range plans {
		limits := model.LimitsFor(p.Name)
		vos[i] = PlanVO{
			Name:           p.Name,
			DisplayName:    p.DisplayName,
			Description:    p.Description,
			Price:          p.GetPrice(),
			Currency:       p.Currency,
			MaxShops:       limits.MaxShops,
			AIMessageQuota: limits.AIMessageQuota,
			ModelTier:      limits.ModelTier,
			Instagram:      limits.Instagram,
		}
	}
	return vos, nil
}
