package service

import (
	"context"
	"errors"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"

	"gorm.io/gorm"
)

// ==================== 错误定义 ====================

var (
	// ErrShopNotFound 身份名下无店铺，或租户提示与归属不符
	// 对外一律表现为 404，不区分"不存在"与"无权限"
	ErrShopNotFound = errors.New("店铺不存在")

	// ErrShopLimitReached 套餐店铺数已达上限
	ErrShopLimitReached = errors.New("当前套餐店铺数已达上限")
)

// ==================== ShopService 店铺服务 ====================

type ShopService struct {
	shopRepo repository.ShopRepository
}

// NewShopService 创建店铺服务
func NewShopService(shopRepo repository.ShopRepository) *ShopService {
	return &ShopService{shopRepo: shopRepo}
}

// ==================== 租户解析 ====================

// ResolveShop 把认证身份解析为其名下店铺
// hintID 为前端携带的租户提示（X-Shop-ID），非零时按 id+owner 双条件查询：
// 提示头永远不能未经归属核对就切换租户上下文
// 身份名下无店铺时返回 ErrShopNotFound，绝不回退到任何默认店铺
func (s *ShopService) ResolveShop(ctx context.Context, identity string, hintID int64) (*model.Shop, error) {
	if identity == "" {
		return nil, ErrShopNotFound
	}

	var shop *model.Shop
	var err error

	if hintID > 0 {
		shop, err = s.shopRepo.GetByIDAndOwner(ctx, hintID, identity)
	} else {
		shop, err = s.shopRepo.FirstByOwner(ctx, identity)
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return shop, nil
}

// SwitchShop 切换店铺前的归属核验
// "当前店铺"状态由前端持有，服务端只负责确认归属并返回店铺
func (s *ShopService) SwitchShop(ctx context.Context, identity string, shopID int64) (*model.Shop, error) {
	shop, err := s.shopRepo.GetByIDAndOwner(ctx, shopID, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return shop, nil
}

// ListShops 列出身份名下全部店铺
func (s *ShopService) ListShops(ctx context.Context, identity string) ([]model.Shop, error) {
	return s.shopRepo.ListByOwner(ctx, identity)
}

// ==================== 建店与设置 ====================

// CreateShop 建店，受套餐店铺数上限约束
// 新店继承名下既有店铺的套餐；首家店按 trial 建
func (s *ShopService) CreateShop(ctx context.Context, identity, name string) (*model.Shop, error) {
	plan := model.PlanTrial
	if existing, err := s.shopRepo.FirstByOwner(ctx, identity); err == nil {
		plan = existing.Plan
	}

	count, err := s.shopRepo.CountByOwner(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !model.CanAddShop(plan, int(count)) {
		return nil, ErrShopLimitReached
	}

	shop := &model.Shop{
		Name:     name,
		OwnerID:  identity,
		IsActive: true,
		Plan:     plan,
	}
	if err := s.shopRepo.Create(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// UpdateSettings 更新店铺设置，先核归属再改
func (s *ShopService) UpdateSettings(ctx context.Context, identity string, shopID int64, fields map[string]interface{}) (*model.Shop, error) {
	shop, err := s.shopRepo.GetByIDAndOwner(ctx, shopID, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}

	if err := s.shopRepo.UpdateFields(ctx, shop.ID, fields); err != nil {
		return nil, err
	}
	return s.shopRepo.GetByID(ctx, shop.ID)
}
