package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"

	"gorm.io/gorm"
)

// ==================== 错误定义 ====================

var (
	// ErrProductNotFound 商品不存在或不归属当前租户
	ErrProductNotFound = errors.New("商品不存在")
)

// ==================== 请求结构 ====================

// ProductInput 批量导入的商品条目
// Price 允许字符串/数字混传，前端表格导入数据不可控，这里统一强转
type ProductInput struct {
	Name        string      `json:"name"`
	Price       interface{} `json:"price"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Stock       interface{} `json:"stock"`
	Colors      []string    `json:"colors"`
	Sizes       []string    `json:"sizes"`
	Images      []string    `json:"images"`
}

// ==================== ProductService 商品服务 ====================

type ProductService struct {
	productRepo repository.ProductRepository
	shopRepo    repository.ShopRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, shopRepo repository.ShopRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		shopRepo:    shopRepo,
	}
}

// ==================== 批量导入 ====================

// BatchCreate 批量导入商品
// 缺 name 或价格不可解析的条目直接丢弃，只入库合法行；
// 只要成功导入至少一条，就把店铺标记为 setup_completed
func (s *ProductService) BatchCreate(ctx context.Context, shopID int64, inputs []ProductInput) ([]model.Product, error) {
	products := make([]model.Product, 0, len(inputs))

	for _, in := range inputs {
		priceCents, ok := coercePriceCents(in.Price)
		if in.Name == "" || !ok {
			// 非法条目：跳过，不中断整批
			continue
		}

		productType := in.Type
		if productType == "" {
			productType = model.ProductTypePhysical
		}

		p := model.Product{
			ShopID:      shopID,
			Name:        in.Name,
			Description: in.Description,
			Type:        productType,
			PriceAmount: priceCents,
			Colors:      in.Colors,
			Sizes:       in.Sizes,
		}

		// 服务类商品不记库存
		if productType != model.ProductTypeService {
			if stock, ok := coerceInt(in.Stock); ok {
				p.Stock = &stock
			}
		}

		if len(in.Images) > 0 {
			if raw, err := json.Marshal(in.Images); err == nil {
				p.Images = raw
			}
		}

		products = append(products, p)
	}

	if len(products) == 0 {
		return products, nil
	}

	if err := s.productRepo.CreateBatch(ctx, products); err != nil {
		return nil, err
	}

	// 首次导入即视为完成初始化引导
	if err := s.shopRepo.UpdateFields(ctx, shopID, map[string]interface{}{
		"setup_completed": true,
	}); err != nil {
		return nil, err
	}

	return products, nil
}

// ==================== 常规 CRUD ====================

// List 商品列表
func (s *ProductService) List(ctx context.Context, shopID int64, page, pageSize int) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, shopID, page, pageSize)
}

// Update 更新商品，写前读确认归属
func (s *ProductService) Update(ctx context.Context, id, shopID int64, fields map[string]interface{}) (*model.Product, error) {
	if _, err := s.productRepo.GetByIDAndShop(ctx, id, shopID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if err := s.productRepo.UpdateFields(ctx, id, shopID, fields); err != nil {
		return nil, err
	}
	return s.productRepo.GetByIDAndShop(ctx, id, shopID)
}

// Delete 删除商品，写前读确认归属
func (s *ProductService) Delete(ctx context.Context, id, shopID int64) error {
	if _, err := s.productRepo.GetByIDAndShop(ctx, id, shopID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return s.productRepo.Delete(ctx, id, shopID)
}

// ==================== 数值强转 ====================

// CoercePriceCents 导出的价格强转，控制器校验单条更新时用
func CoercePriceCents(v interface{}) (int64, bool) {
	return coercePriceCents(v)
}

// coercePriceCents 把任意形态的价格转成分
// 支持 float64 (JSON number)、字符串数字；负数与垃圾值视为非法
func coercePriceCents(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case float64:
		if val < 0 {
			return 0, false
		}
		return int64(val*100 + 0.5), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return 0, false
		}
		return int64(f*100 + 0.5), true
	case json.Number:
		f, err := val.Float64()
		if err != nil || f < 0 {
			return 0, false
		}
		return int64(f*100 + 0.5), true
	default:
		return 0, false
	}
}

// coerceInt 把任意形态的整数值转成 int
func coerceInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, false
		}
		return n, true
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
