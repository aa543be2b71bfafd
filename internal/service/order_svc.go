package service

import (
	"context"
	"errors"
	"fmt"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"

	"gorm.io/gorm"
)

// ==================== 错误定义 ====================

var (
	// ErrOrderNotFound 订单不存在或不归属当前租户
	ErrOrderNotFound = errors.New("订单不存在")

	// ErrInvalidOrderStatus 状态取值不在六态枚举内
	ErrInvalidOrderStatus = errors.New("无效的订单状态")

	// ErrCustomerNotFound 客户不存在或不归属当前租户
	ErrCustomerNotFound = errors.New("客户不存在")
)

// ==================== 请求结构 ====================

// CreateOrderInput 创建订单入参
type CreateOrderInput struct {
	CustomerID int64
	Note       string
	Items      []CreateOrderItemInput
}

// CreateOrderItemInput 订单项入参
type CreateOrderItemInput struct {
	ProductID int64
	Quantity  int
}

// ==================== OrderService 订单服务 ====================

type OrderService struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
	}
}

// ==================== 查询 ====================

// List 订单列表，带客户与订单项.商品
func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int64, error) {
	return s.orderRepo.List(ctx, filter)
}

// GetByID 订单详情，shopID 必须是已解析的租户
func (s *OrderService) GetByID(ctx context.Context, id, shopID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByIDAndShopWithRelations(ctx, id, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ==================== 状态更新 ====================

// UpdateStatus 更新订单状态
// 先按 id+shop 读取确认归属：跨租户更新必须表现为"不存在"，
// 不能依赖 WHERE 过滤出 0 行后当成功处理
func (s *OrderService) UpdateStatus(ctx context.Context, id, shopID int64, status string) (*model.Order, error) {
	if !model.IsValidOrderStatus(status) {
		return nil, ErrInvalidOrderStatus
	}

	// 写前读：确认目标行确实归属当前租户
	if _, err := s.orderRepo.GetByIDAndShop(ctx, id, shopID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, shopID, status); err != nil {
		return nil, err
	}

	return s.orderRepo.GetByIDAndShopWithRelations(ctx, id, shopID)
}

// ==================== 创建 ====================

// Create 创建订单与订单项，单价取下单时商品快照
func (s *OrderService) Create(ctx context.Context, shopID int64, input *CreateOrderInput) (*model.Order, error) {
	// 客户归属核验
	if _, err := s.customerRepo.GetByIDAndShop(ctx, input.CustomerID, shopID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	if len(input.Items) == 0 {
		return nil, fmt.Errorf("订单至少需要一个订单项")
	}

	var total int64
	items := make([]model.OrderItem, 0, len(input.Items))
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("订单项数量必须大于 0")
		}
		// 商品归属核验 + 取价格快照
		product, err := s.productRepo.GetByIDAndShop(ctx, it.ProductID, shopID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("商品 %d: %w", it.ProductID, ErrProductNotFound)
			}
			return nil, err
		}

		items = append(items, model.OrderItem{
			ProductID:       product.ID,
			Quantity:        it.Quantity,
			UnitPriceAmount: product.PriceAmount,
			Currency:        product.Currency,
		})
		total += product.PriceAmount * int64(it.Quantity)
	}

	order := &model.Order{
		ShopID:      shopID,
		CustomerID:  input.CustomerID,
		Status:      model.OrderStatusPending,
		TotalAmount: total,
		Note:        input.Note,
	}

	if err := s.orderRepo.CreateWithItems(ctx, order, items); err != nil {
		return nil, err
	}

	return s.orderRepo.GetByIDAndShopWithRelations(ctx, order.ID, shopID)
}
