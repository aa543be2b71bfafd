package repository

import (
	"context"
	"time"

	"smarthub_v1_202601/internal/model"

	"gorm.io/gorm"
)

// ==================== 过滤条件 ====================

// OrderFilter 订单过滤条件
// ShopID 必填，由上层解析后传入，不接受客户端原值
type OrderFilter struct {
	ShopID     int64
	Status     string
	CustomerID int64
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}

// ==================== 聚合结果 ====================

// StatusCount 状态计数
type StatusCount struct {
	Status string
	Count  int64
}

// BestSellerRow 热销商品行
type BestSellerRow struct {
	ProductID int64
	Name      string
	Quantity  int64
	Revenue   int64 // 分
}

// DailyRevenueRow 按日营收行
// Day 为 DATE() 结果的 "2006-01-02" 字面量，跨库统一按字符串处理
type DailyRevenueRow struct {
	Day     string
	Revenue int64 // 分
	Orders  int64
}

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
// 每个方法都以 shop_id 为必带过滤条件
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	// CreateWithItems 创建订单与订单项，同一事务内完成
	CreateWithItems(ctx context.Context, order *model.Order, items []model.OrderItem) error
	// GetByIDAndShop 按 ID 查询并校验租户归属
	GetByIDAndShop(ctx context.Context, id, shopID int64) (*model.Order, error)
	GetByIDAndShopWithRelations(ctx context.Context, id, shopID int64) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, id, shopID int64, status string) error
	CountByShop(ctx context.Context, shopID int64, startDate, endDate time.Time) (int64, error)

	// 聚合查询
	SumRevenue(ctx context.Context, shopID int64, startDate, endDate time.Time) (int64, error)
	CountByStatus(ctx context.Context, shopID int64, startDate, endDate time.Time) ([]StatusCount, error)
	BestSellers(ctx context.Context, shopID int64, startDate, endDate time.Time, limit int) ([]BestSellerRow, error)
	DailyRevenue(ctx context.Context, shopID int64, startDate, endDate time.Time) ([]DailyRevenueRow, error)
	// ActiveCarts 进行中的订单（pending/confirmed），近似购物车视图
	ActiveCarts(ctx context.Context, shopID int64, limit int) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) CreateWithItems(ctx context.Context, order *model.Order, items []model.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.CreateInBatches(items, 100).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *orderRepository) GetByIDAndShop(ctx context.Context, id, shopID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", id, shopID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByIDAndShopWithRelations(ctx context.Context, id, shopID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Where("id = ? AND shop_id = ?", id, shopID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("shop_id = ?", filter.ShopID)

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CustomerID > 0 {
		db = db.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.StartDate != nil {
		db = db.Where("created_at >= ?", filter.StartDate)
	}
	if filter.EndDate != nil {
		db = db.Where("created_at <= ?", filter.EndDate)
	}

	// 计算总数
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	err := db.
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id, shopID int64, status string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND shop_id = ?", id, shopID).
		Update("status", status).Error
}

func (r *orderRepository) CountByShop(ctx context.Context, shopID int64, startDate, endDate time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("shop_id = ?", shopID).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Count(&count).Error
	return count, err
}

func (r *orderRepository) SumRevenue(ctx context.Context, shopID int64, startDate, endDate time.Time) (int64, error) {
	var result struct {
		Revenue int64
	}
	// 已取消订单不计营收
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("shop_id = ?", shopID).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Where("status <> ?", model.OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0) as revenue").
		Scan(&result).Error
	return result.Revenue, err
}

func (r *orderRepository) CountByStatus(ctx context.Context, shopID int64, startDate, endDate time.Time) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("shop_id = ?", shopID).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (r *orderRepository) BestSellers(ctx context.Context, shopID int64, startDate, endDate time.Time, limit int) ([]BestSellerRow, error) {
	var rows []BestSellerRow
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.shop_id = ?", shopID).
		Where("orders.created_at BETWEEN ? AND ?", startDate, endDate).
		Where("orders.status <> ?", model.OrderStatusCancelled).
		Select("order_items.product_id, products.name, " +
			"SUM(order_items.quantity) as quantity, " +
			"SUM(order_items.quantity * order_items.unit_price_amount) as revenue").
		Group("order_items.product_id, products.name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *orderRepository) DailyRevenue(ctx context.Context, shopID int64, startDate, endDate time.Time) ([]DailyRevenueRow, error) {
	var rows []DailyRevenueRow
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("shop_id = ?", shopID).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Where("status <> ?", model.OrderStatusCancelled).
		Select("DATE(created_at) as day, COALESCE(SUM(total_amount), 0) as revenue, COUNT(*) as orders").
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *orderRepository) ActiveCarts(ctx context.Context, shopID int64, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Where("shop_id = ?", shopID).
		Where("status IN ?", []string{model.OrderStatusPending, model.OrderStatusConfirmed}).
		Order("updated_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
