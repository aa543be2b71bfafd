package model

import (
	"time"
)

// ==================== 订单状态常量 ====================

// OrderStatus 订单状态，固定六态
const (
	OrderStatusPending    = "pending"    // 待确认
	OrderStatusConfirmed  = "confirmed"  // 已确认
	OrderStatusProcessing = "processing" // 处理中
	OrderStatusShipped    = "shipped"    // 已发货
	OrderStatusDelivered  = "delivered"  // 已送达
	OrderStatusCancelled  = "cancelled"  // 已取消
)

// AllOrderStatuses 按固定顺序列出全部状态
// 状态直方图必须包含全部六个 key，即使计数为 0
var AllOrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValidOrderStatus 校验状态取值
func IsValidOrderStatus(status string) bool {
	for _, s := range AllOrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ==================== Order 订单主表 ====================

// Order 订单
type Order struct {
	BaseModel
	ShopID     int64 `gorm:"index;not null"`
	CustomerID int64 `gorm:"index;not null"`

	// 状态
	Status string `gorm:"size:32;index;default:pending"`

	// 金额（分为单位存储）
	TotalAmount int64
	Currency    string `gorm:"size:10;default:USD"`

	// 备注
	Note string `gorm:"type:text"`

	// 时间
	ConfirmedAt *time.Time
	DeliveredAt *time.Time

	// 关联
	Customer *Customer   `gorm:"foreignKey:CustomerID"`
	Items    []OrderItem `gorm:"foreignKey:OrderID"`
}

func (*Order) TableName() string {
	return "orders"
}

// GetTotal 获取总金额（元）
func (o *Order) GetTotal() float64 {
	return float64(o.TotalAmount) / 100
}

// CanCancel 是否可以取消
func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// IsFinished 是否已终结（送达或取消）
func (o *Order) IsFinished() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

// ==================== OrderItem 订单项 ====================

// OrderItem 订单项，单价为下单时快照
type OrderItem struct {
	BaseModel
	OrderID   int64 `gorm:"index;not null"`
	ProductID int64 `gorm:"index;not null"`

	Quantity        int `gorm:"default:1"`
	UnitPriceAmount int64
	Currency        string `gorm:"size:10"`

	// 关联
	Product *Product `gorm:"foreignKey:ProductID"`
}

func (*OrderItem) TableName() string {
	return "order_items"
}

// GetUnitPrice 获取单价（元）
func (i *OrderItem) GetUnitPrice() float64 {
	return float64(i.UnitPriceAmount) / 100
}

// GetSubtotal 获取小计（元）
func (i *OrderItem) GetSubtotal() float64 {
	return float64(i.UnitPriceAmount*int64(i.Quantity)) / 100
}
