package model

import (
	"time"
)

// Customer 店铺客户
// 首次进线（聊天/下单）时创建，归属唯一店铺
type Customer struct {
	BaseModel
	// 联合唯一索引：同一店铺内一个 Messenger 身份只建一条客户
	ShopID int64 `gorm:"index;uniqueIndex:idx_shop_fbid;not null"`

	// 联系方式
	Name       string `gorm:"size:100"`
	Phone      string `gorm:"size:32;index"`
	FacebookID string `gorm:"size:64;uniqueIndex:idx_shop_fbid"` // Messenger PSID

	// 运营标记
	IsVIP      bool `gorm:"default:false"`
	LastSeenAt *time.Time

	// 关联
	Orders []Order `gorm:"foreignKey:CustomerID"`
}

func (Customer) TableName() string {
	return "customers"
}
