package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ProductType 商品类型
const (
	ProductTypePhysical = "physical" // 实物商品，有库存
	ProductTypeService  = "service"  // 服务类商品，无库存概念
)

// Product 商品
type Product struct {
	BaseModel
	ShopID int64 `gorm:"index;not null"`

	// 基础信息
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Type        string `gorm:"size:20;default:'physical'"`

	// 价格（分为单位存储）
	PriceAmount int64  `gorm:"not null"`
	Currency    string `gorm:"size:10;default:USD"`

	// 库存，服务类商品为 NULL
	Stock *int

	// 规格（PostgreSQL text[]）
	Colors pq.StringArray `gorm:"type:text[]"`
	Sizes  pq.StringArray `gorm:"type:text[]"`

	// 图片 URL 列表（PostgreSQL JSONB）
	Images datatypes.JSON `gorm:"type:jsonb"`
}

func (*Product) TableName() string {
	return "products"
}

// GetPrice 获取单价（元）
func (p *Product) GetPrice() float64 {
	return float64(p.PriceAmount) / 100
}

// InStock 是否有库存
// 服务类商品（Stock 为 NULL）视为始终可售
func (p *Product) InStock() bool {
	if p.Stock == nil {
		return true
	}
	return *p.Stock > 0
}
