package model

import (
	"time"
)

// Shop 店铺（租户）
// 每个 Shop 归属唯一的 OwnerID（认证身份标识），所有业务数据以 shop_id 隔离
type Shop struct {
	BaseModel
	// 1. 核心身份
	Name    string `gorm:"size:100;not null"`
	OwnerID string `gorm:"size:64;index;not null"` // 归属用户的 ExternalID

	// 2. Facebook / Instagram 绑定
	FacebookPageID          string     `gorm:"size:64;index"`
	FacebookPageAccessToken string     `gorm:"size:512"`
	TokenExpiresAt          *time.Time // Page Token 过期时间点，周期任务按此换新
	InstagramID             string     `gorm:"size:64"`

	// 3. 状态
	// 店铺从不物理删除，只打软标记
	IsActive       bool `gorm:"default:true"`
	SetupCompleted bool `gorm:"default:false"` // 首次导入商品后置 true

	// 4. 订阅套餐
	Plan string `gorm:"size:20;default:'trial'"`

	// 关联
	Products  []Product  `gorm:"foreignKey:ShopID"`
	Customers []Customer `gorm:"foreignKey:ShopID"`
}

func (Shop) TableName() string {
	return "shops"
}

// HasPageBound 是否已绑定 Facebook 主页
func (s *Shop) HasPageBound() bool {
	return s.FacebookPageID != "" && s.FacebookPageAccessToken != ""
}

// TokenExpiringWithin Token 是否在给定时长内过期
func (s *Shop) TokenExpiringWithin(d time.Duration) bool {
	if s.TokenExpiresAt == nil {
		return false
	}
	return time.Until(*s.TokenExpiresAt) < d
}
