package model

// ==================== 套餐常量 ====================

// 套餐名称
const (
	PlanTrial    = "trial"
	PlanStarter  = "starter"
	PlanPro      = "pro"
	PlanUltimate = "ultimate"
)

// 模型档位
const (
	ModelTierFlash = "flash" // 轻量模型
	ModelTierPro   = "pro"   // 高配模型
)

// ==================== Plan 套餐目录表 ====================

// Plan 套餐目录，供前端展示订阅页
// 能力限制不存库，见下方静态表
type Plan struct {
	BaseModel
	Name        string `gorm:"size:20;uniqueIndex;not null"`
	DisplayName string `gorm:"size:100"`
	Description string `gorm:"type:text"`

	// 月费（分为单位存储）
	PriceAmount int64
	Currency    string `gorm:"size:10;default:USD"`

	SortOrder int  `gorm:"default:0;index"`
	IsActive  bool `gorm:"default:true"`
}

func (Plan) TableName() string {
	return "plans"
}

// GetPrice 获取月费（元）
func (p *Plan) GetPrice() float64 {
	return float64(p.PriceAmount) / 100
}

// ==================== 套餐能力静态表 ====================

// PlanLimits 套餐能力限制
type PlanLimits struct {
	MaxShops       int    // 可建店铺数上限
	AIMessageQuota int    // 每月 AI 回复条数
	ModelTier      string // 可用模型档位
	Instagram      bool   // 是否开放 Instagram 渠道
}

// planLimitsTable 纯静态配置，请求时查表，无任何 I/O
var planLimitsTable = map[string]PlanLimits{
	PlanTrial:    {MaxShops: 1, AIMessageQuota: 50, ModelTier: ModelTierFlash, Instagram: false},
	PlanStarter:  {MaxShops: 1, AIMessageQuota: 500, ModelTier: ModelTierFlash, Instagram: false},
	PlanPro:      {MaxShops: 3, AIMessageQuota: 5000, ModelTier: ModelTierFlash, Instagram: true},
	PlanUltimate: {MaxShops: 10, AIMessageQuota: 50000, ModelTier: ModelTierPro, Instagram: true},
}

// LimitsFor 套餐名 -> 能力限制
// 未知或空套餐名一律按 trial 处理：回退方向必须是最严格档，不能反向放权
func LimitsFor(plan string) PlanLimits {
	if limits, ok := planLimitsTable[plan]; ok {
		return limits
	}
	return planLimitsTable[PlanTrial]
}

// MaxShops 套餐可建店铺数
func MaxShops(plan string) int {
	return LimitsFor(plan).MaxShops
}

// CanAddShop 当前店铺数下是否还能建店
func CanAddShop(plan string, currentCount int) bool {
	return currentCount < MaxShops(plan)
}

// CanUseInstagram 套餐是否开放 Instagram 渠道
func CanUseInstagram(plan string) bool {
	return LimitsFor(plan).Instagram
}

// AIQuota 套餐每月 AI 回复配额
func AIQuota(plan string) int {
	return LimitsFor(plan).AIMessageQuota
}

// ModelTier 套餐可用模型档位
func ModelTier(plan string) string {
	return LimitsFor(plan).ModelTier
}
