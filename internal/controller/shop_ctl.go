package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smarthub_v1_202601/internal/middleware"
	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/service"
)

// ShopController 店铺控制器
type ShopController struct {
	svc *service.ShopService
}

// NewShopController 创建店铺控制器
func NewShopController(svc *service.ShopService) *ShopController {
	return &ShopController{svc: svc}
}

// ==================== 请求结构 ====================

type switchShopRequest struct {
	ShopID int64 `json:"shopId" binding:"required"`
}

type createShopRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type updateSettingsRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// shopVO 店铺视图，不下发 Page Access Token
type shopVO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Plan           string `json:"plan"`
	IsActive       bool   `json:"is_active"`
	SetupCompleted bool   `json:"setup_completed"`
	PageBound      bool   `json:"page_bound"`
	InstagramBound bool   `json:"instagram_bound"`
}

func toShopVO(s *model.Shop) shopVO {
	return shopVO{
		ID:             s.ID,
		Name:           s.Name,
		Plan:           s.Plan,
		IsActive:       s.IsActive,
		SetupCompleted: s.SetupCompleted,
		PageBound:      s.HasPageBound(),
		InstagramBound: s.InstagramID != "",
	}
}

// ==================== 店铺操作 ====================

// List 当前用户的店铺列表
// GET /api/user/shops
func (c *ShopController) List(ctx *gin.Context) {
	identity := middleware.GetIdentity(ctx)

	shops, err := c.svc.ListShops(ctx, identity)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "店铺列表查询失败"})
		return
	}

	list := make([]shopVO, len(shops))
	for i := range shops {
		list[i] = toShopVO(&shops[i])
	}

	ctx.JSON(http.StatusOK, gin.H{"data": list})
}

// SwitchShop 切换活跃店铺
// 服务端不保存活跃店铺，只核验归属后回发店铺信息，前端据此更新租户提示头
// POST /api/user/switch-shop
func (c *ShopController) SwitchShop(ctx *gin.Context) {
	var req switchShopRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := middleware.GetIdentity(ctx)

	shop, err := c.svc.SwitchShop(ctx, identity, req.ShopID)
	if err != nil {
		if errors.Is(err, service.ErrShopNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "店铺切换失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":    toShopVO(shop),
		"message": "店铺已切换",
	})
}

// Create 创建店铺，受套餐店铺数上限约束
// POST /api/user/shops
func (c *ShopController) Create(ctx *gin.Context) {
	var req createShopRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := middleware.GetIdentity(ctx)

	shop, err := c.svc.CreateShop(ctx, identity, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrShopLimitReached) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "店铺创建失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":    toShopVO(shop),
		"message": "店铺创建成功",
	})
}

// UpdateSettings 更新店铺设置
// PATCH /api/shop/settings
func (c *ShopController) UpdateSettings(ctx *gin.Context) {
	var req updateSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "没有可更新的字段"})
		return
	}

	identity := middleware.GetIdentity(ctx)

	// 先按租户提示解析出店铺，再按归属更新
	current, err := c.svc.ResolveShop(ctx, identity, middleware.GetShopHint(ctx))
	if err != nil {
		if errors.Is(err, service.ErrShopNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "店铺解析失败"})
		return
	}

	shop, err := c.svc.UpdateSettings(ctx, identity, current.ID, fields)
	if err != nil {
		if errors.Is(err, service.ErrShopNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "设置保存失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":    toShopVO(shop),
		"message": "设置已保存",
	})
}
