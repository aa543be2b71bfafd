package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smarthub_v1_202601/internal/middleware"
	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/service"
)

// NotificationController 推送订阅控制器
type NotificationController struct {
	shopSvc *service.ShopService
	svc     *service.NotificationService
}

// NewNotificationController 创建推送订阅控制器
func NewNotificationController(shopSvc *service.ShopService, svc *service.NotificationService) *NotificationController {
	return &NotificationController{shopSvc: shopSvc, svc: svc}
}

func (c *NotificationController) resolveShop(ctx *gin.Context) (*model.Shop, bool) {
	shop, err := c.shopSvc.ResolveShop(ctx, middleware.GetIdentity(ctx), middleware.GetShopHint(ctx))
	if err != nil {
		if errors.Is(err, service.ErrShopNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "店铺解析失败"})
		}
		return nil, false
	}
	return shop, true
}

// ==================== 请求结构 ====================

// subscribeRequest 浏览器 PushSubscription 序列化结构
type subscribeRequest struct {
	Endpoint string                 `json:"endpoint" binding:"required"`
	Keys     map[string]interface{} `json:"keys" binding:"required"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// ==================== 订阅管理 ====================

// Subscribe 登记推送订阅，同 endpoint 幂等覆盖
// POST /api/notifications/subscribe
func (c *NotificationController) Subscribe(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	var req subscribeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := c.svc.Subscribe(ctx, shop.ID, req.Endpoint, req.Keys, ctx.GetHeader("User-Agent"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "订阅保存失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":    gin.H{"id": sub.ID},
		"message": "订阅成功",
	})
}

// Unsubscribe 解除推送订阅
// DELETE /api/notifications/subscribe
func (c *NotificationController) Unsubscribe(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	var req unsubscribeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.svc.Unsubscribe(ctx, shop.ID, req.Endpoint); err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "取消订阅失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "已取消订阅"})
}
