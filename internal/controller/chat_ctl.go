package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smarthub_v1_202601/internal/middleware"
	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/service"
)

// ChatController 聊天控制器
type ChatController struct {
	shopSvc      *service.ShopService
	chatSvc      *service.ChatService
	dashboardSvc *service.DashboardService
	limiter      *middleware.ReplyRateLimiter
}

// NewChatController 创建聊天控制器
func NewChatController(shopSvc *service.ShopService,
	chatSvc *service.ChatService,
	dashboardSvc *service.DashboardService) *ChatController {
	return &ChatController{
		shopSvc:      shopSvc,
		chatSvc:      chatSvc,
		dashboardSvc: dashboardSvc,
		limiter:      middleware.GetLimiter(),
	}
}

func (c *ChatController) resolveShop(ctx *gin.Context) (*model.Shop, bool) {
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

type replyRequest struct {
	CustomerID int64  `json:"customerId" binding:"required"`
	Message    string `json:"message" binding:"required,max=2000"`
}

// ==================== AI 回复 ====================

// Reply 生成 AI 回复
// 同一客户 2 秒冷却，配额按套餐月度额度核算
// POST /api/chat/reply
func (c *ChatController) Reply(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	var req replyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 冷却检查先于模型调用
	check := c.limiter.Check(middleware.ReplyKey(shop.ID, req.CustomerID), middleware.DefaultReplyInterval)
	if !check.Allowed {
		ctx.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "回复过于频繁，请稍后重试",
			"retry_after": fmt.Sprintf("%.1fs", check.RetryAfter.Seconds()),
		})
		return
	}

	result, err := c.chatSvc.GenerateReply(ctx, shop, req.CustomerID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCustomerNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAIQuotaExceeded):
			ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAINotConfigured):
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "AI 回复生成失败"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": result})
}

// ==================== 会话查询 ====================

// Conversations 活跃会话列表
// GET /api/chat/conversations
func (c *ChatController) Conversations(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	list, err := c.dashboardSvc.ActiveConversations(ctx, shop.ID, queryInt(ctx, "limit", 20))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "会话查询失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": list})
}

// History 单客户聊天记录，时间正序
// GET /api/chat/history?customerId=
func (c *ChatController) History(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	customerID, err := strconv.ParseInt(ctx.Query("customerId"), 10, 64)
	if err != nil || customerID <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的客户ID"})
		return
	}

	history, err := c.chatSvc.History(ctx, shop.ID, customerID, queryInt(ctx, "limit", 50))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "聊天记录查询失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": history})
}
