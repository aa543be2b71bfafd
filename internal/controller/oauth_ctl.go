package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smarthub_v1_202601/internal/middleware"
	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/service"
)

// OAuthController 渠道授权控制器
type OAuthController struct {
	shopSvc *service.ShopService
	svc     *service.OAuthService
}

// NewOAuthController 创建授权控制器
func NewOAuthController(shopSvc *service.ShopService, svc *service.OAuthService) *OAuthController {
	return &OAuthController{shopSvc: shopSvc, svc: svc}
}

func (c *OAuthController) resolveShop(ctx *gin.Context) (*model.Shop, bool) {
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

// ==================== 授权链接 ====================

// FacebookAuth 生成 Facebook 授权链接
// GET /api/auth/facebook
func (c *OAuthController) FacebookAuth(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	authURL, err := c.svc.BuildFacebookAuthURL(middleware.GetIdentity(ctx), shop)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "授权链接生成失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"auth_url": authURL}})
}

// InstagramAuth 生成 Instagram 授权链接，套餐门控
// GET /api/auth/instagram
func (c *OAuthController) InstagramAuth(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	authURL, err := c.svc.BuildInstagramAuthURL(middleware.GetIdentity(ctx), shop)
	if err != nil {
		if errors.Is(err, service.ErrInstagramNotAllowed) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "授权链接生成失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"auth_url": authURL}})
}

// ==================== 回调 ====================

// FacebookCallback 处理 Facebook 授权回调
// 浏览器重定向携带会话 Cookie 进来，state 与发起身份必须一致
// GET /api/auth/facebook/callback
func (c *OAuthController) FacebookCallback(ctx *gin.Context) {
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少 code 或 state 参数"})
		return
	}

	shop, err := c.svc.HandleFacebookCallback(ctx, middleware.GetIdentity(ctx), code, state)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOAuthStateInvalid):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrShopNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "授权处理失败"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":    toShopVO(shop),
		"message": "主页绑定成功",
	})
}
