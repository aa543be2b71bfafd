package router

import (
	"github.com/gin-gonic/gin"

	"smarthub_v1_202601/internal/controller"
	"smarthub_v1_202601/internal/middleware"
)

// Controllers 路由需要的全部控制器
type Controllers struct {
	Auth         *controller.AuthController
	OAuth        *controller.OAuthController
	Shop         *controller.ShopController
	Dashboard    *controller.DashboardController
	Product      *controller.ProductController
	Chat         *controller.ChatController
	Plan         *controller.PlanController
	Notification *controller.NotificationController
	Health       *controller.HealthController
	Debug        *controller.DebugController // 生产环境传 nil，不注册调试路由
}

// SetupRouter 创建引擎并完成路由注册
func SetupRouter(ctls *Controllers) *gin.Engine {
	r := gin.Default()
	InitRoutes(r, ctls)
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctls *Controllers) {
	api := r.Group("/api")

	// ==================== 公开路由 ====================

	// GET /api/health
	api.GET("/health", ctls.Health.Health)

	// GET /api/subscription/plans
	api.GET("/subscription/plans", ctls.Plan.List)

	// auth 注册登录
	auth := api.Group("/auth")
	{
		// POST /api/auth/register
		auth.POST("/register", ctls.Auth.Register)
		// POST /api/auth/login
		auth.POST("/login", ctls.Auth.Login)
	}

	// 调试路由只在非生产环境注册，生产环境天然 404
	if ctls.Debug != nil {
		debug := api.Group("/debug")
		{
			debug.GET("/tables/:name", ctls.Debug.Table)
			debug.GET("/error", ctls.Debug.Error)
		}
	}

	// ==================== 会话保护路由 ====================

	authed := api.Group("", middleware.SessionAuth())
	{
		// GET /api/auth/me
		authed.GET("/auth/me", ctls.Auth.Me)

		// 渠道授权：回调靠会话 Cookie 过中间件
		authed.GET("/auth/facebook", ctls.OAuth.FacebookAuth)
		authed.GET("/auth/instagram", ctls.OAuth.InstagramAuth)
		authed.GET("/auth/facebook/callback", ctls.OAuth.FacebookCallback)

		// user 账号与店铺
		user := authed.Group("/user")
		{
			user.GET("/shops", ctls.Shop.List)
			user.POST("/shops", ctls.Shop.Create)
			user.POST("/switch-shop", ctls.Shop.SwitchShop)
		}

		// dashboard 看板
		dashboard := authed.Group("/dashboard")
		{
			dashboard.GET("/orders", ctls.Dashboard.ListOrders)
			dashboard.POST("/orders", ctls.Dashboard.CreateOrder)
			dashboard.PATCH("/orders", ctls.Dashboard.UpdateOrderStatus)
			dashboard.GET("/stats", ctls.Dashboard.GetStats)
			dashboard.GET("/reports", ctls.Dashboard.GetReport)
		}

		// shop 店铺侧资源
		shop := authed.Group("/shop")
		{
			shop.GET("/products", ctls.Product.List)
			shop.POST("/products", ctls.Product.BatchCreate)
			shop.PUT("/products", ctls.Product.Update)
			shop.DELETE("/products", ctls.Product.Delete)
			shop.POST("/products/images", ctls.Product.UploadImage)
			shop.PATCH("/settings", ctls.Shop.UpdateSettings)
		}

		// chat 聊天
		chat := authed.Group("/chat")
		{
			chat.POST("/reply", ctls.Chat.Reply)
			chat.GET("/conversations", ctls.Chat.Conversations)
			chat.GET("/history", ctls.Chat.History)
		}

		// notifications 推送订阅
		notifications := authed.Group("/notifications")
		{
			notifications.POST("/subscribe", ctls.Notification.Subscribe)
			notifications.DELETE("/subscribe", ctls.Notification.Unsubscribe)
		}
	}
}
