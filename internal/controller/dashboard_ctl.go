package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"smarthub_v1_202601/internal/middleware"
	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"
	"smarthub_v1_202601/internal/service"
)

// DashboardController 看板控制器
// 订单读写 + 统计聚合都挂在 /api/dashboard 下
type DashboardController struct {
	shopSvc      *service.ShopService
	orderSvc     *service.OrderService
	dashboardSvc *service.DashboardService
}

// NewDashboardController 创建看板控制器
func NewDashboardController(shopSvc *service.ShopService,
	orderSvc *service.OrderService,
	dashboardSvc *service.DashboardService) *DashboardController {
	return &DashboardController{
		shopSvc:      shopSvc,
		orderSvc:     orderSvc,
		dashboardSvc: dashboardSvc,
	}
}

// resolveShop 从认证身份 + 租户提示头解析店铺，失败统一 404
func (c *DashboardController) resolveShop(ctx *gin.Context) (*model.Shop, bool) {
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

type updateOrderStatusRequest struct {
	ID     int64  `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
}

type createOrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type createOrderRequest struct {
	CustomerID int64                    `json:"customer_id" binding:"required"`
	Note       string                   `json:"note"`
	Items      []createOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ==================== 订单 ====================

// ListOrders 订单列表，携带客户与订单项
// GET /api/dashboard/orders
func (c *DashboardController) ListOrders(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	filter := repository.OrderFilter{
		ShopID:   shop.ID,
		Status:   ctx.Query("status"),
		Page:     queryInt(ctx, "page", 1),
		PageSize: queryInt(ctx, "page_size", 50),
	}
	if v := ctx.Query("start_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := ctx.Query("end_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.EndDate = &t
		}
	}

	orders, total, err := c.orderSvc.List(ctx, filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "订单查询失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
	})
}

// UpdateOrderStatus 更新订单状态
// 先核订单归属再写，跨租户一律 404
// PATCH /api/dashboard/orders
func (c *DashboardController) UpdateOrderStatus(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := c.orderSvc.UpdateStatus(ctx, req.ID, shop.ID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderStatus):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrOrderNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "状态更新失败"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// CreateOrder 手工建单，订单与订单项同事务落库
// POST /api/dashboard/orders
func (c *DashboardController) CreateOrder(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := &service.CreateOrderInput{
		CustomerID: req.CustomerID,
		Note:       req.Note,
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, service.CreateOrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	order, err := c.orderSvc.Create(ctx, shop.ID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCustomerNotFound), errors.Is(err, service.ErrProductNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "订单创建失败"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"order":   order,
		"message": "订单创建成功",
	})
}

// ==================== 统计 ====================

// GetStats 首页统计卡片
// GET /api/dashboard/stats
func (c *DashboardController) GetStats(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	stats, err := c.dashboardSvc.GetStats(ctx, shop.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "统计查询失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": stats})
}

// GetReport 周期报表
// GET /api/dashboard/reports?period=today|week|month|year
func (c *DashboardController) GetReport(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	period := ctx.DefaultQuery("period", "today")

	report, err := c.dashboardSvc.GetReport(ctx, shop.ID, period)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "报表生成失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": report})
}

// ==================== 工具 ====================

// queryInt 解析查询参数为整数，缺省或非法回退默认值
func queryInt(ctx *gin.Context, key string, def int) int {
	v := ctx.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
