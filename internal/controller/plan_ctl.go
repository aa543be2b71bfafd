package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smarthub_v1_202601/internal/service"
)

// PlanController 套餐控制器
type PlanController struct {
	svc *service.PlanService
}

// NewPlanController 创建套餐控制器
func NewPlanController(svc *service.PlanService) *PlanController {
	return &PlanController{svc: svc}
}

// List 启用中的套餐列表，按 sort_order 升序
// 公开接口，给定价页用
// GET /api/subscription/plans
func (c *PlanController) List(ctx *gin.Context) {
	plans, err := c.svc.ListActive(ctx)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "套餐查询失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": plans})
}
