package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 调试接口允许透出的表，防任意表名注入
var debugTables = map[string]bool{
	"shops":              true,
	"customers":          true,
	"orders":             true,
	"order_items":        true,
	"products":           true,
	"chat_history":       true,
	"plans":              true,
	"push_subscriptions": true,
}

// DebugController 调试控制器
// 只在非生产环境注册路由，生产环境下这些路径天然 404
type DebugController struct {
	db *gorm.DB
}

// NewDebugController 创建调试控制器
func NewDebugController(db *gorm.DB) *DebugController {
	return &DebugController{db: db}
}

// Table 透视表数据，固定最多 50 行
// GET /api/debug/tables/:name
func (c *DebugController) Table(ctx *gin.Context) {
	name := ctx.Param("name")
	if !debugTables[name] {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "表不存在"})
		return
	}

	var rows []map[string]interface{}
	if err := c.db.WithContext(ctx).Table(name).Limit(50).Find(&rows).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"table": name,
		"count": len(rows),
		"rows":  rows,
	})
}

// Error 人为制造一次 500，验证错误链路与告警
// GET /api/debug/error
func (c *DebugController) Error(ctx *gin.Context) {
	err := fmt.Errorf("调试接口触发的测试错误")
	_ = ctx.Error(err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
