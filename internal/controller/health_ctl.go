package controller

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 健康检查关注的启动必需环境变量
var requiredEnvKeys = []string{
	"DATABASE_URL",
	"JWT_SECRET",
}

// HealthController 健康检查控制器
type HealthController struct {
	db        *gorm.DB
	version   string
	startedAt time.Time
}

// NewHealthController 创建健康检查控制器
func NewHealthController(db *gorm.DB, version string) *HealthController {
	return &HealthController{
		db:        db,
		version:   version,
		startedAt: time.Now(),
	}
}

// Health 健康检查
// 必需环境变量缺失或数据库不可达时报 503 degraded
// GET /api/health
func (c *HealthController) Health(ctx *gin.Context) {
	checks := gin.H{}
	healthy := true

	// 环境变量检查
	for _, key := range requiredEnvKeys {
		if os.Getenv(key) == "" {
			checks["env:"+key] = "missing"
			healthy = false
		} else {
			checks["env:"+key] = "ok"
		}
	}

	// 数据库连通性
	if sqlDB, err := c.db.DB(); err != nil || sqlDB.Ping() != nil {
		checks["database"] = "unreachable"
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	ctx.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   c.version,
		"uptime":    time.Since(c.startedAt).Round(time.Second).String(),
		"checks":    checks,
	})
}
