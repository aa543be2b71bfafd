package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smarthub_v1_202601/internal/middleware"
	"smarthub_v1_202601/internal/service"
)

// AuthController 账号控制器
type AuthController struct {
	svc *service.AuthService
}

// NewAuthController 创建账号控制器
func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{svc: svc}
}

// ==================== 请求结构 ====================

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ==================== 注册 / 登录 ====================

// Register 注册商户账号
// POST /api/auth/register
func (c *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := c.svc.Register(ctx, req.Username, req.Password, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "注册失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"identity": user.ExternalID,
			"username": user.Username,
		},
		"message": "注册成功",
	})
}

// Login 登录换取 Token
// POST /api/auth/login
func (c *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := c.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": pair})
}

// Me 当前登录用户信息
// GET /api/auth/me
func (c *AuthController) Me(ctx *gin.Context) {
	identity := middleware.GetIdentity(ctx)

	user, err := c.svc.GetByIdentity(ctx, identity)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"identity": user.ExternalID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}
