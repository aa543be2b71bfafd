package service

import (
	"context"
	"errors"

	"smarthub_v1_202601/internal/middleware"
	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ==================== 错误定义 ====================

var (
	// ErrInvalidCredentials 用户名或密码错误/账号停用
	// 统一报错文案，不区分具体原因
	ErrInvalidCredentials = errors.New("用户名或密码错误")

	// ErrUsernameTaken 用户名已注册
	ErrUsernameTaken = errors.New("用户名已被占用")
)

// ==================== AuthService 认证服务 ====================

type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// TokenPair 登录结果
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Identity     string `json:"identity"`
}

// ==================== 注册 / 登录 ====================

// Register 注册商户账号
// ExternalID 在此签发，此后作为全系统的身份标识，店铺归属都挂它
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*model.SysUser, error) {
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.SysUser{
		ExternalID: "usr_" + uuid.NewString(),
		Username:   username,
		Password:   string(hash),
		Email:      email,
		Role:       "merchant",
		IsActive:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 登录，签发 Access/Refresh Token 对
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, refresh, err := middleware.GenerateTokenPair(user.ExternalID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		Identity:     user.ExternalID,
	}, nil
}

// GetByIdentity 按身份标识取用户
func (s *AuthService) GetByIdentity(ctx context.Context, identity string) (*model.SysUser, error) {
	return s.userRepo.GetByExternalID(ctx, identity)
}
