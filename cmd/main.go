package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smarthub_v1_202601/internal/controller"
	"smarthub_v1_202601/internal/middleware"
	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"
	"smarthub_v1_202601/internal/router"
	"smarthub_v1_202601/internal/service"
	"smarthub_v1_202601/internal/task"
	"smarthub_v1_202601/pkg/database"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Version 构建版本，发布时由 ldflags 注入
var Version = "dev"

func main() {
	// 1. 会话配置
	initSession()

	// 2. 初始化数据库
	db := initDatabase()

	// 3. 初始化依赖
	deps := initDependencies(db)

	// 4. 套餐目录种子数据
	seedPlans(db, deps.Repos.Plan)

	// 5. 启动定时任务
	initTasks(deps)

	// 6. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 7. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	User     repository.UserRepository
	Shop     repository.ShopRepository
	Customer repository.CustomerRepository
	Order    repository.OrderRepository
	Product  repository.ProductRepository
	Chat     repository.ChatRepository
	Plan     repository.PlanRepository
	Push     repository.PushSubscriptionRepository
}

// Services 服务集合
type Services struct {
	Auth         *service.AuthService
	Shop         *service.ShopService
	Order        *service.OrderService
	Product      *service.ProductService
	Dashboard    *service.DashboardService
	Chat         *service.ChatService
	OAuth        *service.OAuthService
	Plan         *service.PlanService
	Notification *service.NotificationService
	Storage      *service.StorageService
}

// ==================== 初始化函数 ====================

// initSession 初始化会话签名配置
func initSession() {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg := middleware.DefaultSessionConfig()
		cfg.SecretKey = secret
		middleware.SetSessionConfig(cfg)
	}
}

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=smarthub port=5432 sslmode=disable")
	return database.InitDB(dsn,
		// Account
		&model.SysUser{},
		// Tenant
		&model.Shop{},
		// Commerce
		&model.Customer{}, &model.Order{}, &model.OrderItem{}, &model.Product{},
		// Chat
		&model.ChatHistory{},
		// Billing
		&model.Plan{},
		// Push
		&model.PushSubscription{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 存储服务 --------
	storageSvc := initStorageService()

	// -------- 业务服务 --------
	services := &Services{
		Storage: storageSvc,
	}

	services.Auth = service.NewAuthService(repos.User)
	services.Shop = service.NewShopService(repos.Shop)
	services.Order = service.NewOrderService(repos.Order, repos.Customer, repos.Product)
	services.Product = service.NewProductService(repos.Product, repos.Shop)
	services.Dashboard = service.NewDashboardService(repos.Order, repos.Customer, repos.Chat)
	services.Chat = service.NewChatService(&service.ChatAIConfig{
		ApiKey: getEnv("GEMINI_API_KEY", ""),
	}, repos.Chat, repos.Customer, repos.Product)
	services.OAuth = service.NewOAuthService(&service.OAuthConfig{
		FacebookAppID:     getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret: getEnv("FACEBOOK_APP_SECRET", ""),
		CallbackURL:       getEnv("FACEBOOK_CALLBACK_URL", ""),
	}, repos.Shop)
	services.Plan = service.NewPlanService(repos.Plan)
	services.Notification = service.NewNotificationService(repos.Push)

	// -------- Controller 层 --------
	controllers := initControllers(db, services)

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     repository.NewUserRepository(db),
		Shop:     repository.NewShopRepository(db),
		Customer: repository.NewCustomerRepository(db),
		Order:    repository.NewOrderRepository(db),
		Product:  repository.NewProductRepository(db),
		Chat:     repository.NewChatRepository(db),
		Plan:     repository.NewPlanRepository(db),
		Push:     repository.NewPushSubscriptionRepository(db),
	}
}

// initStorageService 初始化存储服务
func initStorageService() *service.StorageService {
	storageSvc, err := service.NewStorageService(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "s3"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		CDNDomain: getEnv("AWS_CDN_DOMAIN", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "smarthub"),
		LocalDir:  getEnv("STORAGE_LOCAL_DIR", "./uploads"),
		LocalBase: getEnv("STORAGE_LOCAL_BASE", "/uploads"),
	})
	if err != nil {
		log.Printf("警告: 存储服务初始化失败: %v", err)
		return nil
	}
	return storageSvc
}

// initControllers 初始化所有控制器
func initControllers(db *gorm.DB, svc *Services) *router.Controllers {
	productCtl := controller.NewProductController(svc.Shop, svc.Product)
	if svc.Storage != nil {
		productCtl.SetStorageService(svc.Storage)
	}

	ctls := &router.Controllers{
		Auth:         controller.NewAuthController(svc.Auth),
		OAuth:        controller.NewOAuthController(svc.Shop, svc.OAuth),
		Shop:         controller.NewShopController(svc.Shop),
		Dashboard:    controller.NewDashboardController(svc.Shop, svc.Order, svc.Dashboard),
		Product:      productCtl,
		Chat:         controller.NewChatController(svc.Shop, svc.Chat, svc.Dashboard),
		Plan:         controller.NewPlanController(svc.Plan),
		Notification: controller.NewNotificationController(svc.Shop, svc.Notification),
		Health:       controller.NewHealthController(db, Version),
	}

	// 调试路由只在非生产环境开放
	if getEnv("APP_ENV", "development") != "production" {
		ctls.Debug = controller.NewDebugController(db)
	}

	return ctls
}

// ==================== 种子数据 ====================

// seedPlans 套餐目录兜底数据，已存在则跳过
func seedPlans(db *gorm.DB, planRepo repository.PlanRepository) {
	defaults := []model.Plan{
		{Name: model.PlanTrial, DisplayName: "体验版", Description: "试用套餐", PriceAmount: 0, Currency: "USD", SortOrder: 1, IsActive: true},
		{Name: model.PlanStarter, DisplayName: "入门版", Description: "单店小商户", PriceAmount: 1900, Currency: "USD", SortOrder: 2, IsActive: true},
		{Name: model.PlanPro, DisplayName: "专业版", Description: "多店 + Instagram 渠道", PriceAmount: 4900, Currency: "USD", SortOrder: 3, IsActive: true},
		{Name: model.PlanUltimate, DisplayName: "旗舰版", Description: "大客户定制额度", PriceAmount: 19900, Currency: "USD", SortOrder: 4, IsActive: true},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, p := range defaults {
		if _, err := planRepo.GetByName(ctx, p.Name); err == nil {
			continue
		}
		plan := p
		if err := planRepo.Create(ctx, &plan); err != nil {
			log.Printf("警告: 套餐 [%s] 种子写入失败: %v", p.Name, err)
		}
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	// Page Token 续期
	tokenTask := task.NewTokenTask(
		deps.Repos.Shop,
		deps.Services.OAuth,
	)
	tokenTask.Start()

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
