package task

import (
	"context"
	"log"
	"sync"
	"time"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"
	"smarthub_v1_202601/internal/service"

	"github.com/robfig/cron/v3"
)

// TokenTask Facebook Page Token 续期任务
// 长期 Token 约 60 天过期，周期查出临期店铺换新
type TokenTask struct {
	ShopRepo     repository.ShopRepository
	OAuthService *service.OAuthService
	Cron         *cron.Cron

	// 控制并发续期数量，避免触发 Graph API 限流
	concurrencyLimit int
	sleepTime        time.Duration
}

// NewTokenTask 创建续期任务
func NewTokenTask(shopRepo repository.ShopRepository, oauthService *service.OAuthService) *TokenTask {
	return &TokenTask{
		ShopRepo:         shopRepo,
		OAuthService:     oauthService,
		Cron:             cron.New(cron.WithSeconds()),
		concurrencyLimit: 10,
		sleepTime:        100 * time.Millisecond,
	}
}

// Start 启动定时任务
func (t *TokenTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		log.Println("[Cron] 服务启动，正在执行首次 Page Token 检查...")
		t.refreshJob(ctx)
	}()

	// 每 6 小时检查一次
	_, err := t.Cron.AddFunc("0 0 0/6 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		t.refreshJob(ctx)
	})

	if err != nil {
		log.Fatalf("无法启动 Token 定时任务: %v", err)
	}

	t.Cron.Start()
	log.Println("[Cron] Page Token 保活任务已启动 (每6小时检查一次)")
}

// Stop 停止任务
func (t *TokenTask) Stop() {
	t.Cron.Stop()
}

// refreshJob 自动续期逻辑
// 单店失败只记日志，不影响其他店，也不在本轮重试
func (t *TokenTask) refreshJob(ctx context.Context) {
	// 7 天内过期的都续
	shops, err := t.ShopRepo.FindExpiringTokenShops(ctx, time.Now().AddDate(0, 0, 7))
	if err != nil {
		log.Printf("[Cron] 临期 Token 查询失败: %v", err)
		return
	}

	if len(shops) == 0 {
		return
	}

	// 信号量限流
	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup

	log.Printf("[Cron] 开始处理 %d 个店铺的 Token 续期，并发上限: %d", len(shops), t.concurrencyLimit)

	for _, shop := range shops {
		select {
		case <-ctx.Done():
			log.Println("[Cron] 任务超时停止")
			return
		default:
		}

		sem <- struct{}{}
		wg.Add(1)

		// 平滑波峰
		time.Sleep(t.sleepTime)

		go func(s model.Shop) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := t.OAuthService.RefreshPageToken(ctx, &s); err != nil {
				log.Printf("[Cron] 店铺 [%s] Token 续期失败: %v", s.Name, err)
			}
		}(shop)
	}

	wg.Wait()
	log.Println("[Cron] 本轮 Token 续期任务完成")
}
