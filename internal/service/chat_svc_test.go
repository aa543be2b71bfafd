package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"
)

// ==================== 测试辅助 ====================

func setupChatTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.Customer{}, &model.Product{}, &model.ChatHistory{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

func newChatService(db *gorm.DB, apiKey string) *ChatService {
	return NewChatService(&ChatAIConfig{ApiKey: apiKey},
		repository.NewChatRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewProductRepository(db),
	)
}

// ==================== 前置检查 ====================

func TestGenerateReply_NotConfigured(t *testing.T) {
	db := setupChatTestDB(t)
	svc := newChatService(db, "")

	shop := &model.Shop{Name: "测试店", Plan: model.PlanTrial}
	shop.ID = 1

	_, err := svc.GenerateReply(context.Background(), shop, 1, "在吗")
	if !errors.Is(err, ErrAINotConfigured) {
		t.Errorf("err = %v, want ErrAINotConfigured", err)
	}
}

func TestGenerateReply_CustomerMustBelongToShop(t *testing.T) {
	db := setupChatTestDB(t)
	svc := newChatService(db, "test-key")

	// 客户在店铺 2 名下
	db.Create(&model.Customer{ShopID: 2, FacebookID: "fb_x", Name: "外部客户"})

	shop := &model.Shop{Name: "测试店", Plan: model.PlanTrial}
	shop.ID = 1

	_, err := svc.GenerateReply(context.Background(), shop, 1, "在吗")
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("err = %v, want ErrCustomerNotFound", err)
	}
}

func TestGenerateReply_QuotaExceeded(t *testing.T) {
	db := setupChatTestDB(t)
	svc := newChatService(db, "test-key")

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户"})

	// trial 每月 50 条，先灌满本月配额
	for i := 0; i < model.AIQuota(model.PlanTrial); i++ {
		db.Create(&model.ChatHistory{ShopID: 1, CustomerID: 1, Message: "q", Response: "a", IsAI: true, Source: model.ChatSourceMessenger})
	}

	shop := &model.Shop{Name: "测试店", Plan: model.PlanTrial}
	shop.ID = 1

	// 配额检查先于模型调用，不应发起任何外呼
	_, err := svc.GenerateReply(context.Background(), shop, 1, "在吗")
	if !errors.Is(err, ErrAIQuotaExceeded) {
		t.Errorf("err = %v, want ErrAIQuotaExceeded", err)
	}
}

func TestAIQuotaCount_ScopedToShop(t *testing.T) {
	db := setupChatTestDB(t)
	chatRepo := repository.NewChatRepository(db)

	// 别家店的用量不占本店配额，人工消息也不计数
	for i := 0; i < 100; i++ {
		db.Create(&model.ChatHistory{ShopID: 2, CustomerID: 99, Message: "q", Response: "a", IsAI: true, Source: model.ChatSourceMessenger})
	}
	db.Create(&model.ChatHistory{ShopID: 1, CustomerID: 1, Message: "q", Response: "a", IsAI: true, Source: model.ChatSourceMessenger})
	db.Create(&model.ChatHistory{ShopID: 1, CustomerID: 1, Message: "q", Response: "a", IsAI: false, Source: model.ChatSourceMessenger})

	used, err := chatRepo.CountAISince(context.Background(), 1, time.Time{})
	if err != nil {
		t.Fatalf("计数失败: %v", err)
	}
	if used != 1 {
		t.Errorf("本店 AI 用量 = %d, want 1", used)
	}
}

// ==================== Prompt 拼装 ====================

func TestBuildPrompt(t *testing.T) {
	db := setupChatTestDB(t)
	svc := newChatService(db, "test-key")

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户"})
	stock := 7
	db.Create(&model.Product{ShopID: 1, Name: "手工蜡烛", PriceAmount: 1599, Currency: "USD", Stock: &stock})
	db.Create(&model.ChatHistory{ShopID: 1, CustomerID: 1, Message: "第一句", Response: "好的", Source: model.ChatSourceMessenger})
	db.Create(&model.ChatHistory{ShopID: 1, CustomerID: 1, Message: "第二句", Response: "", Source: model.ChatSourceMessenger})

	shop := &model.Shop{Name: "小铺", Plan: model.PlanTrial}
	shop.ID = 1
	var customer model.Customer
	db.First(&customer)

	prompt, err := svc.buildPrompt(context.Background(), shop, &customer, "有蜡烛吗")
	if err != nil {
		t.Fatalf("拼装失败: %v", err)
	}

	// 店名、商品、价格、库存、历史、当前消息都要在
	for _, want := range []string{"小铺", "手工蜡烛", "15.99", "7 in stock", "第一句", "第二句", "有蜡烛吗"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt 缺少 %q", want)
		}
	}

	// 历史须按时间正序排列
	if strings.Index(prompt, "第一句") > strings.Index(prompt, "第二句") {
		t.Error("历史应按时间正序出现")
	}
}

// ==================== 记录查询 ====================

func TestHistory_ChronologicalOrder(t *testing.T) {
	db := setupChatTestDB(t)
	svc := newChatService(db, "")

	db.Create(&model.ChatHistory{ShopID: 1, CustomerID: 1, Message: "早", Source: model.ChatSourceMessenger})
	db.Create(&model.ChatHistory{ShopID: 1, CustomerID: 1, Message: "午", Source: model.ChatSourceMessenger})
	db.Create(&model.ChatHistory{ShopID: 1, CustomerID: 1, Message: "晚", Source: model.ChatSourceMessenger})

	history, err := svc.History(context.Background(), 1, 1, 10)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("条数 = %d, want 3", len(history))
	}
	if history[0].Message != "早" || history[2].Message != "晚" {
		t.Errorf("顺序 = [%s %s %s], want [早 午 晚]", history[0].Message, history[1].Message, history[2].Message)
	}
}

func TestAppendManual(t *testing.T) {
	db := setupChatTestDB(t)
	svc := newChatService(db, "")

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户"})

	if err := svc.AppendManual(context.Background(), 1, 1, "客户消息", "人工回复", model.ChatSourceInstagram); err != nil {
		t.Fatalf("追加失败: %v", err)
	}

	var entry model.ChatHistory
	db.First(&entry)
	if entry.IsAI {
		t.Error("人工回复不应标记 is_ai")
	}
	if entry.Source != model.ChatSourceInstagram {
		t.Errorf("source = %s, want instagram", entry.Source)
	}
}
