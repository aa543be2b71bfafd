package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smarthub_v1_202601/internal/model"
)

// ==================== 测试辅助 ====================

func setupCustomerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.Customer{}, &model.PushSubscription{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

// ==================== 客户幂等登记 ====================

func TestUpsertByFacebookID_Idempotent(t *testing.T) {
	db := setupCustomerTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	first := &model.Customer{ShopID: 1, FacebookID: "fb_100", Name: "旧名字"}
	if err := repo.UpsertByFacebookID(ctx, first); err != nil {
		t.Fatalf("首次登记失败: %v", err)
	}

	// 标记 VIP，后续进线不应冲掉运营标记
	db.Model(&model.Customer{}).Where("id = ?", first.ID).Update("is_vip", true)

	// 同一 (shop, facebook_id) 再次进线：刷新名字，不新建行
	again := &model.Customer{ShopID: 1, FacebookID: "fb_100", Name: "新名字"}
	if err := repo.UpsertByFacebookID(ctx, again); err != nil {
		t.Fatalf("二次登记失败: %v", err)
	}

	var count int64
	db.Model(&model.Customer{}).Count(&count)
	if count != 1 {
		t.Fatalf("客户行数 = %d, want 1", count)
	}

	var stored model.Customer
	db.First(&stored)
	if stored.Name != "新名字" {
		t.Errorf("name = %s, want 新名字", stored.Name)
	}
	if !stored.IsVIP {
		t.Error("upsert 不应冲掉 is_vip 标记")
	}
}

func TestUpsertByFacebookID_SameFBIDDifferentShops(t *testing.T) {
	db := setupCustomerTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	// 同一 Facebook 用户在两家店各算一个客户
	if err := repo.UpsertByFacebookID(ctx, &model.Customer{ShopID: 1, FacebookID: "fb_x", Name: "A"}); err != nil {
		t.Fatalf("店铺1登记失败: %v", err)
	}
	if err := repo.UpsertByFacebookID(ctx, &model.Customer{ShopID: 2, FacebookID: "fb_x", Name: "B"}); err != nil {
		t.Fatalf("店铺2登记失败: %v", err)
	}

	var count int64
	db.Model(&model.Customer{}).Count(&count)
	if count != 2 {
		t.Errorf("客户行数 = %d, want 2", count)
	}
}

func TestTouchLastSeen(t *testing.T) {
	db := setupCustomerTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户"})

	before := time.Now().Add(-time.Second)
	if err := repo.TouchLastSeen(ctx, 1); err != nil {
		t.Fatalf("更新失败: %v", err)
	}

	var c model.Customer
	db.First(&c)
	if c.LastSeenAt == nil || c.LastSeenAt.Before(before) {
		t.Error("last_seen_at 应被刷新到当前时间")
	}
}

// ==================== 推送订阅 ====================

func TestPushSubscriptionUpsert(t *testing.T) {
	db := setupCustomerTestDB(t)
	repo := NewPushSubscriptionRepository(db)
	ctx := context.Background()

	sub := &model.PushSubscription{
		ShopID:   1,
		Endpoint: "https://push.example.com/ep1",
		Keys:     map[string]interface{}{"p256dh": "k1", "auth": "a1"},
	}
	if err := repo.Upsert(ctx, sub); err != nil {
		t.Fatalf("订阅失败: %v", err)
	}

	// 同 endpoint 重复订阅幂等覆盖
	sub2 := &model.PushSubscription{
		ShopID:   1,
		Endpoint: "https://push.example.com/ep1",
		Keys:     map[string]interface{}{"p256dh": "k2", "auth": "a2"},
	}
	if err := repo.Upsert(ctx, sub2); err != nil {
		t.Fatalf("重复订阅失败: %v", err)
	}

	var count int64
	db.Model(&model.PushSubscription{}).Count(&count)
	if count != 1 {
		t.Errorf("订阅行数 = %d, want 1", count)
	}
}

func TestPushSubscriptionDelete(t *testing.T) {
	db := setupCustomerTestDB(t)
	repo := NewPushSubscriptionRepository(db)
	ctx := context.Background()

	db.Create(&model.PushSubscription{ShopID: 1, Endpoint: "https://push.example.com/ep1"})

	// 删除他店订阅不生效
	affected, err := repo.DeleteByEndpoint(ctx, 2, "https://push.example.com/ep1")
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if affected != 0 {
		t.Error("跨租户删除不应生效")
	}

	affected, err = repo.DeleteByEndpoint(ctx, 1, "https://push.example.com/ep1")
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if affected != 1 {
		t.Errorf("删除行数 = %d, want 1", affected)
	}
}
