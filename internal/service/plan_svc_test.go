package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"
)

// ==================== 测试辅助 ====================

func setupPlanTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.Plan{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

// ==================== 套餐目录 ====================

func TestListActive(t *testing.T) {
	db := setupPlanTestDB(t)
	svc := NewPlanService(repository.NewPlanRepository(db))

	// 乱序入库，停用的不出现
	db.Create(&model.Plan{Name: model.PlanPro, DisplayName: "专业版", PriceAmount: 4900, Currency: "USD", SortOrder: 3, IsActive: true})
	db.Create(&model.Plan{Name: model.PlanTrial, DisplayName: "试用版", PriceAmount: 0, Currency: "USD", SortOrder: 1, IsActive: true})
	db.Create(&model.Plan{Name: model.PlanStarter, DisplayName: "入门版", PriceAmount: 1900, Currency: "USD", SortOrder: 2, IsActive: false})

	vos, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}

	if len(vos) != 2 {
		t.Fatalf("套餐数 = %d, want 2", len(vos))
	}
	if vos[0].Name != model.PlanTrial || vos[1].Name != model.PlanPro {
		t.Errorf("排序错误: %s, %s", vos[0].Name, vos[1].Name)
	}
}

func TestListActive_MergesStaticLimits(t *testing.T) {
	db := setupPlanTestDB(t)
	svc := NewPlanService(repository.NewPlanRepository(db))

	db.Create(&model.Plan{Name: model.PlanPro, DisplayName: "专业版", PriceAmount: 4900, Currency: "USD", SortOrder: 1, IsActive: true})

	vos, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(vos) != 1 {
		t.Fatalf("套餐数 = %d, want 1", len(vos))
	}

	vo := vos[0]
	if vo.Price != 49.0 {
		t.Errorf("Price = %v, want 49.0", vo.Price)
	}
	if vo.MaxShops != 3 {
		t.Errorf("MaxShops = %d, want 3", vo.MaxShops)
	}
	if vo.AIMessageQuota != 5000 {
		t.Errorf("AIMessageQuota = %d, want 5000", vo.AIMessageQuota)
	}
	if !vo.Instagram {
		t.Error("pro 套餐应开放 Instagram")
	}
	if vo.ModelTier != model.ModelTierFlash {
		t.Errorf("ModelTier = %s, want flash", vo.ModelTier)
	}
}

func TestListActive_UnknownPlanFallsBackToTrial(t *testing.T) {
	db := setupPlanTestDB(t)
	svc := NewPlanService(repository.NewPlanRepository(db))

	// 目录里出现能力表没登记的套餐名，按最严格档展示
	db.Create(&model.Plan{Name: "legacy_vip", DisplayName: "旧版套餐", PriceAmount: 9900, Currency: "USD", SortOrder: 1, IsActive: true})

	vos, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(vos) != 1 {
		t.Fatalf("套餐数 = %d, want 1", len(vos))
	}
	if vos[0].MaxShops != 1 || vos[0].AIMessageQuota != 50 || vos[0].Instagram {
		t.Errorf("未知套餐未回退到 trial 能力: %+v", vos[0])
	}
}
