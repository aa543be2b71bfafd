package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"
)

// ==================== 测试辅助 ====================

func setupDashboardTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.Customer{}, &model.Order{}, &model.OrderItem{},
		&model.Product{}, &model.ChatHistory{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

func newDashboardService(db *gorm.DB) *DashboardService {
	return NewDashboardService(
		repository.NewOrderRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewChatRepository(db),
	)
}

// ==================== 增长率 ====================

func TestGrowthPercent(t *testing.T) {
	cases := []struct {
		current, previous int64
		want              float64
	}{
		{0, 0, 0},     // 两期都空记 0%
		{100, 0, 100}, // 前期空、当期有量记 100%
		{150, 100, 50},
		{50, 100, -50},
	}

	for _, c := range cases {
		if got := growthPercent(c.current, c.previous); got != c.want {
			t.Errorf("growthPercent(%d, %d) = %v, want %v", c.current, c.previous, got, c.want)
		}
	}
}

// ==================== 周期解析 ====================

func TestPeriodRange_InvalidPeriod(t *testing.T) {
	_, _, _, _, err := periodRange("quarter", time.Now())
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("err = %v, want ErrInvalidPeriod", err)
	}
}

func TestPeriodRange_PreviousWindowEqualLength(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	for _, period := range []string{PeriodToday, PeriodWeek, PeriodMonth, PeriodYear} {
		start, end, prevStart, prevEnd, err := periodRange(period, now)
		if err != nil {
			t.Fatalf("[%s] 解析失败: %v", period, err)
		}
		if !prevEnd.Equal(start) {
			t.Errorf("[%s] 前一周期应紧贴当期起点", period)
		}
		if end.Sub(start) != prevEnd.Sub(prevStart) {
			t.Errorf("[%s] 前后周期长度应相等", period)
		}
	}
}

// ==================== 状态直方图 ====================

func TestReport_StatusHistogramHasAllSixKeys(t *testing.T) {
	db := setupDashboardTestDB(t)
	svc := newDashboardService(db)

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户"})
	// 只造两种状态，外加一条脏状态数据
	db.Create(&model.Order{ShopID: 1, CustomerID: 1, Status: model.OrderStatusPending, TotalAmount: 1000})
	db.Create(&model.Order{ShopID: 1, CustomerID: 1, Status: model.OrderStatusPending, TotalAmount: 2000})
	db.Create(&model.Order{ShopID: 1, CustomerID: 1, Status: model.OrderStatusShipped, TotalAmount: 3000})
	db.Create(&model.Order{ShopID: 1, CustomerID: 1, Status: "garbage", TotalAmount: 500})

	report, err := svc.GetReport(context.Background(), 1, PeriodToday)
	if err != nil {
		t.Fatalf("报表生成失败: %v", err)
	}

	// 六个 key 必须都在，没数据的为 0
	if len(report.OrderStatus) != len(model.AllOrderStatuses) {
		t.Fatalf("直方图 key 数 = %d, want %d", len(report.OrderStatus), len(model.AllOrderStatuses))
	}
	for _, status := range model.AllOrderStatuses {
		if _, ok := report.OrderStatus[status]; !ok {
			t.Errorf("直方图缺少 key: %s", status)
		}
	}

	if report.OrderStatus[model.OrderStatusPending] != 2 {
		t.Errorf("pending = %d, want 2", report.OrderStatus[model.OrderStatusPending])
	}
	if report.OrderStatus[model.OrderStatusShipped] != 1 {
		t.Errorf("shipped = %d, want 1", report.OrderStatus[model.OrderStatusShipped])
	}
	// 脏状态直接忽略，不进直方图
	if _, ok := report.OrderStatus["garbage"]; ok {
		t.Error("脏状态不应出现在直方图")
	}
}

// ==================== 营收口径 ====================

func TestReport_RevenueExcludesCancelled(t *testing.T) {
	db := setupDashboardTestDB(t)
	svc := newDashboardService(db)

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户"})
	db.Create(&model.Order{ShopID: 1, CustomerID: 1, Status: model.OrderStatusDelivered, TotalAmount: 10000})
	db.Create(&model.Order{ShopID: 1, CustomerID: 1, Status: model.OrderStatusCancelled, TotalAmount: 99999})

	report, err := svc.GetReport(context.Background(), 1, PeriodToday)
	if err != nil {
		t.Fatalf("报表生成失败: %v", err)
	}

	if report.Revenue != 100 {
		t.Errorf("revenue = %v, want 100 (取消单不计营收)", report.Revenue)
	}
	// 取消单仍计入订单数与直方图
	if report.OrderCount != 2 {
		t.Errorf("order_count = %d, want 2", report.OrderCount)
	}
}

func TestReport_TenantIsolation(t *testing.T) {
	db := setupDashboardTestDB(t)
	svc := newDashboardService(db)

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户A"})
	db.Create(&model.Customer{ShopID: 2, FacebookID: "fb_2", Name: "客户B"})
	db.Create(&model.Order{ShopID: 1, CustomerID: 1, Status: model.OrderStatusDelivered, TotalAmount: 1000})
	db.Create(&model.Order{ShopID: 2, CustomerID: 2, Status: model.OrderStatusDelivered, TotalAmount: 88800})

	report, err := svc.GetReport(context.Background(), 1, PeriodToday)
	if err != nil {
		t.Fatalf("报表生成失败: %v", err)
	}
	if report.Revenue != 10 {
		t.Errorf("revenue = %v, want 10 (只统计本店)", report.Revenue)
	}
}

// ==================== 热销榜 ====================

func TestReport_BestSellers(t *testing.T) {
	db := setupDashboardTestDB(t)
	svc := newDashboardService(db)

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户"})
	db.Create(&model.Product{ShopID: 1, Name: "爆款", PriceAmount: 1000})
	db.Create(&model.Product{ShopID: 1, Name: "普通款", PriceAmount: 2000})

	order := model.Order{ShopID: 1, CustomerID: 1, Status: model.OrderStatusDelivered, TotalAmount: 5000}
	db.Create(&order)
	db.Create(&model.OrderItem{OrderID: order.ID, ProductID: 1, Quantity: 3, UnitPriceAmount: 1000})
	db.Create(&model.OrderItem{OrderID: order.ID, ProductID: 2, Quantity: 1, UnitPriceAmount: 2000})

	report, err := svc.GetReport(context.Background(), 1, PeriodToday)
	if err != nil {
		t.Fatalf("报表生成失败: %v", err)
	}

	if len(report.BestSellers) != 2 {
		t.Fatalf("热销榜条目 = %d, want 2", len(report.BestSellers))
	}
	top := report.BestSellers[0]
	if top.Name != "爆款" || top.Rank != 1 {
		t.Errorf("榜首 = %s (rank %d), want 爆款 rank 1", top.Name, top.Rank)
	}
	if top.Quantity != 3 {
		t.Errorf("榜首销量 = %d, want 3", top.Quantity)
	}
	// 3/4 = 75%
	if top.Percent != 75 {
		t.Errorf("榜首占比 = %v, want 75", top.Percent)
	}
}

// ==================== 会话汇总 ====================

func TestActiveConversations(t *testing.T) {
	db := setupDashboardTestDB(t)
	svc := newDashboardService(db)

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "张三"})
	db.Create(&model.ChatHistory{ShopID: 1, CustomerID: 1, Message: "在吗", Response: "在的", IsAI: true, Source: "messenger"})
	db.Create(&model.ChatHistory{ShopID: 1, CustomerID: 1, Message: "多少钱", Response: "", Source: "messenger"})

	convs, err := svc.ActiveConversations(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("会话查询失败: %v", err)
	}

	if len(convs) != 1 {
		t.Fatalf("会话数 = %d, want 1", len(convs))
	}
	c := convs[0]
	if c.CustomerName != "张三" {
		t.Errorf("customer_name = %s, want 张三", c.CustomerName)
	}
	if c.MessageCount != 2 {
		t.Errorf("message_count = %d, want 2", c.MessageCount)
	}
	// 最新一条没有回复，应标记未应答
	if c.Answered {
		t.Error("最新消息未回复，answered 应为 false")
	}
	if c.LastMessage != "多少钱" {
		t.Errorf("last_message = %s, want 多少钱", c.LastMessage)
	}
}
