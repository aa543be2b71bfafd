package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"
)

// ==================== 测试辅助 ====================

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.Shop{}, &model.Customer{}, &model.Order{}, &model.OrderItem{}, &model.Product{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

func newOrderService(db *gorm.DB) *OrderService {
	return NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewProductRepository(db),
	)
}

func intPtr(v int) *int { return &v }

// ==================== 状态更新 ====================

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(db)

	_, err := svc.UpdateStatus(context.Background(), 1, 1, "refunded")
	if !errors.Is(err, ErrInvalidOrderStatus) {
		t.Errorf("err = %v, want ErrInvalidOrderStatus", err)
	}
}

func TestUpdateStatus_CrossTenant(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(db)

	db.Create(&model.Customer{ShopID: 2, FacebookID: "fb_1", Name: "客户"})
	db.Create(&model.Order{ShopID: 2, CustomerID: 1, Status: model.OrderStatusPending, TotalAmount: 1000})

	var order model.Order
	db.First(&order)

	// 店铺 1 改店铺 2 的订单：404 语义，且原单不动
	_, err := svc.UpdateStatus(context.Background(), order.ID, 1, model.OrderStatusShipped)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}

	var check model.Order
	db.First(&check, order.ID)
	if check.Status != model.OrderStatusPending {
		t.Errorf("跨租户写入后 status = %s, want pending", check.Status)
	}
}

func TestUpdateStatus_OK(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(db)

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户"})
	db.Create(&model.Order{ShopID: 1, CustomerID: 1, Status: model.OrderStatusPending, TotalAmount: 1000})

	var order model.Order
	db.First(&order)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, 1, model.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.Status != model.OrderStatusConfirmed {
		t.Errorf("status = %s, want confirmed", updated.Status)
	}
}

// ==================== 建单 ====================

func TestCreate_CustomerMustBelongToShop(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(db)

	// 客户挂在店铺 2 名下
	db.Create(&model.Customer{ShopID: 2, FacebookID: "fb_x", Name: "外部客户"})

	_, err := svc.Create(context.Background(), 1, &CreateOrderInput{
		CustomerID: 1,
		Items:      []CreateOrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("err = %v, want ErrCustomerNotFound", err)
	}

	var count int64
	db.Model(&model.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("订单数 = %d, want 0", count)
	}
}

func TestCreate_ProductMustBelongToShop(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(db)

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户"})
	// 商品挂在店铺 2 名下
	db.Create(&model.Product{ShopID: 2, Name: "外部商品", PriceAmount: 500})

	_, err := svc.Create(context.Background(), 1, &CreateOrderInput{
		CustomerID: 1,
		Items:      []CreateOrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}

func TestCreate_SnapshotsPriceAndTotal(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(db)

	db.Create(&model.Customer{ShopID: 1, FacebookID: "fb_1", Name: "客户"})
	db.Create(&model.Product{ShopID: 1, Name: "T恤", PriceAmount: 1990, Stock: intPtr(10)})
	db.Create(&model.Product{ShopID: 1, Name: "贴纸", PriceAmount: 300, Stock: intPtr(99)})

	order, err := svc.Create(context.Background(), 1, &CreateOrderInput{
		CustomerID: 1,
		Items: []CreateOrderItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("建单失败: %v", err)
	}

	// 总额 = 1990*2 + 300*3 = 4880
	if order.TotalAmount != 4880 {
		t.Errorf("total = %d, want 4880", order.TotalAmount)
	}
	if len(order.Items) != 2 {
		t.Fatalf("订单项数 = %d, want 2", len(order.Items))
	}
	if order.Items[0].UnitPriceAmount != 1990 {
		t.Errorf("单价快照 = %d, want 1990", order.Items[0].UnitPriceAmount)
	}

	// 改了商品价格，已落库的快照不受影响
	db.Model(&model.Product{}).Where("id = ?", 1).Update("price_amount", 9999)

	fetched, err := svc.GetByID(context.Background(), order.ID, 1)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if fetched.Items[0].UnitPriceAmount != 1990 {
		t.Errorf("改价后快照 = %d, want 1990", fetched.Items[0].UnitPriceAmount)
	}
}

func TestGetByID_CrossTenant(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(db)

	db.Create(&model.Customer{ShopID: 2, FacebookID: "fb_1", Name: "客户"})
	db.Create(&model.Order{ShopID: 2, CustomerID: 1, Status: model.OrderStatusPending})

	_, err := svc.GetByID(context.Background(), 1, 1)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
}
