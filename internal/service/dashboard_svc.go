package service

import (
	"context"
	"errors"
	"time"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"
)

// ErrInvalidPeriod 不认识的统计周期
var ErrInvalidPeriod = errors.New("无效的统计周期")

// ==================== 报表周期 ====================

// ReportPeriod 报表统计周期
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// periodRange 解析周期为 [start, end] 与等长的前一周期 [prevStart, prevEnd]
// 增长率 = 当期对比前一等长周期
func periodRange(period string, now time.Time) (start, end, prevStart, prevEnd time.Time, err error) {
	end = now
	switch period {
	case PeriodToday:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeek:
		start = now.AddDate(0, 0, -7)
	case PeriodMonth:
		start = now.AddDate(0, -1, 0)
	case PeriodYear:
		start = now.AddDate(-1, 0, 0)
	default:
		err = ErrInvalidPeriod
		return
	}
	span := end.Sub(start)
	prevEnd = start
	prevStart = start.Add(-span)
	return
}

// growthPercent 环比增长百分比
// 前期为 0 时：当期也为 0 记 0%，否则记 100%
func growthPercent(current, previous int64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return float64(current-previous) / float64(previous) * 100
}

// ==================== 响应结构 ====================

// DashboardStats 首页统计卡片
type DashboardStats struct {
	TodayRevenue  float64 `json:"today_revenue"`
	TodayOrders   int64   `json:"today_orders"`
	RevenueGrowth float64 `json:"revenue_growth"` // 对比昨日，百分比
	OrderGrowth   float64 `json:"order_growth"`
	CustomerCount int64   `json:"customer_count"`
	PendingOrders int64   `json:"pending_orders"`
}

// BestSeller 热销商品条目
type BestSeller struct {
	Rank      int     `json:"rank"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	Revenue   float64 `json:"revenue"`
	Percent   float64 `json:"percent"` // 占周期总销量的百分比
}

// ChartPoint 营收曲线点
type ChartPoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Orders  int64   `json:"orders"`
}

// Report 周期报表
// 每个字段都是显式装配的，不做动态合并
type Report struct {
	Period        string           `json:"period"`
	Revenue       float64          `json:"revenue"`
	RevenueGrowth float64          `json:"revenue_growth"`
	OrderCount    int64            `json:"order_count"`
	BestSellers   []BestSeller     `json:"best_sellers"`
	ChartData     []ChartPoint     `json:"chart_data"`
	Customers     int64            `json:"customers"` // 周期内新增客户
	OrderStatus   map[string]int64 `json:"order_status"`
}

// Conversation 会话汇总条目
type Conversation struct {
	CustomerID    int64     `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	Answered      bool      `json:"answered"`
	MessageCount  int64     `json:"message_count"`
}

// ==================== DashboardService 看板服务 ====================

// DashboardService 看板聚合服务
// 每个接口组合多条租户内查询拼出响应；任一子查询失败整体报错，不做部分降级
type DashboardService struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	chatRepo     repository.ChatRepository
}

// NewDashboardService 创建看板服务
func NewDashboardService(orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	chatRepo repository.ChatRepository) *DashboardService {
	return &DashboardService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		chatRepo:     chatRepo,
	}
}

// ==================== 首页统计 ====================

// GetStats 首页统计卡片，今日对比昨日
func (s *DashboardService) GetStats(ctx context.Context, shopID int64) (*DashboardStats, error) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	todayRevenue, err := s.orderRepo.SumRevenue(ctx, shopID, todayStart, now)
	if err != nil {
		return nil, err
	}
	yesterdayRevenue, err := s.orderRepo.SumRevenue(ctx, shopID, yesterdayStart, todayStart)
	if err != nil {
		return nil, err
	}

	todayOrders, err := s.orderRepo.CountByShop(ctx, shopID, todayStart, now)
	if err != nil {
		return nil, err
	}
	yesterdayOrders, err := s.orderRepo.CountByShop(ctx, shopID, yesterdayStart, todayStart)
	if err != nil {
		return nil, err
	}

	customerCount, err := s.customerRepo.CountByShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	// 待处理订单不限周期
	statusCounts, err := s.orderRepo.CountByStatus(ctx, shopID, time.Time{}, now)
	if err != nil {
		return nil, err
	}
	var pending int64
	for _, sc := range statusCounts {
		if sc.Status == model.OrderStatusPending {
			pending = sc.Count
		}
	}

	return &DashboardStats{
		TodayRevenue:  float64(todayRevenue) / 100,
		TodayOrders:   todayOrders,
		RevenueGrowth: growthPercent(todayRevenue, yesterdayRevenue),
		OrderGrowth:   growthPercent(todayOrders, yesterdayOrders),
		CustomerCount: customerCount,
		PendingOrders: pending,
	}, nil
}

// ==================== 周期报表 ====================

// GetReport 周期报表
func (s *DashboardService) GetReport(ctx context.Context, shopID int64, period string) (*Report, error) {
	start, end, prevStart, prevEnd, err := periodRange(period, time.Now())
	if err != nil {
		return nil, err
	}

	revenue, err := s.orderRepo.SumRevenue(ctx, shopID, start, end)
	if err != nil {
		return nil, err
	}
	prevRevenue, err := s.orderRepo.SumRevenue(ctx, shopID, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	orderCount, err := s.orderRepo.CountByShop(ctx, shopID, start, end)
	if err != nil {
		return nil, err
	}

	bestSellers, err := s.buildBestSellers(ctx, shopID, start, end, 5)
	if err != nil {
		return nil, err
	}

	chartRows, err := s.orderRepo.DailyRevenue(ctx, shopID, start, end)
	if err != nil {
		return nil, err
	}
	chartData := make([]ChartPoint, len(chartRows))
	for i, row := range chartRows {
		// 驱动可能把 DATE 回成完整时间戳字面量，统一裁到年月日
		day := row.Day
		if len(day) > 10 {
			day = day[:10]
		}
		chartData[i] = ChartPoint{
			Date:    day,
			Revenue: float64(row.Revenue) / 100,
			Orders:  row.Orders,
		}
	}

	newCustomers, err := s.customerRepo.CountByShopSince(ctx, shopID, start)
	if err != nil {
		return nil, err
	}

	orderStatus, err := s.buildStatusHistogram(ctx, shopID, start, end)
	if err != nil {
		return nil, err
	}

	return &Report{
		Period:        period,
		Revenue:       float64(revenue) / 100,
		RevenueGrowth: growthPercent(revenue, prevRevenue),
		OrderCount:    orderCount,
		BestSellers:   bestSellers,
		ChartData:     chartData,
		Customers:     newCustomers,
		OrderStatus:   orderStatus,
	}, nil
}

// buildStatusHistogram 六态直方图
// 六个 key 必须全部出现，没有数据的补 0
func (s *DashboardService) buildStatusHistogram(ctx context.Context, shopID int64, start, end time.Time) (map[string]int64, error) {
	counts, err := s.orderRepo.CountByStatus(ctx, shopID, start, end)
	if err != nil {
		return nil, err
	}

	histogram := make(map[string]int64, len(model.AllOrderStatuses))
	for _, status := range model.AllOrderStatuses {
		histogram[status] = 0
	}
	for _, sc := range counts {
		// 库里不在枚举内的脏状态不进直方图
		if _, ok := histogram[sc.Status]; ok {
			histogram[sc.Status] = sc.Count
		}
	}
	return histogram, nil
}

// buildBestSellers 热销榜：按销量降序取前 N，带名次与销量占比
func (s *DashboardService) buildBestSellers(ctx context.Context, shopID int64, start, end time.Time, limit int) ([]BestSeller, error) {
	rows, err := s.orderRepo.BestSellers(ctx, shopID, start, end, limit)
	if err != nil {
		return nil, err
	}

	var totalQty int64
	for _, row := range rows {
		totalQty += row.Quantity
	}

	sellers := make([]BestSeller, len(rows))
	for i, row := range rows {
		percent := 0.0
		if totalQty > 0 {
			percent = float64(row.Quantity) / float64(totalQty) * 100
		}
		sellers[i] = BestSeller{
			Rank:      i + 1,
			ProductID: row.ProductID,
			Name:      row.Name,
			Quantity:  row.Quantity,
			Revenue:   float64(row.Revenue) / 100,
			Percent:   percent,
		}
	}
	return sellers, nil
}

// ==================== 会话与购物车 ====================

// ActiveConversations 会话汇总：按客户分组取最后一轮消息与应答标记
func (s *DashboardService) ActiveConversations(ctx context.Context, shopID int64, limit int) ([]Conversation, error) {
	rows, err := s.chatRepo.Conversations(ctx, shopID, limit)
	if err != nil {
		return nil, err
	}

	conversations := make([]Conversation, 0, len(rows))
	for _, row := range rows {
		conv := Conversation{
			CustomerID:   row.CustomerID,
			MessageCount: row.MessageCount,
		}

		// 最后一轮消息内容、时间与应答标记
		last, err := s.chatRepo.GetByID(ctx, row.LastMessageID, shopID)
		if err != nil {
			return nil, err
		}
		conv.LastMessage = last.Message
		conv.LastMessageAt = last.CreatedAt
		conv.Answered = last.Answered()

		if customer, err := s.customerRepo.GetByIDAndShop(ctx, row.CustomerID, shopID); err == nil {
			conv.CustomerName = customer.Name
		}

		conversations = append(conversations, conv)
	}
	return conversations, nil
}

// ActiveCarts 进行中的订单视图
func (s *DashboardService) ActiveCarts(ctx context.Context, shopID int64, limit int) ([]model.Order, error) {
	return s.orderRepo.ActiveCarts(ctx, shopID, limit)
}
