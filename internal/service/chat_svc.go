package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"

	"gorm.io/gorm"
)

// ==================== 错误定义 ====================

var (
	// ErrAIQuotaExceeded 当月 AI 回复配额已用完
	ErrAIQuotaExceeded = errors.New("本月 AI 回复配额已用完，请升级套餐")

	// ErrAINotConfigured API Key 未配置
	ErrAINotConfigured = errors.New("Gemini API Key 未配置")
)

// ==================== 配置 ====================

// ChatAIConfig AI 回复服务配置
type ChatAIConfig struct {
	ApiKey     string
	FlashModel string // 轻量档模型
	ProModel   string // 高配档模型
}

// ==================== ChatService 聊天服务 ====================

type ChatService struct {
	config       *ChatAIConfig
	chatRepo     repository.ChatRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository

	httpClient *http.Client
}

// NewChatService 创建聊天服务
func NewChatService(cfg *ChatAIConfig,
	chatRepo repository.ChatRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository) *ChatService {
	// 固定模型配置
	if cfg.FlashModel == "" {
		cfg.FlashModel = "gemini-2.5-flash"
	}
	if cfg.ProModel == "" {
		cfg.ProModel = "gemini-2.5-pro"
	}

	return &ChatService{
		config:       cfg,
		chatRepo:     chatRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

// ==================== AI 回复 ====================

// ReplyResult AI 回复结果
type ReplyResult struct {
	Reply     string `json:"reply"`
	Model     string `json:"model"`
	QuotaUsed int64  `json:"quota_used"`
	Quota     int    `json:"quota"`
}

// GenerateReply 生成 AI 回复并落聊天记录
// 流程：配额核算 -> 拼 Prompt（店铺上下文 + 商品 + 最近对话）-> 调模型 -> 追加记录
// 模型调用失败对本次请求即终结，没有重试
func (s *ChatService) GenerateReply(ctx context.Context, shop *model.Shop, customerID int64, message string) (*ReplyResult, error) {
	if s.config.ApiKey == "" {
		return nil, ErrAINotConfigured
	}

	// 客户归属核验
	customer, err := s.customerRepo.GetByIDAndShop(ctx, customerID, shop.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	// 配额按自然月核算
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	used, err := s.chatRepo.CountAISince(ctx, shop.ID, monthStart)
	if err != nil {
		return nil, err
	}
	quota := model.AIQuota(shop.Plan)
	if used >= int64(quota) {
		return nil, ErrAIQuotaExceeded
	}

	// 按套餐档位选模型
	modelName := s.config.FlashModel
	if model.ModelTier(shop.Plan) == model.ModelTierPro {
		modelName = s.config.ProModel
	}

	prompt, err := s.buildPrompt(ctx, shop, customer, message)
	if err != nil {
		return nil, err
	}

	reply, err := s.callGemini(ctx, modelName, prompt)
	if err != nil {
		return nil, err
	}

	// 追加聊天记录（只追加，记录生成来源）
	entry := &model.ChatHistory{
		ShopID:     shop.ID,
		CustomerID: customer.ID,
		Message:    message,
		Response:   reply,
		Source:     model.ChatSourceMessenger,
		IsAI:       true,
	}
	if err := s.chatRepo.Append(ctx, entry); err != nil {
		return nil, err
	}
	_ = s.customerRepo.TouchLastSeen(ctx, customer.ID)

	return &ReplyResult{
		Reply:     reply,
		Model:     modelName,
		QuotaUsed: used + 1,
		Quota:     quota,
	}, nil
}

// buildPrompt 拼装系统提示词：店铺上下文 + 商品目录 + 最近对话
func (s *ChatService) buildPrompt(ctx context.Context, shop *model.Shop, customer *model.Customer, message string) (string, error) {
	products, err := s.productRepo.ListTop(ctx, shop.ID, 20)
	if err != nil {
		return "", err
	}

	history, err := s.chatRepo.ListByCustomer(ctx, shop.ID, customer.ID, 10)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `You are a friendly sales assistant for the online shop "%s".
Answer the customer's message helpfully and concisely, in the customer's language.
Only recommend products from the catalog below. Never invent prices or stock.
If you don't know, say a human agent will follow up.

Product catalog:
`, shop.Name)

	for _, p := range products {
		stock := "available"
		if p.Stock != nil {
			stock = fmt.Sprintf("%d in stock", *p.Stock)
		}
		fmt.Fprintf(&sb, "- %s | %.2f %s | %s\n", p.Name, p.GetPrice(), p.Currency, stock)
	}

	if len(history) > 0 {
		sb.WriteString("\nRecent conversation (oldest first):\n")
		// 仓库返回倒序，这里翻回时间序
		for i := len(history) - 1; i >= 0; i-- {
			h := history[i]
			fmt.Fprintf(&sb, "Customer: %s\n", h.Message)
			if h.Response != "" {
				fmt.Fprintf(&sb, "Assistant: %s\n", h.Response)
			}
		}
	}

	fmt.Fprintf(&sb, "\nCustomer message: %s\n", message)
	return sb.String(), nil
}

// callGemini 调用 Gemini generateContent 接口
func (s *ChatService) callGemini(ctx context.Context, modelName, prompt string) (string, error) {
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		modelName, s.config.ApiKey)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": prompt}}},
		},
	}

	bodyBytes, _ := json.Marshal(reqBody)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API 错误 [%d]: %s", resp.StatusCode, string(respBody))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("解析响应失败: %v", err)
	}

	for _, candidate := range geminiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				return strings.TrimSpace(part.Text), nil
			}
		}
	}

	return "", fmt.Errorf("无生成结果")
}

// ==================== 记录查询 ====================

// History 客户聊天记录，时间序
func (s *ChatService) History(ctx context.Context, shopID, customerID int64, limit int) ([]model.ChatHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.chatRepo.ListByCustomer(ctx, shopID, customerID, limit)
	if err != nil {
		return nil, err
	}
	// 翻回时间序返回
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// AppendManual 追加一条人工回复记录
func (s *ChatService) AppendManual(ctx context.Context, shopID, customerID int64, message, response, source string) error {
	if source == "" {
		source = model.ChatSourceMessenger
	}
	return s.chatRepo.Append(ctx, &model.ChatHistory{
		ShopID:     shopID,
		CustomerID: customerID,
		Message:    message,
		Response:   response,
		Source:     source,
		IsAI:       false,
	})
}
