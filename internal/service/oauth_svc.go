package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/repository"
	"smarthub_v1_202601/pkg/utils"

	"github.com/go-resty/resty/v2"
)

// 业务常量
const (
	FacebookAuthURL  = "https://www.facebook.com/v18.0/dialog/oauth"
	InstagramAuthURL = "https://www.instagram.com/oauth/authorize"
	GraphAPIBase     = "https://graph.facebook.com/v18.0"

	// Messenger 托管所需最小权限集
	facebookScopes = "pages_show_list,pages_messaging,pages_read_engagement"
)

var (
	// ErrOAuthStateInvalid state 过期或伪造
	ErrOAuthStateInvalid = errors.New("授权超时或 State 无效，请重新发起")

	// ErrInstagramNotAllowed 套餐未开放 Instagram 渠道
	ErrInstagramNotAllowed = errors.New("当前套餐未开放 Instagram 渠道")
)

// ==================== 配置 ====================

// OAuthConfig 第三方授权配置
type OAuthConfig struct {
	FacebookAppID     string
	FacebookAppSecret string
	CallbackURL       string // 必须与 Meta 后台填写的完全一致
}

// ==================== OAuthService 授权服务 ====================

type OAuthService struct {
	config   *OAuthConfig
	shopRepo repository.ShopRepository
	client   *resty.Client
}

// NewOAuthService 创建授权服务
func NewOAuthService(cfg *OAuthConfig, shopRepo repository.ShopRepository) *OAuthService {
	client := resty.New()
	client.SetTimeout(10 * time.Second)

	return &OAuthService{
		config:   cfg,
		shopRepo: shopRepo,
		client:   client,
	}
}

// ==================== 授权链接 ====================

// BuildFacebookAuthURL 生成 Facebook 授权链接
// state 随机生成并缓存 "identity:shop_id"，回调时校验防 CSRF
func (s *OAuthService) BuildFacebookAuthURL(identity string, shop *model.Shop) (string, error) {
	state, err := utils.GenerateRandomString(16)
	if err != nil {
		return "", err
	}
	utils.SetCache(state, fmt.Sprintf("%s:%d", identity, shop.ID))

	params := url.Values{}
	params.Set("client_id", s.config.FacebookAppID)
	params.Set("redirect_uri", s.config.CallbackURL)
	params.Set("scope", facebookScopes)
	params.Set("response_type", "code")
	params.Set("state", state)

	return FacebookAuthURL + "?" + params.Encode(), nil
}

// BuildInstagramAuthURL 生成 Instagram 授权链接，套餐门控
func (s *OAuthService) BuildInstagramAuthURL(identity string, shop *model.Shop) (string, error) {
	if !model.CanUseInstagram(shop.Plan) {
		return "", ErrInstagramNotAllowed
	}

	state, err := utils.GenerateRandomString(16)
	if err != nil {
		return "", err
	}
	utils.SetCache(state, fmt.Sprintf("%s:%d", identity, shop.ID))

	params := url.Values{}
	params.Set("client_id", s.config.FacebookAppID)
	params.Set("redirect_uri", s.config.CallbackURL)
	params.Set("scope", "instagram_basic,instagram_manage_messages")
	params.Set("response_type", "code")
	params.Set("state", state)

	return InstagramAuthURL + "?" + params.Encode(), nil
}

// ==================== 回调处理 ====================

// tokenResp Graph Token 响应
type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// pageListResp 主页列表响应
type pageListResp struct {
	Data []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

// HandleFacebookCallback 处理 Facebook 回调 -> 换 Token -> 绑定主页
// identity 为当前会话身份，必须与 state 缓存中的发起身份一致
func (s *OAuthService) HandleFacebookCallback(ctx context.Context, identity, code, state string) (*model.Shop, error) {
	// 1. 校验 State 取缓存
	cachedVal, exists := utils.GetCache(state)
	if !exists {
		return nil, ErrOAuthStateInvalid
	}
	utils.DeleteCache(state) // 用完即焚

	// 2. 解析缓存 "identity:shop_id"
	parts := strings.SplitN(cachedVal, ":", 2)
	if len(parts) != 2 || parts[0] != identity {
		return nil, ErrOAuthStateInvalid
	}
	shopID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, ErrOAuthStateInvalid
	}

	// 3. 归属重核：state 里的店铺也必须归当前身份所有
	shop, err := s.shopRepo.GetByIDAndOwner(ctx, shopID, identity)
	if err != nil {
		return nil, ErrShopNotFound
	}

	// 4. code 换短期 Token
	shortToken, _, err := s.exchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("换取 Token 失败: %v", err)
	}

	// 5. 短期换长期 Token（约 60 天）
	longToken, expiresIn, err := s.ExchangeLongLivedToken(ctx, shortToken)
	if err != nil {
		return nil, fmt.Errorf("换取长期 Token 失败: %v", err)
	}

	// 6. 拉取主页列表，取第一个主页绑定
	page, err := s.fetchFirstPage(ctx, longToken)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)
	shop.FacebookPageID = page.id
	shop.FacebookPageAccessToken = page.accessToken
	shop.TokenExpiresAt = &expiresAt
	if err := s.shopRepo.Update(ctx, shop); err != nil {
		return nil, fmt.Errorf("店铺入库失败: %v", err)
	}

	return shop, nil
}

// exchangeCode code 换短期用户 Token
func (s *OAuthService) exchangeCode(ctx context.Context, code string) (string, int, error) {
	var result tokenResp
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client_id":     s.config.FacebookAppID,
			"client_secret": s.config.FacebookAppSecret,
			"redirect_uri":  s.config.CallbackURL,
			"code":          code,
		}).
		SetResult(&result).
		Get(GraphAPIBase + "/oauth/access_token")
	if err != nil {
		return "", 0, err
	}
	if resp.StatusCode() != 200 {
		return "", 0, fmt.Errorf("graph api refused code exchange: status %d, body %s", resp.StatusCode(), resp.String())
	}
	return result.AccessToken, result.ExpiresIn, nil
}

// ExchangeLongLivedToken 短期 Token 换长期 Token
// 周期任务续期时也走这里
func (s *OAuthService) ExchangeLongLivedToken(ctx context.Context, token string) (string, int, error) {
	var result tokenResp
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type":        "fb_exchange_token",
			"client_id":         s.config.FacebookAppID,
			"client_secret":     s.config.FacebookAppSecret,
			"fb_exchange_token": token,
		}).
		SetResult(&result).
		Get(GraphAPIBase + "/oauth/access_token")
	if err != nil {
		return "", 0, err
	}
	if resp.StatusCode() != 200 {
		return "", 0, fmt.Errorf("graph api refused token exchange: status %d, body %s", resp.StatusCode(), resp.String())
	}

	expiresIn := result.ExpiresIn
	if expiresIn == 0 {
		// Graph 对长期 Token 可能不带 expires_in，按 60 天记
		expiresIn = 60 * 24 * 3600
	}
	return result.AccessToken, expiresIn, nil
}

// pageInfo 主页绑定信息
type pageInfo struct {
	id          string
	name        string
	accessToken string
}

// fetchFirstPage 拉取用户托管的主页列表，取第一个
func (s *OAuthService) fetchFirstPage(ctx context.Context, userToken string) (*pageInfo, error) {
	var result pageListResp
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("access_token", userToken).
		SetResult(&result).
		Get(GraphAPIBase + "/me/accounts")
	if err != nil {
		return nil, fmt.Errorf("拉取主页列表失败: %v", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("graph api error: status %d, body %s", resp.StatusCode(), resp.String())
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("该账号未托管任何主页")
	}

	first := result.Data[0]
	return &pageInfo{id: first.ID, name: first.Name, accessToken: first.AccessToken}, nil
}

// ==================== Token 续期 ====================

// RefreshPageToken 续期店铺的长期 Page Token
// 失败只记状态不重试，由下一轮周期任务再试
func (s *OAuthService) RefreshPageToken(ctx context.Context, shop *model.Shop) error {
	if shop.FacebookPageAccessToken == "" {
		return fmt.Errorf("店铺 [%s] 未绑定主页", shop.Name)
	}

	newToken, expiresIn, err := s.ExchangeLongLivedToken(ctx, shop.FacebookPageAccessToken)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)
	return s.shopRepo.UpdateFields(ctx, shop.ID, map[string]interface{}{
		"facebook_page_access_token": newToken,
		"token_expires_at":           expiresAt,
	})
}
