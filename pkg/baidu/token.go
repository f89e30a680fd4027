package baidu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/xiebiao/mall/pkg/errors"
	"github.com/xiebiao/mall/pkg/metrics"
)

// tokenSafetyMargin 提前1小时视为过期，避免调用过程中Token失效
const tokenSafetyMargin = time.Hour

// TokenManager Access Token管理器
//
// 生命周期：
// 1. 进程启动时为空
// 2. 第一次调用百度接口时换取Token并缓存
// 3. 过期（或被Invalidate）后在下一次调用时重新换取
// 4. 不落库，进程重启后重新获取
//
// 并发请求同时发现过期时，通过singleflight共享同一次换取。
type TokenManager struct {
	apiKey    string
	secretKey string
	tokenURL  string

	httpClient Doer
	now        func() time.Time
	logger     *zap.Logger

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// tokenResponse 百度OAuth接口响应
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"` // 秒
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewTokenManager 创建Token管理器
func NewTokenManager(cfg Config, httpClient Doer, now func() time.Time, logger *zap.Logger) *TokenManager {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenManager{
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		tokenURL:   cfg.TokenURL,
		httpClient: httpClient,
		now:        now,
		logger:     logger,
	}
}

// Token 获取有效的Access Token
// 缓存未过期时直接返回，不发起网络请求
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if m.apiKey == "" || m.secretKey == "" {
		return "", ErrNotConfigured
	}

	if token, ok := m.cached(); ok {
		return token, nil
	}

	// 换取过程由多个调用方共享,不随发起者的ctx取消,超时由HTTP客户端控制
	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan("token", func() (interface{}, error) {
		// 等待期间可能已被其他请求刷新
		if token, ok := m.cached(); ok {
			return token, nil
		}
		return m.refresh(shared)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate 丢弃缓存的Token（百度返回Token无效/过期时调用）
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}

// ExpiresAt 当前缓存Token的过期时间（已扣除安全余量）
func (m *TokenManager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiresAt
}

func (m *TokenManager) cached() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token != "" && m.now().Before(m.expiresAt) {
		return m.token, true
	}
	return "", false
}

// refresh 使用client_credentials换取新Token
func (m *TokenManager) refresh(ctx context.Context) (token string, err error) {
	defer func() {
		metrics.IncCounterVec(metrics.TokenRefreshesTotal, map[string]string{"result": metrics.Result(err)})
	}()

	u, err := url.Parse(m.tokenURL)
	if err != nil {
		return "", apperrors.WithCode(apperrors.ErrCodeVendorAuth, err, "获取Access Token失败: 无效的token_url")
	}
	q := u.Query()
	q.Set("grant_type", "client_credentials")
	q.Set("client_id", m.apiKey)
	q.Set("client_secret", m.secretKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return "", apperrors.WithCode(apperrors.ErrCodeVendorAuth, err, "获取Access Token失败")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", apperrors.WithCode(apperrors.ErrCodeVendorAuth, err, "获取Access Token失败: "+err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", apperrors.WithCode(apperrors.ErrCodeVendorAuth, err, "获取Access Token失败: 读取响应失败")
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", authError(body, err)
	}
	if tr.Error != "" || tr.AccessToken == "" {
		return "", authError(body, &APIError{Msg: tr.Error + ": " + tr.ErrorDescription, Raw: string(body)})
	}

	now := m.now()
	expiresAt := now.Add(time.Duration(tr.ExpiresIn)*time.Second - tokenSafetyMargin)

	m.mu.Lock()
	m.token = tr.AccessToken
	m.expiresAt = expiresAt
	m.mu.Unlock()

	m.logger.Info("百度Access Token已刷新", zap.Time("expires_at", expiresAt))
	return tr.AccessToken, nil
}

func authError(body []byte, cause error) error {
	return apperrors.WithCode(apperrors.ErrCodeVendorAuth, cause,
		fmt.Sprintf("获取Access Token失败: %s", string(body)))
}
