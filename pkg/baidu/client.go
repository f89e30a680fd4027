// Package baidu 百度图像搜索（相似图检索）客户端
//
// 封装三个接口：入库(add)、检索(search)、删除(delete)，
// 所有请求均为application/x-www-form-urlencoded的POST，access_token放在query中。
package baidu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/mall/pkg/errors"
	"github.com/xiebiao/mall/pkg/metrics"
	"github.com/xiebiao/mall/pkg/tracing"
)

const (
	// MaxPageSize 检索接口单页最多返回10条
	MaxPageSize = 10

	maxResponseSize = 4 << 20

	tracerName = "baidu-image-search"
)

// 百度返回这两个错误码时表示Access Token无效或过期
const (
	errCodeInvalidToken = 110
	errCodeTokenExpired = 111
)

// ErrNotConfigured 未配置API Key/Secret Key
var ErrNotConfigured = apperrors.New(apperrors.ErrCodeVendorConfig, "百度图像搜索未配置API Key或Secret Key")

// Doer 发送HTTP请求（*http.Client实现了该接口）
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config 客户端配置
type Config struct {
	APIKey    string
	SecretKey string
	TokenURL  string
	AddURL    string
	SearchURL string
	DeleteURL string
	Timeout   time.Duration
}

// APIError 百度接口返回的业务错误
type APIError struct {
	Code int    `json:"error_code"`
	Msg  string `json:"error_msg"`
	Raw  string `json:"-"` // 原始响应
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("baidu error %d: %s", e.Code, e.Msg)
	}
	return "baidu error: " + e.Msg
}

// AddResult 入库结果
type AddResult struct {
	ContSign string // 图片签名，删除时使用
	LogID    string
}

// Hit 检索命中
type Hit struct {
	Brief    string  `json:"brief"`
	Score    float64 `json:"score"`
	ContSign string  `json:"cont_sign"`
}

// SearchResult 检索结果
type SearchResult struct {
	Hits    []Hit
	HasMore bool
	LogID   string
}

// DeleteResult 删除结果
type DeleteResult struct {
	LogID string
}

// Client 百度图像搜索客户端
type Client struct {
	cfg        Config
	httpClient Doer
	tokens     *TokenManager
	logger     *zap.Logger
	now        func() time.Time
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 替换HTTP客户端（测试中使用httptest）
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.httpClient = d }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock 替换时钟（测试Token过期）
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient 创建客户端
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.tokens = NewTokenManager(cfg, c.httpClient, c.now, c.logger)
	return c
}

// Tokens 返回Token管理器
func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

// Add 图片入库
//
// imageBase64: base64编码的图片
// brief: 自定义摘要，检索时原样返回（这里存放商品ID）
func (c *Client) Add(ctx context.Context, imageBase64, brief string) (*AddResult, error) {
	form := url.Values{}
	form.Set("image", imageBase64)
	form.Set("brief", brief)

	var out struct {
		ContSign string      `json:"cont_sign"`
		LogID    json.Number `json:"log_id"`
	}
	body, err := c.call(ctx, "add", c.cfg.AddURL, form, apperrors.ErrCodeVendorEnroll, "图片入库失败", &out)
	if err != nil {
		return nil, err
	}

	if out.ContSign == "" {
		return nil, vendorError(apperrors.ErrCodeVendorEnroll, "图片入库失败", body,
			&APIError{Msg: "响应缺少cont_sign", Raw: string(body)})
	}

	return &AddResult{ContSign: out.ContSign, LogID: out.LogID.String()}, nil
}

// Search 相似图检索
//
// pn: 分页起始位置（从0开始）
// rn: 返回条数，最大10，超过时截断为10
// 没有命中时返回空列表，不视为错误
func (c *Client) Search(ctx context.Context, imageBase64 string, pn, rn int) (*SearchResult, error) {
	pn, rn = normalizePage(pn, rn)

	form := url.Values{}
	form.Set("image", imageBase64)
	form.Set("pn", strconv.Itoa(pn))
	form.Set("rn", strconv.Itoa(rn))

	var out struct {
		ResultNum int         `json:"result_num"`
		Result    []Hit       `json:"result"`
		HasMore   bool        `json:"has_more"`
		LogID     json.Number `json:"log_id"`
	}
	if _, err := c.call(ctx, "search", c.cfg.SearchURL, form, apperrors.ErrCodeVendorSearch, "图片检索失败", &out); err != nil {
		return nil, err
	}

	hits := out.Result
	if hits == nil {
		hits = []Hit{}
	}

	return &SearchResult{Hits: hits, HasMore: out.HasMore, LogID: out.LogID.String()}, nil
}

// Delete 按签名删除已入库图片
func (c *Client) Delete(ctx context.Context, contSign string) (*DeleteResult, error) {
	form := url.Values{}
	form.Set("cont_sign", contSign)

	var out struct {
		LogID json.Number `json:"log_id"`
	}
	if _, err := c.call(ctx, "delete", c.cfg.DeleteURL, form, apperrors.ErrCodeVendorDelete, "图片删除失败", &out); err != nil {
		return nil, err
	}

	return &DeleteResult{LogID: out.LogID.String()}, nil
}

// call 发送表单请求并解析响应
// 返回原始响应体，便于调用方在业务校验失败时携带原始内容
func (c *Client) call(ctx context.Context, op, endpoint string, form url.Values, code int, msg string, out interface{}) (body []byte, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "baidu."+op)
	start := time.Now()
	defer func() {
		metrics.IncCounterVec(metrics.VendorRequestsTotal, map[string]string{"operation": op, "result": metrics.Result(err)})
		metrics.ObserveHistogramVec(metrics.VendorRequestDuration, map[string]string{"operation": op}, time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, apperrors.WithCode(code, err, msg+": 无效的接口地址")
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.WithCode(code, err, msg)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.WithCode(code, err, msg+": "+err.Error())
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, apperrors.WithCode(code, err, msg+": 读取响应失败")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, vendorError(code, msg, body, &APIError{Msg: resp.Status, Raw: string(body)})
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return body, vendorError(code, msg, body, err)
	}
	if apiErr.Code != 0 {
		apiErr.Raw = string(body)
		if apiErr.Code == errCodeInvalidToken || apiErr.Code == errCodeTokenExpired {
			c.tokens.Invalidate()
		}
		c.logger.Warn("百度接口返回错误",
			zap.String("operation", op),
			zap.Int("error_code", apiErr.Code),
			zap.String("error_msg", apiErr.Msg),
		)
		return body, vendorError(code, msg, body, &apiErr)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return body, vendorError(code, msg, body, err)
	}

	return body, nil
}

// vendorError 构造携带原始响应的业务错误
func vendorError(code int, msg string, body []byte, cause error) error {
	return apperrors.WithCode(code, cause, fmt.Sprintf("%s: %s", msg, strings.TrimSpace(string(body))))
}

func normalizePage(pn, rn int) (int, int) {
	if pn < 0 {
		pn = 0
	}
	if rn <= 0 || rn > MaxPageSize {
		rn = MaxPageSize
	}
	return pn, rn
}
