// Package imageloader 将图片引用（内存数据、URL、本地路径、对象存储key）统一转换为base64
package imageloader

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/xiebiao/mall/pkg/errors"
)

// DefaultMaxSize 默认单张图片最大10MB
const DefaultMaxSize int64 = 10 << 20

// Source 图片来源
// Data非空时直接使用，否则按Ref解析
type Source struct {
	Data []byte
	Ref  string
}

// FromBytes 内存中的图片
func FromBytes(data []byte) Source {
	return Source{Data: data}
}

// FromRef URL或文件路径
func FromRef(ref string) Source {
	return Source{Ref: ref}
}

func (s Source) String() string {
	if len(s.Data) > 0 {
		return fmt.Sprintf("<%d bytes>", len(s.Data))
	}
	return s.Ref
}

// ObjectStore 对象存储（可选的最后一级回退）
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Config 加载器配置
type Config struct {
	UploadRoot  string        // 本地上传根目录
	MaxSize     int64         // 单张图片最大字节数
	HTTPTimeout time.Duration // 下载远程图片超时
}

// Loader 图片加载器
type Loader struct {
	cfg        Config
	httpClient *http.Client
	store      ObjectStore
	logger     *zap.Logger
}

// Option 加载器选项
type Option func(*Loader)

// WithObjectStore 启用对象存储回退
func WithObjectStore(store ObjectStore) Option {
	return func(l *Loader) { l.store = store }
}

// WithHTTPClient 替换下载使用的HTTP客户端
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.httpClient = c }
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New 创建加载器
func New(cfg Config, opts ...Option) *Loader {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	l := &Loader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Encode 读取图片并返回base64编码
//
// 解析顺序（命中即停止）：
// 1. 内存数据
// 2. http(s)地址：下载
// 3. 存在的绝对路径：读取
// 4. 相对上传根目录的路径（依次尝试原路径、去掉首段后的路径）
// 5. 对象存储key（配置了ObjectStore时）
func (l *Loader) Encode(ctx context.Context, src Source) (string, error) {
	data, err := l.Load(ctx, src)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Load 读取图片原始字节
func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	if len(src.Data) > 0 {
		if int64(len(src.Data)) > l.cfg.MaxSize {
			return nil, readError(src.String(), fmt.Errorf("图片超过%d字节", l.cfg.MaxSize))
		}
		return src.Data, nil
	}

	ref := strings.TrimSpace(src.Ref)
	if ref == "" {
		return nil, readError("", fmt.Errorf("图片地址为空"))
	}

	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return l.fetch(ctx, ref)
	}

	if filepath.IsAbs(ref) && fileExists(ref) {
		return l.readFile(ref)
	}

	attempted := make([]string, 0, 3)
	for _, candidate := range l.uploadCandidates(ref) {
		attempted = append(attempted, candidate)
		if fileExists(candidate) {
			return l.readFile(candidate)
		}
	}

	if l.store != nil {
		key := strings.TrimLeft(filepath.ToSlash(ref), "/")
		attempted = append(attempted, "object:"+key)
		data, err := l.store.Get(ctx, key)
		if err == nil {
			return l.checkSize(key, data)
		}
		l.logger.Debug("对象存储读取失败", zap.String("key", key), zap.Error(err))
	}

	return nil, readError(strings.Join(attempted, ", "), fmt.Errorf("文件不存在"))
}

// uploadCandidates 上传目录下的候选路径
// 如 /uploads/products/a.jpg → <root>/uploads/products/a.jpg, <root>/products/a.jpg
func (l *Loader) uploadCandidates(ref string) []string {
	rel := strings.TrimLeft(filepath.ToSlash(ref), "/")
	if rel == "" {
		return nil
	}

	candidates := []string{filepath.Join(l.cfg.UploadRoot, filepath.FromSlash(rel))}
	if idx := strings.Index(rel, "/"); idx > 0 && idx < len(rel)-1 {
		candidates = append(candidates, filepath.Join(l.cfg.UploadRoot, filepath.FromSlash(rel[idx+1:])))
	}
	return candidates
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, readError(rawURL, err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, readError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readError(rawURL, fmt.Errorf("HTTP状态码%d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.cfg.MaxSize+1))
	if err != nil {
		return nil, readError(rawURL, err)
	}
	return l.checkSize(rawURL, data)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, readError(path, err)
	}
	if info.Size() > l.cfg.MaxSize {
		return nil, readError(path, fmt.Errorf("图片超过%d字节", l.cfg.MaxSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(path, err)
	}
	return data, nil
}

func (l *Loader) checkSize(path string, data []byte) ([]byte, error) {
	if int64(len(data)) > l.cfg.MaxSize {
		return nil, readError(path, fmt.Errorf("图片超过%d字节", l.cfg.MaxSize))
	}
	if len(data) == 0 {
		return nil, readError(path, fmt.Errorf("图片内容为空"))
	}
	return data, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// readError 图片读取失败，提示信息包含尝试过的路径
func readError(path string, cause error) error {
	return apperrors.WithCode(apperrors.ErrCodeImageRead, cause,
		fmt.Sprintf("读取图片失败: %s (%v)", path, cause))
}
