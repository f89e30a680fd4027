package imageloader

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig 对象存储连接配置
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	MaxSize   int64
}

// MinIOStore 基于MinIO的ObjectStore实现
type MinIOStore struct {
	client  *minio.Client
	bucket  string
	maxSize int64
}

// NewMinIOStore 创建MinIO客户端
// 只创建客户端，不检查bucket是否存在（读取失败时由Loader给出路径提示）
func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket, maxSize: maxSize}, nil
}

// Get 读取对象内容
func (s *MinIOStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	// GetObject是惰性的，Stat时才真正请求
	info, err := obj.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size > s.maxSize {
		return nil, fmt.Errorf("对象%s超过%d字节", key, s.maxSize)
	}

	return io.ReadAll(obj)
}
