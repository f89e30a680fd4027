// Package similarity 相似图检索服务:图片加载 + 百度图像搜索
package similarity

import (
	"context"

	"github.com/xiebiao/mall/internal/infrastructure/imageloader"
	"github.com/xiebiao/mall/pkg/baidu"
)

// Vendor 图像搜索接口(*baidu.Client实现了该接口)
type Vendor interface {
	Add(ctx context.Context, imageBase64, brief string) (*baidu.AddResult, error)
	Search(ctx context.Context, imageBase64 string, pn, rn int) (*baidu.SearchResult, error)
	Delete(ctx context.Context, contSign string) (*baidu.DeleteResult, error)
}

// Encoder 图片编码接口(*imageloader.Loader实现了该接口)
type Encoder interface {
	Encode(ctx context.Context, src imageloader.Source) (string, error)
}

// Tokener 获取Access Token
type Tokener interface {
	Token(ctx context.Context) (string, error)
}

// Service 相似图检索服务
// 每个操作先取Token再编码图片:未配置密钥时不需要读取图片就能失败
type Service struct {
	vendor  Vendor
	encoder Encoder
	tokens  Tokener
}

// NewService 创建检索服务
func NewService(client *baidu.Client, loader *imageloader.Loader) *Service {
	return &Service{vendor: client, encoder: loader, tokens: client.Tokens()}
}

// newService 测试中注入替身
func newService(vendor Vendor, encoder Encoder, tokens Tokener) *Service {
	return &Service{vendor: vendor, encoder: encoder, tokens: tokens}
}

// Enroll 图片入库,label写入brief
func (s *Service) Enroll(ctx context.Context, src imageloader.Source, label string) (*baidu.AddResult, error) {
	if _, err := s.tokens.Token(ctx); err != nil {
		return nil, err
	}

	img, err := s.encoder.Encode(ctx, src)
	if err != nil {
		return nil, err
	}

	return s.vendor.Add(ctx, img, label)
}

// FindSimilar 相似图检索
// 没有命中返回空列表
func (s *Service) FindSimilar(ctx context.Context, src imageloader.Source, pn, rn int) ([]baidu.Hit, error) {
	if _, err := s.tokens.Token(ctx); err != nil {
		return nil, err
	}

	img, err := s.encoder.Encode(ctx, src)
	if err != nil {
		return nil, err
	}

	result, err := s.vendor.Search(ctx, img, pn, rn)
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

// Remove 按签名删除
func (s *Service) Remove(ctx context.Context, contSign string) (*baidu.DeleteResult, error) {
	return s.vendor.Delete(ctx, contSign)
}
