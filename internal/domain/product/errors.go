package product

import (
	apperrors "github.com/xiebiao/mall/pkg/errors"
)

// 商品领域错误定义
var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = apperrors.New(apperrors.ErrCodeProductNotFound, "商品不存在")

	// ErrNoPrimaryImage 商品没有主图
	ErrNoPrimaryImage = apperrors.New(apperrors.ErrCodeProductImageNotFound, "没有主图")

	// ErrNotIndexed 商品未入库
	ErrNotIndexed = apperrors.New(apperrors.ErrCodeNotIndexed, "未入库")

	// ErrIndexEntryNotFound 签名没有对应的映射
	ErrIndexEntryNotFound = apperrors.New(apperrors.ErrCodeIndexEntryNotFound, "图库签名不存在")

	// ErrNothingFound 批量操作中的商品都不存在
	ErrNothingFound = apperrors.New(apperrors.ErrCodeBatchNothingFound, "所选商品均不存在")
)
