package imagesearch

import (
	"errors"

	"github.com/xiebiao/mall/internal/domain/product"
	apperrors "github.com/xiebiao/mall/pkg/errors"
)

// BatchRequest 批量入库/删除请求
type BatchRequest struct {
	ProductIDs []uint
}

// BatchResult 批量处理结果
// 每个商品独立处理、独立提交,Total = SuccessCount + FailedCount
type BatchResult struct {
	Total        int           `json:"total"`
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	Success      []SuccessItem `json:"success"`
	Failed       []FailedItem  `json:"failed"`
	Found        int           `json:"found"`              // 存在的商品数
	Enrolled     int           `json:"enrolled,omitempty"` // 删除时:已入库的商品数
}

// SuccessItem 成功项
type SuccessItem struct {
	ProductID uint   `json:"product_id"`
	ContSign  string `json:"cont_sign,omitempty"`
}

// FailedItem 失败项
type FailedItem struct {
	ProductID uint   `json:"product_id"`
	Reason    string `json:"reason"`
}

func newBatchResult(n int) *BatchResult {
	return &BatchResult{
		Success: make([]SuccessItem, 0, n),
		Failed:  make([]FailedItem, 0),
	}
}

func (r *BatchResult) succeed(id uint, contSign string) {
	r.Success = append(r.Success, SuccessItem{ProductID: id, ContSign: contSign})
	r.SuccessCount++
	r.Total++
}

// fail 记录失败,原因使用错误的用户提示信息
func (r *BatchResult) fail(id uint, err error) {
	r.Failed = append(r.Failed, FailedItem{ProductID: id, Reason: apperrors.GetAppError(err).Message})
	r.FailedCount++
	r.Total++
}

// isConfigError 未配置百度凭证,整批失败,不计入单个商品
func isConfigError(err error) bool {
	var appErr *apperrors.AppError
	for e := err; errors.As(e, &appErr); e = appErr.Err {
		if appErr.Code == apperrors.ErrCodeVendorConfig {
			return true
		}
	}
	return false
}

// productExists 查询失败时商品是否视为存在
// 只有明确的"商品不存在"才算不存在,数据库故障等按存在处理
func productExists(err error) bool {
	return !errors.Is(err, product.ErrProductNotFound)
}
