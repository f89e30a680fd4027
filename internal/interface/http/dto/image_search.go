package dto

// BatchProductsRequest 批量入库/删除请求
type BatchProductsRequest struct {
	ProductIDs []uint `json:"product_ids" binding:"required,min=1,dive,min=1" example:"1,2,3"`
}

// SearchByImageForm 以图搜图的表单参数(图片文件字段为image)
type SearchByImageForm struct {
	Page  int `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=10" example:"10"`
}

// ListIndexQuery 已入库/未入库商品列表查询参数
type ListIndexQuery struct {
	Page       int    `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100" example:"20"`
	Name       string `form:"name" binding:"omitempty,max=100" example:"连衣裙"`
	CategoryID uint   `form:"category_id" example:"3"`
}

// ProductIDURI 路径参数
type ProductIDURI struct {
	ProductID uint `uri:"product_id" binding:"required,min=1" example:"1"`
}
