package user

import (
	"context"

	"github.com/xiebiao/mall/internal/domain/user"
)

// RegisterUseCase 用户注册用例
type RegisterUseCase struct {
	userService user.Service
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(userService user.Service) *RegisterUseCase {
	return &RegisterUseCase{
		userService: userService,
	}
}

// Execute 执行注册
// 返回：RegisterResponse（应用层DTO，不是领域实体）
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	// 1. 调用领域服务执行注册
	user, err := uc.userService.Register(ctx, req.Email, req.Password, req.Nickname)
	if err != nil {
		return nil, err
	}

	// 2. 领域实体 → 应用层DTO
	// 说明：不直接返回领域实体，而是转换为DTO
	// 好处：领域模型变更不影响API契约
	return toRegisterResponse(user), nil
}

// CreateAdminUseCase 创建管理员（admin create命令使用）
type CreateAdminUseCase struct {
	userService user.Service
}

// NewCreateAdminUseCase 创建用例
func NewCreateAdminUseCase(userService user.Service) *CreateAdminUseCase {
	return &CreateAdminUseCase{userService: userService}
}

// Execute 创建管理员
func (uc *CreateAdminUseCase) Execute(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	admin, err := uc.userService.CreateAdmin(ctx, req.Email, req.Password, req.Nickname)
	if err != nil {
		return nil, err
	}
	return toRegisterResponse(admin), nil
}

// PromoteAdminUseCase 将已有用户提升为管理员（admin promote命令使用）
type PromoteAdminUseCase struct {
	userService user.Service
}

// NewPromoteAdminUseCase 创建用例
func NewPromoteAdminUseCase(userService user.Service) *PromoteAdminUseCase {
	return &PromoteAdminUseCase{userService: userService}
}

// Execute 提升为管理员
func (uc *PromoteAdminUseCase) Execute(ctx context.Context, email string) (*RegisterResponse, error) {
	u, err := uc.userService.PromoteAdmin(ctx, email)
	if err != nil {
		return nil, err
	}
	return toRegisterResponse(u), nil
}

func toRegisterResponse(u *user.User) *RegisterResponse {
	return &RegisterResponse{
		ID:       u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		Role:     u.Role,
	}
}

// =========================================
// 应用层DTO（数据传输对象）
// =========================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Nickname string
}

// RegisterResponse 注册响应
// 说明：不返回密码字段（安全考虑）
type RegisterResponse struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}
