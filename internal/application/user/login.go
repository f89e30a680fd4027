package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/mall/internal/domain/user"
	"github.com/xiebiao/mall/pkg/jwt"
)

// SessionStore 会话存储(*redis.SessionStore实现了该接口)
type SessionStore interface {
	SaveSession(ctx context.Context, userID uint, sessionData map[string]interface{}, ttl time.Duration) error
	DeleteSession(ctx context.Context, userID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// LoginUseCase 登录：校验密码、签发Token对、记录会话
type LoginUseCase struct {
	userService  user.Service
	jwtManager   *jwt.Manager
	sessionStore SessionStore
	sessionTTL   time.Duration
	logger       *zap.Logger
}

// NewLoginUseCase 创建登录用例
// sessionTTL与Refresh Token有效期一致
func NewLoginUseCase(
	userService user.Service,
	jwtManager *jwt.Manager,
	sessionStore SessionStore,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *LoginUseCase {
	return &LoginUseCase{
		userService:  userService,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		sessionTTL:   sessionTTL,
		logger:       logger,
	}
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := uc.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	tokenPair, err := uc.jwtManager.GenerateToken(u.ID, u.Email, u.Nickname, u.Role)
	if err != nil {
		return nil, err
	}

	sessionData := map[string]interface{}{
		"user_id":  u.ID,
		"email":    u.Email,
		"nickname": u.Nickname,
		"role":     u.Role,
		"login_at": time.Now().Unix(),
		"ip":       req.ClientIP,
	}

	// 会话保存失败不影响登录
	if err := uc.sessionStore.SaveSession(ctx, u.ID, sessionData, uc.sessionTTL); err != nil {
		uc.logger.Warn("保存会话失败", zap.Uint("user_id", u.ID), zap.Error(err))
	}

	return &LoginResponse{
		User: UserInfo{
			ID:       u.ID,
			Email:    u.Email,
			Nickname: u.Nickname,
			Role:     u.Role,
		},
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// LogoutUseCase 登出：删除会话，Access Token在剩余有效期内进黑名单
type LogoutUseCase struct {
	sessionStore SessionStore
	defaultTTL   time.Duration
	now          func() time.Time
}

// NewLogoutUseCase 创建登出用例
// defaultTTL在不知道Token过期时间时使用，取Access Token有效期
func NewLogoutUseCase(sessionStore SessionStore, defaultTTL time.Duration) *LogoutUseCase {
	return &LogoutUseCase{sessionStore: sessionStore, defaultTTL: defaultTTL, now: time.Now}
}

// LogoutRequest 登出请求
type LogoutRequest struct {
	UserID      uint
	AccessToken string
	ExpiresAt   time.Time // 零值表示未知
}

// Execute 执行登出
func (uc *LogoutUseCase) Execute(ctx context.Context, req LogoutRequest) error {
	if err := uc.sessionStore.DeleteSession(ctx, req.UserID); err != nil {
		return err
	}

	ttl := uc.defaultTTL
	if !req.ExpiresAt.IsZero() {
		ttl = req.ExpiresAt.Sub(uc.now())
	}
	if ttl <= 0 {
		// 已过期的Token无需拉黑
		return nil
	}
	return uc.sessionStore.AddToBlacklist(ctx, req.AccessToken, ttl)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // Access Token过期时间（秒）
}

// UserInfo 用户信息
type UserInfo struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}
