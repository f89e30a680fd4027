// Package jwt 管理后台登录使用的Access/Refresh Token
package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/mall/pkg/errors"
)

const issuer = "mall"

// Token种类，写入kind声明，避免Refresh Token被当作Access Token使用
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Manager JWT管理器
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewManager 创建JWT管理器
func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Claims 自定义Claims，Role决定能否访问图库管理接口
type Claims struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Role     string `json:"role"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenPair 登录返回的Token对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access Token有效秒数
}

// GenerateToken 签发Token对
// Refresh Token只携带用户ID和角色
func (m *Manager) GenerateToken(userID uint, email, nickname, role string) (*TokenPair, error) {
	access, err := m.sign(Claims{UserID: userID, Email: email, Nickname: nickname, Role: role, Kind: KindAccess}, m.accessTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Access Token失败")
	}

	refresh, err := m.sign(Claims{UserID: userID, Role: role, Kind: KindRefresh}, m.refreshTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Refresh Token失败")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

// ParseToken 校验签名和有效期，不区分种类
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// ParseAccessToken 只接受Access Token，鉴权中间件使用
func (m *Manager) ParseAccessToken(tokenString string) (*Claims, error) {
	return m.parseKind(tokenString, KindAccess)
}

// RefreshAccessToken 用Refresh Token换新的Access Token
// 新Token不含邮箱和昵称
func (m *Manager) RefreshAccessToken(refreshToken string) (string, error) {
	claims, err := m.parseKind(refreshToken, KindRefresh)
	if err != nil {
		return "", err
	}

	token, err := m.sign(Claims{UserID: claims.UserID, Role: claims.Role, Kind: KindAccess}, m.accessTTL)
	if err != nil {
		return "", apperrors.Wrap(err, "刷新Token失败")
	}
	return token, nil
}

func (m *Manager) parseKind(tokenString, kind string) (*Claims, error) {
	claims, err := m.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}
