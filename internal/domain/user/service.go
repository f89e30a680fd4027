package user

import (
	"context"
	"errors"
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/mall/pkg/errors"
)

const bcryptCost = 12

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	letterRe     = regexp.MustCompile(`[a-zA-Z]`)
	digitRe      = regexp.MustCompile(`[0-9]`)
)

// Service 用户领域服务
type Service interface {
	// Register 注册普通用户
	Register(ctx context.Context, email, password, nickname string) (*User, error)

	// CreateAdmin 创建管理员，admin create命令使用
	CreateAdmin(ctx context.Context, email, password, nickname string) (*User, error)

	// PromoteAdmin 将已有用户提升为管理员
	PromoteAdmin(ctx context.Context, email string) (*User, error)

	// Login 校验邮箱和密码
	Login(ctx context.Context, email, password string) (*User, error)
}

type service struct {
	repo Repository
}

// NewService 创建用户服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, email, password, nickname string) (*User, error) {
	return s.create(ctx, email, password, nickname, RoleUser)
}

func (s *service) CreateAdmin(ctx context.Context, email, password, nickname string) (*User, error) {
	return s.create(ctx, email, password, nickname, RoleAdmin)
}

// create 校验后写库，邮箱唯一性由唯一索引保证
func (s *service) create(ctx context.Context, email, password, nickname, role string) (*User, error) {
	if err := validateProfile(email, password, nickname); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	u := NewUser(email, string(hashed), nickname, role)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// PromoteAdmin 已是管理员时原样返回
func (s *service) PromoteAdmin(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() {
		return u, nil
	}

	u.Role = RoleAdmin
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	switch {
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return nil, apperrors.ErrInvalidPassword
	case err != nil:
		return nil, apperrors.Wrap(err, "密码验证失败")
	}
	return u, nil
}

// validateProfile 邮箱格式、密码强度（8-20位，含字母和数字）、昵称2-50个字符
func validateProfile(email, password, nickname string) error {
	if !emailPattern.MatchString(email) {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")
	}
	if len(password) < 8 || len(password) > 20 || !letterRe.MatchString(password) || !digitRe.MatchString(password) {
		return apperrors.ErrWeakPassword
	}
	if n := utf8.RuneCountInString(nickname); n < 2 || n > 50 {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "昵称长度应为2-50个字符")
	}
	return nil
}
