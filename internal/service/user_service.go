// Package service 包含了应用的业务逻辑层。
package service

import (
	"ai-lawyer-go/internal/apperr"
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/internal/repository"
	"ai-lawyer-go/pkg/database"
	"ai-lawyer-go/pkg/hash"
	"ai-lawyer-go/pkg/token"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(email, password, firstName, lastName string) (*model.Profile, error)
	Login(email, password string) (accessToken, refreshToken string, err error)
	GetProfile(userID string) (*model.Profile, error)
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	Logout(tokenString string) error
	ListProfiles(page, size int) ([]model.Profile, int64, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	profileRepo repository.ProfileRepository
	jwtManager  *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(profileRepo repository.ProfileRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		profileRepo: profileRepo,
		jwtManager:  jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(email, password, firstName, lastName string) (*model.Profile, error) {
	if email == "" || password == "" {
		return nil, apperr.New(apperr.KindInvalid, "email and password are required")
	}

	// 1. 检查邮箱是否已被注册
	_, err := s.profileRepo.FindByEmail(email)
	if err == nil {
		return nil, apperr.New(apperr.KindInvalid, "email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 创建新的用户资料
	profile := &model.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hashedPassword,
		Role:         "user", // 默认角色
	}
	if err := s.profileRepo.Create(profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(email, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	profile, err := s.profileRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apperr.New(apperr.KindNotAuthenticated, "invalid credentials")
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPassword(password, profile.PasswordHash) {
		return "", "", apperr.New(apperr.KindNotAuthenticated, "invalid credentials")
	}

	// 3. 生成 access token 和 refresh token
	accessToken, err = s.jwtManager.GenerateToken(profile.ID, profile.Email, profile.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.jwtManager.GenerateRefreshToken(profile.ID, profile.Email, profile.Role)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// GetProfile 根据用户 ID 获取用户资料。
func (s *userService) GetProfile(userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "profile not found")
		}
		return nil, err
	}
	return profile, nil
}

// RefreshToken 校验 refresh token 并签发新的 token 对。
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return "", "", apperr.Wrap(apperr.KindNotAuthenticated, "invalid refresh token", err)
	}

	// 确认用户仍然存在
	profile, err := s.profileRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apperr.New(apperr.KindNotAuthenticated, "invalid refresh token")
		}
		return "", "", err
	}

	newAccessToken, err = s.jwtManager.GenerateToken(profile.ID, profile.Email, profile.Role)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err = s.jwtManager.GenerateRefreshToken(profile.ID, profile.Email, profile.Role)
	if err != nil {
		return "", "", err
	}
	return newAccessToken, newRefreshToken, nil
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
func (s *userService) Logout(tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return apperr.Wrap(apperr.KindNotAuthenticated, "invalid token", err)
	}
	// 使用 Redis 实现一个简单的 token 黑名单。
	// token 的剩余有效期将作为 Redis key 的过期时间。
	expiration := time.Until(claims.ExpiresAt.Time)
	if expiration <= 0 {
		return nil
	}
	return database.RDB.Set(context.Background(), "blacklist:"+tokenString, "true", expiration).Err()
}

// ListProfiles 分页检索全部用户资料，供管理端使用。
func (s *userService) ListProfiles(page, size int) ([]model.Profile, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return s.profileRepo.FindWithPagination((page-1)*size, size)
}
