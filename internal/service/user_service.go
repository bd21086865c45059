package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/haierkeys/block-note-service/internal/domain"
	"github.com/haierkeys/block-note-service/internal/dto"
	"github.com/haierkeys/block-note-service/pkg/app"
	"github.com/haierkeys/block-note-service/pkg/code"
	"github.com/haierkeys/block-note-service/pkg/logger"
	"github.com/haierkeys/block-note-service/pkg/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// UserService 定义用户业务服务接口
type UserService interface {
	// Register 用户注册
	Register(ctx context.Context, params *dto.UserCreateRequest) error

	// Login 用户登录
	Login(ctx context.Context, params *dto.UserLoginRequest, clientIP string) (*dto.LoginResponse, error)

	// Count 用户总数
	Count(ctx context.Context) (*dto.CountDTO, error)

	// GetAllUIDs 获取所有用户的 UID
	GetAllUIDs(ctx context.Context) ([]int64, error)

	// Exists 用户是否仍然存在
	Exists(ctx context.Context, uid int64) (bool, error)
}

// userService 实现 UserService 接口
type userService struct {
	userRepo     domain.UserRepository
	tokenManager app.TokenManager
	logger       *zap.Logger
	config       *ServiceConfig
	sf           singleflight.Group
}

// NewUserService 创建 UserService 实例
func NewUserService(userRepo domain.UserRepository, tokenManager app.TokenManager, logger *zap.Logger, config *ServiceConfig) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config == nil {
		config = DefaultServiceConfig()
	}
	return &userService{
		userRepo:     userRepo,
		tokenManager: tokenManager,
		logger:       logger,
		config:       config,
	}
}

// Register 用户注册
func (s *userService) Register(ctx context.Context, params *dto.UserCreateRequest) error {
	// 检查注册是否启用
	if !s.config.User.RegisterIsEnable {
		return code.ErrorUserRegisterIsDisable
	}

	username := strings.TrimSpace(params.Username)
	if username == "" || utf8.RuneCountInString(username) > s.config.usernameMax() {
		return code.ErrorUserUsernameNotValid
	}
	if utf8.RuneCountInString(params.Password) < s.config.passwordMin() {
		return code.ErrorPasswordNotValid
	}

	// 检查用户名是否已存在
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Error("userService.Register lookup failed", zap.Error(err))
		return code.ErrorDBQuery
	}
	if existing != nil {
		return code.ErrorUserAlreadyExists
	}

	// 生成密码哈希
	password, err := util.GeneratePasswordHash(params.Password)
	if err != nil {
		return code.ErrorPasswordNotValid
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Username: username,
		Password: password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return code.ErrorUserAlreadyExists
		}
		return code.ErrorUserRegister.WithDetails(err.Error())
	}

	s.logger.Info("user registered",
		zap.Int64(logger.FieldUID, user.UID),
		zap.String("username", user.Username))
	return nil
}

// Login 用户登录
func (s *userService) Login(ctx context.Context, params *dto.UserLoginRequest, clientIP string) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(params.Username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// 与存在的用户耗时一致
			util.CheckPasswordAgainstNothing(params.Password)
			return nil, code.ErrorUserLoginPasswordFailed
		}
		s.logger.Error("userService.Login lookup failed", zap.Error(err))
		return nil, code.ErrorDBQuery
	}

	if !util.CheckPasswordHash(user.Password, params.Password) {
		return nil, code.ErrorUserLoginPasswordFailed
	}

	token, err := s.tokenManager.Issue(user.UID, user.Username, clientIP)
	if err != nil {
		return nil, code.ErrorTokenGenerate.WithDetails(err.Error())
	}

	return &dto.LoginResponse{
		Token:    token,
		Username: user.Username,
		UserID:   user.UID,
	}, nil
}

// Count 用户总数，并发请求合并
func (s *userService) Count(ctx context.Context) (*dto.CountDTO, error) {
	v, err, _ := s.sf.Do("user:count", func() (any, error) {
		return s.userRepo.Count(ctx)
	})
	if err != nil {
		s.logger.Error("userService.Count failed", zap.Error(err))
		return nil, code.ErrorDBQuery
	}
	return &dto.CountDTO{Count: v.(int64)}, nil
}

// GetAllUIDs 获取所有用户的 UID
func (s *userService) GetAllUIDs(ctx context.Context) ([]int64, error) {
	uids, err := s.userRepo.GetAllUIDs(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return uids, nil
}

// Exists 用户是否仍然存在
func (s *userService) Exists(ctx context.Context, uid int64) (bool, error) {
	if _, err := s.userRepo.GetByUID(ctx, uid); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		s.logger.Error("userService.Exists lookup failed", zap.Int64(logger.FieldUID, uid), zap.Error(err))
		return false, code.ErrorDBQuery
	}
	return true, nil
}
