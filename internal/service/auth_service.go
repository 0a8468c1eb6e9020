package service

import (
	"errors"
	"strings"
	"time"

	"studysync_backend/internal/config"
	"studysync_backend/internal/model"
	"studysync_backend/internal/repository"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TierResolver 查询用户当前生效的订阅等级
type TierResolver interface {
	TierFor(userID string) (model.Tier, error)
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Tiers    TierResolver
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, tiers TierResolver, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Tiers:    tiers,
		Cfg:      cfg,
	}
}

// issueToken 查不到等级时按免费版签发，不影响登录
func (s *AuthService) issueToken(user *model.User) (string, error) {
	tier := model.TierFree
	if s.Tiers != nil {
		t, err := s.Tiers.TierFor(user.ID)
		if err != nil {
			logger.Log.Warn("failed to resolve tier for token", zap.String("userId", user.ID), zap.Error(err))
		} else {
			tier = t
		}
	}
	return util.GenerateJWT(user, tier, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

func (s *AuthService) Register(name, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.UserRepo.FindByEmail(email)
	if err == nil {
		return nil, "", util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	user := &model.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
		Role:     model.Student,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(email, password string) (*model.User, string, error) {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", util.ErrInvalidCredentials
	}
	if user.Disabled {
		return nil, "", util.ErrPermissionDenied
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", util.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	if err := s.UserRepo.UpdateLastLogin(user.ID, time.Now()); err != nil {
		logger.Log.Warn("failed to update last login", zap.String("userId", user.ID), zap.Error(err))
	}
	return user, token, nil
}

func (s *AuthService) Profile(userID string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}
