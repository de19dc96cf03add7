package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/config"
	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
	"github.com/TraitzTech/trazor-api-sub000/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email is already registered")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
)

// TokenBlacklist JWT 黑名单（Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Register 实习生自助注册，成功后直接签发 Token
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 使当前 Access Token（及可选的 Refresh Token）失效
	Logout(ctx context.Context, jti string, expiresAt time.Time, refreshToken string) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	tokens TokenBlacklist
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService 创建 AuthService 实例；tokens 为 nil 时登出只在客户端生效
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	tokens TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	// 3. 生成 Token 对
	return s.issueTokens(user, req.RememberMe)
}

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, string(user.Role), user.SpecialtyID())
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, string(user.Role), user.SpecialtyID(), rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邮箱失败", zap.Error(err))
		return nil, err
	}

	if _, err := s.repo.Specialty.GetByID(ctx, req.SpecialtyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}

	start, end, err := parseProgramDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	matric, err := nextMatriculationNumber(ctx, s.repo, s.now())
	if err != nil {
		s.logger.Error("生成学号失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         model.RoleIntern,
		IsActive:     true,
		InternProfile: &model.InternProfile{
			SpecialtyID:         req.SpecialtyID,
			MatriculationNumber: matric,
			Institution:         req.Institution,
			Level:               req.Level,
			Department:          req.Department,
			Option:              req.Option,
			StartDate:           start,
			EndDate:             end,
		},
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("注册用户失败", zap.Error(err))
		return nil, err
	}
	if err := recordActivity(ctx, s.repo, user.UserID, ActionUserRegistered, "Intern self-registered", "user", user.UserID); err != nil {
		s.logger.Warn("写入操作日志失败", zap.Error(err))
	}

	created, err := s.repo.User.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(created, false)
}

// parseProgramDates 解析实习起止日期，结束日期不得早于开始日期
func parseProgramDates(startStr, endStr string) (*time.Time, *time.Time, error) {
	start, err := parseOptionalDate(startStr)
	if err != nil {
		return nil, nil, pkgerrors.NewValidationError("start_date", "must be a valid date in YYYY-MM-DD format")
	}
	end, err := parseOptionalDate(endStr)
	if err != nil {
		return nil, nil, pkgerrors.NewValidationError("end_date", "must be a valid date in YYYY-MM-DD format")
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, pkgerrors.NewValidationError("end_date", "must not be before start_date")
	}
	return start, end, nil
}

// ────────────────────── Refresh / Logout ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidRefresh
	}
	if s.tokens != nil {
		revoked, err := s.tokens.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("查询 Token 黑名单失败", zap.Error(err))
		} else if revoked {
			return nil, ErrInvalidRefresh
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	// 轮换：旧 Refresh Token 作废
	if claims.ExpiresAt != nil {
		s.revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	}
	return s.issueTokens(user, claims.RememberMe)
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time, refreshToken string) error {
	s.revoke(ctx, jti, expiresAt)
	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.ExpiresAt != nil {
			s.revoke(ctx, claims.ID, claims.ExpiresAt.Time)
		}
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, jti string, expiresAt time.Time) {
	if s.tokens == nil || jti == "" {
		return
	}
	if err := s.tokens.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Warn("加入 Token 黑名单失败", zap.String("jti", jti), zap.Error(err))
	}
}

// ────────────────────── Me / ChangePassword ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}
	if req.OldPassword == req.NewPassword {
		return pkgerrors.NewValidationError("new_password", "must differ from the current password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}
	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	user.UpdatedBy = &userID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("修改密码失败", zap.String("id", userID), zap.Error(err))
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
