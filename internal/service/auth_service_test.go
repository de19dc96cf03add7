package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/TraitzTech/trazor-api-sub000/config"
	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
	"github.com/TraitzTech/trazor-api-sub000/pkg/jwt"
)

// memBlacklist 内存版 Token 黑名单
type memBlacklist struct {
	revoked map[string]time.Duration
}

func (b *memBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.revoked[jti] = ttl
	return nil
}

func (b *memBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := b.revoked[jti]
	return ok, nil
}

func setupTestAuthService() (*authService, *testEnv, *memBlacklist) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
		},
	}
	env := newTestEnv()
	env.addSpecialty("spec-se", "Software Engineering")
	bl := &memBlacklist{revoked: make(map[string]time.Duration)}

	svc := NewAuthService(cfg, env.repo, jwt.NewManager(&cfg.Auth), bl, env.logger).(*authService)
	svc.now = func() time.Time { return time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC) }
	return svc, env, bl
}

func createTestUser(env *testEnv, id, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := env.addIntern(id, "测试用户", "spec-se", "TRZ260001", nil)
	u.PasswordHash = string(hash)
	return u
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	svc, env, _ := setupTestAuthService()
	createTestUser(env, "user-1", "password123")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    " user-1@trazor.test ",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("Token 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}

	claims, err := svc.jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("AccessToken 无法解析: %v", err)
	}
	if claims.Role != "intern" || claims.SpecialtyID != "spec-se" {
		t.Errorf("Claims 错误: role=%s specialty=%s", claims.Role, claims.SpecialtyID)
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, env, _ := setupTestAuthService()
	u := createTestUser(env, "user-1", "password123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "user-1@trazor.test", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("密码错误应返回 ErrInvalidCredentials，实际: %v", err)
	}
	_, err = svc.Login(context.Background(), &dto.LoginRequest{Email: "nobody@trazor.test", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("用户不存在应返回 ErrInvalidCredentials，实际: %v", err)
	}

	u.IsActive = false
	_, err = svc.Login(context.Background(), &dto.LoginRequest{Email: "user-1@trazor.test", Password: "password123"})
	if !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("停用账号应返回 ErrAccountDisabled，实际: %v", err)
	}
}

func TestLogin_RememberMe(t *testing.T) {
	svc, env, _ := setupTestAuthService()
	createTestUser(env, "user-1", "password123")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "user-1@trazor.test", Password: "password123", RememberMe: true,
	})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	claims, _ := svc.jwtMgr.ParseToken(result.RefreshToken)
	if !claims.RememberMe {
		t.Error("RefreshToken 应携带 remember_me")
	}
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != 7*24*time.Hour {
		t.Errorf("记住我时 RefreshToken 有效期应为 7 天，实际 %s", ttl)
	}
}

// ── 注册测试 ──

func TestRegister_GeneratesMatriculation(t *testing.T) {
	svc, env, _ := setupTestAuthService()
	env.users.deletedMatric = []string{"TRZ260001"}

	result, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:        "New Intern",
		Email:       "New.Intern@Example.com",
		Password:    "password123",
		SpecialtyID: "spec-se",
		StartDate:   "2026-01-05",
		EndDate:     "2026-06-30",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if result.User.Email != "new.intern@example.com" {
		t.Errorf("邮箱应转为小写: %s", result.User.Email)
	}
	if result.User.InternProfile == nil || result.User.InternProfile.MatriculationNumber != "TRZ260002" {
		t.Errorf("学号应跳过已删除的序号, got %+v", result.User.InternProfile)
	}
	if result.User.Role != "intern" {
		t.Errorf("自助注册只能是实习生: %s", result.User.Role)
	}
	if env.activities.countAction(ActionUserRegistered) != 1 {
		t.Error("应记录注册操作日志")
	}
}

func TestRegister_Rejections(t *testing.T) {
	svc, env, _ := setupTestAuthService()
	createTestUser(env, "user-1", "password123")

	base := dto.RegisterRequest{Name: "X", Email: "user-1@trazor.test", Password: "password123", SpecialtyID: "spec-se"}
	if _, err := svc.Register(context.Background(), &base); !errors.Is(err, ErrEmailExists) {
		t.Errorf("邮箱已存在应返回 ErrEmailExists，实际: %v", err)
	}

	req := base
	req.Email = "fresh@trazor.test"
	req.SpecialtyID = "spec-missing"
	if _, err := svc.Register(context.Background(), &req); !errors.Is(err, ErrSpecialtyNotFound) {
		t.Errorf("专业不存在应返回 ErrSpecialtyNotFound，实际: %v", err)
	}

	req.SpecialtyID = "spec-se"
	req.StartDate, req.EndDate = "2026-06-01", "2026-01-01"
	_, err := svc.Register(context.Background(), &req)
	ve, ok := pkgerrors.AsValidation(err)
	if !ok || ve.Fields["end_date"] == "" {
		t.Errorf("结束日期早于开始日期应返回 end_date 校验错误，实际: %v", err)
	}
}

// ── 刷新 / 登出 ──

func TestRefresh_RotatesToken(t *testing.T) {
	svc, env, bl := setupTestAuthService()
	createTestUser(env, "user-1", "password123")
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "user-1@trazor.test", Password: "password123"})

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("新的 AccessToken 不应为空")
	}
	if len(bl.revoked) != 1 {
		t.Errorf("旧 RefreshToken 应被拉黑，实际 %d", len(bl.revoked))
	}

	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("重放旧 RefreshToken 应失败，实际: %v", err)
	}
}

func TestRefresh_AccessTokenNotAllowed(t *testing.T) {
	svc, env, _ := setupTestAuthService()
	createTestUser(env, "user-1", "password123")
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "user-1@trazor.test", Password: "password123"})

	if _, err := svc.Refresh(context.Background(), login.AccessToken); !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("AccessToken 不能用于刷新，实际: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("非法 Token 应返回 ErrInvalidRefresh，实际: %v", err)
	}
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	svc, env, bl := setupTestAuthService()
	createTestUser(env, "user-1", "password123")
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "user-1@trazor.test", Password: "password123"})
	access, _ := svc.jwtMgr.ParseToken(login.AccessToken)

	if err := svc.Logout(context.Background(), access.ID, access.ExpiresAt.Time, login.RefreshToken); err != nil {
		t.Fatalf("Logout 失败: %v", err)
	}
	if len(bl.revoked) != 2 {
		t.Errorf("应拉黑 Access 与 Refresh 两个 Token，实际 %d", len(bl.revoked))
	}
}

// ── 修改密码 / 当前用户 ──

func TestChangePassword(t *testing.T) {
	svc, env, _ := setupTestAuthService()
	u := createTestUser(env, "user-1", "password123")
	u.MustChangePassword = true

	err := svc.ChangePassword(context.Background(), "user-1", &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword1"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("旧密码错误应返回 ErrWrongPassword，实际: %v", err)
	}
	err = svc.ChangePassword(context.Background(), "user-1", &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "password123"})
	if _, ok := pkgerrors.AsValidation(err); !ok {
		t.Errorf("新旧密码相同应返回校验错误，实际: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), "user-1", &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}); err != nil {
		t.Fatalf("修改密码失败: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("newpassword1")) != nil {
		t.Error("新密码未生效")
	}
	if u.MustChangePassword {
		t.Error("修改密码后应清除强制改密标记")
	}
}

func TestMe(t *testing.T) {
	svc, env, _ := setupTestAuthService()
	createTestUser(env, "user-1", "password123")

	me, err := svc.Me(context.Background(), "user-1")
	if err != nil || me.ID != "user-1" {
		t.Errorf("Me 返回错误: %v %+v", err, me)
	}
	if _, err := svc.Me(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
