package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
	"github.com/TraitzTech/trazor-api-sub000/pkg/mailer"
	"github.com/TraitzTech/trazor-api-sub000/pkg/metrics"
)

// ── 用户模块业务错误 ──

var (
	ErrUserSelfDelete     = errors.New("you cannot delete your own account")
	ErrUserSelfDeactivate = errors.New("you cannot deactivate your own account")
	ErrSpecialtyRequired  = errors.New("specialty_id is required for interns and supervisors")
)

// UserService 用户业务接口
type UserService interface {
	Create(ctx context.Context, p Principal, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error)
	GetByID(ctx context.Context, p Principal, id string) (*dto.UserResponse, error)
	List(ctx context.Context, p Principal, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, p Principal, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, p Principal, id string) error
	SetActive(ctx context.Context, p Principal, id string, active bool) (*dto.UserResponse, error)
	ResetPassword(ctx context.Context, p Principal, id string) (*dto.ResetPasswordResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportInternRow, error)
	ImportInterns(ctx context.Context, p Principal, rows []ImportInternRow) (*dto.ImportUserResponse, error)
}

// ImportInternRow Excel 导入解析后的单行数据
type ImportInternRow struct {
	Row           int
	Name          string
	Email         string
	Phone         string
	SpecialtyName string
	Institution   string
	Level         string
	Department    string
	Option        string
	StartDate     string
	EndDate       string
}

type userService struct {
	repo    *repository.Repository
	mailer  mailer.Mailer
	metrics *metrics.Collector
	logger  *zap.Logger
	now     func() time.Time
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, m mailer.Mailer, mc *metrics.Collector, logger *zap.Logger) UserService {
	return &userService{repo: repo, mailer: m, metrics: mc, logger: logger, now: time.Now}
}

// ────────────────────── 学号 ──────────────────────

const matriculationPrefix = "TRZ"

// GenerateMatriculationNumber 学号格式 TRZ + 两位年份 + 四位序号，例如 TRZ260001
func GenerateMatriculationNumber(year, seq int) string {
	return fmt.Sprintf("%s%02d%04d", matriculationPrefix, year%100, seq)
}

// nextMatriculationNumber 取当年下一个序号（含已软删除的实习生，避免复用）
func nextMatriculationNumber(ctx context.Context, repo *repository.Repository, now time.Time) (string, error) {
	prefix := fmt.Sprintf("%s%02d", matriculationPrefix, now.Year()%100)
	count, err := repo.User.CountMatriculationByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return GenerateMatriculationNumber(now.Year(), int(count)+1), nil
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, p Principal, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error) {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return nil, err
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		return nil, pkgerrors.NewValidationError("role", "must be admin, supervisor or intern")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if role != model.RoleAdmin {
		if req.SpecialtyID == "" {
			return nil, ErrSpecialtyRequired
		}
		if err := s.ensureSpecialty(ctx, req.SpecialtyID); err != nil {
			return nil, err
		}
	}

	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		Phone:              req.Phone,
		PasswordHash:       string(hash),
		Role:               role,
		IsActive:           true,
		MustChangePassword: true,
	}
	user.CreatedBy = &p.UserID

	switch role {
	case model.RoleIntern:
		start, end, err := parseProgramDates(req.StartDate, req.EndDate)
		if err != nil {
			return nil, err
		}
		// 学号在构建记录前由领域函数算出
		matric, err := nextMatriculationNumber(ctx, s.repo, s.now())
		if err != nil {
			s.logger.Error("生成学号失败", zap.Error(err))
			return nil, err
		}
		user.InternProfile = &model.InternProfile{
			SpecialtyID:         req.SpecialtyID,
			MatriculationNumber: matric,
			Institution:         req.Institution,
			Level:               req.Level,
			Department:          req.Department,
			Option:              req.Option,
			StartDate:           start,
			EndDate:             end,
		}
	case model.RoleSupervisor:
		user.SupervisorProfile = &model.SupervisorProfile{
			SpecialtyID: req.SpecialtyID,
			Position:    req.Position,
		}
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}
	if err := recordActivity(ctx, s.repo, p.UserID, ActionUserCreated,
		fmt.Sprintf("Created %s account for %s", role, user.Email), "user", user.UserID); err != nil {
		s.logger.Warn("写入操作日志失败", zap.Error(err))
	}

	// 重新加载以获取关联数据（专业等）
	created, err := s.repo.User.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	sent := s.sendCredentials(ctx, created, tempPassword, mailer.CredentialsEmail)
	return &dto.CreateUserResponse{
		User:         *toUserResponse(created),
		TempPassword: tempPassword,
		EmailSent:    sent,
	}, nil
}

func (s *userService) ensureSpecialty(ctx context.Context, id string) error {
	if _, err := s.repo.Specialty.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSpecialtyNotFound
		}
		return err
	}
	return nil
}

// sendCredentials 邮件发送失败不影响主流程
func (s *userService) sendCredentials(ctx context.Context, user *model.User, password string,
	build func(mailer.CredentialsData) (*mailer.Message, error)) bool {
	data := mailer.CredentialsData{
		AppName:  appName,
		Name:     user.Name,
		Email:    user.Email,
		Password: password,
	}
	if user.InternProfile != nil {
		data.MatriculationNumber = user.InternProfile.MatriculationNumber
	}
	msg, err := build(data)
	if err != nil {
		s.logger.Error("渲染邮件失败", zap.Error(err))
		return false
	}
	err = s.mailer.Send(ctx, msg)
	s.metrics.MailSent(err)
	if err != nil {
		s.logger.Warn("发送邮件失败", zap.String("to", user.Email), zap.Error(err))
		return false
	}
	return true
}

// ────────────────────── GetByID / List ──────────────────────

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, p Principal, id string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && p.UserID != id && !canManageSpecialty(p, user.SpecialtyID()) {
		return nil, ErrForbidden
	}
	return toUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, p Principal, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		Role:        model.Role(req.Role),
		SpecialtyID: req.SpecialtyID,
		Keyword:     strings.TrimSpace(req.Keyword),
		IsActive:    req.IsActive,
	}

	// 指导老师只能看到本专业成员
	switch p.Role {
	case model.RoleAdmin:
	case model.RoleSupervisor:
		if p.SpecialtyID == "" {
			return []dto.UserResponse{}, 0, nil
		}
		filter.SpecialtyID = p.SpecialtyID
	default:
		return nil, 0, ErrForbidden
	}

	users, total, err := s.repo.User.List(ctx, filter, repository.Pagination{
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, p Principal, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// 非管理员只能修改自己的基本信息
	if !p.IsAdmin() {
		if p.UserID != id {
			return nil, ErrForbidden
		}
		if req.SpecialtyID != nil || req.Email != nil || req.StartDate != nil || req.EndDate != nil {
			return nil, ErrForbidden
		}
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		existing, err := s.repo.User.GetByEmail(ctx, email)
		if err == nil && existing.UserID != id {
			return nil, ErrEmailExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = email
	}
	if req.SpecialtyID != nil && user.Role != model.RoleAdmin {
		if err := s.ensureSpecialty(ctx, *req.SpecialtyID); err != nil {
			return nil, err
		}
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()
	txRepo := s.repo.WithTx(tx)
	fail := func(err error) (*dto.UserResponse, error) {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	user.UpdatedBy = &p.UserID
	if err := txRepo.User.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if tx != nil {
				tx.Rollback()
			}
			return nil, ErrEmailExists
		}
		return fail(err)
	}

	if ip := user.InternProfile; ip != nil {
		applyInternProfile(ip, req)
		if req.StartDate != nil || req.EndDate != nil {
			start, end, err := parseProgramDates(derefOr(req.StartDate, formatDate(ip.StartDate)), derefOr(req.EndDate, formatDate(ip.EndDate)))
			if err != nil {
				if tx != nil {
					tx.Rollback()
				}
				return nil, err
			}
			ip.StartDate, ip.EndDate = start, end
		}
		ip.UpdatedBy = &p.UserID
		if err := txRepo.User.SaveInternProfile(ctx, ip); err != nil {
			return fail(err)
		}
	}
	if sp := user.SupervisorProfile; sp != nil {
		if req.SpecialtyID != nil {
			sp.SpecialtyID = *req.SpecialtyID
		}
		if req.Position != nil {
			sp.Position = *req.Position
		}
		sp.UpdatedBy = &p.UserID
		if err := txRepo.User.SaveSupervisorProfile(ctx, sp); err != nil {
			return fail(err)
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	updated, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(updated), nil
}

func applyInternProfile(ip *model.InternProfile, req *dto.UpdateUserRequest) {
	if req.SpecialtyID != nil {
		ip.SpecialtyID = *req.SpecialtyID
		ip.Specialty = nil
	}
	if req.Institution != nil {
		ip.Institution = *req.Institution
	}
	if req.Level != nil {
		ip.Level = *req.Level
	}
	if req.Department != nil {
		ip.Department = *req.Department
	}
	if req.Option != nil {
		ip.Option = *req.Option
	}
}

func derefOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

// ────────────────────── Delete / SetActive ──────────────────────

func (s *userService) Delete(ctx context.Context, p Principal, id string) error {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return err
	}
	if id == p.UserID {
		return ErrUserSelfDelete
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.User.Delete(ctx, id, p.UserID); err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := recordActivity(ctx, s.repo, p.UserID, ActionUserDeleted,
		fmt.Sprintf("Deleted account %s", user.Email), "user", id); err != nil {
		s.logger.Warn("写入操作日志失败", zap.Error(err))
	}
	return nil
}

func (s *userService) SetActive(ctx context.Context, p Principal, id string, active bool) (*dto.UserResponse, error) {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return nil, err
	}
	if id == p.UserID && !active {
		return nil, ErrUserSelfDeactivate
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	user.UpdatedBy = &p.UserID
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新账号状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, p Principal, id string) (*dto.ResetPasswordResponse, error) {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = true
	user.UpdatedBy = &p.UserID
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	sent := s.sendCredentials(ctx, user, tempPassword, mailer.PasswordResetEmail)
	return &dto.ResetPasswordResponse{TempPassword: tempPassword, EmailSent: sent}, nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("the spreadsheet has no data rows (the first row is the header)")
	ErrImportTooManyRows = fmt.Errorf("the spreadsheet exceeds %d data rows", maxImportRows)
	ErrImportBadHeader   = errors.New("the header must contain name, email and specialty columns")
)

var importColumns = map[string][]string{
	"name":        {"name", "full name"},
	"email":       {"email", "e-mail"},
	"phone":       {"phone", "phone number"},
	"specialty":   {"specialty", "speciality"},
	"institution": {"institution", "school"},
	"level":       {"level"},
	"department":  {"department"},
	"option":      {"option"},
	"start_date":  {"start_date", "start date"},
	"end_date":    {"end_date", "end date"},
}

// ParseImportFile 解析导入 Excel 文件（首个工作表，第一行为表头，列序不限）
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportInternRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("cannot read spreadsheet: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("cannot read worksheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["name"] < 0 || colIndex["email"] < 0 || colIndex["specialty"] < 0 {
		return nil, ErrImportBadHeader
	}

	var rows []ImportInternRow
	for i := 1; i < len(excelRows); i++ {
		cells := excelRows[i]
		get := func(col string) string {
			idx := colIndex[col]
			if idx < 0 || idx >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[idx])
		}
		item := ImportInternRow{
			Row:           i + 1,
			Name:          get("name"),
			Email:         get("email"),
			Phone:         get("phone"),
			SpecialtyName: get("specialty"),
			Institution:   get("institution"),
			Level:         get("level"),
			Department:    get("department"),
			Option:        get("option"),
			StartDate:     get("start_date"),
			EndDate:       get("end_date"),
		}

		// 跳过全空行
		if item.Name == "" && item.Email == "" && item.SpecialtyName == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex 解析表头，返回列名 -> 列索引映射（缺失为 -1）
func parseHeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(importColumns))
	for key := range importColumns {
		idx[key] = -1
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		for key, aliases := range importColumns {
			for _, a := range aliases {
				if lower == a && idx[key] < 0 {
					idx[key] = i
				}
			}
		}
	}
	return idx
}

// ────────────────────── ImportInterns ──────────────────────

func (s *userService) ImportInterns(ctx context.Context, p Principal, rows []ImportInternRow) (*dto.ImportUserResponse, error) {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return nil, err
	}
	resp := &dto.ImportUserResponse{Total: len(rows)}

	specialties, err := s.repo.Specialty.List(ctx)
	if err != nil {
		s.logger.Error("加载专业列表失败", zap.Error(err))
		return nil, err
	}
	specByName := make(map[string]*model.Specialty, len(specialties))
	for i := range specialties {
		specByName[strings.ToLower(specialties[i].Name)] = &specialties[i]
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	type validatedRow struct {
		row        ImportInternRow
		specialty  *model.Specialty
		start, end *time.Time
		password   string
		hash       []byte
	}
	var valid []validatedRow
	seen := make(map[string]bool, len(rows))
	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	for _, row := range rows {
		email := strings.ToLower(row.Email)
		if row.Name == "" || email == "" || row.SpecialtyName == "" {
			fail(row.Row, "name, email and specialty are required")
			continue
		}
		spec, ok := specByName[strings.ToLower(row.SpecialtyName)]
		if !ok {
			fail(row.Row, fmt.Sprintf("unknown specialty: %s", row.SpecialtyName))
			continue
		}
		if seen[email] {
			fail(row.Row, fmt.Sprintf("duplicate email in file: %s", row.Email))
			continue
		}
		if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
			fail(row.Row, fmt.Sprintf("email already registered: %s", row.Email))
			continue
		}
		start, end, err := parseProgramDates(row.StartDate, row.EndDate)
		if err != nil {
			fail(row.Row, err.Error())
			continue
		}
		password, err := generateTempPassword(10)
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "password hashing failed")
			continue
		}
		seen[email] = true
		row.Email = email
		valid = append(valid, validatedRow{row: row, specialty: spec, start: start, end: end, password: password, hash: hash})
	}

	if len(valid) == 0 {
		return resp, nil
	}

	// 第二阶段：在事务中批量创建，学号按当年序号连续分配
	prefix := fmt.Sprintf("%s%02d", matriculationPrefix, s.now().Year()%100)
	base, err := s.repo.User.CountMatriculationByPrefix(ctx, prefix)
	if err != nil {
		s.logger.Error("统计学号失败", zap.Error(err))
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()
	txRepo := s.repo.WithTx(tx)

	created := make([]*model.User, 0, len(valid))
	for i, vr := range valid {
		user := &model.User{
			Name:               vr.row.Name,
			Email:              vr.row.Email,
			Phone:              vr.row.Phone,
			PasswordHash:       string(vr.hash),
			Role:               model.RoleIntern,
			IsActive:           true,
			MustChangePassword: true,
			InternProfile: &model.InternProfile{
				SpecialtyID:         vr.specialty.SpecialtyID,
				MatriculationNumber: GenerateMatriculationNumber(s.now().Year(), int(base)+i+1),
				Institution:         vr.row.Institution,
				Level:               vr.row.Level,
				Department:          vr.row.Department,
				Option:              vr.row.Option,
				StartDate:           vr.start,
				EndDate:             vr.end,
			},
		}
		user.CreatedBy = &p.UserID

		if err := txRepo.User.Create(ctx, user); err != nil {
			// 事务中任一写入失败则全部回滚
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("导入实习生写入失败，事务回滚", zap.Int("row", vr.row.Row), zap.Error(err))
			return nil, fmt.Errorf("row %d could not be saved, import rolled back: %w", vr.row.Row, err)
		}
		created = append(created, user)
	}
	if err := recordActivity(ctx, txRepo, p.UserID, ActionUserImported,
		fmt.Sprintf("Imported %d interns", len(created)), "", ""); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("写入操作日志失败", zap.Error(err))
		return nil, err
	}
	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}
	resp.Success = len(created)

	// 提交后逐个发送账号邮件
	for i, u := range created {
		s.sendCredentials(ctx, u, valid[i].password, mailer.CredentialsEmail)
	}
	return resp, nil
}

// ── 内部辅助方法 ──

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 8 {
		length = 8
	}

	result := make([]byte, length)

	// 保证至少1个字母+1个数字
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
