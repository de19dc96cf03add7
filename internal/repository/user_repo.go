package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
)

// UserFilter 用户列表筛选条件
type UserFilter struct {
	Role        model.Role
	SpecialtyID string
	Keyword     string // 匹配姓名 / 邮箱
	IsActive    *bool
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	SaveInternProfile(ctx context.Context, profile *model.InternProfile) error
	SaveSupervisorProfile(ctx context.Context, profile *model.SupervisorProfile) error
	Delete(ctx context.Context, id string, deletedBy string) error
	List(ctx context.Context, filter UserFilter, page Pagination) ([]model.User, int64, error)
	ListInternsBySpecialty(ctx context.Context, specialtyID string) ([]model.User, error)
	ListSupervisorsBySpecialty(ctx context.Context, specialtyID string) ([]model.User, error)
	// ListRecipients 活跃用户；specialtyID 为空时返回全体
	ListRecipients(ctx context.Context, specialtyID string) ([]model.User, error)
	UpdateDeviceToken(ctx context.Context, userID string, token *string) error
	CountByRole(ctx context.Context) (map[model.Role]int64, error)
	// CountMatriculationByPrefix 统计以 prefix 开头的学号数量（含软删除用户）
	CountMatriculationByPrefix(ctx context.Context, prefix string) (int64, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) withProfiles(db *gorm.DB) *gorm.DB {
	return db.
		Preload("InternProfile.Specialty").
		Preload("SupervisorProfile.Specialty")
}

// Create 用户与其角色档案一并写入
func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.withProfiles(r.db.WithContext(ctx)).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.withProfiles(r.db.WithContext(ctx)).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 只更新 users 表本身，档案通过 Save*Profile 单独保存
func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

func (r *userRepo) SaveInternProfile(ctx context.Context, profile *model.InternProfile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(profile).Error
}

func (r *userRepo) SaveSupervisorProfile(ctx context.Context, profile *model.SupervisorProfile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(profile).Error
}

func (r *userRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by":   deletedBy,
			"deleted_at":   gorm.Expr("NOW()"),
			"device_token": nil,
		}).Error
}

func (r *userRepo) List(ctx context.Context, filter UserFilter, page Pagination) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})

	if filter.Role != "" {
		db = db.Where("users.role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		db = db.Where("users.is_active = ?", *filter.IsActive)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("users.name ILIKE ? OR users.email ILIKE ?", like, like)
	}
	if filter.SpecialtyID != "" {
		db = db.Where(
			"users.user_id IN (SELECT user_id FROM intern_profiles WHERE specialty_id = ?) OR "+
				"users.user_id IN (SELECT user_id FROM supervisor_profiles WHERE specialty_id = ?)",
			filter.SpecialtyID, filter.SpecialtyID,
		)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := page.apply(r.withProfiles(db)).
		Order("users.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) ListInternsBySpecialty(ctx context.Context, specialtyID string) ([]model.User, error) {
	var users []model.User
	err := r.withProfiles(r.db.WithContext(ctx)).
		Joins("JOIN intern_profiles ip ON ip.user_id = users.user_id").
		Where("ip.specialty_id = ? AND users.role = ? AND users.is_active = ?", specialtyID, model.RoleIntern, true).
		Order("users.name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListSupervisorsBySpecialty(ctx context.Context, specialtyID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Preload("SupervisorProfile").
		Joins("JOIN supervisor_profiles sp ON sp.user_id = users.user_id").
		Where("sp.specialty_id = ? AND users.role = ? AND users.is_active = ?", specialtyID, model.RoleSupervisor, true).
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListRecipients(ctx context.Context, specialtyID string) ([]model.User, error) {
	var users []model.User
	db := r.db.WithContext(ctx).Where("users.is_active = ?", true)
	if specialtyID != "" {
		db = db.Where(
			"users.user_id IN (SELECT user_id FROM intern_profiles WHERE specialty_id = ?) OR "+
				"users.user_id IN (SELECT user_id FROM supervisor_profiles WHERE specialty_id = ?)",
			specialtyID, specialtyID,
		)
	}
	err := db.Find(&users).Error
	return users, err
}

func (r *userRepo) UpdateDeviceToken(ctx context.Context, userID string, token *string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"device_token": token,
			"updated_at":   time.Now(),
		}).Error
}

func (r *userRepo) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	var rows []struct {
		Role  model.Role
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[model.Role]int64, len(rows))
	for _, row := range rows {
		result[row.Role] = row.Count
	}
	return result, nil
}

func (r *userRepo) CountMatriculationByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.InternProfile{}).
		Where("matriculation_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}
