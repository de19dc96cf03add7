package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
)

// SpecialtyRepository 专业数据访问接口
type SpecialtyRepository interface {
	Create(ctx context.Context, specialty *model.Specialty) error
	GetByID(ctx context.Context, id string) (*model.Specialty, error)
	GetByName(ctx context.Context, name string) (*model.Specialty, error)
	List(ctx context.Context) ([]model.Specialty, error)
	Update(ctx context.Context, specialty *model.Specialty) error
	Delete(ctx context.Context, id string, deletedBy string) error
	// CountMembers 统计专业下的实习生与指导老师人数
	CountMembers(ctx context.Context, specialtyID string) (int64, error)
}

// specialtyRepo SpecialtyRepository 的 GORM 实现
type specialtyRepo struct {
	db *gorm.DB
}

// NewSpecialtyRepo 创建 SpecialtyRepository 实例
func NewSpecialtyRepo(db *gorm.DB) SpecialtyRepository {
	return &specialtyRepo{db: db}
}

func (r *specialtyRepo) Create(ctx context.Context, specialty *model.Specialty) error {
	return r.db.WithContext(ctx).Create(specialty).Error
}

func (r *specialtyRepo) GetByID(ctx context.Context, id string) (*model.Specialty, error) {
	var specialty model.Specialty
	err := r.db.WithContext(ctx).
		Where("specialty_id = ?", id).
		First(&specialty).Error
	if err != nil {
		return nil, err
	}
	return &specialty, nil
}

func (r *specialtyRepo) GetByName(ctx context.Context, name string) (*model.Specialty, error) {
	var specialty model.Specialty
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&specialty).Error
	if err != nil {
		return nil, err
	}
	return &specialty, nil
}

func (r *specialtyRepo) List(ctx context.Context) ([]model.Specialty, error) {
	var specialties []model.Specialty
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&specialties).Error
	return specialties, err
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *specialtyRepo) Update(ctx context.Context, specialty *model.Specialty) error {
	oldVersion := specialty.Version
	result := r.db.WithContext(ctx).
		Model(specialty).
		Where("specialty_id = ? AND version = ?", specialty.SpecialtyID, oldVersion).
		Updates(map[string]interface{}{
			"name":        specialty.Name,
			"description": specialty.Description,
			"updated_by":  specialty.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	specialty.Version = oldVersion + 1
	return nil
}

func (r *specialtyRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Specialty{}).
		Where("specialty_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *specialtyRepo) CountMembers(ctx context.Context, specialtyID string) (int64, error) {
	var interns, supervisors int64
	if err := r.db.WithContext(ctx).
		Model(&model.InternProfile{}).
		Joins("JOIN users u ON u.user_id = intern_profiles.user_id AND u.deleted_at IS NULL").
		Where("intern_profiles.specialty_id = ?", specialtyID).
		Count(&interns).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&model.SupervisorProfile{}).
		Joins("JOIN users u ON u.user_id = supervisor_profiles.user_id AND u.deleted_at IS NULL").
		Where("supervisor_profiles.specialty_id = ?", specialtyID).
		Count(&supervisors).Error; err != nil {
		return 0, err
	}
	return interns + supervisors, nil
}
