package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
)

// AnnouncementFilter 公告列表筛选条件
type AnnouncementFilter struct {
	// VisibleToSpecialty 非空时只返回面向全体或面向该专业的公告
	VisibleToSpecialty string
	// GlobalOnly 只返回面向全体的公告（无专业的非管理员）
	GlobalOnly bool
	Priority   string
}

// AnnouncementRepository 公告数据访问接口
type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *model.Announcement) error
	GetByID(ctx context.Context, id string) (*model.Announcement, error)
	List(ctx context.Context, filter AnnouncementFilter, page Pagination) ([]model.Announcement, int64, error)
	Update(ctx context.Context, announcement *model.Announcement) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type announcementRepo struct {
	db *gorm.DB
}

// NewAnnouncementRepo 创建 AnnouncementRepository 实例
func NewAnnouncementRepo(db *gorm.DB) AnnouncementRepository {
	return &announcementRepo{db: db}
}

func (r *announcementRepo) Create(ctx context.Context, announcement *model.Announcement) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(announcement).Error
}

func (r *announcementRepo) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	var a model.Announcement
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Specialty").
		Where("announcement_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *announcementRepo) List(ctx context.Context, filter AnnouncementFilter, page Pagination) ([]model.Announcement, int64, error) {
	var list []model.Announcement
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Announcement{})
	switch {
	case filter.GlobalOnly:
		db = db.Where("specialty_id IS NULL")
	case filter.VisibleToSpecialty != "":
		db = db.Where("specialty_id IS NULL OR specialty_id = ?", filter.VisibleToSpecialty)
	}
	if filter.Priority != "" {
		db = db.Where("priority = ?", filter.Priority)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).
		Preload("Author").
		Preload("Specialty").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *announcementRepo) Update(ctx context.Context, announcement *model.Announcement) error {
	return r.db.WithContext(ctx).
		Model(&model.Announcement{}).
		Where("announcement_id = ?", announcement.AnnouncementID).
		Updates(map[string]interface{}{
			"title":        announcement.Title,
			"content":      announcement.Content,
			"priority":     announcement.Priority,
			"specialty_id": announcement.SpecialtyID,
			"updated_by":   announcement.UpdatedBy,
			"updated_at":   gorm.Expr("NOW()"),
		}).Error
}

func (r *announcementRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Announcement{}).
		Where("announcement_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
