package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
)

// CommentRepository 任务评论数据访问接口
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListByTask(ctx context.Context, taskID string) ([]model.Comment, error)
	Delete(ctx context.Context, id string, deletedBy string) error
}

// AttachmentRepository 任务附件数据访问接口
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *model.Attachment) error
	GetByID(ctx context.Context, id string) (*model.Attachment, error)
	ListByTask(ctx context.Context, taskID string) ([]model.Attachment, error)
	Delete(ctx context.Context, id string, deletedBy string) error
}

// ── Comment Repository 实现 ──

type commentRepo struct {
	db *gorm.DB
}

// NewCommentRepo 创建 CommentRepository 实例
func NewCommentRepo(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("comment_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *commentRepo) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	var list []model.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *commentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("comment_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── Attachment Repository 实现 ──

type attachmentRepo struct {
	db *gorm.DB
}

// NewAttachmentRepo 创建 AttachmentRepository 实例
func NewAttachmentRepo(db *gorm.DB) AttachmentRepository {
	return &attachmentRepo{db: db}
}

func (r *attachmentRepo) Create(ctx context.Context, attachment *model.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *attachmentRepo) GetByID(ctx context.Context, id string) (*model.Attachment, error) {
	var a model.Attachment
	err := r.db.WithContext(ctx).
		Where("attachment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attachmentRepo) ListByTask(ctx context.Context, taskID string) ([]model.Attachment, error) {
	var list []model.Attachment
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *attachmentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Attachment{}).
		Where("attachment_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
