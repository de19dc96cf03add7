package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Specialty     SpecialtyRepository
	Task          TaskRepository
	Assignment    TaskAssignmentRepository
	Comment       CommentRepository
	Attachment    AttachmentRepository
	Announcement  AnnouncementRepository
	Logbook       LogbookRepository
	LogbookReview LogbookReviewRepository
	Notification  NotificationRepository
	Activity      ActivityLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Specialty:     NewSpecialtyRepo(db),
		Task:          NewTaskRepo(db),
		Assignment:    NewTaskAssignmentRepo(db),
		Comment:       NewCommentRepo(db),
		Attachment:    NewAttachmentRepo(db),
		Announcement:  NewAnnouncementRepo(db),
		Logbook:       NewLogbookRepo(db),
		LogbookReview: NewLogbookReviewRepo(db),
		Notification:  NewNotificationRepo(db),
		Activity:      NewActivityLogRepo(db),
	}
}

// BeginTx 开启事务
// 单元测试中聚合由 mock 直接构造（db 为 nil），此时返回 nil 事务，调用方需判空
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务的 Repository 聚合；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Pagination 通用分页参数
type Pagination struct {
	Offset int
	Limit  int
}

func (p Pagination) apply(db *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}
