package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
)

// LogbookFilter 日志列表筛选条件
type LogbookFilter struct {
	InternID    string
	SpecialtyID string // 按实习生所属专业过滤
	Status      model.LogbookStatus
	WeekNumber  *int
	DateFrom    *time.Time
	DateTo      *time.Time
}

// LogbookRepository 实习日志数据访问接口
type LogbookRepository interface {
	// Create 违反 (intern_id, date) 唯一约束时返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, entry *model.LogbookEntry) error
	GetByID(ctx context.Context, id string) (*model.LogbookEntry, error)
	GetByInternAndDate(ctx context.Context, internID string, date time.Time) (*model.LogbookEntry, error)
	// ListByInternAndWeek 按 date、submitted_at 升序返回，同一工作日以最后提交者为准
	ListByInternAndWeek(ctx context.Context, internID string, weekNumber int) ([]model.LogbookEntry, error)
	ListByIntern(ctx context.Context, internID string) ([]model.LogbookEntry, error)
	List(ctx context.Context, filter LogbookFilter, page Pagination) ([]model.LogbookEntry, int64, error)
	Update(ctx context.Context, entry *model.LogbookEntry) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, specialtyID string) (map[model.LogbookStatus]int64, error)
}

// LogbookReviewRepository 日志审阅记录数据访问接口
type LogbookReviewRepository interface {
	Create(ctx context.Context, review *model.LogbookReview) error
	ListByEntry(ctx context.Context, entryID string) ([]model.LogbookReview, error)
	DeleteByEntry(ctx context.Context, entryID string) error
}

// ── Logbook Repository 实现 ──

type logbookRepo struct {
	db *gorm.DB
}

// NewLogbookRepo 创建 LogbookRepository 实例
func NewLogbookRepo(db *gorm.DB) LogbookRepository {
	return &logbookRepo{db: db}
}

func (r *logbookRepo) Create(ctx context.Context, entry *model.LogbookEntry) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error
}

func (r *logbookRepo) GetByID(ctx context.Context, id string) (*model.LogbookEntry, error) {
	var entry model.LogbookEntry
	err := r.db.WithContext(ctx).
		Preload("Intern").Preload("Intern.InternProfile").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Reviews.Reviewer").
		Where("entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *logbookRepo) GetByInternAndDate(ctx context.Context, internID string, date time.Time) (*model.LogbookEntry, error) {
	var entry model.LogbookEntry
	err := r.db.WithContext(ctx).
		Where("intern_id = ? AND date = ?", internID, date.Format("2006-01-02")).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *logbookRepo) ListByInternAndWeek(ctx context.Context, internID string, weekNumber int) ([]model.LogbookEntry, error) {
	var entries []model.LogbookEntry
	err := r.db.WithContext(ctx).
		Where("intern_id = ? AND week_number = ?", internID, weekNumber).
		Order("date ASC, submitted_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *logbookRepo) ListByIntern(ctx context.Context, internID string) ([]model.LogbookEntry, error) {
	var entries []model.LogbookEntry
	err := r.db.WithContext(ctx).
		Where("intern_id = ?", internID).
		Order("date ASC").
		Find(&entries).Error
	return entries, err
}

func (r *logbookRepo) List(ctx context.Context, filter LogbookFilter, page Pagination) ([]model.LogbookEntry, int64, error) {
	var entries []model.LogbookEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&model.LogbookEntry{})
	if filter.InternID != "" {
		db = db.Where("logbook_entries.intern_id = ?", filter.InternID)
	}
	if filter.SpecialtyID != "" {
		db = db.Where("logbook_entries.intern_id IN (SELECT user_id FROM intern_profiles WHERE specialty_id = ?)", filter.SpecialtyID)
	}
	if filter.Status != "" {
		db = db.Where("logbook_entries.status = ?", filter.Status)
	}
	if filter.WeekNumber != nil {
		db = db.Where("logbook_entries.week_number = ?", *filter.WeekNumber)
	}
	if filter.DateFrom != nil {
		db = db.Where("logbook_entries.date >= ?", filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		db = db.Where("logbook_entries.date <= ?", filter.DateTo.Format("2006-01-02"))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).
		Preload("Intern").
		Order("logbook_entries.date DESC, logbook_entries.submitted_at DESC").
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *logbookRepo) Update(ctx context.Context, entry *model.LogbookEntry) error {
	return r.db.WithContext(ctx).
		Model(&model.LogbookEntry{}).
		Where("entry_id = ?", entry.EntryID).
		Updates(map[string]interface{}{
			"title":           entry.Title,
			"content":         entry.Content,
			"hours_worked":    entry.HoursWorked,
			"tasks_completed": entry.TasksCompleted,
			"challenges":      entry.Challenges,
			"learnings":       entry.Learnings,
			"next_day_plan":   entry.NextDayPlan,
			"status":          entry.Status,
			"reviewed_at":     entry.ReviewedAt,
			"reviewed_by":     entry.ReviewedBy,
			"feedback":        entry.Feedback,
			"updated_by":      entry.UpdatedBy,
			"updated_at":      gorm.Expr("NOW()"),
		}).Error
}

// Delete 物理删除；审阅记录由调用方在同一事务内先行删除
func (r *logbookRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("entry_id = ?", id).
		Delete(&model.LogbookEntry{}).Error
}

func (r *logbookRepo) CountByStatus(ctx context.Context, specialtyID string) (map[model.LogbookStatus]int64, error) {
	var rows []struct {
		Status model.LogbookStatus
		Count  int64
	}
	db := r.db.WithContext(ctx).Model(&model.LogbookEntry{})
	if specialtyID != "" {
		db = db.Where("intern_id IN (SELECT user_id FROM intern_profiles WHERE specialty_id = ?)", specialtyID)
	}
	if err := db.Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[model.LogbookStatus]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Count
	}
	return result, nil
}

// ── LogbookReview Repository 实现 ──

type logbookReviewRepo struct {
	db *gorm.DB
}

// NewLogbookReviewRepo 创建 LogbookReviewRepository 实例
func NewLogbookReviewRepo(db *gorm.DB) LogbookReviewRepository {
	return &logbookReviewRepo{db: db}
}

func (r *logbookReviewRepo) Create(ctx context.Context, review *model.LogbookReview) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error
}

func (r *logbookReviewRepo) ListByEntry(ctx context.Context, entryID string) ([]model.LogbookReview, error) {
	var list []model.LogbookReview
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("entry_id = ?", entryID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *logbookReviewRepo) DeleteByEntry(ctx context.Context, entryID string) error {
	return r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Delete(&model.LogbookReview{}).Error
}
