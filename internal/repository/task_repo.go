package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
)

// TaskFilter 任务列表筛选条件
type TaskFilter struct {
	SpecialtyID string
	InternID    string // 仅返回分配给该实习生的任务
	Keyword     string
	Priority    string
}

// TaskRepository 任务数据访问接口
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	List(ctx context.Context, filter TaskFilter, page Pagination) ([]model.Task, int64, error)
	// ListWithDueDate 有截止日期的任务，供日历订阅使用
	ListWithDueDate(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// TaskAssignmentRepository 任务分配数据访问接口
type TaskAssignmentRepository interface {
	BatchCreate(ctx context.Context, assignments []model.TaskAssignment) error
	GetByTaskAndIntern(ctx context.Context, taskID, internID string) (*model.TaskAssignment, error)
	ListByTask(ctx context.Context, taskID string) ([]model.TaskAssignment, error)
	Update(ctx context.Context, assignment *model.TaskAssignment) error
	DeleteByTask(ctx context.Context, taskID string) error
	// CountByStatus 按状态统计分配数量；specialtyID 为空时统计全部
	CountByStatus(ctx context.Context, specialtyID string) (map[string]int64, error)
}

// ── Task Repository 实现 ──

type taskRepo struct {
	db *gorm.DB
}

// NewTaskRepo 创建 TaskRepository 实例
func NewTaskRepo(db *gorm.DB) TaskRepository {
	return &taskRepo{db: db}
}

// Create 任务与分配记录一并写入
func (r *taskRepo) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Specialty").
		Preload("Assignments").Preload("Assignments.Intern").
		Where("task_id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepo) filtered(ctx context.Context, filter TaskFilter) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.SpecialtyID != "" {
		db = db.Where("tasks.specialty_id = ?", filter.SpecialtyID)
	}
	if filter.InternID != "" {
		db = db.Where("tasks.task_id IN (SELECT task_id FROM task_assignments WHERE intern_id = ?)", filter.InternID)
	}
	if filter.Priority != "" {
		db = db.Where("tasks.priority = ?", filter.Priority)
	}
	if filter.Keyword != "" {
		db = db.Where("tasks.title ILIKE ?", "%"+filter.Keyword+"%")
	}
	return db
}

func (r *taskRepo) List(ctx context.Context, filter TaskFilter, page Pagination) ([]model.Task, int64, error) {
	var tasks []model.Task
	var total int64

	db := r.filtered(ctx, filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := page.apply(db).
		Preload("Specialty").
		Preload("Assignments").
		Order("tasks.created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *taskRepo) ListWithDueDate(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	var tasks []model.Task
	err := r.filtered(ctx, filter).
		Where("tasks.due_date IS NOT NULL").
		Order("tasks.due_date ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepo) Update(ctx context.Context, task *model.Task) error {
	oldVersion := task.Version
	result := r.db.WithContext(ctx).
		Model(task).
		Omit(clause.Associations).
		Where("task_id = ? AND version = ?", task.TaskID, oldVersion).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"priority":    task.Priority,
			"due_date":    task.DueDate,
			"updated_by":  task.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	task.Version = oldVersion + 1
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("task_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── TaskAssignment Repository 实现 ──

type taskAssignmentRepo struct {
	db *gorm.DB
}

// NewTaskAssignmentRepo 创建 TaskAssignmentRepository 实例
func NewTaskAssignmentRepo(db *gorm.DB) TaskAssignmentRepository {
	return &taskAssignmentRepo{db: db}
}

func (r *taskAssignmentRepo) BatchCreate(ctx context.Context, assignments []model.TaskAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignments).Error
}

func (r *taskAssignmentRepo) GetByTaskAndIntern(ctx context.Context, taskID, internID string) (*model.TaskAssignment, error) {
	var a model.TaskAssignment
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND intern_id = ?", taskID, internID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *taskAssignmentRepo) ListByTask(ctx context.Context, taskID string) ([]model.TaskAssignment, error) {
	var list []model.TaskAssignment
	err := r.db.WithContext(ctx).
		Preload("Intern").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *taskAssignmentRepo) Update(ctx context.Context, assignment *model.TaskAssignment) error {
	return r.db.WithContext(ctx).
		Model(&model.TaskAssignment{}).
		Where("assignment_id = ?", assignment.AssignmentID).
		Updates(map[string]interface{}{
			"status":       assignment.Status,
			"progress":     assignment.Progress,
			"note":         assignment.Note,
			"completed_at": assignment.CompletedAt,
			"updated_by":   assignment.UpdatedBy,
			"updated_at":   gorm.Expr("NOW()"),
		}).Error
}

func (r *taskAssignmentRepo) DeleteByTask(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Delete(&model.TaskAssignment{}).Error
}

func (r *taskAssignmentRepo) CountByStatus(ctx context.Context, specialtyID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	db := r.db.WithContext(ctx).
		Model(&model.TaskAssignment{}).
		Joins("JOIN tasks t ON t.task_id = task_assignments.task_id AND t.deleted_at IS NULL")
	if specialtyID != "" {
		db = db.Where("t.specialty_id = ?", specialtyID)
	}
	if err := db.Select("task_assignments.status AS status, COUNT(*) AS count").
		Group("task_assignments.status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Count
	}
	return result, nil
}
