package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
)

// ── 任务模块业务错误 ──

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrNotAssigned        = errors.New("you are not assigned to this task")
	ErrInternNotInScope   = errors.New("intern does not belong to the task's specialty")
	ErrNoInternsToAssign  = errors.New("the specialty has no active interns to assign")
	ErrAssignmentNotFound = errors.New("task assignment not found")
)

// TaskService 任务业务接口
type TaskService interface {
	// Create 指定实习生或分配给该专业全部实习生，并通知被分配者
	Create(ctx context.Context, p Principal, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	List(ctx context.Context, p Principal, req *dto.TaskListRequest) ([]dto.TaskResponse, int64, error)
	Get(ctx context.Context, p Principal, id string) (*dto.TaskResponse, error)
	Update(ctx context.Context, p Principal, id string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	Delete(ctx context.Context, p Principal, id string) error
	// UpdateProgress 实习生更新自己的进度，100 视为完成
	UpdateProgress(ctx context.Context, p Principal, id string, req *dto.UpdateProgressRequest) (*dto.AssignmentResponse, error)
	ListProgress(ctx context.Context, p Principal, id string) ([]dto.AssignmentResponse, error)
	// Calendar 当前用户可见任务的截止日期日历（iCalendar）
	Calendar(ctx context.Context, p Principal) ([]byte, error)
}

type taskService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewTaskService 创建 TaskService 实例
func NewTaskService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) TaskService {
	return &taskService{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *taskService) Create(ctx context.Context, p Principal, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	if err := requireRole(p, model.RoleAdmin, model.RoleSupervisor); err != nil {
		return nil, err
	}

	// 指导老师只能在本专业下建任务
	specialtyID := req.SpecialtyID
	if p.IsSupervisor() {
		if specialtyID != "" && specialtyID != p.SpecialtyID {
			return nil, ErrForbidden
		}
		specialtyID = p.SpecialtyID
	}
	if specialtyID == "" {
		return nil, pkgerrors.NewValidationError("specialty_id", "required")
	}
	if _, err := s.repo.Specialty.GetByID(ctx, specialtyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}

	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		return nil, pkgerrors.NewValidationError("due_date", "must be a valid date in YYYY-MM-DD format")
	}

	interns, err := s.resolveAssignees(ctx, specialtyID, req.InternIDs)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}
	task := &model.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		SpecialtyID: specialtyID,
		Priority:    priority,
		DueDate:     dueDate,
	}
	task.CreatedBy = &p.UserID
	task.UpdatedBy = &p.UserID

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

	if err := txRepo.Task.Create(ctx, task); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建任务失败", zap.Error(err))
		return nil, err
	}

	assignments := make([]model.TaskAssignment, 0, len(interns))
	for i := range interns {
		a := model.TaskAssignment{
			TaskID:   task.TaskID,
			InternID: interns[i].UserID,
			Status:   model.TaskStatusPending,
		}
		a.CreatedBy = &p.UserID
		assignments = append(assignments, a)
	}
	if err := txRepo.Assignment.BatchCreate(ctx, assignments); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建任务分配失败", zap.Error(err))
		return nil, err
	}
	if err := recordActivity(ctx, txRepo, p.UserID, ActionTaskCreated,
		fmt.Sprintf("Created task %q for %d interns", task.Title, len(interns)), "task", task.TaskID); err != nil {
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

	body := task.Title
	if task.DueDate != nil {
		body = fmt.Sprintf("%s (due %s)", task.Title, task.DueDate.Format(dateLayout))
	}
	s.notifier.NotifyAll(ctx, interns, Notice{
		Type:        NoticeTaskAssigned,
		Title:       "New Task Assigned",
		Body:        body,
		RelatedType: "task",
		RelatedID:   task.TaskID,
	})

	return s.Get(ctx, p, task.TaskID)
}

// resolveAssignees 未指定时取该专业全部在岗实习生
func (s *taskService) resolveAssignees(ctx context.Context, specialtyID string, internIDs []string) ([]model.User, error) {
	if len(internIDs) == 0 {
		interns, err := s.repo.User.ListInternsBySpecialty(ctx, specialtyID)
		if err != nil {
			s.logger.Error("查询专业实习生失败", zap.String("specialty_id", specialtyID), zap.Error(err))
			return nil, err
		}
		if len(interns) == 0 {
			return nil, ErrNoInternsToAssign
		}
		return interns, nil
	}

	seen := make(map[string]bool, len(internIDs))
	interns := make([]model.User, 0, len(internIDs))
	for _, id := range internIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		u, err := s.repo.User.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInternNotFound
			}
			return nil, err
		}
		if u.Role != model.RoleIntern || u.SpecialtyID() != specialtyID {
			return nil, ErrInternNotInScope
		}
		interns = append(interns, *u)
	}
	return interns, nil
}

// ────────────────────── List / Get ──────────────────────

func (s *taskService) scopedFilter(p Principal, filter repository.TaskFilter) (repository.TaskFilter, bool) {
	switch p.Role {
	case model.RoleIntern:
		filter.InternID = p.UserID
	case model.RoleSupervisor:
		if p.SpecialtyID == "" {
			return filter, false
		}
		filter.SpecialtyID = p.SpecialtyID
	}
	return filter, true
}

func (s *taskService) List(ctx context.Context, p Principal, req *dto.TaskListRequest) ([]dto.TaskResponse, int64, error) {
	filter, ok := s.scopedFilter(p, repository.TaskFilter{
		SpecialtyID: req.SpecialtyID,
		Priority:    req.Priority,
		Keyword:     strings.TrimSpace(req.Keyword),
	})
	if !ok {
		return []dto.TaskResponse{}, 0, nil
	}

	tasks, total, err := s.repo.Task.List(ctx, filter, repository.Pagination{
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出任务失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		result = append(result, *toTaskResponse(&tasks[i], p))
	}
	return result, total, nil
}

func (s *taskService) getTask(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.repo.Task.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("查询任务失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return task, nil
}

func (s *taskService) Get(ctx context.Context, p Principal, id string) (*dto.TaskResponse, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewTask(p, task) {
		return nil, ErrForbidden
	}
	return toTaskResponse(task, p), nil
}

// ────────────────────── Update / Delete ──────────────────────

func (s *taskService) Update(ctx context.Context, p Principal, id string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageSpecialty(p, task.SpecialtyID) {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		due, err := parseOptionalDate(*req.DueDate)
		if err != nil {
			return nil, pkgerrors.NewValidationError("due_date", "must be a valid date in YYYY-MM-DD format")
		}
		task.DueDate = due
	}
	task.Version = req.Version
	task.UpdatedBy = &p.UserID

	if err := s.repo.Task.Update(ctx, task); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新任务失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return toTaskResponse(task, p), nil
}

func (s *taskService) Delete(ctx context.Context, p Principal, id string) error {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return err
	}
	if !canManageSpecialty(p, task.SpecialtyID) {
		return ErrForbidden
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
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

	if err := txRepo.Assignment.DeleteByTask(ctx, id); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("删除任务分配失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := txRepo.Task.Delete(ctx, id, p.UserID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("删除任务失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := recordActivity(ctx, txRepo, p.UserID, ActionTaskDeleted,
		fmt.Sprintf("Deleted task %q", task.Title), "task", id); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}
	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// ────────────────────── 进度 ──────────────────────

func (s *taskService) UpdateProgress(ctx context.Context, p Principal, id string, req *dto.UpdateProgressRequest) (*dto.AssignmentResponse, error) {
	if err := requireRole(p, model.RoleIntern); err != nil {
		return nil, err
	}
	if req.Progress == nil || *req.Progress < 0 || *req.Progress > 100 {
		return nil, pkgerrors.NewValidationError("progress", "must be between 0 and 100")
	}

	if _, err := s.getTask(ctx, id); err != nil {
		return nil, err
	}
	a, err := s.repo.Assignment.GetByTaskAndIntern(ctx, id, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAssigned
		}
		return nil, err
	}

	a.Progress = *req.Progress
	a.Note = req.Note
	a.UpdatedBy = &p.UserID
	switch {
	case a.Progress == 100 || req.Status == model.TaskStatusCompleted:
		a.Progress = 100
		a.Status = model.TaskStatusCompleted
		if a.CompletedAt == nil {
			now := s.now()
			a.CompletedAt = &now
		}
	case a.Progress > 0 || req.Status == model.TaskStatusInProgress:
		a.Status = model.TaskStatusInProgress
		a.CompletedAt = nil
	default:
		a.Status = model.TaskStatusPending
		a.CompletedAt = nil
	}

	if err := s.repo.Assignment.Update(ctx, a); err != nil {
		s.logger.Error("更新任务进度失败", zap.String("assignment_id", a.AssignmentID), zap.Error(err))
		return nil, err
	}
	a.UpdatedAt = s.now()
	resp := toAssignmentResponse(a)
	return &resp, nil
}

func (s *taskService) ListProgress(ctx context.Context, p Principal, id string) ([]dto.AssignmentResponse, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewTask(p, task) {
		return nil, ErrForbidden
	}

	list, err := s.repo.Assignment.ListByTask(ctx, id)
	if err != nil {
		s.logger.Error("查询任务进度失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		// 实习生只能看到自己的进度
		if p.IsIntern() && list[i].InternID != p.UserID {
			continue
		}
		result = append(result, toAssignmentResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── Calendar ──────────────────────

func (s *taskService) Calendar(ctx context.Context, p Principal) ([]byte, error) {
	filter, ok := s.scopedFilter(p, repository.TaskFilter{})
	var tasks []model.Task
	if ok {
		var err error
		tasks, err = s.repo.Task.ListWithDueDate(ctx, filter)
		if err != nil {
			s.logger.Error("查询任务截止日期失败", zap.Error(err))
			return nil, err
		}
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//" + appName + "//Tasks//EN")
	cal.SetXWRCalName(appName + " tasks")

	stamp := s.now().UTC()
	for i := range tasks {
		t := &tasks[i]
		if t.DueDate == nil {
			continue
		}
		ev := cal.AddEvent(t.TaskID + "@trazor")
		ev.SetDtStampTime(stamp)
		ev.SetSummary(fmt.Sprintf("[%s] %s", strings.ToUpper(t.Priority), t.Title))
		if t.Description != "" {
			ev.SetDescription(t.Description)
		}
		ev.SetAllDayStartAt(*t.DueDate)
		ev.SetAllDayEndAt(t.DueDate.AddDate(0, 0, 1))
	}
	return []byte(cal.Serialize()), nil
}
