package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
)

// DashboardService 仪表盘与操作日志
type DashboardService interface {
	// Supervisor 指导老师看本专业；管理员需指定 specialtyID
	Supervisor(ctx context.Context, p Principal, specialtyID string) (*dto.SupervisorDashboardResponse, error)
	AdminStats(ctx context.Context, p Principal) (*dto.AdminStatsResponse, error)
	ListActivities(ctx context.Context, p Principal, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error)
}

type dashboardService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, logger: logger}
}

func (s *dashboardService) Supervisor(ctx context.Context, p Principal, specialtyID string) (*dto.SupervisorDashboardResponse, error) {
	if err := requireRole(p, model.RoleAdmin, model.RoleSupervisor); err != nil {
		return nil, err
	}
	if p.IsSupervisor() {
		if specialtyID != "" && specialtyID != p.SpecialtyID {
			return nil, ErrForbidden
		}
		specialtyID = p.SpecialtyID
	}
	if specialtyID == "" {
		return nil, pkgerrors.NewValidationError("specialty_id", "required")
	}

	sp, err := s.repo.Specialty.GetByID(ctx, specialtyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}

	interns, err := s.repo.User.ListInternsBySpecialty(ctx, specialtyID)
	if err != nil {
		s.logger.Error("查询专业实习生失败", zap.String("specialty_id", specialtyID), zap.Error(err))
		return nil, err
	}
	logbooks, err := s.repo.Logbook.CountByStatus(ctx, specialtyID)
	if err != nil {
		s.logger.Error("统计日志状态失败", zap.Error(err))
		return nil, err
	}
	tasks, err := s.repo.Assignment.CountByStatus(ctx, specialtyID)
	if err != nil {
		s.logger.Error("统计任务进度失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.SupervisorDashboardResponse{
		Specialty:      toSpecialtyBrief(sp),
		InternCount:    len(interns),
		Interns:        make([]dto.UserBrief, 0, len(interns)),
		PendingReviews: logbooks[model.LogbookPending],
		LogbookStatus:  logbookStatusMap(logbooks),
		TaskStatus:     taskStatusMap(tasks),
	}
	for i := range interns {
		resp.Interns = append(resp.Interns, *toUserBrief(&interns[i]))
	}
	return resp, nil
}

func (s *dashboardService) AdminStats(ctx context.Context, p Principal) (*dto.AdminStatsResponse, error) {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return nil, err
	}

	byRole, err := s.repo.User.CountByRole(ctx)
	if err != nil {
		s.logger.Error("统计用户失败", zap.Error(err))
		return nil, err
	}
	specialties, err := s.repo.Specialty.List(ctx)
	if err != nil {
		return nil, err
	}
	logbooks, err := s.repo.Logbook.CountByStatus(ctx, "")
	if err != nil {
		s.logger.Error("统计日志状态失败", zap.Error(err))
		return nil, err
	}
	tasks, err := s.repo.Assignment.CountByStatus(ctx, "")
	if err != nil {
		s.logger.Error("统计任务进度失败", zap.Error(err))
		return nil, err
	}

	users := map[string]int64{
		string(model.RoleAdmin):      0,
		string(model.RoleSupervisor): 0,
		string(model.RoleIntern):     0,
	}
	for role, n := range byRole {
		users[string(role)] = n
	}
	return &dto.AdminStatsResponse{
		UsersByRole:    users,
		SpecialtyCount: len(specialties),
		LogbookStatus:  logbookStatusMap(logbooks),
		TaskStatus:     taskStatusMap(tasks),
	}, nil
}

// logbookStatusMap 补齐缺失的状态，前端无需判空
func logbookStatusMap(counts map[model.LogbookStatus]int64) map[string]int64 {
	out := map[string]int64{
		string(model.LogbookPending):       0,
		string(model.LogbookApproved):      0,
		string(model.LogbookNeedsRevision): 0,
	}
	for st, n := range counts {
		out[string(st)] = n
	}
	return out
}

func taskStatusMap(counts map[string]int64) map[string]int64 {
	out := map[string]int64{
		model.TaskStatusPending:    0,
		model.TaskStatusInProgress: 0,
		model.TaskStatusCompleted:  0,
	}
	for st, n := range counts {
		out[st] = n
	}
	return out
}

// ────────────────────── 操作日志 ──────────────────────

func (s *dashboardService) ListActivities(ctx context.Context, p Principal, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error) {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return nil, 0, err
	}
	list, total, err := s.repo.Activity.List(ctx, repository.ActivityFilter{
		UserID: req.UserID,
		Action: req.Action,
	}, repository.Pagination{
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询操作日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ActivityResponse, 0, len(list))
	for i := range list {
		a := &list[i]
		result = append(result, dto.ActivityResponse{
			ID:          a.ActivityID,
			User:        toUserBrief(a.User),
			Action:      a.Action,
			Description: a.Description,
			SubjectType: derefStr(a.SubjectType),
			SubjectID:   derefStr(a.SubjectID),
			CreatedAt:   formatTime(&a.CreatedAt),
		})
	}
	return result, total, nil
}
