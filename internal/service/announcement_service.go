package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
)

var ErrAnnouncementNotFound = errors.New("announcement not found")

// AnnouncementService 公告业务接口
type AnnouncementService interface {
	// Create 发布公告并通知目标人群（专业成员或全体），作者本人除外
	Create(ctx context.Context, p Principal, req *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	List(ctx context.Context, p Principal, req *dto.AnnouncementListRequest) ([]dto.AnnouncementResponse, int64, error)
	Get(ctx context.Context, p Principal, id string) (*dto.AnnouncementResponse, error)
	Update(ctx context.Context, p Principal, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	Delete(ctx context.Context, p Principal, id string) error
}

type announcementService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewAnnouncementService 创建 AnnouncementService 实例
func NewAnnouncementService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) AnnouncementService {
	return &announcementService{repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *announcementService) Create(ctx context.Context, p Principal, req *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	if err := requireRole(p, model.RoleAdmin, model.RoleSupervisor); err != nil {
		return nil, err
	}

	// 指导老师的公告只面向本专业
	target := req.SpecialtyID
	if p.IsSupervisor() {
		if p.SpecialtyID == "" || (target != "" && target != p.SpecialtyID) {
			return nil, ErrForbidden
		}
		target = p.SpecialtyID
	}
	if target != "" {
		if _, err := s.repo.Specialty.GetByID(ctx, target); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSpecialtyNotFound
			}
			return nil, err
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = "normal"
	}
	a := &model.Announcement{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		AuthorID: p.UserID,
		Priority: priority,
	}
	if target != "" {
		a.SpecialtyID = strPtr(target)
	}
	a.CreatedBy = &p.UserID

	if err := s.repo.Announcement.Create(ctx, a); err != nil {
		s.logger.Error("发布公告失败", zap.Error(err))
		return nil, err
	}
	if err := recordActivity(ctx, s.repo, p.UserID, ActionAnnouncement, "Published announcement "+a.Title, "announcement", a.AnnouncementID); err != nil {
		s.logger.Warn("写入操作日志失败", zap.Error(err))
	}

	notified := s.fanOut(ctx, a, target)

	created, err := s.repo.Announcement.GetByID(ctx, a.AnnouncementID)
	if err != nil {
		return nil, err
	}
	resp := toAnnouncementResponse(created)
	resp.Notified = &notified
	return resp, nil
}

// fanOut 通知失败不影响已发布的公告，返回写入站内通知的人数
func (s *announcementService) fanOut(ctx context.Context, a *model.Announcement, specialtyID string) int {
	users, err := s.repo.User.ListRecipients(ctx, specialtyID)
	if err != nil {
		s.logger.Warn("查询公告接收人失败", zap.String("announcement_id", a.AnnouncementID), zap.Error(err))
		return 0
	}
	recipients := make([]model.User, 0, len(users))
	for i := range users {
		if users[i].UserID != a.AuthorID {
			recipients = append(recipients, users[i])
		}
	}

	title := "New Announcement"
	if a.Priority == "urgent" {
		title = "Urgent Announcement"
	}
	pushed := s.notifier.NotifyAll(ctx, recipients, Notice{
		Type:        NoticeAnnouncement,
		Title:       title,
		Body:        a.Title,
		RelatedType: "announcement",
		RelatedID:   a.AnnouncementID,
	})
	s.logger.Info("公告已通知",
		zap.String("announcement_id", a.AnnouncementID),
		zap.Int("recipients", len(recipients)),
		zap.Int("pushed", pushed),
	)
	return len(recipients)
}

// ────────────────────── List / Get ──────────────────────

func (s *announcementService) List(ctx context.Context, p Principal, req *dto.AnnouncementListRequest) ([]dto.AnnouncementResponse, int64, error) {
	filter := repository.AnnouncementFilter{Priority: req.Priority}
	if !p.IsAdmin() {
		if p.SpecialtyID == "" {
			filter.GlobalOnly = true
		} else {
			filter.VisibleToSpecialty = p.SpecialtyID
		}
	}

	list, total, err := s.repo.Announcement.List(ctx, filter, repository.Pagination{
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出公告失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.AnnouncementResponse, 0, len(list))
	for i := range list {
		result = append(result, *toAnnouncementResponse(&list[i]))
	}
	return result, total, nil
}

func (s *announcementService) load(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := s.repo.Announcement.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		s.logger.Error("查询公告失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return a, nil
}

func canViewAnnouncement(p Principal, a *model.Announcement) bool {
	return p.IsAdmin() || a.SpecialtyID == nil || *a.SpecialtyID == p.SpecialtyID || a.AuthorID == p.UserID
}

func (s *announcementService) Get(ctx context.Context, p Principal, id string) (*dto.AnnouncementResponse, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// 不可见的公告按不存在处理
	if !canViewAnnouncement(p, a) {
		return nil, ErrAnnouncementNotFound
	}
	return toAnnouncementResponse(a), nil
}

// ────────────────────── Update / Delete ──────────────────────

func (s *announcementService) Update(ctx context.Context, p Principal, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != p.UserID && !p.IsAdmin() {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		a.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		a.Content = *req.Content
	}
	if req.Priority != nil {
		a.Priority = *req.Priority
	}
	a.UpdatedBy = &p.UserID

	if err := s.repo.Announcement.Update(ctx, a); err != nil {
		s.logger.Error("更新公告失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toAnnouncementResponse(a), nil
}

func (s *announcementService) Delete(ctx context.Context, p Principal, id string) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if a.AuthorID != p.UserID && !p.IsAdmin() {
		return ErrForbidden
	}
	if err := s.repo.Announcement.Delete(ctx, id, p.UserID); err != nil {
		s.logger.Error("删除公告失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
