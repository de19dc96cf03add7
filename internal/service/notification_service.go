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
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoRecipients         = errors.New("no recipients matched")
)

// NotificationService 站内通知业务接口
type NotificationService interface {
	RegisterDeviceToken(ctx context.Context, p Principal, req *dto.RegisterDeviceTokenRequest) error
	ListMine(ctx context.Context, p Principal, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, p Principal) (*dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, p Principal, id string) error
	MarkAllRead(ctx context.Context, p Principal) error
	// Send 管理员 / 指导老师直接发送；指导老师只能发给本专业成员
	Send(ctx context.Context, p Principal, req *dto.SendNotificationRequest) (*dto.SendNotificationResponse, error)
}

type notificationService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, notifier: notifier, logger: logger}
}

func (s *notificationService) RegisterDeviceToken(ctx context.Context, p Principal, req *dto.RegisterDeviceTokenRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return pkgerrors.NewValidationError("token", "required")
	}
	if err := s.repo.User.UpdateDeviceToken(ctx, p.UserID, &token); err != nil {
		s.logger.Error("登记设备令牌失败", zap.String("user_id", p.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (s *notificationService) ListMine(ctx context.Context, p Principal, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, p.UserID, req.UnreadOnly, repository.Pagination{
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		result = append(result, toNotificationResponse(&list[i]))
	}
	return result, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, p Principal) (*dto.UnreadCountResponse, error) {
	n, err := s.repo.Notification.CountUnread(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{Unread: n}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, p Principal, id string) error {
	affected, err := s.repo.Notification.MarkRead(ctx, id, p.UserID)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return err
	}
	// 他人的通知同样按不存在处理
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, p Principal) error {
	return s.repo.Notification.MarkAllRead(ctx, p.UserID)
}

// ────────────────────── Send ──────────────────────

func (s *notificationService) Send(ctx context.Context, p Principal, req *dto.SendNotificationRequest) (*dto.SendNotificationResponse, error) {
	if err := requireRole(p, model.RoleAdmin, model.RoleSupervisor); err != nil {
		return nil, err
	}
	if (len(req.UserIDs) == 0) == (req.SpecialtyID == "") {
		return nil, pkgerrors.NewValidationError("user_ids", "provide either user_ids or specialty_id")
	}

	recipients, err := s.resolveRecipients(ctx, p, req)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	pushed := s.notifier.NotifyAll(ctx, recipients, Notice{
		Type:  NoticeDirect,
		Title: strings.TrimSpace(req.Title),
		Body:  req.Body,
	})
	s.logger.Info("直接通知已发送",
		zap.String("sender", p.UserID),
		zap.Int("recipients", len(recipients)),
		zap.Int("pushed", pushed),
	)
	return &dto.SendNotificationResponse{Recipients: len(recipients), Pushed: pushed}, nil
}

func (s *notificationService) resolveRecipients(ctx context.Context, p Principal, req *dto.SendNotificationRequest) ([]model.User, error) {
	if req.SpecialtyID != "" {
		if !canManageSpecialty(p, req.SpecialtyID) {
			return nil, ErrForbidden
		}
		users, err := s.repo.User.ListRecipients(ctx, req.SpecialtyID)
		if err != nil {
			s.logger.Error("查询专业成员失败", zap.String("specialty_id", req.SpecialtyID), zap.Error(err))
			return nil, err
		}
		out := users[:0]
		for _, u := range users {
			if u.UserID != p.UserID {
				out = append(out, u)
			}
		}
		return out, nil
	}

	seen := make(map[string]bool, len(req.UserIDs))
	users := make([]model.User, 0, len(req.UserIDs))
	for _, id := range req.UserIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		u, err := s.repo.User.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		if p.IsSupervisor() && u.SpecialtyID() != p.SpecialtyID {
			return nil, ErrForbidden
		}
		if !u.IsActive {
			continue
		}
		users = append(users, *u)
	}
	return users, nil
}
