package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	"github.com/TraitzTech/trazor-api-sub000/pkg/metrics"
	"github.com/TraitzTech/trazor-api-sub000/pkg/push"
)

// 通知类型
const (
	NoticeLogbookSubmitted = "logbook_submitted"
	NoticeLogbookNewEntry  = "logbook_new_entry"
	NoticeLogbookReviewed  = "logbook_reviewed"
	NoticeTaskAssigned     = "task_assigned"
	NoticeAnnouncement     = "announcement"
	NoticeDirect           = "direct"
)

// Notice 一条待发送的通知
type Notice struct {
	Type        string
	Title       string
	Body        string
	RelatedType string
	RelatedID   string
}

// Notifier 站内通知 + 设备推送
//
// 每个收件人都会写入一条站内通知；只有登记了设备令牌的用户才会推送。
// 推送被网关拒绝（令牌失效）时清除该用户的令牌。所有失败只记日志，不向上返回。
type Notifier interface {
	// Notify 返回是否推送成功
	Notify(ctx context.Context, user *model.User, notice Notice) bool
	// NotifyAll 返回推送成功的人数
	NotifyAll(ctx context.Context, users []model.User, notice Notice) int
}

type notifier struct {
	repo    *repository.Repository
	pusher  push.Pusher
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewNotifier 创建 Notifier 实例
func NewNotifier(repo *repository.Repository, pusher push.Pusher, m *metrics.Collector, logger *zap.Logger) Notifier {
	return &notifier{repo: repo, pusher: pusher, metrics: m, logger: logger}
}

func (n *notifier) NotifyAll(ctx context.Context, users []model.User, notice Notice) int {
	pushed := 0
	for i := range users {
		if n.Notify(ctx, &users[i], notice) {
			pushed++
		}
	}
	return pushed
}

func (n *notifier) Notify(ctx context.Context, user *model.User, notice Notice) bool {
	record := &model.Notification{
		UserID: user.UserID,
		Type:   notice.Type,
		Title:  notice.Title,
		Body:   notice.Body,
	}
	if notice.RelatedType != "" {
		record.RelatedType = strPtr(notice.RelatedType)
	}
	if notice.RelatedID != "" {
		record.RelatedID = strPtr(notice.RelatedID)
	}
	if err := n.repo.Notification.Create(ctx, record); err != nil {
		n.logger.Warn("写入站内通知失败", zap.String("user_id", user.UserID), zap.Error(err))
	}

	// 无设备令牌：静默跳过推送
	if user.DeviceToken == nil || *user.DeviceToken == "" || n.pusher == nil {
		return false
	}

	data := map[string]string{"type": notice.Type}
	if notice.RelatedType != "" {
		data["related_type"] = notice.RelatedType
		data["related_id"] = notice.RelatedID
	}
	err := n.pusher.Send(ctx, &push.Message{
		Token: *user.DeviceToken,
		Title: notice.Title,
		Body:  notice.Body,
		Data:  data,
	})
	n.metrics.PushSent(err)
	if err != nil {
		if errors.Is(err, push.ErrTokenInvalid) {
			if clearErr := n.repo.User.UpdateDeviceToken(ctx, user.UserID, nil); clearErr != nil {
				n.logger.Warn("清除失效设备令牌失败", zap.String("user_id", user.UserID), zap.Error(clearErr))
			}
			user.DeviceToken = nil
		}
		n.logger.Warn("推送通知失败", zap.String("user_id", user.UserID), zap.String("type", notice.Type), zap.Error(err))
		return false
	}

	if record.NotificationID != "" {
		if err := n.repo.Notification.MarkPushed(ctx, record.NotificationID); err != nil {
			n.logger.Warn("标记通知已推送失败", zap.String("notification_id", record.NotificationID), zap.Error(err))
		}
	}
	return true
}
