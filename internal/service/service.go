package service

import (
	"go.uber.org/zap"

	"github.com/TraitzTech/trazor-api-sub000/config"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	"github.com/TraitzTech/trazor-api-sub000/pkg/jwt"
	"github.com/TraitzTech/trazor-api-sub000/pkg/mailer"
	"github.com/TraitzTech/trazor-api-sub000/pkg/metrics"
	"github.com/TraitzTech/trazor-api-sub000/pkg/pdf"
	"github.com/TraitzTech/trazor-api-sub000/pkg/push"
	"github.com/TraitzTech/trazor-api-sub000/pkg/storage"
)

// appName 邮件与日历中展示的系统名称
const appName = "Trazor"

// Deps Service 层依赖的外部协作者
type Deps struct {
	Config   *config.Config
	Repo     *repository.Repository
	JWT      *jwt.Manager
	Tokens   TokenBlacklist // 可为 nil（Redis 不可用）
	Storage  storage.Storage
	Renderer pdf.Renderer
	Pusher   push.Pusher
	Mailer   mailer.Mailer
	Metrics  *metrics.Collector // 可为 nil
	Logger   *zap.Logger
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Specialty    SpecialtyService
	Task         TaskService
	Comment      CommentService
	Attachment   AttachmentService
	Announcement AnnouncementService
	Logbook      LogbookService
	Notification NotificationService
	Dashboard    DashboardService
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	notifier := NewNotifier(d.Repo, d.Pusher, d.Metrics, d.Logger)
	tracker := NewWeekTracker(d.Repo.Logbook)
	exporter := NewLogbookPdfExporter(d.Repo, d.Renderer, d.Storage, &d.Config.Logbook, d.Metrics, d.Logger)

	return &Service{
		Auth:         NewAuthService(d.Config, d.Repo, d.JWT, d.Tokens, d.Logger),
		User:         NewUserService(d.Repo, d.Mailer, d.Metrics, d.Logger),
		Specialty:    NewSpecialtyService(d.Repo, d.Logger),
		Task:         NewTaskService(d.Repo, notifier, d.Logger),
		Comment:      NewCommentService(d.Repo, d.Logger),
		Attachment:   NewAttachmentService(d.Repo, d.Storage, d.Config.Storage.MaxUpload, d.Logger),
		Announcement: NewAnnouncementService(d.Repo, notifier, d.Logger),
		Logbook:      NewLogbookService(d.Repo, tracker, exporter, notifier, d.Storage, d.Metrics, d.Logger),
		Notification: NewNotificationService(d.Repo, notifier, d.Logger),
		Dashboard:    NewDashboardService(d.Repo, d.Logger),
	}
}
