package handler

import "github.com/TraitzTech/trazor-api-sub000/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Specialty    *SpecialtyHandler
	Task         *TaskHandler
	Comment      *CommentHandler
	Attachment   *AttachmentHandler
	Announcement *AnnouncementHandler
	Logbook      *LogbookHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
}

// NewHandler 创建 Handler 聚合；debug 为 true 时 500 响应附带错误详情
func NewHandler(svc *service.Service, debug bool) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, debug),
		User:         NewUserHandler(svc.User, debug),
		Specialty:    NewSpecialtyHandler(svc.Specialty, debug),
		Task:         NewTaskHandler(svc.Task, debug),
		Comment:      NewCommentHandler(svc.Comment, debug),
		Attachment:   NewAttachmentHandler(svc.Attachment, debug),
		Announcement: NewAnnouncementHandler(svc.Announcement, debug),
		Logbook:      NewLogbookHandler(svc.Logbook, debug),
		Notification: NewNotificationHandler(svc.Notification, debug),
		Dashboard:    NewDashboardHandler(svc.Dashboard, debug),
	}
}
