package router

import (
	"net/http"
	"path"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TraitzTech/trazor-api-sub000/config"
	"github.com/TraitzTech/trazor-api-sub000/internal/api/handler"
	"github.com/TraitzTech/trazor-api-sub000/internal/api/middleware"
	"github.com/TraitzTech/trazor-api-sub000/pkg/jwt"
	"github.com/TraitzTech/trazor-api-sub000/pkg/metrics"
	"github.com/TraitzTech/trazor-api-sub000/pkg/redis"
	"github.com/TraitzTech/trazor-api-sub000/pkg/storage"
)

// JSON 请求体上限
const maxJSONBody = 1 << 20

const (
	roleAdmin      = "admin"
	roleSupervisor = "supervisor"
	roleIntern     = "intern"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：登出黑名单失效，限流退化为进程内令牌桶
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	collector *metrics.Collector,
	store storage.Storage,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(collector))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxJSONBody, cfg.Storage.MaxUpload))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(metrics.NewRegistry(collector))))

	// ── 周表 PDF 静态访问（仅本地存储；附件须经鉴权接口下载） ──
	if local, ok := store.(*storage.LocalStorage); ok {
		pdfDir := path.Clean("/" + cfg.Logbook.PDFDir)
		r.Static(path.Join("/storage", pdfDir), filepath.Join(local.Root(), filepath.FromSlash(pdfDir)))
	}

	var blacklist middleware.Blacklist
	if rdb != nil {
		blacklist = rdb
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, time.Minute))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", middleware.RoleAuth(roleAdmin, roleSupervisor), h.User.ListUsers)
				users.GET("/:id", h.User.GetUser) // 本人 / 本专业指导老师 / 管理员（Service 层鉴权）
				users.POST("", middleware.RoleAuth(roleAdmin), h.User.CreateUser)
				users.POST("/import", middleware.RoleAuth(roleAdmin), h.User.ImportInterns)
				users.PUT("/:id", middleware.RoleAuth(roleAdmin), h.User.UpdateUser)
				users.DELETE("/:id", middleware.RoleAuth(roleAdmin), h.User.DeleteUser)
				users.PATCH("/:id/active", middleware.RoleAuth(roleAdmin), h.User.SetActive)
				users.POST("/:id/reset-password", middleware.RoleAuth(roleAdmin), h.User.ResetPassword)
			}

			// 专业模块
			specialties := authorized.Group("/specialties")
			{
				specialties.GET("", h.Specialty.ListSpecialties)
				specialties.GET("/:id", h.Specialty.GetSpecialty)
				specialties.POST("", middleware.RoleAuth(roleAdmin), h.Specialty.CreateSpecialty)
				specialties.PUT("/:id", middleware.RoleAuth(roleAdmin), h.Specialty.UpdateSpecialty)
				specialties.DELETE("/:id", middleware.RoleAuth(roleAdmin), h.Specialty.DeleteSpecialty)
			}

			// 任务模块
			tasks := authorized.Group("/tasks")
			{
				tasks.GET("", h.Task.ListTasks)
				tasks.GET("/calendar.ics", h.Task.Calendar)
				tasks.GET("/:id", h.Task.GetTask)
				tasks.POST("", middleware.RoleAuth(roleAdmin, roleSupervisor), h.Task.CreateTask)
				tasks.PUT("/:id", middleware.RoleAuth(roleAdmin, roleSupervisor), h.Task.UpdateTask)
				tasks.DELETE("/:id", middleware.RoleAuth(roleAdmin, roleSupervisor), h.Task.DeleteTask)

				tasks.GET("/:id/progress", h.Task.ListProgress)
				tasks.PUT("/:id/progress", middleware.RoleAuth(roleIntern), h.Task.UpdateProgress)

				tasks.GET("/:id/comments", h.Comment.ListComments)
				tasks.POST("/:id/comments", h.Comment.AddComment)
				tasks.DELETE("/:id/comments/:commentId", h.Comment.DeleteComment)

				tasks.GET("/:id/attachments", h.Attachment.ListAttachments)
				tasks.POST("/:id/attachments", h.Attachment.UploadAttachment)
			}

			// 附件
			attachments := authorized.Group("/attachments")
			{
				attachments.GET("/:id", h.Attachment.DownloadAttachment)
				attachments.DELETE("/:id", h.Attachment.DeleteAttachment)
			}

			// 公告模块
			announcements := authorized.Group("/announcements")
			{
				announcements.GET("", h.Announcement.ListAnnouncements)
				announcements.GET("/:id", h.Announcement.GetAnnouncement)
				announcements.POST("", middleware.RoleAuth(roleAdmin, roleSupervisor), h.Announcement.CreateAnnouncement)
				announcements.PUT("/:id", middleware.RoleAuth(roleAdmin, roleSupervisor), h.Announcement.UpdateAnnouncement)
				announcements.DELETE("/:id", middleware.RoleAuth(roleAdmin, roleSupervisor), h.Announcement.DeleteAnnouncement)
			}

			// 实习日志模块
			logbooks := authorized.Group("/logbooks")
			{
				logbooks.GET("", h.Logbook.ListLogbooks)
				logbooks.POST("", middleware.RoleAuth(roleIntern, roleAdmin), h.Logbook.SubmitLogbook)
				logbooks.GET("/export", h.Logbook.ExportLogbooks)
				logbooks.GET("/weeks/:week/status", h.Logbook.WeekStatus)
				logbooks.GET("/weeks/:week/pdf", h.Logbook.WeekPDF)
				logbooks.GET("/:id", h.Logbook.GetLogbook)
				logbooks.PUT("/:id", h.Logbook.UpdateLogbook)
				logbooks.DELETE("/:id", h.Logbook.DeleteLogbook)
				logbooks.POST("/:id/review", middleware.RoleAuth(roleSupervisor, roleAdmin), h.Logbook.ReviewLogbook)
			}

			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.POST("/device-token", h.Notification.RegisterDeviceToken)
				notifications.POST("/send", middleware.RoleAuth(roleAdmin, roleSupervisor), h.Notification.SendNotification)
			}

			// 看板 / 操作日志
			authorized.GET("/dashboard/supervisor", middleware.RoleAuth(roleAdmin, roleSupervisor), h.Dashboard.Supervisor)
			authorized.GET("/dashboard/admin", middleware.RoleAuth(roleAdmin), h.Dashboard.Admin)
			authorized.GET("/activities", middleware.RoleAuth(roleAdmin), h.Dashboard.ListActivities)
		}
	}

	return r
}
