package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TraitzTech/trazor-api-sub000/config"
	"github.com/TraitzTech/trazor-api-sub000/internal/api/handler"
	"github.com/TraitzTech/trazor-api-sub000/internal/api/router"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/database"
	"github.com/TraitzTech/trazor-api-sub000/pkg/jwt"
	applogger "github.com/TraitzTech/trazor-api-sub000/pkg/logger"
	"github.com/TraitzTech/trazor-api-sub000/pkg/mailer"
	"github.com/TraitzTech/trazor-api-sub000/pkg/metrics"
	"github.com/TraitzTech/trazor-api-sub000/pkg/pdf"
	"github.com/TraitzTech/trazor-api-sub000/pkg/push"
	"github.com/TraitzTech/trazor-api-sub000/pkg/redis"
	"github.com/TraitzTech/trazor-api-sub000/pkg/storage"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("TRAZOR_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("storage", cfg.Storage.Driver),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单不可用，限流降级为进程内", zap.Error(err))
		rdb = nil
	}

	// 5. 文件存储（本地目录或 S3）
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.New(initCtx, &cfg.Storage)
	if err != nil {
		logger.Fatal("初始化文件存储失败", zap.Error(err))
	}

	// 6. 推送：未启用 FCM 时只写日志
	var pusher push.Pusher = push.NewLogPusher(logger)
	if cfg.Push.Enabled {
		fcm, err := push.NewFCMPusher(initCtx, cfg.Push.CredentialsFile, logger)
		if err != nil {
			logger.Fatal("初始化 FCM 失败", zap.Error(err))
		}
		pusher = fcm
	}
	initCancel()

	// 7. 依赖注入: Repository → Service → Handler
	collector := metrics.NewCollector()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)

	deps := service.Deps{
		Config:   cfg,
		Repo:     repo,
		JWT:      jwtMgr,
		Storage:  store,
		Renderer: pdf.NewRenderer(cfg.Logbook.FontFile),
		Pusher:   pusher,
		Mailer:   mailer.New(&cfg.Mail, logger),
		Metrics:  collector,
		Logger:   logger,
	}
	if rdb != nil {
		deps.Tokens = rdb
	}
	svc := service.NewService(deps)
	h := handler.NewHandler(svc, cfg.Server.Debug)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, collector, store, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // 周表 PDF 与 Excel 导出
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
