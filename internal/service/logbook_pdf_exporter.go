package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/config"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	"github.com/TraitzTech/trazor-api-sub000/pkg/metrics"
	"github.com/TraitzTech/trazor-api-sub000/pkg/pdf"
	"github.com/TraitzTech/trazor-api-sub000/pkg/storage"
)

var (
	ErrInsufficientEntries  = errors.New("the week does not have an entry for every weekday yet")
	ErrInternNotFound       = errors.New("intern not found")
	ErrMissingMatriculation = errors.New("intern has no matriculation number")
)

// LogbookPdfExporter 周日志表生成
type LogbookPdfExporter interface {
	// Generate 渲染并写入周表，返回存储路径；同一路径重复生成时覆盖
	Generate(ctx context.Context, internID string, weekNumber int) (string, error)
	// SheetPath 周表的确定性存储路径
	SheetPath(matriculationNumber string, weekNumber int) string
	URL(key string) string
}

type logbookPdfExporter struct {
	repo     *repository.Repository
	renderer pdf.Renderer
	storage  storage.Storage
	cfg      *config.LogbookConfig
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewLogbookPdfExporter 创建 LogbookPdfExporter 实例
func NewLogbookPdfExporter(
	repo *repository.Repository,
	renderer pdf.Renderer,
	store storage.Storage,
	cfg *config.LogbookConfig,
	m *metrics.Collector,
	logger *zap.Logger,
) LogbookPdfExporter {
	return &logbookPdfExporter{
		repo:     repo,
		renderer: renderer,
		storage:  store,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}
}

func (e *logbookPdfExporter) SheetPath(matriculationNumber string, weekNumber int) string {
	dir := e.cfg.PDFDir
	if dir == "" {
		dir = "logbooks"
	}
	return path.Join(dir, fmt.Sprintf("week_%d_%s.pdf", weekNumber, matriculationNumber))
}

func (e *logbookPdfExporter) URL(key string) string {
	return e.storage.URL(key)
}

func (e *logbookPdfExporter) Generate(ctx context.Context, internID string, weekNumber int) (string, error) {
	// 1. 重新读取本周日志，不信任调用方的完成判断
	entries, err := e.repo.Logbook.ListByInternAndWeek(ctx, internID, weekNumber)
	if err != nil {
		e.logger.Error("查询周日志失败", zap.String("intern_id", internID), zap.Int("week", weekNumber), zap.Error(err))
		return "", err
	}
	if len(entries) < len(pdf.Weekdays) || !weekdaysCovered(entries, "").complete() {
		return "", ErrInsufficientEntries
	}

	// 2. 实习生档案
	intern, err := e.repo.User.GetByID(ctx, internID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInternNotFound
		}
		e.logger.Error("查询实习生失败", zap.String("intern_id", internID), zap.Error(err))
		return "", err
	}
	if intern.InternProfile == nil {
		return "", ErrInternNotFound
	}
	if intern.InternProfile.MatriculationNumber == "" {
		return "", ErrMissingMatriculation
	}

	// 3. 组装模板数据；查询按 date、submitted_at 升序，同一工作日后写覆盖先写
	sheet := buildWeeklySheet(e.cfg.Title, intern, weekNumber, entries)

	// 4. 渲染并写入存储
	data, err := e.renderer.RenderWeeklySheet(sheet)
	if err != nil {
		e.metrics.PDFGenerated(err)
		e.logger.Error("渲染周表失败", zap.String("intern_id", internID), zap.Int("week", weekNumber), zap.Error(err))
		return "", fmt.Errorf("render weekly sheet: %w", err)
	}

	key := e.SheetPath(intern.InternProfile.MatriculationNumber, weekNumber)
	if err := e.storage.Put(ctx, key, bytes.NewReader(data), "application/pdf"); err != nil {
		e.metrics.PDFGenerated(err)
		e.logger.Error("写入周表失败", zap.String("path", key), zap.Error(err))
		return "", fmt.Errorf("store weekly sheet: %w", err)
	}

	e.metrics.PDFGenerated(nil)
	e.logger.Info("周表已生成", zap.String("intern_id", internID), zap.Int("week", weekNumber), zap.String("path", key))
	return key, nil
}

// buildWeeklySheet entries 需按 date 升序
func buildWeeklySheet(title string, intern *model.User, weekNumber int, entries []model.LogbookEntry) *pdf.WeeklySheet {
	p := intern.InternProfile
	sheet := &pdf.WeeklySheet{
		Title:               title,
		InternName:          intern.Name,
		MatriculationNumber: p.MatriculationNumber,
		Institution:         p.Institution,
		Level:               p.Level,
		Department:          p.Department,
		Option:              p.Option,
		WeekNumber:          weekNumber,
		Days:                make(map[string]string, len(pdf.Weekdays)),
	}
	if p.Specialty != nil {
		sheet.Specialty = p.Specialty.Name
	}

	for i := range entries {
		en := &entries[i]
		sheet.Days[weekdayName(en.Date)] = en.Content
		if sheet.PeriodFrom.IsZero() || en.Date.Before(sheet.PeriodFrom) {
			sheet.PeriodFrom = en.Date
		}
		if en.Date.After(sheet.PeriodTo) {
			sheet.PeriodTo = en.Date
		}
	}
	return sheet
}
