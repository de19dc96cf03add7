package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
	"github.com/TraitzTech/trazor-api-sub000/pkg/metrics"
	"github.com/TraitzTech/trazor-api-sub000/pkg/storage"
)

// ── 实习日志模块业务错误 ──

var (
	ErrDuplicateEntry   = errors.New("a logbook entry already exists for this date")
	ErrLogbookNotFound  = errors.New("logbook entry not found")
	ErrLogbookLocked    = errors.New("only pending or needs_revision entries can be edited")
	ErrInternIDRequired = errors.New("intern_id is required")
)

// DuplicateEntryError 同一实习生同一天重复提交，携带已存在的日志
type DuplicateEntryError struct {
	Existing *dto.LogbookResponse
}

func (e *DuplicateEntryError) Error() string { return ErrDuplicateEntry.Error() }

// Is 使 errors.Is(err, ErrDuplicateEntry) 成立
func (e *DuplicateEntryError) Is(target error) bool { return target == ErrDuplicateEntry }

const maxHoursWorked = 24

// LogbookService 实习日志业务接口
type LogbookService interface {
	// Submit 提交日志：计算周次 → 落库并记录操作日志（同一事务）→ 周完成时生成周表 → 通知
	Submit(ctx context.Context, p Principal, req *dto.CreateLogbookRequest) (*dto.SubmitLogbookResponse, error)
	List(ctx context.Context, p Principal, req *dto.LogbookListRequest) ([]dto.LogbookResponse, int64, error)
	Get(ctx context.Context, p Principal, id string) (*dto.LogbookResponse, error)
	Update(ctx context.Context, p Principal, id string, req *dto.UpdateLogbookRequest) (*dto.LogbookResponse, error)
	Delete(ctx context.Context, p Principal, id string) error
	Review(ctx context.Context, p Principal, id string, req *dto.ReviewLogbookRequest) (*dto.LogbookResponse, error)
	WeekStatus(ctx context.Context, p Principal, internID string, weekNumber int) (*dto.WeekStatusResponse, error)
	GetWeekPDF(ctx context.Context, p Principal, internID string, weekNumber int) (*dto.WeekPDFResponse, error)
	// ExportExcel 导出实习生全部日志，返回文件内容与建议文件名
	ExportExcel(ctx context.Context, p Principal, internID string) (*bytes.Buffer, string, error)
}

type logbookService struct {
	repo     *repository.Repository
	tracker  WeekTracker
	exporter LogbookPdfExporter
	notifier Notifier
	storage  storage.Storage
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time
}

// NewLogbookService 创建 LogbookService 实例
func NewLogbookService(
	repo *repository.Repository,
	tracker WeekTracker,
	exporter LogbookPdfExporter,
	notifier Notifier,
	store storage.Storage,
	m *metrics.Collector,
	logger *zap.Logger,
) LogbookService {
	return &logbookService{
		repo:     repo,
		tracker:  tracker,
		exporter: exporter,
		notifier: notifier,
		storage:  store,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── Submit ──────────────────────

func (s *logbookService) Submit(ctx context.Context, p Principal, req *dto.CreateLogbookRequest) (*dto.SubmitLogbookResponse, error) {
	// 1. 授权：实习生只能为自己提交，管理员代填需指定实习生
	internID, err := submitTarget(p, req.InternID)
	if err != nil {
		return nil, err
	}

	// 2. 字段校验
	date, err := validateLogbookFields(req)
	if err != nil {
		return nil, err
	}

	// 3. 实习生与档案
	intern, err := s.loadIntern(ctx, internID)
	if err != nil {
		return nil, err
	}

	// 4. 重复日期预检；并发情况下由唯一索引兜底
	if existing, err := s.repo.Logbook.GetByInternAndDate(ctx, internID, date); err == nil {
		existing.Intern = intern
		return nil, &DuplicateEntryError{Existing: toLogbookResponse(existing)}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询重复日志失败", zap.String("intern_id", internID), zap.Error(err))
		return nil, err
	}

	// 5. 周次
	week := s.tracker.CalculateWeekNumber(date, intern.InternProfile.StartDate)

	entry := &model.LogbookEntry{
		InternID:       internID,
		Date:           date,
		Title:          strings.TrimSpace(req.Title),
		Content:        strings.TrimSpace(req.Content),
		HoursWorked:    req.HoursWorked,
		TasksCompleted: model.StringList(req.TasksCompleted),
		Challenges:     req.Challenges,
		Learnings:      req.Learnings,
		NextDayPlan:    req.NextDayPlan,
		Status:         model.LogbookPending,
		WeekNumber:     week,
		SubmittedAt:    s.now(),
		BaseModel:      model.BaseModel{CreatedBy: &p.UserID},
	}

	// 6. 事务：日志 + 操作日志
	if err := s.persistEntry(ctx, p, entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateFromStore(ctx, intern, date)
		}
		return nil, err
	}
	s.metrics.LogbookSubmitted()

	entry.Intern = intern
	resp := &dto.SubmitLogbookResponse{Entry: *toLogbookResponse(entry)}

	// 7. 周完成判断与周表生成（事务外，失败仅作提示）
	assessment, err := s.tracker.Assess(ctx, internID, week, entry.EntryID)
	if err != nil {
		s.logger.Warn("判断周完成情况失败", zap.String("intern_id", internID), zap.Int("week", week), zap.Error(err))
	} else {
		resp.WeekComplete = assessment.Complete
		if assessment.JustCompleted {
			path, genErr := s.exporter.Generate(ctx, internID, week)
			if genErr != nil {
				s.logger.Warn("生成周表失败", zap.String("intern_id", internID), zap.Int("week", week), zap.Error(genErr))
				resp.PDFError = genErr.Error()
			} else {
				resp.PDFPath = path
				resp.PDFURL = s.exporter.URL(path)
			}
		}
	}

	// 8. 通知（失败只记录日志）
	s.notifySubmitted(ctx, intern, entry)

	return resp, nil
}

// submitTarget 解析提交对象
func submitTarget(p Principal, requested string) (string, error) {
	switch p.Role {
	case model.RoleIntern:
		if requested != "" && requested != p.UserID {
			return "", ErrForbidden
		}
		return p.UserID, nil
	case model.RoleAdmin:
		if requested == "" {
			return "", pkgerrors.NewValidationError("intern_id", "required when submitting on behalf of an intern")
		}
		return requested, nil
	}
	return "", ErrForbidden
}

// validateLogbookFields 返回解析后的日期；所有字段错误一次性返回
func validateLogbookFields(req *dto.CreateLogbookRequest) (time.Time, error) {
	ve := &pkgerrors.ValidationError{}
	var date time.Time

	if strings.TrimSpace(req.Date) == "" {
		ve.Add("date", "required")
	} else if d, err := parseDate(req.Date); err != nil {
		ve.Add("date", "must be a valid date in YYYY-MM-DD format")
	} else {
		date = d
	}
	if strings.TrimSpace(req.Title) == "" {
		ve.Add("title", "required")
	}
	if strings.TrimSpace(req.Content) == "" {
		ve.Add("content", "required")
	}
	if msg := checkHours(req.HoursWorked); msg != "" {
		ve.Add("hours_worked", msg)
	}

	if ve.HasErrors() {
		return time.Time{}, ve
	}
	return date, nil
}

func checkHours(h *float64) string {
	if h != nil && (*h < 0 || *h > maxHoursWorked) {
		return fmt.Sprintf("must be between 0 and %d", maxHoursWorked)
	}
	return ""
}

func (s *logbookService) persistEntry(ctx context.Context, p Principal, entry *model.LogbookEntry) error {
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

	if err := txRepo.Logbook.Create(ctx, entry); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Error("写入日志失败", zap.String("intern_id", entry.InternID), zap.Error(err))
		}
		return err
	}

	desc := fmt.Sprintf("Logbook filled for %s", entry.Date.Format(dateLayout))
	if err := recordActivity(ctx, txRepo, p.UserID, ActionLogbookFilled, desc, "logbook", entry.EntryID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("写入操作日志失败", zap.Error(err))
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

// duplicateFromStore 唯一索引冲突后读取已存在的日志
func (s *logbookService) duplicateFromStore(ctx context.Context, intern *model.User, date time.Time) error {
	existing, err := s.repo.Logbook.GetByInternAndDate(ctx, intern.UserID, date)
	if err != nil {
		s.logger.Error("读取冲突日志失败", zap.String("intern_id", intern.UserID), zap.Error(err))
		return &DuplicateEntryError{}
	}
	existing.Intern = intern
	return &DuplicateEntryError{Existing: toLogbookResponse(existing)}
}

func (s *logbookService) notifySubmitted(ctx context.Context, intern *model.User, entry *model.LogbookEntry) {
	day := entry.Date.Format(dateLayout)
	s.notifier.Notify(ctx, intern, Notice{
		Type:        NoticeLogbookSubmitted,
		Title:       "Logbook Submitted",
		Body:        fmt.Sprintf("Your logbook entry for %s has been submitted.", day),
		RelatedType: "logbook",
		RelatedID:   entry.EntryID,
	})

	supervisors, err := s.repo.User.ListSupervisorsBySpecialty(ctx, intern.SpecialtyID())
	if err != nil {
		s.logger.Warn("查询指导老师失败", zap.String("specialty_id", intern.SpecialtyID()), zap.Error(err))
		return
	}
	s.notifier.NotifyAll(ctx, supervisors, Notice{
		Type:        NoticeLogbookNewEntry,
		Title:       fmt.Sprintf("New Logbook Entry from %s", intern.Name),
		Body:        fmt.Sprintf("%s submitted a logbook entry for %s: %s", intern.Name, day, entry.Title),
		RelatedType: "logbook",
		RelatedID:   entry.EntryID,
	})
}

// loadIntern 加载带档案的实习生
func (s *logbookService) loadIntern(ctx context.Context, internID string) (*model.User, error) {
	intern, err := s.repo.User.GetByID(ctx, internID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInternNotFound
		}
		s.logger.Error("查询实习生失败", zap.String("intern_id", internID), zap.Error(err))
		return nil, err
	}
	if intern.Role != model.RoleIntern || intern.InternProfile == nil {
		return nil, ErrInternNotFound
	}
	return intern, nil
}

// resolveIntern 实习生默认查看自己；其他角色必须指定并通过可见性校验
func (s *logbookService) resolveIntern(ctx context.Context, p Principal, internID string) (*model.User, error) {
	if internID == "" {
		if !p.IsIntern() {
			return nil, ErrInternIDRequired
		}
		internID = p.UserID
	}
	intern, err := s.loadIntern(ctx, internID)
	if err != nil {
		return nil, err
	}
	if !canViewIntern(p, intern) {
		return nil, ErrForbidden
	}
	return intern, nil
}

func (s *logbookService) getEntry(ctx context.Context, id string) (*model.LogbookEntry, error) {
	entry, err := s.repo.Logbook.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLogbookNotFound
		}
		s.logger.Error("查询日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return entry, nil
}

// ────────────────────── List / Get ──────────────────────

func (s *logbookService) List(ctx context.Context, p Principal, req *dto.LogbookListRequest) ([]dto.LogbookResponse, int64, error) {
	filter := repository.LogbookFilter{
		InternID:   req.InternID,
		Status:     model.LogbookStatus(req.Status),
		WeekNumber: req.WeekNumber,
	}
	switch p.Role {
	case model.RoleIntern:
		filter.InternID = p.UserID
	case model.RoleSupervisor:
		if p.SpecialtyID == "" {
			return []dto.LogbookResponse{}, 0, nil
		}
		filter.SpecialtyID = p.SpecialtyID
	}

	var err error
	if filter.DateFrom, err = parseOptionalDate(req.DateFrom); err != nil {
		return nil, 0, pkgerrors.NewValidationError("date_from", "must be a valid date in YYYY-MM-DD format")
	}
	if filter.DateTo, err = parseOptionalDate(req.DateTo); err != nil {
		return nil, 0, pkgerrors.NewValidationError("date_to", "must be a valid date in YYYY-MM-DD format")
	}

	entries, total, err := s.repo.Logbook.List(ctx, filter, repository.Pagination{
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.LogbookResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *toLogbookResponse(&entries[i]))
	}
	return result, total, nil
}

func (s *logbookService) Get(ctx context.Context, p Principal, id string) (*dto.LogbookResponse, error) {
	entry, err := s.getEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Intern == nil || !canViewIntern(p, entry.Intern) {
		return nil, ErrForbidden
	}
	return toLogbookResponse(entry), nil
}

// ────────────────────── Update ──────────────────────

func (s *logbookService) Update(ctx context.Context, p Principal, id string, req *dto.UpdateLogbookRequest) (*dto.LogbookResponse, error) {
	entry, err := s.getEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !(p.IsIntern() && p.UserID == entry.InternID) {
		return nil, ErrForbidden
	}
	if entry.Status != model.LogbookPending && entry.Status != model.LogbookNeedsRevision {
		return nil, ErrLogbookLocked
	}

	ve := &pkgerrors.ValidationError{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			ve.Add("title", "required")
		}
		entry.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			ve.Add("content", "required")
		}
		entry.Content = strings.TrimSpace(*req.Content)
	}
	if msg := checkHours(req.HoursWorked); msg != "" {
		ve.Add("hours_worked", msg)
	}
	if ve.HasErrors() {
		return nil, ve
	}

	if req.HoursWorked != nil {
		entry.HoursWorked = req.HoursWorked
	}
	if req.TasksCompleted != nil {
		entry.TasksCompleted = model.StringList(*req.TasksCompleted)
	}
	if req.Challenges != nil {
		entry.Challenges = *req.Challenges
	}
	if req.Learnings != nil {
		entry.Learnings = *req.Learnings
	}
	if req.NextDayPlan != nil {
		entry.NextDayPlan = *req.NextDayPlan
	}
	// 修改后重新进入待审阅
	entry.Status = model.LogbookPending
	entry.UpdatedBy = &p.UserID

	if err := s.repo.Logbook.Update(ctx, entry); err != nil {
		s.logger.Error("更新日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := recordActivity(ctx, s.repo, p.UserID, ActionLogbookUpdated, "Logbook updated", "logbook", id); err != nil {
		s.logger.Warn("写入操作日志失败", zap.Error(err))
	}

	return toLogbookResponse(entry), nil
}

// ────────────────────── Delete ──────────────────────

func (s *logbookService) Delete(ctx context.Context, p Principal, id string) error {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return err
	}
	entry, err := s.getEntry(ctx, id)
	if err != nil {
		return err
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

	rollback := func(msg string, err error) error {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error(msg, zap.String("id", id), zap.Error(err))
		return err
	}

	if err := txRepo.LogbookReview.DeleteByEntry(ctx, id); err != nil {
		return rollback("删除日志审阅记录失败", err)
	}
	if err := txRepo.Logbook.Delete(ctx, id); err != nil {
		return rollback("删除日志失败", err)
	}
	desc := fmt.Sprintf("Logbook entry of %s deleted", entry.Date.Format(dateLayout))
	if err := recordActivity(ctx, txRepo, p.UserID, ActionLogbookDeleted, desc, "logbook", id); err != nil {
		return rollback("写入操作日志失败", err)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// ────────────────────── Review ──────────────────────

// Review 审阅状态 pending → approved | needs_revision；重复审阅覆盖上一次结果
func (s *logbookService) Review(ctx context.Context, p Principal, id string, req *dto.ReviewLogbookRequest) (*dto.LogbookResponse, error) {
	status := model.LogbookStatus(req.Status)
	if status != model.LogbookApproved && status != model.LogbookNeedsRevision {
		return nil, pkgerrors.NewValidationError("status", "must be approved or needs_revision")
	}

	entry, err := s.getEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Intern == nil || !canReviewFor(p, entry.Intern) {
		return nil, ErrForbidden
	}

	now := s.now()
	entry.Status = status
	entry.Feedback = req.Feedback
	entry.ReviewedAt = &now
	entry.ReviewedBy = &p.UserID
	entry.UpdatedBy = &p.UserID

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

	if err := txRepo.Logbook.Update(ctx, entry); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新审阅状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	review := &model.LogbookReview{
		EntryID:    id,
		ReviewerID: p.UserID,
		Status:     status,
		Feedback:   req.Feedback,
	}
	if err := txRepo.LogbookReview.Create(ctx, review); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("写入审阅记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	desc := fmt.Sprintf("Logbook of %s marked %s", entry.Date.Format(dateLayout), status)
	if err := recordActivity(ctx, txRepo, p.UserID, ActionLogbookReviewed, desc, "logbook", id); err != nil {
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

	title := "Logbook Approved"
	if status == model.LogbookNeedsRevision {
		title = "Logbook Needs Revision"
	}
	s.notifier.Notify(ctx, entry.Intern, Notice{
		Type:        NoticeLogbookReviewed,
		Title:       title,
		Body:        fmt.Sprintf("Your logbook entry for %s was reviewed.", entry.Date.Format(dateLayout)),
		RelatedType: "logbook",
		RelatedID:   id,
	})

	updated, err := s.getEntry(ctx, id)
	if err != nil {
		return toLogbookResponse(entry), nil
	}
	return toLogbookResponse(updated), nil
}

// ────────────────────── 周完成情况 / 周表 ──────────────────────

func (s *logbookService) WeekStatus(ctx context.Context, p Principal, internID string, weekNumber int) (*dto.WeekStatusResponse, error) {
	if weekNumber < 1 {
		return nil, pkgerrors.NewValidationError("week", "must be at least 1")
	}
	intern, err := s.resolveIntern(ctx, p, internID)
	if err != nil {
		return nil, err
	}

	a, err := s.tracker.Assess(ctx, intern.UserID, weekNumber, "")
	if err != nil {
		s.logger.Error("查询周日志失败", zap.String("intern_id", intern.UserID), zap.Error(err))
		return nil, err
	}

	resp := &dto.WeekStatusResponse{
		InternID:   intern.UserID,
		WeekNumber: weekNumber,
		Complete:   a.Complete,
		Covered:    nonNil(a.Covered),
		Missing:    nonNil(a.Missing),
		EntryCount: len(a.Entries),
	}
	if len(a.Entries) > 0 {
		sheet := buildWeeklySheet("", intern, weekNumber, a.Entries)
		resp.PeriodFrom = sheet.PeriodFrom.Format(dateLayout)
		resp.PeriodTo = sheet.PeriodTo.Format(dateLayout)
	}
	if a.Complete {
		key := s.exporter.SheetPath(intern.InternProfile.MatriculationNumber, weekNumber)
		if ok, err := s.storage.Exists(ctx, key); err == nil && ok {
			resp.PDFURL = s.exporter.URL(key)
		}
	}
	return resp, nil
}

// GetWeekPDF 周完成时重新生成（覆盖）并返回下载地址
func (s *logbookService) GetWeekPDF(ctx context.Context, p Principal, internID string, weekNumber int) (*dto.WeekPDFResponse, error) {
	if weekNumber < 1 {
		return nil, pkgerrors.NewValidationError("week", "must be at least 1")
	}
	intern, err := s.resolveIntern(ctx, p, internID)
	if err != nil {
		return nil, err
	}

	complete, err := s.tracker.IsWeekComplete(ctx, intern.UserID, weekNumber)
	if err != nil {
		s.logger.Error("判断周完成情况失败", zap.String("intern_id", intern.UserID), zap.Error(err))
		return nil, err
	}
	if !complete {
		return nil, ErrInsufficientEntries
	}

	key, err := s.exporter.Generate(ctx, intern.UserID, weekNumber)
	if err != nil {
		return nil, err
	}
	return &dto.WeekPDFResponse{WeekNumber: weekNumber, Path: key, URL: s.exporter.URL(key)}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ────────────────────── ExportExcel ──────────────────────

var logbookExportHeader = []string{
	"Week", "Date", "Day", "Title", "Content", "Hours", "Tasks Completed",
	"Challenges", "Learnings", "Next Day Plan", "Status", "Feedback",
}

func (s *logbookService) ExportExcel(ctx context.Context, p Principal, internID string) (*bytes.Buffer, string, error) {
	intern, err := s.resolveIntern(ctx, p, internID)
	if err != nil {
		return nil, "", err
	}

	entries, err := s.repo.Logbook.ListByIntern(ctx, intern.UserID)
	if err != nil {
		s.logger.Error("查询实习生日志失败", zap.String("intern_id", intern.UserID), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Logbook"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s (%s)", intern.Name, intern.InternProfile.MatriculationNumber))
	lastCol, _ := excelize.ColumnNumberToName(len(logbookExportHeader))
	f.MergeCell(sheetName, "A1", lastCol+"1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range logbookExportHeader {
		c, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, c, h)
	}
	f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle)
	f.SetColWidth(sheetName, "A", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 28)
	f.SetColWidth(sheetName, "E", "E", 60)
	f.SetColWidth(sheetName, "F", "F", 8)
	f.SetColWidth(sheetName, "G", lastCol, 30)

	// 数据行
	for i := range entries {
		e := &entries[i]
		row := i + 3
		hours := ""
		if e.HoursWorked != nil {
			hours = fmt.Sprintf("%.2f", *e.HoursWorked)
		}
		values := []interface{}{
			e.WeekNumber,
			e.Date.Format(dateLayout),
			capitalizeWord(weekdayName(e.Date)),
			e.Title,
			e.Content,
			hours,
			strings.Join(e.TasksCompleted, "\n"),
			e.Challenges,
			e.Learnings,
			e.NextDayPlan,
			string(e.Status),
			e.Feedback,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			s.logger.Error("写入 Excel 行失败", zap.Int("row", row), zap.Error(err))
			return nil, "", err
		}
		end, _ := excelize.CoordinatesToCellName(len(values), row)
		f.SetCellStyle(sheetName, start, end, wrapStyle)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成 Excel 文件失败", zap.Error(err))
		return nil, "", err
	}

	filename := fmt.Sprintf("logbook_%s.xlsx", intern.InternProfile.MatriculationNumber)
	return buf, filename, nil
}

func capitalizeWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
