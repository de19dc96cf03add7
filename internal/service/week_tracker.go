package service

import (
	"context"
	"time"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	"github.com/TraitzTech/trazor-api-sub000/pkg/pdf"
)

// WeekTracker 实习周次计算与周完成度判断
//
// 周次以实习开始日期为锚点，按固定 7 天分块（与自然周无关）。
// 完成条件：该周内周一至周五每天至少一篇日志，周末与同一工作日的多篇日志不影响结果。
type WeekTracker interface {
	CalculateWeekNumber(entryDate time.Time, programStart *time.Time) int
	IsWeekComplete(ctx context.Context, internID string, weekNumber int) (bool, error)
	// Assess 返回周完成情况；newEntryID 非空时额外判断该日志是否恰好让本周变为完成
	Assess(ctx context.Context, internID string, weekNumber int, newEntryID string) (*WeekAssessment, error)
}

// WeekAssessment 某周日志覆盖情况
type WeekAssessment struct {
	WeekNumber    int
	Complete      bool
	JustCompleted bool
	Covered       []string
	Missing       []string
	Entries       []model.LogbookEntry
}

type weekTracker struct {
	logbooks repository.LogbookRepository
}

// NewWeekTracker 创建 WeekTracker 实例
func NewWeekTracker(logbooks repository.LogbookRepository) WeekTracker {
	return &weekTracker{logbooks: logbooks}
}

func (t *weekTracker) CalculateWeekNumber(entryDate time.Time, programStart *time.Time) int {
	return CalculateWeekNumber(entryDate, programStart)
}

// CalculateWeekNumber 计算日志所属周次（从 1 开始）
//   - 未设置开始日期 → 1
//   - 早于开始日期 → 1
//   - 否则 floor(相差天数 / 7) + 1
func CalculateWeekNumber(entryDate time.Time, programStart *time.Time) int {
	if programStart == nil || programStart.IsZero() {
		return 1
	}
	entry := truncateToDate(entryDate)
	start := truncateToDate(*programStart)
	if entry.Before(start) {
		return 1
	}
	days := int(entry.Sub(start).Hours() / 24)
	return days/7 + 1
}

// truncateToDate 取日期部分并统一到 UTC 零点，避免时区与夏令时影响天数
func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (t *weekTracker) IsWeekComplete(ctx context.Context, internID string, weekNumber int) (bool, error) {
	entries, err := t.logbooks.ListByInternAndWeek(ctx, internID, weekNumber)
	if err != nil {
		return false, err
	}
	return weekdaysCovered(entries, "").complete(), nil
}

func (t *weekTracker) Assess(ctx context.Context, internID string, weekNumber int, newEntryID string) (*WeekAssessment, error) {
	entries, err := t.logbooks.ListByInternAndWeek(ctx, internID, weekNumber)
	if err != nil {
		return nil, err
	}

	covered := weekdaysCovered(entries, "")
	a := &WeekAssessment{
		WeekNumber: weekNumber,
		Complete:   covered.complete(),
		Entries:    entries,
	}
	for _, day := range pdf.Weekdays {
		if covered[day] {
			a.Covered = append(a.Covered, day)
		} else {
			a.Missing = append(a.Missing, day)
		}
	}
	if a.Complete && newEntryID != "" {
		a.JustCompleted = !weekdaysCovered(entries, newEntryID).complete()
	}
	return a, nil
}

// weekdaySet 小写工作日名集合
type weekdaySet map[string]bool

func (s weekdaySet) complete() bool {
	for _, day := range pdf.Weekdays {
		if !s[day] {
			return false
		}
	}
	return true
}

// weekdaysCovered 统计日志覆盖的星期，exclude 指定的日志不计入
func weekdaysCovered(entries []model.LogbookEntry, exclude string) weekdaySet {
	set := make(weekdaySet, 7)
	for i := range entries {
		if exclude != "" && entries[i].EntryID == exclude {
			continue
		}
		set[weekdayName(entries[i].Date)] = true
	}
	return set
}
