package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
)

// ── CalculateWeekNumber ──

func TestCalculateWeekNumber_BeforeStart(t *testing.T) {
	start := ymd(2026, 1, 5)
	for _, d := range []time.Time{ymd(2026, 1, 4), ymd(2025, 12, 1), ymd(2020, 6, 30)} {
		if got := CalculateWeekNumber(d, &start); got != 1 {
			t.Errorf("开始日期之前 %s 应为第 1 周，实际 %d", d.Format(dateLayout), got)
		}
	}
}

func TestCalculateWeekNumber_Boundaries(t *testing.T) {
	starts := []time.Time{ymd(2026, 1, 5), ymd(2026, 2, 25), ymd(2024, 12, 30)}
	cases := []struct {
		offset int
		want   int
	}{
		{0, 1}, {6, 1}, {7, 2}, {13, 2}, {14, 3}, {21, 4}, {20, 3}, {70, 11},
	}
	for _, start := range starts {
		start := start
		for _, c := range cases {
			got := CalculateWeekNumber(start.AddDate(0, 0, c.offset), &start)
			if got != c.want {
				t.Errorf("start=%s offset=%d: 期望第 %d 周，实际 %d", start.Format(dateLayout), c.offset, c.want, got)
			}
		}
	}
}

func TestCalculateWeekNumber_NoStartDate(t *testing.T) {
	if got := CalculateWeekNumber(ymd(2026, 3, 3), nil); got != 1 {
		t.Errorf("未设置开始日期应为第 1 周，实际 %d", got)
	}
	zero := time.Time{}
	if got := CalculateWeekNumber(ymd(2026, 3, 3), &zero); got != 1 {
		t.Errorf("零值开始日期应为第 1 周，实际 %d", got)
	}
}

func TestCalculateWeekNumber_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2026, 1, 5, 23, 30, 0, 0, time.UTC)
	entry := time.Date(2026, 1, 12, 0, 15, 0, 0, time.UTC)
	if got := CalculateWeekNumber(entry, &start); got != 2 {
		t.Errorf("应只按日期计算，期望第 2 周，实际 %d", got)
	}
}

// ── IsWeekComplete / Assess ──

// seedWeek 直接写入 mock，绕过 (intern_id, date) 唯一约束以构造同一工作日多篇日志
func seedWeek(env *testEnv, internID string, days []time.Time, week int) {
	for i, d := range days {
		env.logbooks.seq++
		id := fmt.Sprintf("seed-%d", env.logbooks.seq)
		env.logbooks.entries[id] = &model.LogbookEntry{
			EntryID:     id,
			InternID:    internID,
			Date:        d,
			Title:       "day",
			Content:     d.Weekday().String(),
			Status:      model.LogbookPending,
			WeekNumber:  week,
			SubmittedAt: d.Add(time.Duration(env.logbooks.seq+i) * time.Minute),
		}
	}
}

func TestIsWeekComplete(t *testing.T) {
	mon := ymd(2026, 1, 5)
	weekdays := []time.Time{mon, mon.AddDate(0, 0, 1), mon.AddDate(0, 0, 2), mon.AddDate(0, 0, 3), mon.AddDate(0, 0, 4)}

	tests := []struct {
		name string
		days []time.Time
		want bool
	}{
		{"周一至周五齐全", weekdays, true},
		{"缺周三", []time.Time{weekdays[0], weekdays[1], weekdays[3], weekdays[4]}, false},
		{"含周末仍完成", append(append([]time.Time{}, weekdays...), mon.AddDate(0, 0, 5), mon.AddDate(0, 0, 6)), true},
		{"周末不能替代工作日", []time.Time{weekdays[0], weekdays[1], weekdays[2], weekdays[3], mon.AddDate(0, 0, 5), mon.AddDate(0, 0, 6)}, false},
		{"无日志", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			seedWeek(env, "intern-1", tt.days, 1)
			tracker := NewWeekTracker(env.logbooks)

			got, err := tracker.IsWeekComplete(context.Background(), "intern-1", 1)
			if err != nil {
				t.Fatalf("IsWeekComplete 返回错误: %v", err)
			}
			if got != tt.want {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}
}

func TestIsWeekComplete_DuplicateWeekdayAcrossWeeks(t *testing.T) {
	// 两个周一分属不同周次时，第 1 周仍缺周五
	env := newTestEnv()
	mon := ymd(2026, 1, 5)
	seedWeek(env, "intern-1", []time.Time{mon, mon.AddDate(0, 0, 1), mon.AddDate(0, 0, 2), mon.AddDate(0, 0, 3)}, 1)
	seedWeek(env, "intern-1", []time.Time{mon.AddDate(0, 0, 11)}, 2)

	got, _ := NewWeekTracker(env.logbooks).IsWeekComplete(context.Background(), "intern-1", 1)
	if got {
		t.Error("其他周的日志不应计入本周")
	}
}

func TestAssess_JustCompleted(t *testing.T) {
	env := newTestEnv()
	mon := ymd(2026, 1, 5)
	seedWeek(env, "intern-1", []time.Time{mon, mon.AddDate(0, 0, 1), mon.AddDate(0, 0, 2), mon.AddDate(0, 0, 3), mon.AddDate(0, 0, 4)}, 1)
	tracker := NewWeekTracker(env.logbooks)

	entries, _ := env.logbooks.ListByInternAndWeek(context.Background(), "intern-1", 1)
	friday := entries[len(entries)-1].EntryID
	monday := entries[0].EntryID

	a, err := tracker.Assess(context.Background(), "intern-1", 1, friday)
	if err != nil {
		t.Fatalf("Assess 返回错误: %v", err)
	}
	if !a.Complete || !a.JustCompleted {
		t.Errorf("周五日志应让本周恰好完成, got %+v", a)
	}
	if len(a.Missing) != 0 || len(a.Covered) != 5 {
		t.Errorf("覆盖情况错误: covered=%v missing=%v", a.Covered, a.Missing)
	}

	// 追加第二篇周一日志：本周已完成，但不是它让本周完成
	seedWeek(env, "intern-1", []time.Time{mon}, 1)
	entries, _ = env.logbooks.ListByInternAndWeek(context.Background(), "intern-1", 1)
	var extra string
	for _, e := range entries {
		if e.EntryID != monday && e.Date.Equal(mon) {
			extra = e.EntryID
		}
	}
	a, _ = tracker.Assess(context.Background(), "intern-1", 1, extra)
	if !a.Complete || a.JustCompleted {
		t.Errorf("重复工作日日志不应再次触发, got complete=%v just=%v", a.Complete, a.JustCompleted)
	}
}

func TestAssess_MissingDays(t *testing.T) {
	env := newTestEnv()
	mon := ymd(2026, 1, 5)
	seedWeek(env, "intern-1", []time.Time{mon, mon.AddDate(0, 0, 2)}, 1)

	a, _ := NewWeekTracker(env.logbooks).Assess(context.Background(), "intern-1", 1, "")
	want := []string{"tuesday", "thursday", "friday"}
	if len(a.Missing) != len(want) {
		t.Fatalf("期望缺失 %v，实际 %v", want, a.Missing)
	}
	for i := range want {
		if a.Missing[i] != want[i] {
			t.Errorf("期望缺失 %v，实际 %v", want, a.Missing)
		}
	}
}
