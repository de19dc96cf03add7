package service

import (
	"context"
	"errors"
	"testing"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
)

func TestSupervisorDashboard(t *testing.T) {
	env := newTestEnv()
	env.addSpecialty("spec-se", "Software Engineering")
	sup := principalOf(env.addSupervisor("sup-1", "Sam", "spec-se"))
	env.addIntern("intern-a", "Alice", "spec-se", "", nil)
	env.addIntern("intern-b", "Bob", "spec-se", "", nil)
	env.logbooks.entries["e1"] = &model.LogbookEntry{EntryID: "e1", InternID: "intern-a", Status: model.LogbookPending}
	env.logbooks.entries["e2"] = &model.LogbookEntry{EntryID: "e2", InternID: "intern-b", Status: model.LogbookApproved}
	svc := NewDashboardService(env.repo, env.logger)

	resp, err := svc.Supervisor(context.Background(), sup, "")
	if err != nil {
		t.Fatalf("查询仪表盘失败: %v", err)
	}
	if resp.InternCount != 2 || len(resp.Interns) != 2 {
		t.Errorf("实习生人数错误: %d", resp.InternCount)
	}
	if resp.PendingReviews != 1 {
		t.Errorf("待审阅数应为 1, got %d", resp.PendingReviews)
	}
	if resp.LogbookStatus["needs_revision"] != 0 || len(resp.LogbookStatus) != 3 {
		t.Errorf("日志状态应补齐三种: %v", resp.LogbookStatus)
	}
	if len(resp.TaskStatus) != 3 {
		t.Errorf("任务状态应补齐三种: %v", resp.TaskStatus)
	}

	if _, err := svc.Supervisor(context.Background(), sup, "spec-other"); !errors.Is(err, ErrForbidden) {
		t.Errorf("指导老师不能查看其他专业，实际 %v", err)
	}
}

func TestAdminStatsAndActivities(t *testing.T) {
	env := newTestEnv()
	admin := principalOf(env.addAdmin("admin-1"))
	env.addSpecialty("spec-se", "Software Engineering")
	intern := env.addIntern("intern-a", "Alice", "spec-se", "", nil)
	_ = recordActivity(context.Background(), env.repo, "intern-a", ActionLogbookFilled, "Logbook filled", "logbook", "e1")
	svc := NewDashboardService(env.repo, env.logger)

	stats, err := svc.AdminStats(context.Background(), admin)
	if err != nil {
		t.Fatalf("查询统计失败: %v", err)
	}
	if stats.UsersByRole["admin"] != 1 || stats.UsersByRole["intern"] != 1 || stats.UsersByRole["supervisor"] != 0 {
		t.Errorf("角色统计错误: %v", stats.UsersByRole)
	}
	if stats.SpecialtyCount != 1 {
		t.Errorf("专业数应为 1, got %d", stats.SpecialtyCount)
	}

	list, total, err := svc.ListActivities(context.Background(), admin, &dto.ActivityListRequest{})
	if err != nil || total != 1 || list[0].Action != ActionLogbookFilled {
		t.Errorf("操作日志查询错误: %v %d", err, total)
	}

	if _, err := svc.AdminStats(context.Background(), principalOf(intern)); !errors.Is(err, ErrForbidden) {
		t.Errorf("非管理员不能查看统计，实际 %v", err)
	}
}
