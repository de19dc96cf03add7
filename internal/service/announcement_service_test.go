package service

import (
	"context"
	"errors"
	"testing"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
)

func TestAnnouncementCreate_FanOut(t *testing.T) {
	env := newTestEnv()
	env.addSpecialty("spec-se", "Software Engineering")
	env.addSpecialty("spec-net", "Networking")
	sup := env.addSupervisor("sup-1", "Sam", "spec-se")
	env.addIntern("intern-a", "Alice", "spec-se", "", nil)
	env.addIntern("intern-b", "Bob", "spec-se", "", nil)
	env.addIntern("intern-c", "Carol", "spec-net", "", nil)
	svc := NewAnnouncementService(env.repo, env.notifier(), env.logger)

	resp, err := svc.Create(context.Background(), principalOf(sup), &dto.CreateAnnouncementRequest{
		Title: "Standup moved", Content: "10am from now on", Priority: "urgent",
	})
	if err != nil {
		t.Fatalf("发布公告失败: %v", err)
	}
	if resp.Specialty == nil || resp.Specialty.ID != "spec-se" {
		t.Errorf("指导老师的公告应限定本专业: %+v", resp.Specialty)
	}
	if resp.Notified == nil || *resp.Notified != 2 {
		t.Errorf("应通知本专业 2 名实习生（不含作者）, got %v", resp.Notified)
	}
	notes := env.notifications.forUser("intern-a")
	if len(notes) != 1 || notes[0].Title != "Urgent Announcement" {
		t.Errorf("紧急公告标题错误: %+v", notes)
	}
	if len(env.notifications.forUser("intern-c")) != 0 || len(env.notifications.forUser("sup-1")) != 0 {
		t.Error("其他专业成员与作者不应收到通知")
	}
	if env.activities.countAction(ActionAnnouncement) != 1 {
		t.Error("应记录公告操作日志")
	}

	if _, err := svc.Create(context.Background(), principalOf(sup), &dto.CreateAnnouncementRequest{
		Title: "x", Content: "y", SpecialtyID: "spec-net",
	}); !errors.Is(err, ErrForbidden) {
		t.Errorf("指导老师不能向其他专业发布公告，实际 %v", err)
	}
}

func TestAnnouncementVisibility(t *testing.T) {
	env := newTestEnv()
	env.addSpecialty("spec-se", "Software Engineering")
	env.addSpecialty("spec-net", "Networking")
	admin := principalOf(env.addAdmin("admin-1"))
	alice := principalOf(env.addIntern("intern-a", "Alice", "spec-se", "", nil))
	svc := NewAnnouncementService(env.repo, env.notifier(), env.logger)

	global, _ := svc.Create(context.Background(), admin, &dto.CreateAnnouncementRequest{Title: "Holiday", Content: "Office closed"})
	_, _ = svc.Create(context.Background(), admin, &dto.CreateAnnouncementRequest{Title: "SE only", Content: "c", SpecialtyID: "spec-se"})
	netOnly, _ := svc.Create(context.Background(), admin, &dto.CreateAnnouncementRequest{Title: "NET only", Content: "c", SpecialtyID: "spec-net"})

	if *global.Notified != 1 {
		t.Errorf("全局公告应通知除作者外的全部在岗用户, got %d", *global.Notified)
	}

	_, total, _ := svc.List(context.Background(), alice, &dto.AnnouncementListRequest{})
	if total != 2 {
		t.Errorf("实习生应看到全局及本专业公告共 2 条, got %d", total)
	}
	_, total, _ = svc.List(context.Background(), admin, &dto.AnnouncementListRequest{})
	if total != 3 {
		t.Errorf("管理员应看到全部公告, got %d", total)
	}

	if _, err := svc.Get(context.Background(), alice, netOnly.ID); !errors.Is(err, ErrAnnouncementNotFound) {
		t.Errorf("不可见的公告应按不存在处理，实际 %v", err)
	}
	if err := svc.Delete(context.Background(), alice, global.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("非作者不能删除公告，实际 %v", err)
	}
	if err := svc.Delete(context.Background(), admin, global.ID); err != nil {
		t.Errorf("管理员删除公告失败: %v", err)
	}
}
