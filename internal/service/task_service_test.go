package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
)

type taskFixture struct {
	env        *testEnv
	svc        *taskService
	alice      *model.User
	bob        *model.User
	supervisor *model.User
	admin      *model.User
}

func setupTaskFixture() *taskFixture {
	env := newTestEnv()
	env.addSpecialty("spec-se", "Software Engineering")
	env.addSpecialty("spec-net", "Networking")
	alice := env.addIntern("intern-a", "Alice", "spec-se", "TRZ260001", nil)
	bob := env.addIntern("intern-b", "Bob", "spec-se", "TRZ260002", nil)
	env.addIntern("intern-c", "Carol", "spec-net", "TRZ260003", nil)
	token := "alice-token"
	alice.DeviceToken = &token

	svc := NewTaskService(env.repo, env.notifier(), env.logger).(*taskService)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return &taskFixture{
		env:        env,
		svc:        svc,
		alice:      alice,
		bob:        bob,
		supervisor: env.addSupervisor("sup-1", "Sam", "spec-se"),
		admin:      env.addAdmin("admin-1"),
	}
}

func (f *taskFixture) createTask(t *testing.T, req *dto.CreateTaskRequest) *dto.TaskResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), principalOf(f.supervisor), req)
	if err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}
	return resp
}

// ── Create ──

func TestTaskCreate_AssignsWholeSpecialty(t *testing.T) {
	f := setupTaskFixture()
	resp := f.createTask(t, &dto.CreateTaskRequest{Title: "Build login page", DueDate: "2026-03-10"})

	if resp.Priority != "medium" {
		t.Errorf("默认优先级应为 medium, got %s", resp.Priority)
	}
	if resp.Specialty == nil || resp.Specialty.ID != "spec-se" {
		t.Errorf("指导老师创建的任务应归属本专业, got %+v", resp.Specialty)
	}
	if len(resp.Assignments) != 2 {
		t.Fatalf("应分配给本专业 2 名实习生，实际 %d", len(resp.Assignments))
	}
	for _, a := range resp.Assignments {
		if a.Status != string(model.TaskStatusPending) || a.Progress != 0 {
			t.Errorf("新分配应为 pending/0: %+v", a)
		}
	}
	if n := f.env.activities.countAction(ActionTaskCreated); n != 1 {
		t.Errorf("应记录 1 条 task_created 操作日志，实际 %d", n)
	}
	if len(f.env.notifications.forUser("intern-a")) != 1 || len(f.env.notifications.forUser("intern-b")) != 1 {
		t.Error("每位被分配的实习生都应收到站内通知")
	}
	if len(f.env.notifications.forUser("intern-c")) != 0 {
		t.Error("其他专业实习生不应收到通知")
	}
	if len(f.env.pusher.sent) != 1 || f.env.pusher.sent[0].Title != "New Task Assigned" {
		t.Errorf("只有登记令牌的实习生会收到推送, got %+v", f.env.pusher.sent)
	}
}

func TestTaskCreate_ExplicitInterns(t *testing.T) {
	f := setupTaskFixture()
	resp := f.createTask(t, &dto.CreateTaskRequest{Title: "Pair task", InternIDs: []string{"intern-b", "intern-b"}})
	if len(resp.Assignments) != 1 || resp.Assignments[0].InternID != "intern-b" {
		t.Errorf("重复 ID 应去重且只分配指定实习生: %+v", resp.Assignments)
	}

	_, err := f.svc.Create(context.Background(), principalOf(f.supervisor), &dto.CreateTaskRequest{
		Title: "Cross specialty", InternIDs: []string{"intern-c"},
	})
	if !errors.Is(err, ErrInternNotInScope) {
		t.Errorf("分配其他专业实习生应返回 ErrInternNotInScope，实际 %v", err)
	}
}

func TestTaskCreate_Scope(t *testing.T) {
	f := setupTaskFixture()

	if _, err := f.svc.Create(context.Background(), principalOf(f.alice), &dto.CreateTaskRequest{Title: "x"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("实习生不能创建任务，实际 %v", err)
	}
	if _, err := f.svc.Create(context.Background(), principalOf(f.supervisor), &dto.CreateTaskRequest{Title: "x", SpecialtyID: "spec-net"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("指导老师不能给其他专业建任务，实际 %v", err)
	}
	_, err := f.svc.Create(context.Background(), principalOf(f.admin), &dto.CreateTaskRequest{Title: "x"})
	if _, ok := pkgerrors.AsValidation(err); !ok {
		t.Errorf("管理员未指定专业应返回校验错误，实际 %v", err)
	}

	f.env.addSpecialty("spec-empty", "Design")
	if _, err := f.svc.Create(context.Background(), principalOf(f.admin), &dto.CreateTaskRequest{Title: "x", SpecialtyID: "spec-empty"}); !errors.Is(err, ErrNoInternsToAssign) {
		t.Errorf("专业下无实习生应返回 ErrNoInternsToAssign，实际 %v", err)
	}
}

// ── List / Update / Delete ──

func TestTaskList_InternSeesOnlyAssigned(t *testing.T) {
	f := setupTaskFixture()
	f.createTask(t, &dto.CreateTaskRequest{Title: "For all"})
	f.createTask(t, &dto.CreateTaskRequest{Title: "For Bob", InternIDs: []string{"intern-b"}})

	list, total, err := f.svc.List(context.Background(), principalOf(f.alice), &dto.TaskListRequest{})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 || list[0].Title != "For all" {
		t.Errorf("Alice 应只看到分配给她的任务, got %d", total)
	}
	if list[0].MyProgress == nil {
		t.Error("实习生视角应返回自己的进度")
	}

	_, total, _ = f.svc.List(context.Background(), principalOf(f.supervisor), &dto.TaskListRequest{})
	if total != 2 {
		t.Errorf("指导老师应看到本专业全部任务, got %d", total)
	}
}

func TestTaskUpdate_OptimisticLock(t *testing.T) {
	f := setupTaskFixture()
	task := f.createTask(t, &dto.CreateTaskRequest{Title: "Initial"})

	title := "Renamed"
	updated, err := f.svc.Update(context.Background(), principalOf(f.supervisor), task.ID, &dto.UpdateTaskRequest{Title: &title, Version: task.Version})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.Title != title {
		t.Errorf("标题未更新: %s", updated.Title)
	}

	// 旧版本号再次提交
	if _, err := f.svc.Update(context.Background(), principalOf(f.supervisor), task.ID, &dto.UpdateTaskRequest{Title: &title, Version: task.Version}); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望乐观锁冲突，实际 %v", err)
	}
}

func TestTaskDelete_RemovesAssignments(t *testing.T) {
	f := setupTaskFixture()
	task := f.createTask(t, &dto.CreateTaskRequest{Title: "Temp"})

	other := f.env.addSupervisor("sup-2", "Nina", "spec-net")
	if err := f.svc.Delete(context.Background(), principalOf(other), task.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("其他专业指导老师不能删除，实际 %v", err)
	}
	if err := f.svc.Delete(context.Background(), principalOf(f.supervisor), task.ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if len(f.env.assignments.assignments) != 0 {
		t.Errorf("任务分配应一并删除，剩余 %d", len(f.env.assignments.assignments))
	}
	if _, err := f.svc.Get(context.Background(), principalOf(f.admin), task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("删除后应返回 ErrTaskNotFound，实际 %v", err)
	}
}

// ── 进度 ──

func TestUpdateProgress(t *testing.T) {
	f := setupTaskFixture()
	task := f.createTask(t, &dto.CreateTaskRequest{Title: "Progress"})
	p := principalOf(f.alice)

	tests := []struct {
		name       string
		progress   int
		status     string
		wantStatus string
		wantProg   int
		completed  bool
	}{
		{"开始", 30, "", "in_progress", 30, false},
		{"完成", 100, "", "completed", 100, true},
		{"显式标记完成", 60, "completed", "completed", 100, true},
		{"回退", 0, "", "pending", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := tt.progress
			resp, err := f.svc.UpdateProgress(context.Background(), p, task.ID, &dto.UpdateProgressRequest{Progress: &prog, Status: tt.status})
			if err != nil {
				t.Fatalf("更新进度失败: %v", err)
			}
			if resp.Status != tt.wantStatus || resp.Progress != tt.wantProg {
				t.Errorf("got %s/%d, want %s/%d", resp.Status, resp.Progress, tt.wantStatus, tt.wantProg)
			}
			if (resp.CompletedAt != "") != tt.completed {
				t.Errorf("completed_at 不符合预期: %q", resp.CompletedAt)
			}
		})
	}
}

func TestUpdateProgress_Rejections(t *testing.T) {
	f := setupTaskFixture()
	task := f.createTask(t, &dto.CreateTaskRequest{Title: "Only Bob", InternIDs: []string{"intern-b"}})
	prog := 50

	if _, err := f.svc.UpdateProgress(context.Background(), principalOf(f.alice), task.ID, &dto.UpdateProgressRequest{Progress: &prog}); !errors.Is(err, ErrNotAssigned) {
		t.Errorf("未分配的实习生应返回 ErrNotAssigned，实际 %v", err)
	}
	if _, err := f.svc.UpdateProgress(context.Background(), principalOf(f.supervisor), task.ID, &dto.UpdateProgressRequest{Progress: &prog}); !errors.Is(err, ErrForbidden) {
		t.Errorf("指导老师不能更新进度，实际 %v", err)
	}
	bad := 120
	if _, err := f.svc.UpdateProgress(context.Background(), principalOf(f.bob), task.ID, &dto.UpdateProgressRequest{Progress: &bad}); err == nil {
		t.Error("进度超过 100 应返回校验错误")
	}
}

func TestListProgress_InternSeesOwnOnly(t *testing.T) {
	f := setupTaskFixture()
	task := f.createTask(t, &dto.CreateTaskRequest{Title: "Shared"})

	list, err := f.svc.ListProgress(context.Background(), principalOf(f.alice), task.ID)
	if err != nil {
		t.Fatalf("ListProgress 失败: %v", err)
	}
	if len(list) != 1 || list[0].InternID != "intern-a" {
		t.Errorf("实习生只能看到自己的进度: %+v", list)
	}
	list, _ = f.svc.ListProgress(context.Background(), principalOf(f.supervisor), task.ID)
	if len(list) != 2 {
		t.Errorf("指导老师应看到全部进度，实际 %d", len(list))
	}
}

// ── Calendar ──

func TestCalendar(t *testing.T) {
	f := setupTaskFixture()
	f.createTask(t, &dto.CreateTaskRequest{Title: "Ship release", DueDate: "2026-03-10", Priority: "high"})
	f.createTask(t, &dto.CreateTaskRequest{Title: "No deadline"})

	data, err := f.svc.Calendar(context.Background(), principalOf(f.alice))
	if err != nil {
		t.Fatalf("Calendar 失败: %v", err)
	}
	body := string(data)
	if !strings.HasPrefix(body, "BEGIN:VCALENDAR") {
		t.Errorf("应为 iCalendar 格式: %q", body[:min(len(body), 40)])
	}
	if strings.Count(body, "BEGIN:VEVENT") != 1 {
		t.Errorf("只有带截止日期的任务生成事件:\n%s", body)
	}
	if !strings.Contains(body, "SUMMARY:[HIGH] Ship release") {
		t.Errorf("缺少事件标题:\n%s", body)
	}
	if !strings.Contains(body, "20260310") {
		t.Errorf("缺少截止日期:\n%s", body)
	}
}

// ── 评论 / 附件 ──

func TestComments(t *testing.T) {
	f := setupTaskFixture()
	task := f.createTask(t, &dto.CreateTaskRequest{Title: "Discuss", InternIDs: []string{"intern-a"}})
	svc := NewCommentService(f.env.repo, f.env.logger)

	c, err := svc.Add(context.Background(), principalOf(f.alice), task.ID, &dto.CreateCommentRequest{Content: "  question  "})
	if err != nil {
		t.Fatalf("发表评论失败: %v", err)
	}
	if c.Content != "question" {
		t.Errorf("评论内容应去除首尾空白: %q", c.Content)
	}

	// Bob 未被分配，看不到该任务
	if _, err := svc.Add(context.Background(), principalOf(f.bob), task.ID, &dto.CreateCommentRequest{Content: "hi"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("未分配的实习生不能评论，实际 %v", err)
	}

	list, _ := svc.List(context.Background(), principalOf(f.supervisor), task.ID)
	if len(list) != 1 {
		t.Fatalf("应有 1 条评论，实际 %d", len(list))
	}

	if err := svc.Delete(context.Background(), principalOf(f.supervisor), task.ID, c.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("非作者非管理员不能删除评论，实际 %v", err)
	}
	if err := svc.Delete(context.Background(), principalOf(f.alice), task.ID, c.ID); err != nil {
		t.Errorf("作者删除评论失败: %v", err)
	}
}

func TestAttachments(t *testing.T) {
	f := setupTaskFixture()
	task := f.createTask(t, &dto.CreateTaskRequest{Title: "Docs"})
	svc := NewAttachmentService(f.env.repo, f.env.storage, 16, f.env.logger)

	resp, err := svc.Upload(context.Background(), principalOf(f.alice), task.ID, UploadInput{
		FileName: "../../etc/report v1.txt",
		Body:     strings.NewReader("hello"),
	})
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	if resp.FileName != "report_v1.txt" || resp.Size != 5 || resp.MimeType != "application/octet-stream" {
		t.Errorf("附件元数据错误: %+v", resp)
	}

	rc, meta, err := svc.Download(context.Background(), principalOf(f.supervisor), resp.ID)
	if err != nil {
		t.Fatalf("下载失败: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello" || meta.FileName != "report_v1.txt" {
		t.Errorf("下载内容错误: %q", data)
	}

	// 声明大小可信度为零：以实际读取为准
	_, err = svc.Upload(context.Background(), principalOf(f.alice), task.ID, UploadInput{
		FileName: "big.bin",
		Size:     1,
		Body:     strings.NewReader(strings.Repeat("x", 64)),
	})
	if !errors.Is(err, ErrAttachmentTooLarge) {
		t.Errorf("超出限制应返回 ErrAttachmentTooLarge，实际 %v", err)
	}
	if len(f.env.storage.objects) != 1 {
		t.Errorf("超限文件不应保留，存储中有 %d 个对象", len(f.env.storage.objects))
	}

	if err := svc.Delete(context.Background(), principalOf(f.bob), resp.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("非上传者的实习生不能删除附件，实际 %v", err)
	}
	if err := svc.Delete(context.Background(), principalOf(f.supervisor), resp.ID); err != nil {
		t.Fatalf("指导老师删除附件失败: %v", err)
	}
	if len(f.env.storage.objects) != 0 {
		t.Error("删除附件应同时删除文件")
	}
}
