package service

import (
	"context"
	"errors"
	"testing"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
)

func TestSpecialtyCreate(t *testing.T) {
	env := newTestEnv()
	svc := NewSpecialtyService(env.repo, env.logger)
	admin := principalOf(env.addAdmin("admin-1"))

	resp, err := svc.Create(context.Background(), admin, &dto.CreateSpecialtyRequest{Name: "  Networking "})
	if err != nil {
		t.Fatalf("创建专业失败: %v", err)
	}
	if resp.Name != "Networking" || resp.Version != 1 {
		t.Errorf("创建结果错误: %+v", resp)
	}

	if _, err := svc.Create(context.Background(), admin, &dto.CreateSpecialtyRequest{Name: "Networking"}); !errors.Is(err, ErrSpecialtyNameExists) {
		t.Errorf("重名应返回 ErrSpecialtyNameExists，实际 %v", err)
	}

	sup := principalOf(env.addSupervisor("sup-1", "Sam", ""))
	if _, err := svc.Create(context.Background(), sup, &dto.CreateSpecialtyRequest{Name: "Design"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("非管理员不能创建专业，实际 %v", err)
	}
}

func TestSpecialtyUpdate_OptimisticLock(t *testing.T) {
	env := newTestEnv()
	svc := NewSpecialtyService(env.repo, env.logger)
	admin := principalOf(env.addAdmin("admin-1"))
	env.addSpecialty("spec-se", "Software Engineering")

	name := "Software Eng."
	resp, err := svc.Update(context.Background(), admin, "spec-se", &dto.UpdateSpecialtyRequest{Name: &name, Version: 1})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if resp.Name != name || resp.Version != 2 {
		t.Errorf("更新结果错误: %+v", resp)
	}

	// 另一个客户端仍持有 version=1
	other := "Stale"
	if _, err := svc.Update(context.Background(), admin, "spec-se", &dto.UpdateSpecialtyRequest{Name: &other, Version: 1}); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望乐观锁冲突，实际 %v", err)
	}
}

func TestSpecialtyDelete_InUse(t *testing.T) {
	env := newTestEnv()
	svc := NewSpecialtyService(env.repo, env.logger)
	admin := principalOf(env.addAdmin("admin-1"))
	env.addSpecialty("spec-se", "Software Engineering")
	env.specialties.members["spec-se"] = 3

	if err := svc.Delete(context.Background(), admin, "spec-se"); !errors.Is(err, ErrSpecialtyInUse) {
		t.Errorf("仍有成员时应返回 ErrSpecialtyInUse，实际 %v", err)
	}

	env.specialties.members["spec-se"] = 0
	if err := svc.Delete(context.Background(), admin, "spec-se"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "spec-se"); !errors.Is(err, ErrSpecialtyNotFound) {
		t.Errorf("删除后应返回 ErrSpecialtyNotFound，实际 %v", err)
	}
}
