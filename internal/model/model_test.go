package model

import "testing"

func TestStringList_ScanValue(t *testing.T) {
	var l StringList
	if err := l.Scan([]byte(`["write tests","fix bug"]`)); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if len(l) != 2 || l[1] != "fix bug" {
		t.Errorf("期望 2 个元素，实际=%v", l)
	}

	v, err := l.Value()
	if err != nil {
		t.Fatalf("Value 失败: %v", err)
	}
	if v.(string) != `["write tests","fix bug"]` {
		t.Errorf("序列化结果不符: %v", v)
	}

	var empty StringList
	if v, _ := empty.Value(); v != nil {
		t.Errorf("nil 列表应序列化为 NULL，实际=%v", v)
	}
	if err := l.Scan(42); err == nil {
		t.Error("不支持的类型应返回错误")
	}
}

func TestRoleAndStatusValid(t *testing.T) {
	if !RoleSupervisor.Valid() || Role("leader").Valid() {
		t.Error("角色校验结果不符")
	}
	if !LogbookNeedsRevision.Valid() || LogbookStatus("rejected").Valid() {
		t.Error("状态校验结果不符")
	}
}

func TestUser_SpecialtyID(t *testing.T) {
	u := &User{InternProfile: &InternProfile{SpecialtyID: "spec-1"}}
	if u.SpecialtyID() != "spec-1" {
		t.Errorf("期望 spec-1，实际=%s", u.SpecialtyID())
	}
	admin := &User{Role: RoleAdmin}
	if admin.SpecialtyID() != "" {
		t.Error("管理员不应有专业")
	}
}
