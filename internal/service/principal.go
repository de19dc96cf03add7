package service

import (
	"errors"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
)

// ErrForbidden 角色或归属不满足操作要求
var ErrForbidden = errors.New("you are not allowed to perform this action")

// Principal 当前请求的已认证用户，由 Handler 显式传入每个业务方法
type Principal struct {
	UserID      string
	Role        model.Role
	SpecialtyID string // 管理员为空
}

func (p Principal) IsAdmin() bool      { return p.Role == model.RoleAdmin }
func (p Principal) IsSupervisor() bool { return p.Role == model.RoleSupervisor }
func (p Principal) IsIntern() bool     { return p.Role == model.RoleIntern }

// requireRole 角色不在 roles 中时返回 ErrForbidden
func requireRole(p Principal, roles ...model.Role) error {
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// ── 授权策略 ──

// canViewIntern 管理员全部可见；实习生仅自己；指导老师仅本专业实习生
func canViewIntern(p Principal, intern *model.User) bool {
	switch p.Role {
	case model.RoleAdmin:
		return true
	case model.RoleIntern:
		return p.UserID == intern.UserID
	case model.RoleSupervisor:
		return p.SpecialtyID != "" && p.SpecialtyID == intern.SpecialtyID()
	}
	return false
}

// canReviewFor 管理员或同专业指导老师
func canReviewFor(p Principal, intern *model.User) bool {
	if p.IsAdmin() {
		return true
	}
	return p.IsSupervisor() && p.SpecialtyID != "" && p.SpecialtyID == intern.SpecialtyID()
}

// canManageSpecialty 管理员，或该专业的指导老师
func canManageSpecialty(p Principal, specialtyID string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.IsSupervisor() && p.SpecialtyID != "" && p.SpecialtyID == specialtyID
}

// canViewTask 管理员、本专业指导老师、被分配的实习生
func canViewTask(p Principal, task *model.Task) bool {
	if canManageSpecialty(p, task.SpecialtyID) {
		return true
	}
	if !p.IsIntern() {
		return false
	}
	for _, a := range task.Assignments {
		if a.InternID == p.UserID {
			return true
		}
	}
	return false
}
