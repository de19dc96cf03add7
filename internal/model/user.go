package model

import "time"

// Role 用户角色（封闭枚举）
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleIntern     Role = "intern"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleIntern:
		return true
	}
	return false
}

// User 用户表 — 对应 users
type User struct {
	UserID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name               string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email              string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Phone              string  `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	PasswordHash       string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               Role    `gorm:"type:varchar(20);not null;default:'intern'"     json:"role"`
	IsActive           bool    `gorm:"not null;default:true"                          json:"is_active"`
	MustChangePassword bool    `gorm:"not null;default:false"                         json:"must_change_password"`
	DeviceToken        *string `gorm:"type:varchar(512)"                              json:"-"` // FCM 注册令牌
	SoftDeleteModel

	// 关联
	InternProfile     *InternProfile     `gorm:"foreignKey:UserID;references:UserID" json:"intern_profile,omitempty"`
	SupervisorProfile *SupervisorProfile `gorm:"foreignKey:UserID;references:UserID" json:"supervisor_profile,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// SpecialtyID 返回用户所属专业（管理员为空）
func (u *User) SpecialtyID() string {
	switch {
	case u.InternProfile != nil:
		return u.InternProfile.SpecialtyID
	case u.SupervisorProfile != nil:
		return u.SupervisorProfile.SpecialtyID
	}
	return ""
}

// InternProfile 实习生档案 — 对应 intern_profiles（与 users 1:1）
type InternProfile struct {
	UserID              string     `gorm:"type:uuid;primaryKey"                  json:"user_id"`
	SpecialtyID         string     `gorm:"type:uuid;not null;index"              json:"specialty_id"`
	MatriculationNumber string     `gorm:"type:varchar(30);not null;uniqueIndex" json:"matriculation_number"`
	Institution         string     `gorm:"type:varchar(150)"                     json:"institution,omitempty"`
	Level               string     `gorm:"type:varchar(50)"                      json:"level,omitempty"`
	Department          string     `gorm:"type:varchar(100)"                     json:"department,omitempty"`
	Option              string     `gorm:"type:varchar(100)"                     json:"option,omitempty"`
	StartDate           *time.Time `gorm:"type:date"                             json:"start_date,omitempty"`
	EndDate             *time.Time `gorm:"type:date"                             json:"end_date,omitempty"`
	BaseModel

	Specialty *Specialty `gorm:"foreignKey:SpecialtyID;references:SpecialtyID" json:"specialty,omitempty"`
}

// TableName 指定表名
func (InternProfile) TableName() string { return "intern_profiles" }

// SupervisorProfile 指导老师档案 — 对应 supervisor_profiles（与 users 1:1）
type SupervisorProfile struct {
	UserID      string `gorm:"type:uuid;primaryKey"     json:"user_id"`
	SpecialtyID string `gorm:"type:uuid;not null;index" json:"specialty_id"`
	Position    string `gorm:"type:varchar(100)"        json:"position,omitempty"`
	BaseModel

	Specialty *Specialty `gorm:"foreignKey:SpecialtyID;references:SpecialtyID" json:"specialty,omitempty"`
}

// TableName 指定表名
func (SupervisorProfile) TableName() string { return "supervisor_profiles" }
