package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	SpecialtyID string `form:"specialty_id" binding:"omitempty,uuid"`
	Role        string `form:"role"         binding:"omitempty,oneof=admin supervisor intern"`
	Keyword     string `form:"keyword"      binding:"omitempty,max=50"`
	IsActive    *bool  `form:"is_active"`
}

// CreateUserRequest 管理员创建用户
// Role 为 intern / supervisor 时 SpecialtyID 必填
type CreateUserRequest struct {
	Name        string `json:"name"         binding:"required,min=2,max=100"`
	Email       string `json:"email"        binding:"required,email"`
	Phone       string `json:"phone"        binding:"omitempty,max=30"`
	Role        string `json:"role"         binding:"required,oneof=admin supervisor intern"`
	SpecialtyID string `json:"specialty_id" binding:"omitempty,uuid"`
	// 实习生字段
	Institution string `json:"institution" binding:"omitempty,max=150"`
	Level       string `json:"level"       binding:"omitempty,max=50"`
	Department  string `json:"department"  binding:"omitempty,max=100"`
	Option      string `json:"option"      binding:"omitempty,max=100"`
	StartDate   string `json:"start_date"  binding:"omitempty,yyyymmdd"`
	EndDate     string `json:"end_date"    binding:"omitempty,yyyymmdd"`
	// 指导老师字段
	Position string `json:"position" binding:"omitempty,max=100"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	Name        *string `json:"name"         binding:"omitempty,min=2,max=100"`
	Email       *string `json:"email"        binding:"omitempty,email"`
	Phone       *string `json:"phone"        binding:"omitempty,max=30"`
	SpecialtyID *string `json:"specialty_id" binding:"omitempty,uuid"`
	Institution *string `json:"institution"  binding:"omitempty,max=150"`
	Level       *string `json:"level"        binding:"omitempty,max=50"`
	Department  *string `json:"department"   binding:"omitempty,max=100"`
	Option      *string `json:"option"       binding:"omitempty,max=100"`
	StartDate   *string `json:"start_date"   binding:"omitempty,yyyymmdd"`
	EndDate     *string `json:"end_date"     binding:"omitempty,yyyymmdd"`
	Position    *string `json:"position"     binding:"omitempty,max=100"`
}

// SetActiveRequest 启用 / 停用账号
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateUserResponse 创建用户响应（临时密码同时通过邮件发送）
type CreateUserResponse struct {
	User         UserResponse `json:"user"`
	TempPassword string       `json:"temp_password"`
	EmailSent    bool         `json:"email_sent"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
	EmailSent    bool   `json:"email_sent"`
}

// ImportUserResponse 批量导入实习生响应
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
