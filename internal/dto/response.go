package dto

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID                 string                     `json:"id"`
	Name               string                     `json:"name"`
	Email              string                     `json:"email"`
	Phone              string                     `json:"phone,omitempty"`
	Role               string                     `json:"role"`
	IsActive           bool                       `json:"is_active"`
	MustChangePassword bool                       `json:"must_change_password"`
	HasDeviceToken     bool                       `json:"has_device_token"`
	Specialty          *SpecialtyBrief            `json:"specialty,omitempty"`
	InternProfile      *InternProfileResponse     `json:"intern_profile,omitempty"`
	SupervisorProfile  *SupervisorProfileResponse `json:"supervisor_profile,omitempty"`
	CreatedAt          string                     `json:"created_at"`
}

// InternProfileResponse 实习生档案
type InternProfileResponse struct {
	MatriculationNumber string `json:"matriculation_number"`
	Institution         string `json:"institution,omitempty"`
	Level               string `json:"level,omitempty"`
	Department          string `json:"department,omitempty"`
	Option              string `json:"option,omitempty"`
	StartDate           string `json:"start_date,omitempty"`
	EndDate             string `json:"end_date,omitempty"`
}

// SupervisorProfileResponse 指导老师档案
type SupervisorProfileResponse struct {
	Position string `json:"position,omitempty"`
}

// SpecialtyBrief 专业简要信息
type SpecialtyBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserBrief 用户简要信息（嵌套在其他资源中）
type UserBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
