package dto

// ── 专业模块 DTO ──

// CreateSpecialtyRequest 创建专业
type CreateSpecialtyRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// UpdateSpecialtyRequest 更新专业（Version 用于乐观锁）
type UpdateSpecialtyRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Version     int     `json:"version"     binding:"required,min=1"`
}

// SpecialtyResponse 专业响应
type SpecialtyResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MemberCount int64  `json:"member_count"`
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
}
