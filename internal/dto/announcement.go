package dto

// ── 公告模块 DTO ──

// CreateAnnouncementRequest 发布公告；SpecialtyID 为空表示面向全体
type CreateAnnouncementRequest struct {
	Title       string `json:"title"        binding:"required,min=2,max=200"`
	Content     string `json:"content"      binding:"required,min=1,max=10000"`
	SpecialtyID string `json:"specialty_id" binding:"omitempty,uuid"`
	Priority    string `json:"priority"     binding:"omitempty,oneof=normal important urgent"`
}

// UpdateAnnouncementRequest 更新公告
type UpdateAnnouncementRequest struct {
	Title    *string `json:"title"    binding:"omitempty,min=2,max=200"`
	Content  *string `json:"content"  binding:"omitempty,min=1,max=10000"`
	Priority *string `json:"priority" binding:"omitempty,oneof=normal important urgent"`
}

// AnnouncementListRequest 公告列表查询参数
type AnnouncementListRequest struct {
	PaginationRequest
	Priority string `form:"priority" binding:"omitempty,oneof=normal important urgent"`
}

// AnnouncementResponse 公告响应
type AnnouncementResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Priority  string          `json:"priority"`
	Author    *UserBrief      `json:"author,omitempty"`
	Specialty *SpecialtyBrief `json:"specialty,omitempty"`
	CreatedAt string          `json:"created_at"`
	// Notified 本次发布实际通知到的用户数，仅创建时返回
	Notified *int `json:"notified,omitempty"`
}
