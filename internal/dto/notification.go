package dto

// ── 通知模块 DTO ──

// NotificationListRequest 通知列表查询参数
type NotificationListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// SendNotificationRequest 管理员 / 指导老师直接发送通知
// UserIDs 与 SpecialtyID 二选一
type SendNotificationRequest struct {
	Title       string   `json:"title"        binding:"required,min=1,max=200"`
	Body        string   `json:"body"         binding:"required,min=1,max=2000"`
	UserIDs     []string `json:"user_ids"     binding:"omitempty,max=500,dive,uuid"`
	SpecialtyID string   `json:"specialty_id" binding:"omitempty,uuid"`
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	IsRead      bool   `json:"is_read"`
	Pushed      bool   `json:"pushed"`
	RelatedType string `json:"related_type,omitempty"`
	RelatedID   string `json:"related_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// SendNotificationResponse 发送结果
type SendNotificationResponse struct {
	Recipients int `json:"recipients"`
	Pushed     int `json:"pushed"`
}

// UnreadCountResponse 未读数
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// ── 仪表盘 / 操作日志 ──

// SupervisorDashboardResponse 指导老师仪表盘
type SupervisorDashboardResponse struct {
	Specialty      *SpecialtyBrief  `json:"specialty,omitempty"`
	InternCount    int              `json:"intern_count"`
	Interns        []UserBrief      `json:"interns"`
	PendingReviews int64            `json:"pending_reviews"`
	LogbookStatus  map[string]int64 `json:"logbook_status"`
	TaskStatus     map[string]int64 `json:"task_status"`
}

// AdminStatsResponse 管理员统计
type AdminStatsResponse struct {
	UsersByRole    map[string]int64 `json:"users_by_role"`
	SpecialtyCount int              `json:"specialty_count"`
	LogbookStatus  map[string]int64 `json:"logbook_status"`
	TaskStatus     map[string]int64 `json:"task_status"`
}

// ActivityListRequest 操作日志查询参数
type ActivityListRequest struct {
	PaginationRequest
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Action string `form:"action"  binding:"omitempty,max=100"`
}

// ActivityResponse 操作日志
type ActivityResponse struct {
	ID          string     `json:"id"`
	User        *UserBrief `json:"user,omitempty"`
	Action      string     `json:"action"`
	Description string     `json:"description,omitempty"`
	SubjectType string     `json:"subject_type,omitempty"`
	SubjectID   string     `json:"subject_id,omitempty"`
	CreatedAt   string     `json:"created_at"`
}
