package dto

// ── 实习日志模块 DTO ──

// CreateLogbookRequest 提交日志
// 日期格式与必填项在 service 层再做一次字段级校验，binding 只做形状检查
type CreateLogbookRequest struct {
	InternID       string   `json:"intern_id"       binding:"omitempty,uuid"` // 管理员代填时使用
	Date           string   `json:"date"`
	Title          string   `json:"title"           binding:"max=200"`
	Content        string   `json:"content"`
	HoursWorked    *float64 `json:"hours_worked"`
	TasksCompleted []string `json:"tasks_completed" binding:"omitempty,max=50,dive,max=500"`
	Challenges     string   `json:"challenges"`
	Learnings      string   `json:"learnings"`
	NextDayPlan    string   `json:"next_day_plan"`
}

// UpdateLogbookRequest 修改日志（仅待审阅或需修改状态）
type UpdateLogbookRequest struct {
	Title          *string   `json:"title"           binding:"omitempty,max=200"`
	Content        *string   `json:"content"`
	HoursWorked    *float64  `json:"hours_worked"`
	TasksCompleted *[]string `json:"tasks_completed" binding:"omitempty,max=50"`
	Challenges     *string   `json:"challenges"`
	Learnings      *string   `json:"learnings"`
	NextDayPlan    *string   `json:"next_day_plan"`
}

// ReviewLogbookRequest 审阅日志
type ReviewLogbookRequest struct {
	Status   string `json:"status"   binding:"required,oneof=approved needs_revision"`
	Feedback string `json:"feedback" binding:"omitempty,max=5000"`
}

// LogbookListRequest 日志列表查询参数
type LogbookListRequest struct {
	PaginationRequest
	InternID   string `form:"intern_id"   binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=pending approved needs_revision"`
	WeekNumber *int   `form:"week_number" binding:"omitempty,min=1"`
	DateFrom   string `form:"date_from"   binding:"omitempty,yyyymmdd"`
	DateTo     string `form:"date_to"     binding:"omitempty,yyyymmdd"`
}

// LogbookResponse 日志响应
type LogbookResponse struct {
	ID             string           `json:"id"`
	InternID       string           `json:"intern_id"`
	Intern         *UserBrief       `json:"intern,omitempty"`
	Date           string           `json:"date"`
	Weekday        string           `json:"weekday"`
	Title          string           `json:"title"`
	Content        string           `json:"content"`
	HoursWorked    *float64         `json:"hours_worked,omitempty"`
	TasksCompleted []string         `json:"tasks_completed,omitempty"`
	Challenges     string           `json:"challenges,omitempty"`
	Learnings      string           `json:"learnings,omitempty"`
	NextDayPlan    string           `json:"next_day_plan,omitempty"`
	Status         string           `json:"status"`
	WeekNumber     int              `json:"week_number"`
	SubmittedAt    string           `json:"submitted_at"`
	ReviewedAt     string           `json:"reviewed_at,omitempty"`
	ReviewedBy     string           `json:"reviewed_by,omitempty"`
	Feedback       string           `json:"feedback,omitempty"`
	Reviews        []ReviewResponse `json:"reviews,omitempty"`
}

// ReviewResponse 审阅记录
type ReviewResponse struct {
	ID        string     `json:"id"`
	Reviewer  *UserBrief `json:"reviewer,omitempty"`
	Status    string     `json:"status"`
	Feedback  string     `json:"feedback,omitempty"`
	CreatedAt string     `json:"created_at"`
}

// SubmitLogbookResponse 提交结果
// 周表生成失败不影响提交，错误信息放在 PDFError
type SubmitLogbookResponse struct {
	Entry        LogbookResponse `json:"entry"`
	WeekComplete bool            `json:"week_complete"`
	PDFPath      string          `json:"pdf_path,omitempty"`
	PDFURL       string          `json:"pdf_url,omitempty"`
	PDFError     string          `json:"pdf_error,omitempty"`
}

// WeekStatusResponse 某周完成情况
type WeekStatusResponse struct {
	InternID   string   `json:"intern_id"`
	WeekNumber int      `json:"week_number"`
	Complete   bool     `json:"complete"`
	Covered    []string `json:"covered"` // 已填写的工作日
	Missing    []string `json:"missing"` // 缺失的工作日
	EntryCount int      `json:"entry_count"`
	PeriodFrom string   `json:"period_from,omitempty"`
	PeriodTo   string   `json:"period_to,omitempty"`
	PDFURL     string   `json:"pdf_url,omitempty"`
}

// WeekPDFResponse 周表下载地址
type WeekPDFResponse struct {
	WeekNumber int    `json:"week_number"`
	Path       string `json:"path"`
	URL        string `json:"url"`
}
