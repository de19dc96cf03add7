package dto

// ── 任务模块 DTO ──

// CreateTaskRequest 创建任务
// InternIDs 为空时分配给该专业全部在岗实习生
type CreateTaskRequest struct {
	Title       string   `json:"title"        binding:"required,min=2,max=200"`
	Description string   `json:"description"  binding:"omitempty,max=5000"`
	SpecialtyID string   `json:"specialty_id" binding:"omitempty,uuid"`
	Priority    string   `json:"priority"     binding:"omitempty,oneof=low medium high"`
	DueDate     string   `json:"due_date"     binding:"omitempty,yyyymmdd"`
	InternIDs   []string `json:"intern_ids"   binding:"omitempty,dive,uuid"`
}

// UpdateTaskRequest 更新任务
type UpdateTaskRequest struct {
	Title       *string `json:"title"       binding:"omitempty,min=2,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Priority    *string `json:"priority"    binding:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"due_date"    binding:"omitempty,yyyymmdd"`
	Version     int     `json:"version"     binding:"required,min=1"`
}

// TaskListRequest 任务列表查询参数
type TaskListRequest struct {
	PaginationRequest
	SpecialtyID string `form:"specialty_id" binding:"omitempty,uuid"`
	Priority    string `form:"priority"     binding:"omitempty,oneof=low medium high"`
	Keyword     string `form:"keyword"      binding:"omitempty,max=50"`
}

// UpdateProgressRequest 实习生更新自己的任务进度
type UpdateProgressRequest struct {
	Progress *int   `json:"progress" binding:"required,min=0,max=100"`
	Status   string `json:"status"   binding:"omitempty,oneof=pending in_progress completed"`
	Note     string `json:"note"     binding:"omitempty,max=2000"`
}

// TaskResponse 任务响应
type TaskResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Specialty   *SpecialtyBrief      `json:"specialty,omitempty"`
	Priority    string               `json:"priority"`
	DueDate     string               `json:"due_date,omitempty"`
	Version     int                  `json:"version"`
	CreatedBy   string               `json:"created_by,omitempty"`
	CreatedAt   string               `json:"created_at"`
	Assignments []AssignmentResponse `json:"assignments,omitempty"`
	// MyProgress 当前实习生自己的进度，仅实习生视角返回
	MyProgress *AssignmentResponse `json:"my_progress,omitempty"`
}

// AssignmentResponse 任务分配与进度
type AssignmentResponse struct {
	ID          string     `json:"id"`
	Intern      *UserBrief `json:"intern,omitempty"`
	InternID    string     `json:"intern_id"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Note        string     `json:"note,omitempty"`
	CompletedAt string     `json:"completed_at,omitempty"`
	UpdatedAt   string     `json:"updated_at"`
}

// ── 评论 / 附件 ──

// CreateCommentRequest 发表评论
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// CommentResponse 评论响应
type CommentResponse struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"task_id"`
	Author    *UserBrief `json:"author,omitempty"`
	Content   string     `json:"content"`
	CreatedAt string     `json:"created_at"`
}

// AttachmentResponse 附件响应
type AttachmentResponse struct {
	ID          string `json:"id"`
	TaskID      string `json:"task_id"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	Size        int64  `json:"size"`
	UploadedBy  string `json:"uploaded_by"`
	DownloadURL string `json:"download_url"`
	CreatedAt   string `json:"created_at"`
}
