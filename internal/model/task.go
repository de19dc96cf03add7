package model

import "time"

// Task 任务表 — 对应 tasks
type Task struct {
	TaskID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"task_id"`
	Title       string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string     `gorm:"type:text"                                      json:"description,omitempty"`
	SpecialtyID string     `gorm:"type:uuid;not null;index"                       json:"specialty_id"`
	Priority    string     `gorm:"type:varchar(10);not null;default:'medium'"     json:"priority"` // low | medium | high
	DueDate     *time.Time `gorm:"type:date"                                      json:"due_date,omitempty"`
	VersionedModel

	// 关联
	Specialty   *Specialty       `gorm:"foreignKey:SpecialtyID;references:SpecialtyID" json:"specialty,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID"                              json:"assignments,omitempty"`
}

// TableName 指定表名
func (Task) TableName() string { return "tasks" }

// 任务进度状态
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// TaskAssignment 任务分配及进度 — 对应 task_assignments
type TaskAssignment struct {
	AssignmentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	TaskID       string     `gorm:"type:uuid;not null;uniqueIndex:uk_task_intern"  json:"task_id"`
	InternID     string     `gorm:"type:uuid;not null;uniqueIndex:uk_task_intern"  json:"intern_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Progress     int        `gorm:"not null;default:0"                             json:"progress"` // 0-100
	Note         string     `gorm:"type:text"                                      json:"note,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	BaseModel

	Task   *Task `gorm:"foreignKey:TaskID;references:TaskID"   json:"task,omitempty"`
	Intern *User `gorm:"foreignKey:InternID;references:UserID" json:"intern,omitempty"`
}

// TableName 指定表名
func (TaskAssignment) TableName() string { return "task_assignments" }

// Comment 任务评论 — 对应 comments
type Comment struct {
	CommentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"comment_id"`
	TaskID    string `gorm:"type:uuid;not null;index"                       json:"task_id"`
	UserID    string `gorm:"type:uuid;not null"                             json:"user_id"`
	Content   string `gorm:"type:text;not null"                             json:"content"`
	SoftDeleteModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Comment) TableName() string { return "comments" }

// Attachment 任务附件 — 对应 attachments
type Attachment struct {
	AttachmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attachment_id"`
	TaskID       string `gorm:"type:uuid;not null;index"                       json:"task_id"`
	UploadedBy   string `gorm:"type:uuid;not null"                             json:"uploaded_by"`
	FileName     string `gorm:"type:varchar(255);not null"                     json:"file_name"`
	StoragePath  string `gorm:"type:varchar(500);not null"                     json:"-"`
	MimeType     string `gorm:"type:varchar(100)"                              json:"mime_type"`
	Size         int64  `gorm:"not null"                                       json:"size"`
	SoftDeleteModel
}

// TableName 指定表名
func (Attachment) TableName() string { return "attachments" }
