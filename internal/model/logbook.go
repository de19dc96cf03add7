package model

import "time"

// LogbookStatus 日志审阅状态
type LogbookStatus string

const (
	LogbookPending       LogbookStatus = "pending"
	LogbookApproved      LogbookStatus = "approved"
	LogbookNeedsRevision LogbookStatus = "needs_revision"
)

// Valid 是否为已知状态
func (s LogbookStatus) Valid() bool {
	switch s {
	case LogbookPending, LogbookApproved, LogbookNeedsRevision:
		return true
	}
	return false
}

// LogbookEntry 每日实习日志 — 对应 logbook_entries
// (intern_id, date) 唯一，重复提交由唯一索引拒绝
type LogbookEntry struct {
	EntryID        string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"   json:"entry_id"`
	InternID       string        `gorm:"type:uuid;not null;uniqueIndex:uk_intern_date"    json:"intern_id"`
	Date           time.Time     `gorm:"type:date;not null;uniqueIndex:uk_intern_date"    json:"date"`
	Title          string        `gorm:"type:varchar(200);not null"                       json:"title"`
	Content        string        `gorm:"type:text;not null"                               json:"content"`
	HoursWorked    *float64      `gorm:"type:numeric(4,2)"                                json:"hours_worked,omitempty"`
	TasksCompleted StringList    `gorm:"type:jsonb"                                       json:"tasks_completed,omitempty"`
	Challenges     string        `gorm:"type:text"                                        json:"challenges,omitempty"`
	Learnings      string        `gorm:"type:text"                                        json:"learnings,omitempty"`
	NextDayPlan    string        `gorm:"type:text"                                        json:"next_day_plan,omitempty"`
	Status         LogbookStatus `gorm:"type:varchar(20);not null;default:'pending'"      json:"status"`
	WeekNumber     int           `gorm:"not null"                                         json:"week_number"`
	SubmittedAt    time.Time     `gorm:"not null"                                         json:"submitted_at"`
	ReviewedAt     *time.Time    `json:"reviewed_at,omitempty"`
	ReviewedBy     *string       `gorm:"type:uuid"                                        json:"reviewed_by,omitempty"`
	Feedback       string        `gorm:"type:text"                                        json:"feedback,omitempty"`
	BaseModel

	Intern  *User           `gorm:"foreignKey:InternID;references:UserID" json:"intern,omitempty"`
	Reviews []LogbookReview `gorm:"foreignKey:EntryID"                    json:"reviews,omitempty"`
}

// TableName 指定表名
func (LogbookEntry) TableName() string { return "logbook_entries" }

// LogbookReview 日志审阅记录 — 对应 logbook_reviews
type LogbookReview struct {
	ReviewID   string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	EntryID    string        `gorm:"type:uuid;not null;index"                       json:"entry_id"`
	ReviewerID string        `gorm:"type:uuid;not null"                             json:"reviewer_id"`
	Status     LogbookStatus `gorm:"type:varchar(20);not null"                      json:"status"`
	Feedback   string        `gorm:"type:text"                                      json:"feedback,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID;references:UserID" json:"reviewer,omitempty"`
}

// TableName 指定表名
func (LogbookReview) TableName() string { return "logbook_reviews" }
