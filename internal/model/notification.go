package model

import "time"

// Notification 站内通知表 — 对应 notifications
// 每条推送都会落一份站内记录，设备令牌缺失时仅保留站内记录
type Notification struct {
	NotificationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string  `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type           string  `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Body           string  `gorm:"type:text;not null"                             json:"body"`
	IsRead         bool    `gorm:"not null;default:false"                         json:"is_read"`
	Pushed         bool    `gorm:"not null;default:false"                         json:"pushed"`
	RelatedType    *string `gorm:"type:varchar(30)"                               json:"related_type,omitempty"` // logbook | task | announcement
	RelatedID      *string `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// ActivityLog 操作审计日志 — 对应 activity_logs（只追加）
type ActivityLog struct {
	ActivityID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_id"`
	UserID      string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Action      string    `gorm:"type:varchar(100);not null"                     json:"action"`
	Description string    `gorm:"type:text"                                      json:"description,omitempty"`
	SubjectType *string   `gorm:"type:varchar(30)"                               json:"subject_type,omitempty"`
	SubjectID   *string   `gorm:"type:uuid"                                      json:"subject_id,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }
