package model

// Announcement 公告表 — 对应 announcements
// SpecialtyID 为空表示面向全体用户
type Announcement struct {
	AnnouncementID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"announcement_id"`
	Title          string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string  `gorm:"type:text;not null"                             json:"content"`
	AuthorID       string  `gorm:"type:uuid;not null"                             json:"author_id"`
	SpecialtyID    *string `gorm:"type:uuid;index"                                json:"specialty_id,omitempty"`
	Priority       string  `gorm:"type:varchar(10);not null;default:'normal'"     json:"priority"` // normal | important | urgent
	SoftDeleteModel

	Author    *User      `gorm:"foreignKey:AuthorID;references:UserID"          json:"author,omitempty"`
	Specialty *Specialty `gorm:"foreignKey:SpecialtyID;references:SpecialtyID" json:"specialty,omitempty"`
}

// TableName 指定表名
func (Announcement) TableName() string { return "announcements" }
