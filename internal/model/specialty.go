package model

// Specialty 专业方向表 — 对应 specialties
// 实习生与指导老师按专业归属，任务和公告可按专业定向
type Specialty struct {
	SpecialtyID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"specialty_id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Description string `gorm:"type:text"                                      json:"description,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Specialty) TableName() string { return "specialties" }
