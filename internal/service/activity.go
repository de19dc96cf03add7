package service

import (
	"context"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
)

// 操作日志动作
const (
	ActionLogbookFilled   = "logbook_filled"
	ActionLogbookUpdated  = "logbook_updated"
	ActionLogbookReviewed = "logbook_reviewed"
	ActionLogbookDeleted  = "logbook_deleted"
	ActionUserCreated     = "user_created"
	ActionUserImported    = "user_imported"
	ActionUserDeleted     = "user_deleted"
	ActionTaskCreated     = "task_created"
	ActionTaskDeleted     = "task_deleted"
	ActionAnnouncement    = "announcement_published"
	ActionUserRegistered  = "user_registered"
)

// recordActivity 写入一条操作日志；repo 可以是事务内的聚合
func recordActivity(ctx context.Context, repo *repository.Repository, userID, action, description, subjectType, subjectID string) error {
	log := &model.ActivityLog{
		UserID:      userID,
		Action:      action,
		Description: description,
	}
	if subjectType != "" {
		log.SubjectType = strPtr(subjectType)
	}
	if subjectID != "" {
		log.SubjectID = strPtr(subjectID)
	}
	return repo.Activity.Create(ctx, log)
}
