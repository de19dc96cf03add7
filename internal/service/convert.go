package service

import (
	"strings"
	"time"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = time.RFC3339
)

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateTimeLayout)
}

// parseDate 解析 YYYY-MM-DD，结果为 UTC 零点
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
}

// parseOptionalDate 空字符串返回 nil
func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func weekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

func strPtr(s string) *string { return &s }

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.UserID, Name: u.Name, Role: string(u.Role)}
}

func toSpecialtyBrief(s *model.Specialty) *dto.SpecialtyBrief {
	if s == nil {
		return nil
	}
	return &dto.SpecialtyBrief{ID: s.SpecialtyID, Name: s.Name}
}

// toUserResponse 将 model.User 转换为 dto.UserResponse
func toUserResponse(u *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:                 u.UserID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		Role:               string(u.Role),
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
		HasDeviceToken:     u.DeviceToken != nil && *u.DeviceToken != "",
		CreatedAt:          formatTime(&u.CreatedAt),
	}
	if p := u.InternProfile; p != nil {
		resp.Specialty = toSpecialtyBrief(p.Specialty)
		resp.InternProfile = &dto.InternProfileResponse{
			MatriculationNumber: p.MatriculationNumber,
			Institution:         p.Institution,
			Level:               p.Level,
			Department:          p.Department,
			Option:              p.Option,
			StartDate:           formatDate(p.StartDate),
			EndDate:             formatDate(p.EndDate),
		}
	}
	if p := u.SupervisorProfile; p != nil {
		resp.Specialty = toSpecialtyBrief(p.Specialty)
		resp.SupervisorProfile = &dto.SupervisorProfileResponse{Position: p.Position}
	}
	return resp
}

func toLogbookResponse(e *model.LogbookEntry) *dto.LogbookResponse {
	resp := &dto.LogbookResponse{
		ID:             e.EntryID,
		InternID:       e.InternID,
		Intern:         toUserBrief(e.Intern),
		Date:           e.Date.Format(dateLayout),
		Weekday:        weekdayName(e.Date),
		Title:          e.Title,
		Content:        e.Content,
		HoursWorked:    e.HoursWorked,
		TasksCompleted: []string(e.TasksCompleted),
		Challenges:     e.Challenges,
		Learnings:      e.Learnings,
		NextDayPlan:    e.NextDayPlan,
		Status:         string(e.Status),
		WeekNumber:     e.WeekNumber,
		SubmittedAt:    formatTime(&e.SubmittedAt),
		ReviewedAt:     formatTime(e.ReviewedAt),
		ReviewedBy:     derefStr(e.ReviewedBy),
		Feedback:       e.Feedback,
	}
	for i := range e.Reviews {
		r := &e.Reviews[i]
		resp.Reviews = append(resp.Reviews, dto.ReviewResponse{
			ID:        r.ReviewID,
			Reviewer:  toUserBrief(r.Reviewer),
			Status:    string(r.Status),
			Feedback:  r.Feedback,
			CreatedAt: formatTime(&r.CreatedAt),
		})
	}
	return resp
}

func toAssignmentResponse(a *model.TaskAssignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:          a.AssignmentID,
		Intern:      toUserBrief(a.Intern),
		InternID:    a.InternID,
		Status:      a.Status,
		Progress:    a.Progress,
		Note:        a.Note,
		CompletedAt: formatTime(a.CompletedAt),
		UpdatedAt:   formatTime(&a.UpdatedAt),
	}
}

// toTaskResponse viewer 为实习生时只返回其本人的进度
func toTaskResponse(t *model.Task, viewer Principal) *dto.TaskResponse {
	resp := &dto.TaskResponse{
		ID:          t.TaskID,
		Title:       t.Title,
		Description: t.Description,
		Specialty:   toSpecialtyBrief(t.Specialty),
		Priority:    t.Priority,
		DueDate:     formatDate(t.DueDate),
		Version:     t.Version,
		CreatedBy:   derefStr(t.CreatedBy),
		CreatedAt:   formatTime(&t.CreatedAt),
	}
	for i := range t.Assignments {
		a := &t.Assignments[i]
		if viewer.IsIntern() {
			if a.InternID == viewer.UserID {
				ar := toAssignmentResponse(a)
				resp.MyProgress = &ar
			}
			continue
		}
		resp.Assignments = append(resp.Assignments, toAssignmentResponse(a))
	}
	return resp
}

func toAnnouncementResponse(a *model.Announcement) *dto.AnnouncementResponse {
	return &dto.AnnouncementResponse{
		ID:        a.AnnouncementID,
		Title:     a.Title,
		Content:   a.Content,
		Priority:  a.Priority,
		Author:    toUserBrief(a.Author),
		Specialty: toSpecialtyBrief(a.Specialty),
		CreatedAt: formatTime(&a.CreatedAt),
	}
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:          n.NotificationID,
		Type:        n.Type,
		Title:       n.Title,
		Body:        n.Body,
		IsRead:      n.IsRead,
		Pushed:      n.Pushed,
		RelatedType: derefStr(n.RelatedType),
		RelatedID:   derefStr(n.RelatedID),
		CreatedAt:   formatTime(&n.CreatedAt),
	}
}
