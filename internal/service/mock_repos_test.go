package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/config"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
	"github.com/TraitzTech/trazor-api-sub000/pkg/mailer"
	"github.com/TraitzTech/trazor-api-sub000/pkg/pdf"
	"github.com/TraitzTech/trazor-api-sub000/pkg/push"
	"github.com/TraitzTech/trazor-api-sub000/pkg/storage"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
	seq   int
	// deletedMatric 已软删除实习生的学号，参与学号计数
	deletedMatric []string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	if user.InternProfile != nil {
		user.InternProfile.UserID = user.UserID
	}
	if user.SupervisorProfile != nil {
		user.SupervisorProfile.UserID = user.UserID
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) SaveInternProfile(_ context.Context, profile *model.InternProfile) error {
	u, ok := m.users[profile.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.InternProfile = profile
	return nil
}

func (m *mockUserRepo) SaveSupervisorProfile(_ context.Context, profile *model.SupervisorProfile) error {
	u, ok := m.users[profile.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.SupervisorProfile = profile
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	if u, ok := m.users[id]; ok && u.InternProfile != nil {
		m.deletedMatric = append(m.deletedMatric, u.InternProfile.MatriculationNumber)
	}
	delete(m.users, id)
	return nil
}

// sorted 按 user_id 排序，保证 mock 输出稳定
func (m *mockUserRepo) sorted(match func(u *model.User) bool) []model.User {
	var result []model.User
	for _, u := range m.users {
		if match(u) {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, page repository.Pagination) ([]model.User, int64, error) {
	all := m.sorted(func(u *model.User) bool {
		if filter.Role != "" && u.Role != filter.Role {
			return false
		}
		if filter.SpecialtyID != "" && u.SpecialtyID() != filter.SpecialtyID {
			return false
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			return false
		}
		if filter.Keyword != "" && !strings.Contains(u.Name, filter.Keyword) && !strings.Contains(u.Email, filter.Keyword) {
			return false
		}
		return true
	})
	return paginate(all, page), int64(len(all)), nil
}

func (m *mockUserRepo) ListInternsBySpecialty(_ context.Context, specialtyID string) ([]model.User, error) {
	return m.sorted(func(u *model.User) bool {
		return u.Role == model.RoleIntern && u.IsActive && u.SpecialtyID() == specialtyID
	}), nil
}

func (m *mockUserRepo) ListSupervisorsBySpecialty(_ context.Context, specialtyID string) ([]model.User, error) {
	return m.sorted(func(u *model.User) bool {
		return u.Role == model.RoleSupervisor && u.IsActive && u.SpecialtyID() == specialtyID
	}), nil
}

func (m *mockUserRepo) ListRecipients(_ context.Context, specialtyID string) ([]model.User, error) {
	return m.sorted(func(u *model.User) bool {
		return u.IsActive && (specialtyID == "" || u.SpecialtyID() == specialtyID)
	}), nil
}

func (m *mockUserRepo) UpdateDeviceToken(_ context.Context, userID string, token *string) error {
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.DeviceToken = token
	return nil
}

func (m *mockUserRepo) CountByRole(_ context.Context) (map[model.Role]int64, error) {
	result := make(map[model.Role]int64)
	for _, u := range m.users {
		result[u.Role]++
	}
	return result, nil
}

func (m *mockUserRepo) CountMatriculationByPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.InternProfile != nil && strings.HasPrefix(u.InternProfile.MatriculationNumber, prefix) {
			n++
		}
	}
	for _, mn := range m.deletedMatric {
		if strings.HasPrefix(mn, prefix) {
			n++
		}
	}
	return n, nil
}

func paginate[T any](all []T, page repository.Pagination) []T {
	if page.Offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return all[page.Offset:end]
}

// ── Mock SpecialtyRepository ──

type mockSpecialtyRepo struct {
	specialties map[string]*model.Specialty
	members     map[string]int64
}

func newMockSpecialtyRepo() *mockSpecialtyRepo {
	return &mockSpecialtyRepo{
		specialties: make(map[string]*model.Specialty),
		members:     make(map[string]int64),
	}
}

func (m *mockSpecialtyRepo) Create(_ context.Context, sp *model.Specialty) error {
	for _, s := range m.specialties {
		if s.Name == sp.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if sp.SpecialtyID == "" {
		sp.SpecialtyID = "spec-" + sp.Name
	}
	if sp.Version == 0 {
		sp.Version = 1
	}
	c := *sp
	m.specialties[sp.SpecialtyID] = &c
	return nil
}

// GetByID 返回副本，乐观锁比较才有意义
func (m *mockSpecialtyRepo) GetByID(_ context.Context, id string) (*model.Specialty, error) {
	if s, ok := m.specialties[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSpecialtyRepo) GetByName(_ context.Context, name string) (*model.Specialty, error) {
	for _, s := range m.specialties {
		if s.Name == name {
			c := *s
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSpecialtyRepo) List(_ context.Context) ([]model.Specialty, error) {
	var result []model.Specialty
	for _, s := range m.specialties {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockSpecialtyRepo) Update(_ context.Context, sp *model.Specialty) error {
	stored, ok := m.specialties[sp.SpecialtyID]
	if !ok || stored.Version != sp.Version {
		return pkgerrors.ErrOptimisticLock
	}
	sp.Version++
	c := *sp
	m.specialties[sp.SpecialtyID] = &c
	return nil
}

func (m *mockSpecialtyRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.specialties, id)
	return nil
}

func (m *mockSpecialtyRepo) CountMembers(_ context.Context, specialtyID string) (int64, error) {
	return m.members[specialtyID], nil
}

// ── Mock TaskRepository / TaskAssignmentRepository ──

type mockTaskRepo struct {
	tasks       map[string]*model.Task
	seq         int
	assignments *mockAssignmentRepo
	specialties *mockSpecialtyRepo
}

func newMockTaskRepo(assignments *mockAssignmentRepo, specialties *mockSpecialtyRepo) *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]*model.Task), assignments: assignments, specialties: specialties}
}

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	if task.TaskID == "" {
		m.seq++
		task.TaskID = fmt.Sprintf("task-%d", m.seq)
	}
	if task.Version == 0 {
		task.Version = 1
	}
	task.CreatedAt = time.Now()
	c := *task
	c.Assignments = nil
	m.tasks[task.TaskID] = &c
	return nil
}

// hydrate 模拟 Preload("Specialty")、Preload("Assignments")
func (m *mockTaskRepo) hydrate(t *model.Task) *model.Task {
	c := *t
	if sp, ok := m.specialties.specialties[c.SpecialtyID]; ok {
		spc := *sp
		c.Specialty = &spc
	}
	c.Assignments, _ = m.assignments.ListByTask(context.Background(), c.TaskID)
	return &c
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (*model.Task, error) {
	if t, ok := m.tasks[id]; ok {
		return m.hydrate(t), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskRepo) filtered(filter repository.TaskFilter) []model.Task {
	var result []model.Task
	for _, t := range m.tasks {
		if filter.SpecialtyID != "" && t.SpecialtyID != filter.SpecialtyID {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(t.Title, filter.Keyword) {
			continue
		}
		if filter.InternID != "" {
			if _, err := m.assignments.GetByTaskAndIntern(context.Background(), t.TaskID, filter.InternID); err != nil {
				continue
			}
		}
		result = append(result, *m.hydrate(t))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TaskID < result[j].TaskID })
	return result
}

func (m *mockTaskRepo) List(_ context.Context, filter repository.TaskFilter, page repository.Pagination) ([]model.Task, int64, error) {
	all := m.filtered(filter)
	return paginate(all, page), int64(len(all)), nil
}

func (m *mockTaskRepo) ListWithDueDate(_ context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	var result []model.Task
	for _, t := range m.filtered(filter) {
		if t.DueDate != nil {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) Update(_ context.Context, task *model.Task) error {
	stored, ok := m.tasks[task.TaskID]
	if !ok || stored.Version != task.Version {
		return pkgerrors.ErrOptimisticLock
	}
	task.Version++
	c := *task
	c.Assignments = nil
	m.tasks[task.TaskID] = &c
	return nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.tasks, id)
	return nil
}

type mockAssignmentRepo struct {
	assignments map[string]*model.TaskAssignment // key: task_id/intern_id
	seq         int
	users       *mockUserRepo
}

func newMockAssignmentRepo(users *mockUserRepo) *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[string]*model.TaskAssignment), users: users}
}

func assignmentKey(taskID, internID string) string { return taskID + "/" + internID }

func (m *mockAssignmentRepo) BatchCreate(_ context.Context, list []model.TaskAssignment) error {
	for i := range list {
		a := list[i]
		key := assignmentKey(a.TaskID, a.InternID)
		if _, exists := m.assignments[key]; exists {
			continue
		}
		m.seq++
		a.AssignmentID = fmt.Sprintf("assign-%d", m.seq)
		m.assignments[key] = &a
	}
	return nil
}

func (m *mockAssignmentRepo) GetByTaskAndIntern(_ context.Context, taskID, internID string) (*model.TaskAssignment, error) {
	if a, ok := m.assignments[assignmentKey(taskID, internID)]; ok {
		c := *a
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) ListByTask(_ context.Context, taskID string) ([]model.TaskAssignment, error) {
	var result []model.TaskAssignment
	for _, a := range m.assignments {
		if a.TaskID != taskID {
			continue
		}
		c := *a
		if m.users != nil {
			c.Intern = m.users.users[a.InternID]
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InternID < result[j].InternID })
	return result, nil
}

func (m *mockAssignmentRepo) Update(_ context.Context, a *model.TaskAssignment) error {
	key := assignmentKey(a.TaskID, a.InternID)
	if _, ok := m.assignments[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *a
	m.assignments[key] = &c
	return nil
}

func (m *mockAssignmentRepo) DeleteByTask(_ context.Context, taskID string) error {
	for key, a := range m.assignments {
		if a.TaskID == taskID {
			delete(m.assignments, key)
		}
	}
	return nil
}

func (m *mockAssignmentRepo) CountByStatus(_ context.Context, specialtyID string) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, a := range m.assignments {
		if specialtyID != "" {
			u, ok := m.users.users[a.InternID]
			if !ok || u.SpecialtyID() != specialtyID {
				continue
			}
		}
		result[a.Status]++
	}
	return result, nil
}

// ── Mock CommentRepository / AttachmentRepository ──

type mockCommentRepo struct {
	comments map[string]*model.Comment
	seq      int
	users    *mockUserRepo
}

func newMockCommentRepo(users *mockUserRepo) *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[string]*model.Comment), users: users}
}

func (m *mockCommentRepo) Create(_ context.Context, c *model.Comment) error {
	m.seq++
	c.CommentID = fmt.Sprintf("comment-%d", m.seq)
	c.CreatedAt = time.Now()
	cc := *c
	m.comments[c.CommentID] = &cc
	return nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id string) (*model.Comment, error) {
	if c, ok := m.comments[id]; ok {
		cc := *c
		cc.User = m.users.users[c.UserID]
		return &cc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCommentRepo) ListByTask(_ context.Context, taskID string) ([]model.Comment, error) {
	var result []model.Comment
	for _, c := range m.comments {
		if c.TaskID == taskID {
			cc := *c
			cc.User = m.users.users[c.UserID]
			result = append(result, cc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CommentID < result[j].CommentID })
	return result, nil
}

func (m *mockCommentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.comments, id)
	return nil
}

type mockAttachmentRepo struct {
	attachments map[string]*model.Attachment
	seq         int
}

func newMockAttachmentRepo() *mockAttachmentRepo {
	return &mockAttachmentRepo{attachments: make(map[string]*model.Attachment)}
}

func (m *mockAttachmentRepo) Create(_ context.Context, a *model.Attachment) error {
	m.seq++
	a.AttachmentID = fmt.Sprintf("att-%d", m.seq)
	a.CreatedAt = time.Now()
	c := *a
	m.attachments[a.AttachmentID] = &c
	return nil
}

func (m *mockAttachmentRepo) GetByID(_ context.Context, id string) (*model.Attachment, error) {
	if a, ok := m.attachments[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttachmentRepo) ListByTask(_ context.Context, taskID string) ([]model.Attachment, error) {
	var result []model.Attachment
	for _, a := range m.attachments {
		if a.TaskID == taskID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AttachmentID < result[j].AttachmentID })
	return result, nil
}

func (m *mockAttachmentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.attachments, id)
	return nil
}

// ── Mock AnnouncementRepository ──

type mockAnnouncementRepo struct {
	announcements map[string]*model.Announcement
	seq           int
	users         *mockUserRepo
}

func newMockAnnouncementRepo(users *mockUserRepo) *mockAnnouncementRepo {
	return &mockAnnouncementRepo{announcements: make(map[string]*model.Announcement), users: users}
}

func (m *mockAnnouncementRepo) Create(_ context.Context, a *model.Announcement) error {
	m.seq++
	a.AnnouncementID = fmt.Sprintf("ann-%d", m.seq)
	a.CreatedAt = time.Now()
	c := *a
	m.announcements[a.AnnouncementID] = &c
	return nil
}

func (m *mockAnnouncementRepo) GetByID(_ context.Context, id string) (*model.Announcement, error) {
	if a, ok := m.announcements[id]; ok {
		c := *a
		c.Author = m.users.users[a.AuthorID]
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAnnouncementRepo) List(_ context.Context, filter repository.AnnouncementFilter, page repository.Pagination) ([]model.Announcement, int64, error) {
	var all []model.Announcement
	for _, a := range m.announcements {
		switch {
		case filter.GlobalOnly:
			if a.SpecialtyID != nil {
				continue
			}
		case filter.VisibleToSpecialty != "":
			if a.SpecialtyID != nil && *a.SpecialtyID != filter.VisibleToSpecialty {
				continue
			}
		}
		if filter.Priority != "" && a.Priority != filter.Priority {
			continue
		}
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AnnouncementID < all[j].AnnouncementID })
	return paginate(all, page), int64(len(all)), nil
}

func (m *mockAnnouncementRepo) Update(_ context.Context, a *model.Announcement) error {
	c := *a
	m.announcements[a.AnnouncementID] = &c
	return nil
}

func (m *mockAnnouncementRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.announcements, id)
	return nil
}

// ── Mock LogbookRepository / LogbookReviewRepository ──

type mockLogbookRepo struct {
	entries map[string]*model.LogbookEntry
	seq     int
	users   *mockUserRepo
	// createErr 非空时 Create 直接返回该错误（模拟并发写入撞上唯一索引）
	createErr error
}

func newMockLogbookRepo(users *mockUserRepo) *mockLogbookRepo {
	return &mockLogbookRepo{entries: make(map[string]*model.LogbookEntry), users: users}
}

func (m *mockLogbookRepo) Create(_ context.Context, e *model.LogbookEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, ex := range m.entries {
		if ex.InternID == e.InternID && ex.Date.Equal(e.Date) {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	if e.EntryID == "" {
		e.EntryID = fmt.Sprintf("entry-%d", m.seq)
	}
	c := *e
	c.Intern = nil
	m.entries[e.EntryID] = &c
	return nil
}

func (m *mockLogbookRepo) withIntern(e *model.LogbookEntry) *model.LogbookEntry {
	c := *e
	if m.users != nil {
		c.Intern = m.users.users[e.InternID]
	}
	return &c
}

func (m *mockLogbookRepo) GetByID(_ context.Context, id string) (*model.LogbookEntry, error) {
	if e, ok := m.entries[id]; ok {
		return m.withIntern(e), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLogbookRepo) GetByInternAndDate(_ context.Context, internID string, date time.Time) (*model.LogbookEntry, error) {
	for _, e := range m.entries {
		if e.InternID == internID && e.Date.Equal(date) {
			return m.withIntern(e), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func sortEntries(list []model.LogbookEntry) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].SubmittedAt.Before(list[j].SubmittedAt)
	})
}

func (m *mockLogbookRepo) ListByInternAndWeek(_ context.Context, internID string, week int) ([]model.LogbookEntry, error) {
	var result []model.LogbookEntry
	for _, e := range m.entries {
		if e.InternID == internID && e.WeekNumber == week {
			result = append(result, *e)
		}
	}
	sortEntries(result)
	return result, nil
}

func (m *mockLogbookRepo) ListByIntern(_ context.Context, internID string) ([]model.LogbookEntry, error) {
	var result []model.LogbookEntry
	for _, e := range m.entries {
		if e.InternID == internID {
			result = append(result, *e)
		}
	}
	sortEntries(result)
	return result, nil
}

func (m *mockLogbookRepo) List(_ context.Context, filter repository.LogbookFilter, page repository.Pagination) ([]model.LogbookEntry, int64, error) {
	var all []model.LogbookEntry
	for _, e := range m.entries {
		if filter.InternID != "" && e.InternID != filter.InternID {
			continue
		}
		if filter.SpecialtyID != "" {
			u, ok := m.users.users[e.InternID]
			if !ok || u.SpecialtyID() != filter.SpecialtyID {
				continue
			}
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.WeekNumber != nil && e.WeekNumber != *filter.WeekNumber {
			continue
		}
		if filter.DateFrom != nil && e.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && e.Date.After(*filter.DateTo) {
			continue
		}
		all = append(all, *m.withIntern(e))
	}
	sortEntries(all)
	return paginate(all, page), int64(len(all)), nil
}

func (m *mockLogbookRepo) Update(_ context.Context, e *model.LogbookEntry) error {
	if _, ok := m.entries[e.EntryID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *e
	c.Intern = nil
	m.entries[e.EntryID] = &c
	return nil
}

func (m *mockLogbookRepo) Delete(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

func (m *mockLogbookRepo) CountByStatus(_ context.Context, specialtyID string) (map[model.LogbookStatus]int64, error) {
	result := make(map[model.LogbookStatus]int64)
	for _, e := range m.entries {
		if specialtyID != "" {
			u, ok := m.users.users[e.InternID]
			if !ok || u.SpecialtyID() != specialtyID {
				continue
			}
		}
		result[e.Status]++
	}
	return result, nil
}

type mockReviewRepo struct {
	reviews []model.LogbookReview
}

func (m *mockReviewRepo) Create(_ context.Context, r *model.LogbookReview) error {
	r.ReviewID = fmt.Sprintf("review-%d", len(m.reviews)+1)
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *mockReviewRepo) ListByEntry(_ context.Context, entryID string) ([]model.LogbookReview, error) {
	var result []model.LogbookReview
	for _, r := range m.reviews {
		if r.EntryID == entryID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockReviewRepo) DeleteByEntry(_ context.Context, entryID string) error {
	kept := m.reviews[:0]
	for _, r := range m.reviews {
		if r.EntryID != entryID {
			kept = append(kept, r)
		}
	}
	m.reviews = kept
	return nil
}

// ── Mock NotificationRepository / ActivityLogRepository ──

type mockNotificationRepo struct {
	items []*model.Notification
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	n.NotificationID = fmt.Sprintf("notif-%d", len(m.items)+1)
	n.CreatedAt = time.Now()
	m.items = append(m.items, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, page repository.Pagination) ([]model.Notification, int64, error) {
	var all []model.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			all = append(all, *n)
		}
	}
	return paginate(all, page), int64(len(all)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) (int64, error) {
	for _, n := range m.items {
		if n.NotificationID == id && n.UserID == userID {
			n.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for _, n := range m.items {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) MarkPushed(_ context.Context, id string) error {
	for _, n := range m.items {
		if n.NotificationID == id {
			n.Pushed = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var c int64
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

// forUser 某用户收到的通知
func (m *mockNotificationRepo) forUser(userID string) []*model.Notification {
	var result []*model.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

type mockActivityRepo struct {
	logs []model.ActivityLog
}

func (m *mockActivityRepo) Create(_ context.Context, log *model.ActivityLog) error {
	log.ActivityID = fmt.Sprintf("act-%d", len(m.logs)+1)
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, filter repository.ActivityFilter, page repository.Pagination) ([]model.ActivityLog, int64, error) {
	var all []model.ActivityLog
	for _, l := range m.logs {
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		all = append(all, l)
	}
	return paginate(all, page), int64(len(all)), nil
}

func (m *mockActivityRepo) countAction(action string) int {
	n := 0
	for _, l := range m.logs {
		if l.Action == action {
			n++
		}
	}
	return n
}

// ── 外部协作者替身 ──

// memStorage 内存文件存储
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) Put(_ context.Context, key string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.puts++
	return nil
}

func (s *memStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memStorage) URL(key string) string { return "http://files.test/" + key }

// fakeRenderer 记录每次渲染的模板数据
type fakeRenderer struct {
	sheets []*pdf.WeeklySheet
	err    error
}

func (r *fakeRenderer) RenderWeeklySheet(sheet *pdf.WeeklySheet) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.sheets = append(r.sheets, sheet)
	return []byte("%PDF-fake"), nil
}

// fakePusher invalid 中的令牌返回 push.ErrTokenInvalid
type fakePusher struct {
	sent    []*push.Message
	invalid map[string]bool
}

func (p *fakePusher) Send(_ context.Context, msg *push.Message) error {
	if p.invalid[msg.Token] {
		return push.ErrTokenInvalid
	}
	p.sent = append(p.sent, msg)
	return nil
}

type fakeMailer struct {
	sent []*mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg *mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// ── 测试环境 ──

type testEnv struct {
	repo          *repository.Repository
	users         *mockUserRepo
	specialties   *mockSpecialtyRepo
	tasks         *mockTaskRepo
	assignments   *mockAssignmentRepo
	comments      *mockCommentRepo
	attachments   *mockAttachmentRepo
	announcements *mockAnnouncementRepo
	logbooks      *mockLogbookRepo
	reviews       *mockReviewRepo
	notifications *mockNotificationRepo
	activities    *mockActivityRepo

	storage  *memStorage
	renderer *fakeRenderer
	pusher   *fakePusher
	mailer   *fakeMailer
	logger   *zap.Logger
}

func newTestEnv() *testEnv {
	users := newMockUserRepo()
	specialties := newMockSpecialtyRepo()
	assignments := newMockAssignmentRepo(users)
	env := &testEnv{
		users:         users,
		specialties:   specialties,
		assignments:   assignments,
		tasks:         newMockTaskRepo(assignments, specialties),
		comments:      newMockCommentRepo(users),
		attachments:   newMockAttachmentRepo(),
		announcements: newMockAnnouncementRepo(users),
		logbooks:      newMockLogbookRepo(users),
		reviews:       &mockReviewRepo{},
		notifications: &mockNotificationRepo{},
		activities:    &mockActivityRepo{},
		storage:       newMemStorage(),
		renderer:      &fakeRenderer{},
		pusher:        &fakePusher{invalid: map[string]bool{}},
		mailer:        &fakeMailer{},
		logger:        zap.NewNop(),
	}
	env.repo = &repository.Repository{
		User:          env.users,
		Specialty:     env.specialties,
		Task:          env.tasks,
		Assignment:    env.assignments,
		Comment:       env.comments,
		Attachment:    env.attachments,
		Announcement:  env.announcements,
		Logbook:       env.logbooks,
		LogbookReview: env.reviews,
		Notification:  env.notifications,
		Activity:      env.activities,
	}
	return env
}

func (e *testEnv) notifier() Notifier {
	return NewNotifier(e.repo, e.pusher, nil, e.logger)
}

func (e *testEnv) exporter() LogbookPdfExporter {
	return NewLogbookPdfExporter(e.repo, e.renderer, e.storage, &config.LogbookConfig{PDFDir: "logbooks", Title: "Weekly Logbook"}, nil, e.logger)
}

func (e *testEnv) addSpecialty(id, name string) *model.Specialty {
	sp := &model.Specialty{SpecialtyID: id, Name: name}
	_ = e.specialties.Create(context.Background(), sp)
	return sp
}

func (e *testEnv) addIntern(id, name, specialtyID, matric string, start *time.Time) *model.User {
	u := &model.User{
		UserID:   id,
		Name:     name,
		Email:    id + "@trazor.test",
		Role:     model.RoleIntern,
		IsActive: true,
		InternProfile: &model.InternProfile{
			SpecialtyID:         specialtyID,
			MatriculationNumber: matric,
			Institution:         "University of Buea",
			Level:               "400",
			Department:          "Computer Engineering",
			Option:              "Software",
			StartDate:           start,
		},
	}
	_ = e.users.Create(context.Background(), u)
	return u
}

func (e *testEnv) addSupervisor(id, name, specialtyID string) *model.User {
	u := &model.User{
		UserID:            id,
		Name:              name,
		Email:             id + "@trazor.test",
		Role:              model.RoleSupervisor,
		IsActive:          true,
		SupervisorProfile: &model.SupervisorProfile{SpecialtyID: specialtyID},
	}
	_ = e.users.Create(context.Background(), u)
	return u
}

func (e *testEnv) addAdmin(id string) *model.User {
	u := &model.User{UserID: id, Name: "Admin", Email: id + "@trazor.test", Role: model.RoleAdmin, IsActive: true}
	_ = e.users.Create(context.Background(), u)
	return u
}

func principalOf(u *model.User) Principal {
	return Principal{UserID: u.UserID, Role: u.Role, SpecialtyID: u.SpecialtyID()}
}

func ymd(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
