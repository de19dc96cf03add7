package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
	"github.com/TraitzTech/trazor-api-sub000/pkg/storage"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrAttachmentTooLarge = errors.New("attachment exceeds the upload size limit")
)

// UploadInput 上传附件的输入
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachmentService 任务附件业务接口
type AttachmentService interface {
	Upload(ctx context.Context, p Principal, taskID string, in UploadInput) (*dto.AttachmentResponse, error)
	List(ctx context.Context, p Principal, taskID string) ([]dto.AttachmentResponse, error)
	// Download 调用方负责关闭返回的 ReadCloser
	Download(ctx context.Context, p Principal, attachmentID string) (io.ReadCloser, *model.Attachment, error)
	Delete(ctx context.Context, p Principal, attachmentID string) error
}

type attachmentService struct {
	repo      *repository.Repository
	storage   storage.Storage
	maxUpload int64
	logger    *zap.Logger
}

// NewAttachmentService 创建 AttachmentService 实例；maxUpload <= 0 表示不限制
func NewAttachmentService(repo *repository.Repository, store storage.Storage, maxUpload int64, logger *zap.Logger) AttachmentService {
	return &attachmentService{repo: repo, storage: store, maxUpload: maxUpload, logger: logger}
}

func (s *attachmentService) toResponse(a *model.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:          a.AttachmentID,
		TaskID:      a.TaskID,
		FileName:    a.FileName,
		MimeType:    a.MimeType,
		Size:        a.Size,
		UploadedBy:  a.UploadedBy,
		DownloadURL: "/api/v1/attachments/" + a.AttachmentID,
		CreatedAt:   formatTime(&a.CreatedAt),
	}
}

// sanitizeFileName 去掉目录部分和空白，保证 key 不越界
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "file"
	}
	return strings.ReplaceAll(name, " ", "_")
}

func (s *attachmentService) Upload(ctx context.Context, p Principal, taskID string, in UploadInput) (*dto.AttachmentResponse, error) {
	if _, err := visibleTask(ctx, s.repo, p, taskID); err != nil {
		return nil, err
	}
	if in.Body == nil || in.FileName == "" {
		return nil, pkgerrors.NewValidationError("file", "required")
	}
	if s.maxUpload > 0 && in.Size > s.maxUpload {
		return nil, ErrAttachmentTooLarge
	}

	name := sanitizeFileName(in.FileName)
	key := path.Join("attachments", taskID, uuid.NewString()+"-"+name)
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := in.Body
	if s.maxUpload > 0 {
		body = io.LimitReader(in.Body, s.maxUpload+1)
	}
	counter := &countingReader{r: body}
	if err := s.storage.Put(ctx, key, counter, contentType); err != nil {
		s.logger.Error("保存附件失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	// 客户端声明的大小不可信，以实际写入为准
	if s.maxUpload > 0 && counter.n > s.maxUpload {
		_ = s.storage.Delete(ctx, key)
		return nil, ErrAttachmentTooLarge
	}

	a := &model.Attachment{
		TaskID:      taskID,
		UploadedBy:  p.UserID,
		FileName:    name,
		StoragePath: key,
		MimeType:    contentType,
		Size:        counter.n,
	}
	a.CreatedBy = &p.UserID
	if err := s.repo.Attachment.Create(ctx, a); err != nil {
		s.logger.Error("写入附件记录失败", zap.String("key", key), zap.Error(err))
		_ = s.storage.Delete(ctx, key)
		return nil, err
	}
	resp := s.toResponse(a)
	return &resp, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += int64(n)
	return n, err
}

func (s *attachmentService) List(ctx context.Context, p Principal, taskID string) ([]dto.AttachmentResponse, error) {
	if _, err := visibleTask(ctx, s.repo, p, taskID); err != nil {
		return nil, err
	}
	list, err := s.repo.Attachment.ListByTask(ctx, taskID)
	if err != nil {
		s.logger.Error("查询附件失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.AttachmentResponse, 0, len(list))
	for i := range list {
		result = append(result, s.toResponse(&list[i]))
	}
	return result, nil
}

// load 加载附件及其所属任务，并校验任务可见性
func (s *attachmentService) load(ctx context.Context, p Principal, attachmentID string) (*model.Attachment, *model.Task, error) {
	a, err := s.repo.Attachment.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, err
	}
	task, err := visibleTask(ctx, s.repo, p, a.TaskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, err
	}
	return a, task, nil
}

func (s *attachmentService) Download(ctx context.Context, p Principal, attachmentID string) (io.ReadCloser, *model.Attachment, error) {
	a, _, err := s.load(ctx, p, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.storage.Get(ctx, a.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		s.logger.Error("读取附件失败", zap.String("key", a.StoragePath), zap.Error(err))
		return nil, nil, err
	}
	return rc, a, nil
}

// Delete 上传者本人或可管理该专业的用户
func (s *attachmentService) Delete(ctx context.Context, p Principal, attachmentID string) error {
	a, task, err := s.load(ctx, p, attachmentID)
	if err != nil {
		return err
	}
	if a.UploadedBy != p.UserID && !canManageSpecialty(p, task.SpecialtyID) {
		return ErrForbidden
	}
	if err := s.repo.Attachment.Delete(ctx, attachmentID, p.UserID); err != nil {
		s.logger.Error("删除附件记录失败", zap.String("id", attachmentID), zap.Error(err))
		return err
	}
	if err := s.storage.Delete(ctx, a.StoragePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("删除附件文件失败", zap.String("key", a.StoragePath), zap.Error(err))
	}
	return nil
}
