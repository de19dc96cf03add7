package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/repository"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
)

var ErrCommentNotFound = errors.New("comment not found")

// CommentService 任务评论业务接口
type CommentService interface {
	Add(ctx context.Context, p Principal, taskID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	List(ctx context.Context, p Principal, taskID string) ([]dto.CommentResponse, error)
	// Delete 仅作者本人或管理员
	Delete(ctx context.Context, p Principal, taskID, commentID string) error
}

type commentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCommentService 创建 CommentService 实例
func NewCommentService(repo *repository.Repository, logger *zap.Logger) CommentService {
	return &commentService{repo: repo, logger: logger}
}

// visibleTask 加载任务并校验可见性，评论与附件共用
func visibleTask(ctx context.Context, repo *repository.Repository, p Principal, taskID string) (*model.Task, error) {
	task, err := repo.Task.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if !canViewTask(p, task) {
		return nil, ErrForbidden
	}
	return task, nil
}

func toCommentResponse(c *model.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        c.CommentID,
		TaskID:    c.TaskID,
		Author:    toUserBrief(c.User),
		Content:   c.Content,
		CreatedAt: formatTime(&c.CreatedAt),
	}
}

func (s *commentService) Add(ctx context.Context, p Principal, taskID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if _, err := visibleTask(ctx, s.repo, p, taskID); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, pkgerrors.NewValidationError("content", "required")
	}

	c := &model.Comment{TaskID: taskID, UserID: p.UserID, Content: content}
	c.CreatedBy = &p.UserID
	if err := s.repo.Comment.Create(ctx, c); err != nil {
		s.logger.Error("发表评论失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Comment.GetByID(ctx, c.CommentID)
	if err != nil {
		return nil, err
	}
	resp := toCommentResponse(created)
	return &resp, nil
}

func (s *commentService) List(ctx context.Context, p Principal, taskID string) ([]dto.CommentResponse, error) {
	if _, err := visibleTask(ctx, s.repo, p, taskID); err != nil {
		return nil, err
	}
	list, err := s.repo.Comment.ListByTask(ctx, taskID)
	if err != nil {
		s.logger.Error("查询评论失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.CommentResponse, 0, len(list))
	for i := range list {
		result = append(result, toCommentResponse(&list[i]))
	}
	return result, nil
}

func (s *commentService) Delete(ctx context.Context, p Principal, taskID, commentID string) error {
	c, err := s.repo.Comment.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if c.TaskID != taskID {
		return ErrCommentNotFound
	}
	if c.UserID != p.UserID && !p.IsAdmin() {
		return ErrForbidden
	}
	if err := s.repo.Comment.Delete(ctx, commentID, p.UserID); err != nil {
		s.logger.Error("删除评论失败", zap.String("id", commentID), zap.Error(err))
		return err
	}
	return nil
}
