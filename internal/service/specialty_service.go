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
)

// ── 专业模块业务错误 ──

var (
	ErrSpecialtyNotFound   = errors.New("specialty not found")
	ErrSpecialtyNameExists = errors.New("a specialty with this name already exists")
	ErrSpecialtyInUse      = errors.New("specialty still has members and cannot be deleted")
)

// SpecialtyService 专业业务接口
type SpecialtyService interface {
	Create(ctx context.Context, p Principal, req *dto.CreateSpecialtyRequest) (*dto.SpecialtyResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SpecialtyResponse, error)
	List(ctx context.Context) ([]dto.SpecialtyResponse, error)
	Update(ctx context.Context, p Principal, id string, req *dto.UpdateSpecialtyRequest) (*dto.SpecialtyResponse, error)
	// Delete 仍有实习生或指导老师时拒绝删除
	Delete(ctx context.Context, p Principal, id string) error
}

type specialtyService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSpecialtyService 创建 SpecialtyService 实例
func NewSpecialtyService(repo *repository.Repository, logger *zap.Logger) SpecialtyService {
	return &specialtyService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *specialtyService) Create(ctx context.Context, p Principal, req *dto.CreateSpecialtyRequest) (*dto.SpecialtyResponse, error) {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)

	// 检查名称唯一性
	existing, err := s.repo.Specialty.GetByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询专业失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrSpecialtyNameExists
	}

	specialty := &model.Specialty{Name: name, Description: req.Description}
	specialty.CreatedBy = &p.UserID
	specialty.UpdatedBy = &p.UserID

	if err := s.repo.Specialty.Create(ctx, specialty); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSpecialtyNameExists
		}
		s.logger.Error("创建专业失败", zap.Error(err))
		return nil, err
	}
	return toSpecialtyResponse(specialty, 0), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *specialtyService) GetByID(ctx context.Context, id string) (*dto.SpecialtyResponse, error) {
	specialty, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.Specialty.CountMembers(ctx, id)
	if err != nil {
		s.logger.Error("统计专业成员失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toSpecialtyResponse(specialty, count), nil
}

func (s *specialtyService) List(ctx context.Context) ([]dto.SpecialtyResponse, error) {
	specialties, err := s.repo.Specialty.List(ctx)
	if err != nil {
		s.logger.Error("列出专业失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SpecialtyResponse, 0, len(specialties))
	for i := range specialties {
		count, err := s.repo.Specialty.CountMembers(ctx, specialties[i].SpecialtyID)
		if err != nil {
			s.logger.Warn("统计专业成员失败", zap.String("id", specialties[i].SpecialtyID), zap.Error(err))
		}
		result = append(result, *toSpecialtyResponse(&specialties[i], count))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *specialtyService) Update(ctx context.Context, p Principal, id string, req *dto.UpdateSpecialtyRequest) (*dto.SpecialtyResponse, error) {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return nil, err
	}
	specialty, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != specialty.Name {
			existing, err := s.repo.Specialty.GetByName(ctx, name)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if existing != nil && existing.SpecialtyID != id {
				return nil, ErrSpecialtyNameExists
			}
		}
		specialty.Name = name
	}
	if req.Description != nil {
		specialty.Description = *req.Description
	}
	// 客户端持有的版本号参与乐观锁比较
	specialty.Version = req.Version
	specialty.UpdatedBy = &p.UserID

	if err := s.repo.Specialty.Update(ctx, specialty); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSpecialtyNameExists
		}
		s.logger.Error("更新专业失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *specialtyService) Delete(ctx context.Context, p Principal, id string) error {
	if err := requireRole(p, model.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.Specialty.CountMembers(ctx, id)
	if err != nil {
		s.logger.Error("统计专业成员失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrSpecialtyInUse
	}

	if err := s.repo.Specialty.Delete(ctx, id, p.UserID); err != nil {
		s.logger.Error("删除专业失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *specialtyService) get(ctx context.Context, id string) (*model.Specialty, error) {
	specialty, err := s.repo.Specialty.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecialtyNotFound
		}
		s.logger.Error("查询专业失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return specialty, nil
}

func toSpecialtyResponse(sp *model.Specialty, members int64) *dto.SpecialtyResponse {
	return &dto.SpecialtyResponse{
		ID:          sp.SpecialtyID,
		Name:        sp.Name,
		Description: sp.Description,
		MemberCount: members,
		Version:     sp.Version,
		CreatedAt:   formatTime(&sp.CreatedAt),
	}
}
