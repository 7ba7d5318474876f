package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/lyipi/4bpchoquecoe/internal/dto"
	"github.com/lyipi/4bpchoquecoe/internal/repository"
)

// DefaultSearchLimit member picker results when the caller sets none.
const DefaultSearchLimit = 20

// UserService read access to the user directory.
type UserService interface {
	List(ctx context.Context) ([]dto.UserResponse, error)
	// Search matches name or username; an empty query lists the first users.
	Search(ctx context.Context, req *dto.UserSearchRequest) ([]dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.User.List(ctx)
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, err
	}
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	return out, nil
}

func (s *userService) Search(ctx context.Context, req *dto.UserSearchRequest) ([]dto.UserResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	users, err := s.repo.User.Search(ctx, strings.TrimSpace(req.Q), limit)
	if err != nil {
		s.logger.Error("search users failed", zap.String("q", req.Q), zap.Error(err))
		return nil, err
	}
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	return out, nil
}
