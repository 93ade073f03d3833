package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/internal/repository"
)

// PostService is the read side of the post collection.
type PostService interface {
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID string, userID int64) (*models.Post, error)
	Watch(ctx context.Context, userID int64) (<-chan []*models.Post, error)
}

type postService struct {
	pr repository.PostRepository
}

func NewPostService(pr repository.PostRepository) PostService {
	return &postService{pr: pr}
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID string, userID int64) (*models.Post, error) {
	if postID == "" {
		err := &ValidationError{Field: "post", Reason: "post id is not valid"}
		slog.Info(err.Error())
		return nil, err
	}

	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		err := &ValidationError{Field: "post", Reason: "post doesn't exist"}
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	return post, nil
}

// Watch exposes the live-change subscription: the current full set now,
// then a fresh snapshot after every write.
func (s *postService) Watch(ctx context.Context, userID int64) (<-chan []*models.Post, error) {
	return s.pr.Watch(ctx, userID)
}
