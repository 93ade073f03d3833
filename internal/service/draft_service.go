package service

import (
	"context"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/internal/repository"
	"github.com/sambecker/postdeck/internal/transfer"
)

type DraftService interface {
	Save(ctx context.Context, userID int64, ds *transfer.DraftSave) (*models.Draft, error)
	List(ctx context.Context, userID int64) ([]*models.Draft, error)
	Load(ctx context.Context, userID int64, draftID string) (*models.Draft, error)
	Remove(ctx context.Context, userID int64, draftID string) error
}

type draftService struct {
	dr  repository.DraftRepository
	now func() time.Time
}

func NewDraftService(dr repository.DraftRepository) DraftService {
	return &draftService{dr: dr, now: time.Now}
}

// Save upserts a draft. An entirely empty draft (no text, no image) is
// rejected rather than stored.
func (s *draftService) Save(ctx context.Context, userID int64, ds *transfer.DraftSave) (*models.Draft, error) {
	if ds == nil {
		return nil, &ValidationError{Field: "draft", Reason: "draft payload is nil"}
	}

	now := s.now()
	draft := &models.Draft{
		ID:        ds.ID,
		UserID:    userID,
		Content:   ds.Content,
		Platforms: ds.Platforms,
		Image:     ds.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if draft.IsEmpty() {
		return nil, &ValidationError{Field: "draft", Reason: "draft needs text or an image"}
	}

	if draft.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		draft.ID = id
	} else {
		existing, err := s.ownedDraft(ctx, userID, draft.ID)
		if err != nil {
			return nil, err
		}
		draft.CreatedAt = existing.CreatedAt
	}

	if err := s.dr.Upsert(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *draftService) List(ctx context.Context, userID int64) ([]*models.Draft, error) {
	drafts, err := s.dr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

// Load returns the draft to seed a new composition session. The draft is
// untouched; deleting it after use is the caller's call.
func (s *draftService) Load(ctx context.Context, userID int64, draftID string) (*models.Draft, error) {
	return s.ownedDraft(ctx, userID, draftID)
}

func (s *draftService) Remove(ctx context.Context, userID int64, draftID string) error {
	if _, err := s.ownedDraft(ctx, userID, draftID); err != nil {
		return err
	}
	return s.dr.Remove(ctx, draftID)
}

func (s *draftService) ownedDraft(ctx context.Context, userID int64, draftID string) (*models.Draft, error) {
	if draftID == "" {
		err := &ValidationError{Field: "draft", Reason: "draft id is not valid"}
		slog.Info(err.Error())
		return nil, err
	}

	owned, err := s.dr.CheckByUserID(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		err := &ValidationError{Field: "draft", Reason: "draft doesn't exist"}
		slog.Info(err.Error())
		return nil, err
	}

	draft, err := s.dr.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, &ValidationError{Field: "draft", Reason: "draft doesn't exist"}
	}
	return draft, nil
}
