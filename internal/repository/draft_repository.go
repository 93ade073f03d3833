package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/pkg/imaging"
)

type DraftRepository interface {
	GetByID(ctx context.Context, id string) (*models.Draft, error)
	Upsert(ctx context.Context, draft *models.Draft) error
	GetByUserID(ctx context.Context, userID int64) ([]*models.Draft, error)
	CheckByUserID(ctx context.Context, id string, userID int64) (bool, error)
	Remove(ctx context.Context, id string) error
}

type draftRepository struct {
	db  *sql.DB
	hub *Hub
}

func NewDraftRepository(db *sql.DB, hub *Hub) DraftRepository {
	return &draftRepository{db: db, hub: hub}
}

const draftColumns = `id, user_id, content, platforms, image, created_at, updated_at`

func (r *draftRepository) Upsert(ctx context.Context, draft *models.Draft) error {
	query := `
		INSERT INTO drafts (id, user_id, content, platforms, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
			platforms = EXCLUDED.platforms,
			image = EXCLUDED.image,
			updated_at = EXCLUDED.updated_at
	`

	platforms, err := json.Marshal(draft.Platforms)
	if err != nil {
		return err
	}

	var image sql.NullString
	if draft.Image != nil {
		image = sql.NullString{String: draft.Image.DataURI(), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query,
		draft.ID, draft.UserID, draft.Content, platforms, image,
		draft.CreatedAt, draft.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	r.hub.Notify(draft.UserID)
	return nil
}

func scanDraft(scan func(dest ...any) error) (*models.Draft, error) {
	var (
		draft     models.Draft
		platforms []byte
		image     sql.NullString
	)

	err := scan(&draft.ID, &draft.UserID, &draft.Content, &platforms, &image,
		&draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(platforms, &draft.Platforms); err != nil {
		return nil, err
	}
	if image.Valid {
		payload, err := imaging.ParseDataURI(image.String)
		if err != nil {
			return nil, err
		}
		draft.Image = payload
	}

	return &draft, nil
}

func (r *draftRepository) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	draft, err := scanDraft(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return draft, nil
}

// Drafts list most recently touched first.
func (r *draftRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var drafts []*models.Draft
	for rows.Next() {
		draft, err := scanDraft(rows.Scan)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

func (r *draftRepository) CheckByUserID(ctx context.Context, id string, userID int64) (bool, error) {
	query := `SELECT 1 FROM drafts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *draftRepository) Remove(ctx context.Context, id string) error {
	var userID int64
	err := r.db.QueryRowContext(ctx, `DELETE FROM drafts WHERE id = $1 RETURNING user_id`, id).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		slog.Info(err.Error())
		return err
	}

	r.hub.Notify(userID)
	return nil
}
