package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/pkg/imaging"
)

type PostRepository interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Upsert(ctx context.Context, post *models.Post) error
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	GetPendingByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	GetUnfiredDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Post, error)
	CheckByUserID(ctx context.Context, id string, userID int64) (bool, error)
	Remove(ctx context.Context, id string) error
	Watch(ctx context.Context, userID int64) (<-chan []*models.Post, error)
}

type postRepository struct {
	db  *sql.DB
	hub *Hub
}

func NewPostRepository(db *sql.DB, hub *Hub) PostRepository {
	return &postRepository{db: db, hub: hub}
}

const postColumns = `id, user_id, content, platforms, image, scheduled_time, status, platform_post_ids, post_results, created_at, posted_at`

func (r *postRepository) Upsert(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, content, platforms, image, scheduled_time, status, platform_post_ids, post_results, created_at, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
			platform_post_ids = EXCLUDED.platform_post_ids,
			post_results = EXCLUDED.post_results,
			posted_at = EXCLUDED.posted_at
	`

	platforms, err := json.Marshal(post.Platforms)
	if err != nil {
		return err
	}
	postIDs, err := json.Marshal(post.PlatformPostIDs)
	if err != nil {
		return err
	}
	results, err := json.Marshal(post.PostResults)
	if err != nil {
		return err
	}

	var image sql.NullString
	if post.Image != nil {
		image = sql.NullString{String: post.Image.DataURI(), Valid: true}
	}

	var postedAt sql.NullTime
	if post.PostedAt != nil {
		postedAt = sql.NullTime{Time: *post.PostedAt, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query,
		post.ID, post.UserID, post.Content, platforms, image,
		post.ScheduledTime, post.Status, postIDs, results,
		post.CreatedAt, postedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	r.hub.Notify(post.UserID)
	return nil
}

func scanPost(scan func(dest ...any) error) (*models.Post, error) {
	var (
		post                       models.Post
		platforms, postIDs, result []byte
		image                      sql.NullString
		postedAt                   sql.NullTime
	)

	err := scan(&post.ID, &post.UserID, &post.Content, &platforms, &image,
		&post.ScheduledTime, &post.Status, &postIDs, &result,
		&post.CreatedAt, &postedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(platforms, &post.Platforms); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(postIDs, &post.PlatformPostIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(result, &post.PostResults); err != nil {
		return nil, err
	}
	if image.Valid {
		payload, err := imaging.ParseDataURI(image.String)
		if err != nil {
			return nil, err
		}
		post.Image = payload
	}
	if postedAt.Valid {
		t := postedAt.Time
		post.PostedAt = &t
	}

	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY scheduled_time DESC`
	return r.queryPosts(ctx, query, userID)
}

func (r *postRepository) GetPendingByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 AND status = $2 ORDER BY scheduled_time ASC`
	return r.queryPosts(ctx, query, userID, models.PostStatusPending)
}

// GetUnfiredDueBefore returns pending posts past their due time that no
// publish pass has ever touched. Posts with recorded results are excluded:
// they already fired and their failures are the user's to retry, not the
// sweep's.
func (r *postRepository) GetUnfiredDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND scheduled_time < $2 AND post_results = '{}' ORDER BY scheduled_time ASC`
	return r.queryPosts(ctx, query, models.PostStatusPending, cutoff)
}

func (r *postRepository) CheckByUserID(ctx context.Context, id string, userID int64) (bool, error) {
	query := `SELECT 1 FROM posts WHERE id = $1 AND user_id = $2`

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

func (r *postRepository) Remove(ctx context.Context, id string) error {
	var userID int64
	err := r.db.QueryRowContext(ctx, `DELETE FROM posts WHERE id = $1 RETURNING user_id`, id).Scan(&userID)
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

// Watch yields the user's current full post set immediately, then again
// after every write to the collection. The channel closes when ctx ends.
func (r *postRepository) Watch(ctx context.Context, userID int64) (<-chan []*models.Post, error) {
	signal, cancel := r.hub.Subscribe(userID)

	out := make(chan []*models.Post, 1)
	current, err := r.GetByUserID(ctx, userID)
	if err != nil {
		cancel()
		return nil, err
	}
	out <- current

	go func() {
		defer cancel()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				posts, err := r.GetByUserID(ctx, userID)
				if err != nil {
					slog.Info(err.Error())
					continue
				}
				select {
				case out <- posts:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
