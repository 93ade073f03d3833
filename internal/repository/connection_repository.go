package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/pkg/utils"
)

// ConnectionRepository reads the platform authorizations some external
// OAuth flow has written. Tokens are stored encrypted at rest and come
// back decrypted.
type ConnectionRepository interface {
	GetByUserPlatform(ctx context.Context, userID int64, platform string) (*models.Connection, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error)
}

type connectionRepository struct {
	db        *sql.DB
	secretKey []byte
}

func NewConnectionRepository(db *sql.DB, secretKey []byte) ConnectionRepository {
	return &connectionRepository{db: db, secretKey: secretKey}
}

const connectionColumns = `id, user_id, platform, account_name, account_username, access_token, refresh_token, token_expires_at, created_at`

func (r *connectionRepository) GetByUserPlatform(ctx context.Context, userID int64, platform string) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = $1 AND platform = $2`
	row := r.db.QueryRowContext(ctx, query, userID, platform)

	conn, err := r.scanConnection(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return conn, nil
}

func (r *connectionRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var conns []*models.Connection
	for rows.Next() {
		conn, err := r.scanConnection(rows.Scan)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

func (r *connectionRepository) scanConnection(scan func(dest ...any) error) (*models.Connection, error) {
	var conn models.Connection
	err := scan(&conn.ID, &conn.UserID, &conn.Platform, &conn.AccountName,
		&conn.AccountUsername, &conn.AccessToken, &conn.RefreshToken,
		&conn.TokenExpiresAt, &conn.CreatedAt)
	if err != nil {
		return nil, err
	}

	if conn.AccessToken != "" {
		conn.AccessToken, err = utils.OpenToken(conn.AccessToken, r.secretKey)
		if err != nil {
			return nil, err
		}
	}
	if conn.RefreshToken != "" {
		conn.RefreshToken, err = utils.OpenToken(conn.RefreshToken, r.secretKey)
		if err != nil {
			return nil, err
		}
	}

	return &conn, nil
}
