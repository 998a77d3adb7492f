package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Session is a row of oidc_refresh_sessions.
type Session struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ClientID  string    `db:"client_id"`
	ExpiresAt time.Time `db:"expires_at"`
}

type RefreshRepo struct {
	db *sqlx.DB
}

func NewRefreshRepo(db *sqlx.DB) *RefreshRepo {
	return &RefreshRepo{db: db}
}

func (r *RefreshRepo) Save(ctx context.Context, token string, userID int64, clientID string, expiresAt time.Time) (int64, error) {
	query := `INSERT INTO oidc_refresh_sessions (token, user_id, client_id, expires_at) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int64
	if err := r.db.GetContext(ctx, &id, query, token, userID, clientID, expiresAt); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *RefreshRepo) Get(ctx context.Context, token string) (*Session, error) {
	var s Session
	query := `SELECT id, user_id, client_id, expires_at FROM oidc_refresh_sessions WHERE token = $1`
	if err := r.db.GetContext(ctx, &s, query, token); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RefreshRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM oidc_refresh_sessions WHERE token = $1`, token)
	return err
}
