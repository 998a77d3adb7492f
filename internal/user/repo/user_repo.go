package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/user/entity"
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const selectUser = `SELECT id, username, email, email_verified, phone_number, phone_verified,
		password_hash, password_algo, password_updated_at, must_reset_password,
		status, login_failed_attempts, locked_until, last_login_at, user_type,
		version, security_metadata, attributes, created_at, updated_at, deactivated_at
	  FROM users `

// Create inserts a new user row (minimal fields). Returns new ID.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) (int64, error) {
	q := `INSERT INTO users (username,email,email_verified,phone_number,phone_verified,password_hash,password_algo,must_reset_password,status,user_type,version,security_metadata,attributes)
		  VALUES (:username,:email,:email_verified,:phone_number,:phone_verified,:password_hash,:password_algo,:must_reset_password,:status,:user_type,:version,COALESCE(:security_metadata,'{}'::jsonb),COALESCE(:attributes,'{}'::jsonb)) RETURNING id`
	secRaw := json.RawMessage("{}")
	if len(u.SecurityMetadataRaw) > 0 {
		secRaw = json.RawMessage(u.SecurityMetadataRaw)
	}
	attrRaw := json.RawMessage("{}")
	if len(u.AttributesRaw) > 0 {
		attrRaw = json.RawMessage(u.AttributesRaw)
	}
	params := map[string]any{
		"username":            u.Username,
		"email":               u.Email,
		"email_verified":      u.EmailVerified,
		"phone_number":        u.PhoneNumber,
		"phone_verified":      u.PhoneVerified,
		"password_hash":       u.PasswordHash,
		"password_algo":       u.PasswordAlgo,
		"must_reset_password": u.MustResetPassword,
		"status":              u.Status,
		"user_type":           u.UserType,
		"version":             u.Version,
		"security_metadata":   secRaw,
		"attributes":          attrRaw,
	}
	rows, err := r.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&u.ID); err != nil {
			return 0, err
		}
		return u.ID, nil
	}
	return 0, errors.New("no id returned")
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	var row entity.User
	if err := r.db.GetContext(ctx, &row, selectUser+where, arg); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByEmail returns a user matched by email (case-insensitive due to citext) or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, "WHERE email=$1", email)
}

// GetByUsername fetches by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, "WHERE username=$1", username)
}

// GetByPhone fetches by E.164 phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.getOne(ctx, "WHERE phone_number=$1", phone)
}

// GetMinimalAuthView returns only the fields needed for token claim hydration.
func (r *UserRepo) GetMinimalAuthView(ctx context.Context, id int64) (*entity.MinimalAuthView, error) {
	const q = `SELECT id, user_type, version, email, email_verified, phone_number, phone_verified FROM users WHERE id=$1`
	var v entity.MinimalAuthView
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		return nil, err
	}
	return &v, nil
}

// IncrementFailedLogin increments the failure counter atomically and returns new value.
func (r *UserRepo) IncrementFailedLogin(ctx context.Context, id int64) (int, error) {
	const q = `UPDATE users SET login_failed_attempts = login_failed_attempts + 1, updated_at=NOW() WHERE id=$1 RETURNING login_failed_attempts`
	var v int
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		return 0, err
	}
	return v, nil
}

// LockIfThreshold locks the user if attempts >= threshold and currently active.
func (r *UserRepo) LockIfThreshold(ctx context.Context, id int64, threshold int, lockMinutes int) (bool, error) {
	const q = `UPDATE users SET status='locked', locked_until = NOW() + ($2 || ' minutes')::interval, updated_at=NOW()
              WHERE id=$1 AND status='active' AND login_failed_attempts >= $3 RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id, lockMinutes, threshold)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ResetLoginSuccess resets failure metrics on successful authentication.
func (r *UserRepo) ResetLoginSuccess(ctx context.Context, id int64) error {
	const q = `UPDATE users SET login_failed_attempts=0, last_login_at=NOW(), locked_until=NULL, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// UnlockIfExpired sets status back to active if locked_until passed.
func (r *UserRepo) UnlockIfExpired(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE users SET status='active', locked_until=NULL, updated_at=NOW()
               WHERE id=$1 AND status='locked' AND locked_until IS NOT NULL AND locked_until < NOW() RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MarkPhoneVerified records that the holder of the number proved possession with an OTP.
func (r *UserRepo) MarkPhoneVerified(ctx context.Context, id int64) error {
	const q = `UPDATE users SET phone_verified=true, updated_at=NOW() WHERE id=$1 AND phone_verified=false`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// UpdatePassword updates password hash & algo.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash, algo string) error {
	const q = `UPDATE users SET password_hash=$2, password_algo=$3, password_updated_at=NOW(), updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, hash, algo)
	return err
}
