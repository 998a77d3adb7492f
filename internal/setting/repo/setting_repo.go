package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/setting/entity"
)

// Repo is the repository implementation for settings backed by PostgreSQL.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// GetByID returns a setting or sql.ErrNoRows.
func (r *Repo) GetByID(ctx context.Context, id string) (*entity.Setting, error) {
	const q = `SELECT id, COALESCE(parent_id,'') AS parent_id, COALESCE(root_id,'') AS root_id,
		COALESCE(record_meta,'{}'::jsonb) AS record_meta, COALESCE(category,'') AS category,
		COALESCE(metadata,'{}'::jsonb) AS metadata
	  FROM settings WHERE id=$1`
	var s entity.Setting
	if err := r.db.GetContext(ctx, &s, q, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns settings of a category (all when empty), ordered by id.
func (r *Repo) List(ctx context.Context, category string, limit, offset int) ([]*entity.Setting, error) {
	const q = `SELECT id, COALESCE(parent_id,'') AS parent_id, COALESCE(root_id,'') AS root_id,
		COALESCE(record_meta,'{}'::jsonb) AS record_meta, COALESCE(category,'') AS category,
		COALESCE(metadata,'{}'::jsonb) AS metadata
	  FROM settings WHERE ($1 = '' OR category = $1) ORDER BY id LIMIT $2 OFFSET $3`
	out := []*entity.Setting{}
	if err := r.db.SelectContext(ctx, &out, q, category, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}
