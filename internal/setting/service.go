package setting

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/setting/entity"
)

// Settings read by the login page. Stored with category CategoryLoginTheme
// and metadata {"value": "..."}.
const (
	CategoryLoginTheme  = "login_theme"
	KeyRealmDisplayName = "realm_display_name"
	KeyDefaultCountry   = "default_country"
)

var ErrNotFound = errors.New("not found")

// Repository is implemented by *repo.Repo.
type Repository interface {
	GetByID(ctx context.Context, id string) (*entity.Setting, error)
	List(ctx context.Context, category string, limit, offset int) ([]*entity.Setting, error)
}

// Service encapsulates business logic for settings and depends on a repo.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// List returns settings by category with pagination. limit is capped at 100.
func (s *Service) List(ctx context.Context, category string, limit, offset int) ([]*entity.Setting, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, category, limit, offset)
}

// Get returns a setting by id.
func (s *Service) Get(ctx context.Context, id string) (*entity.Setting, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *Service) stringOr(ctx context.Context, id, fallback string) string {
	st, err := s.Get(ctx, id)
	if err != nil {
		return fallback
	}
	v, ok := st.StringValue()
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}

// RealmDisplayName returns the page header text, or fallback when unset.
func (s *Service) RealmDisplayName(ctx context.Context, fallback string) string {
	return s.stringOr(ctx, KeyRealmDisplayName, fallback)
}

// DefaultCountry returns the alpha-3 code preselected on the phone tab, or fallback.
func (s *Service) DefaultCountry(ctx context.Context, fallback string) string {
	return s.stringOr(ctx, KeyDefaultCountry, fallback)
}
