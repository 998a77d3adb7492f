package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	repo "github.com/ovaphlow/pitchfork/service-login-go/internal/oidc/repo"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/user/entity"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 30 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// RefreshStore persists opaque refresh tokens. *repo.RefreshRepo implements it.
type RefreshStore interface {
	Save(ctx context.Context, token string, userID int64, clientID string, expiresAt time.Time) (int64, error)
	Get(ctx context.Context, token string) (*repo.Session, error)
	Delete(ctx context.Context, token string) error
}

// OIDCService manages signing keys and token issuance.
type OIDCService struct {
	key     *rsa.PrivateKey
	kid     string
	issuer  string
	refresh RefreshStore
	nowF    func() time.Time
}

// NewOIDCService generates an in-memory RSA signing key. Tokens do not
// survive a restart of the process.
func NewOIDCService(refresh RefreshStore, issuer string) (*OIDCService, error) {
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalPKIXPublicKey(&k.PublicKey)
	if err != nil {
		return nil, err
	}
	h := sha256.Sum256(der)
	kid := base64.RawURLEncoding.EncodeToString(h[:8])
	return &OIDCService{key: k, kid: kid, issuer: issuer, refresh: refresh, nowF: time.Now}, nil
}

func (s *OIDCService) Issuer() string { return s.issuer }

// JWKS returns a minimal JWKS containing the public key.
func (s *OIDCService) JWKS() map[string]any {
	pub := s.key.PublicKey
	jwk := map[string]any{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": s.kid,
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
	return map[string]any{"keys": []any{jwk}}
}

// PublicKey returns the RSA public key for verification.
func (s *OIDCService) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}

func (s *OIDCService) sign(claims jwt.MapClaims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.kid
	return tok.SignedString(s.key)
}

// IssueTokens creates an id_token, an access_token and a persisted refresh token for the given user.
func (s *OIDCService) IssueTokens(ctx context.Context, u *entity.MinimalAuthView, audience string) (*TokenSet, error) {
	now := s.nowF()
	sub := fmt.Sprintf("%d", u.ID)

	idClaims := jwt.MapClaims{
		"iss":            s.issuer,
		"sub":            sub,
		"aud":            audience,
		"exp":            now.Add(AccessTTL).Unix(),
		"iat":            now.Unix(),
		"v":              u.Version,
		"user_type":      u.UserType,
		"email":          u.Email,
		"email_verified": u.EmailVerified,
	}
	if u.PhoneNumber != nil {
		idClaims["phone_number"] = *u.PhoneNumber
		idClaims["phone_number_verified"] = u.PhoneVerified
	}
	signedID, err := s.sign(idClaims)
	if err != nil {
		return nil, err
	}

	signedAccess, err := s.sign(jwt.MapClaims{
		"iss":       s.issuer,
		"sub":       sub,
		"aud":       audience,
		"exp":       now.Add(AccessTTL).Unix(),
		"iat":       now.Unix(),
		"v":         u.Version,
		"user_type": u.UserType,
		"email":     u.Email,
	})
	if err != nil {
		return nil, err
	}

	rtBytes := make([]byte, 32)
	if _, err := rand.Read(rtBytes); err != nil {
		return nil, err
	}
	refresh := base64.RawURLEncoding.EncodeToString(rtBytes)
	if _, err := s.refresh.Save(ctx, refresh, u.ID, audience, now.Add(RefreshTTL)); err != nil {
		return nil, fmt.Errorf("save refresh session: %w", err)
	}

	return &TokenSet{
		AccessToken:  signedAccess,
		IDToken:      signedID,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(AccessTTL.Seconds()),
	}, nil
}

// ParseToken verifies a JWT issued by this service and returns its claims.
func (s *OIDCService) ParseToken(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.PublicKey(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.nowF),
	)
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefreshToken checks an opaque refresh token and returns the session if valid.
func (s *OIDCService) ValidateRefreshToken(ctx context.Context, token string) (*RefreshSession, bool) {
	row, err := s.refresh.Get(ctx, token)
	if err != nil {
		return nil, false
	}
	if row.ExpiresAt.Before(s.nowF()) {
		return nil, false
	}
	return &RefreshSession{ID: row.ID, UserID: row.UserID, ClientID: row.ClientID, ExpiresAt: row.ExpiresAt}, true
}

// RevokeRefreshToken removes a refresh token from store.
func (s *OIDCService) RevokeRefreshToken(ctx context.Context, token string) error {
	return s.refresh.Delete(ctx, token)
}
