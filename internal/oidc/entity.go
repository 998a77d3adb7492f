package oidc

import "time"

// RefreshSession represents a persisted refresh session.
type RefreshSession struct {
	ID        int64
	UserID    int64
	ClientID  string
	ExpiresAt time.Time
}

// TokenSet is the result of a successful sign-in or refresh.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}
