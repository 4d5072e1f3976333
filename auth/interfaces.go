package auth

import (
	"context"

	"github.com/pomyannik/pomyannik/client"
	"github.com/pomyannik/pomyannik/db"
)

// TokenStorer defines the contract for any component that can durably store a credential.
// GetTokenRecord returns nil, nil when nothing is stored.
type TokenStorer interface {
	GetTokenRecord(ctx context.Context) (*db.Credential, error)
	UpsertTokenRecord(ctx context.Context, c *db.Credential) error
	DeleteTokenRecord(ctx context.Context) error
}

// TokenRefresher defines the contract for any component that can exchange a refresh token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*client.TokenResponse, error)
}

// Authenticator is the network side of the session: login, registration and refresh.
type Authenticator interface {
	TokenRefresher
	Login(ctx context.Context, username, password string) (*client.TokenResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (*client.User, error)
}
