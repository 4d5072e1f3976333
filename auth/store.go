package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/pomyannik/pomyannik/db"
	"github.com/rs/zerolog/log"
)

// TokenStore is the single owner of the persisted credential. Reads and
// writes are serialized; a read after a write observes the write.
type TokenStore struct {
	mu     sync.Mutex
	storer TokenStorer
	cred   *db.Credential
	loaded bool

	subsMu sync.Mutex
	subs   map[int]func(*db.Credential)
	nextID int
}

// NewTokenStore creates a store backed by storer. The credential is loaded on first use.
func NewTokenStore(storer TokenStorer) *TokenStore {
	return &TokenStore{storer: storer, subs: make(map[int]func(*db.Credential))}
}

// load reads the durable credential once. Callers hold s.mu.
func (s *TokenStore) load() error {
	if s.loaded {
		return nil
	}
	c, err := s.storer.GetTokenRecord(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	s.cred = c
	s.loaded = true
	return nil
}

// GetToken returns a copy of the stored credential, or nil when logged out.
func (s *TokenStore) GetToken() (*db.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.cred.Clone(), nil
}

// SetToken replaces the credential. A nil credential is the same as RemoveToken.
// When persisting fails the previous credential stays in place.
func (s *TokenStore) SetToken(c *db.Credential) error {
	if c == nil {
		return s.RemoveToken()
	}
	next := c.Clone()

	s.mu.Lock()
	if err := s.storer.UpsertTokenRecord(context.Background(), next); err != nil {
		s.mu.Unlock()
		log.Error().Err(err).Msg("Failed to persist credential")
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	s.cred = next
	s.loaded = true
	s.mu.Unlock()

	s.notify(next)
	return nil
}

// RemoveToken clears the credential from memory and durable storage. Memory is
// cleared even when the durable delete fails.
func (s *TokenStore) RemoveToken() error {
	s.mu.Lock()
	s.cred = nil
	s.loaded = true
	err := s.storer.DeleteTokenRecord(context.Background())
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("Failed to delete stored credential")
		err = fmt.Errorf("failed to delete credential: %w", err)
	}
	s.notify(nil)
	return err
}

// GetAccessToken returns the access token, "" when absent.
func (s *TokenStore) GetAccessToken() string {
	c, err := s.GetToken()
	if err != nil || c == nil {
		return ""
	}
	return c.AccessToken
}

// GetRefreshToken returns the refresh token, "" when absent.
func (s *TokenStore) GetRefreshToken() string {
	c, err := s.GetToken()
	if err != nil || c == nil {
		return ""
	}
	return c.RefreshToken
}

// IsAuthenticated reports whether a credential with an access token is stored.
func (s *TokenStore) IsAuthenticated() bool {
	return s.GetAccessToken() != ""
}

// Subscribe registers fn to be called with a copy of the credential after
// every change (nil after removal). The returned func unsubscribes.
func (s *TokenStore) Subscribe(fn func(*db.Credential)) func() {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *TokenStore) notify(c *db.Credential) {
	s.subsMu.Lock()
	fns := make([]func(*db.Credential), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(c.Clone())
	}
}
