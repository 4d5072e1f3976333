package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
	"github.com/pomyannik/pomyannik/db"
)

// KeyringItemKey is the keyring entry holding the serialized credential.
const KeyringItemKey = "authData"

// repoStorer adapts db.CredentialRepository to TokenStorer.
type repoStorer struct{ repo db.CredentialRepository }

// NewRepoStorer stores the credential in the local SQLite database.
func NewRepoStorer(repo db.CredentialRepository) TokenStorer {
	return &repoStorer{repo: repo}
}

func (s *repoStorer) GetTokenRecord(ctx context.Context) (*db.Credential, error) {
	return s.repo.Get(ctx)
}

func (s *repoStorer) UpsertTokenRecord(ctx context.Context, c *db.Credential) error {
	return s.repo.Upsert(ctx, c)
}

func (s *repoStorer) DeleteTokenRecord(ctx context.Context) error {
	return s.repo.Delete(ctx)
}

// KeyringStorer stores the credential as one JSON item in an OS keyring.
type KeyringStorer struct {
	ring keyring.Keyring
}

// NewKeyringStorer wraps an opened keyring.
func NewKeyringStorer(ring keyring.Keyring) *KeyringStorer {
	return &KeyringStorer{ring: ring}
}

// OpenKeyring opens the platform keyring for serviceName, falling back to an
// encrypted file under fileDir.
func OpenKeyring(serviceName, fileDir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.FileBackend,
		},
		FileDir:          fileDir,
		FilePasswordFunc: keyring.FixedStringPrompt("Enter a password to encrypt your pomyannik credentials"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

func (s *KeyringStorer) GetTokenRecord(_ context.Context) (*db.Credential, error) {
	item, err := s.ring.Get(KeyringItemKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential from keyring: %w", err)
	}
	var c db.Credential
	if err := json.Unmarshal(item.Data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode stored credential: %w", err)
	}
	return &c, nil
}

func (s *KeyringStorer) UpsertTokenRecord(_ context.Context, c *db.Credential) error {
	if c == nil {
		return fmt.Errorf("credential is nil")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := s.ring.Set(keyring.Item{Key: KeyringItemKey, Data: data, Label: "pomyannik credentials"}); err != nil {
		return fmt.Errorf("failed to store credential in keyring: %w", err)
	}
	return nil
}

func (s *KeyringStorer) DeleteTokenRecord(_ context.Context) error {
	err := s.ring.Remove(KeyringItemKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove credential from keyring: %w", err)
	}
	return nil
}
