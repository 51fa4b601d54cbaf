package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"

	"github.com/FeyP/drupal-twitter-feed/internal/block"
	"github.com/FeyP/drupal-twitter-feed/internal/tokensource"
)

var (
	// ErrNoCredentials is returned when the store holds no API credentials.
	ErrNoCredentials = errors.New("no api credentials configured")
	// ErrReadOnlyStore is returned when writing to the env store.
	ErrReadOnlyStore = errors.New("credential store is read-only")
)

// keyringUser is the account name credentials are stored under.
const keyringUser = "api-credentials"

// CredentialStore persists the API key and secret. Writing empty credentials
// clears the store.
type CredentialStore interface {
	block.CredentialSource
	Write(ctx context.Context, credentials tokensource.Credentials) error
}

// NewCredentialStore creates the store selected by Storage.
func (a AuthConfig) NewCredentialStore() (CredentialStore, error) {
	switch a.Storage {
	case CredentialStorageEnv:
		return &EnvCredentialStore{credentials: tokensource.Credentials{APIKey: a.APIKey, APISecret: a.APISecret}}, nil
	case CredentialStorageFile:
		return &FileCredentialStore{path: a.File}, nil
	case CredentialStorageKeyring:
		return &KeyringCredentialStore{service: a.KeyringService}, nil
	default:
		return nil, fmt.Errorf("unknown credential storage %q (expected: env, file, keyring)", a.Storage)
	}
}

// EnvCredentialStore serves credentials taken from configuration, typically
// TWITTERFEED_AUTH__API_KEY and TWITTERFEED_AUTH__API_SECRET.
type EnvCredentialStore struct {
	credentials tokensource.Credentials
}

var _ CredentialStore = (*EnvCredentialStore)(nil)

// Read returns the configured credentials.
func (s *EnvCredentialStore) Read(ctx context.Context) (tokensource.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return tokensource.Credentials{}, err
	}
	if !s.credentials.Valid() {
		return tokensource.Credentials{}, ErrNoCredentials
	}
	return s.credentials, nil
}

// Write always fails; environment values cannot be changed at runtime.
func (s *EnvCredentialStore) Write(context.Context, tokensource.Credentials) error {
	return ErrReadOnlyStore
}

// FileCredentialStore keeps credentials in a JSON file readable only by the owner.
type FileCredentialStore struct {
	path string
}

var _ CredentialStore = (*FileCredentialStore)(nil)

// Read loads credentials from the file.
func (s *FileCredentialStore) Read(ctx context.Context) (tokensource.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return tokensource.Credentials{}, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return tokensource.Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return tokensource.Credentials{}, fmt.Errorf("reading credentials file: %w", err)
	}

	return decodeCredentials(data)
}

// Write replaces the file atomically, or removes it for empty credentials.
func (s *FileCredentialStore) Write(ctx context.Context, credentials tokensource.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if credentials == (tokensource.Credentials{}) {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing credentials file: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(credentials)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing credentials file: %w", err)
	}
	return nil
}

// KeyringCredentialStore keeps credentials in the OS keychain.
type KeyringCredentialStore struct {
	service string
}

var _ CredentialStore = (*KeyringCredentialStore)(nil)

// Read loads credentials from the keychain.
func (s *KeyringCredentialStore) Read(ctx context.Context) (tokensource.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return tokensource.Credentials{}, err
	}

	secret, err := keyring.Get(s.service, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return tokensource.Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return tokensource.Credentials{}, fmt.Errorf("reading keyring: %w", err)
	}

	return decodeCredentials([]byte(secret))
}

// Write stores credentials in the keychain, or deletes the entry for empty
// credentials.
func (s *KeyringCredentialStore) Write(ctx context.Context, credentials tokensource.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if credentials == (tokensource.Credentials{}) {
		if err := keyring.Delete(s.service, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("deleting keyring entry: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(credentials)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := keyring.Set(s.service, keyringUser, string(data)); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}

func decodeCredentials(data []byte) (tokensource.Credentials, error) {
	var credentials tokensource.Credentials
	if err := json.Unmarshal(data, &credentials); err != nil {
		return tokensource.Credentials{}, fmt.Errorf("decoding credentials: %w", err)
	}
	if !credentials.Valid() {
		return tokensource.Credentials{}, ErrNoCredentials
	}
	return credentials, nil
}
