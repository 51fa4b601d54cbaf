package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/FeyP/drupal-twitter-feed/internal/tokensource"
)

var testCredentials = tokensource.Credentials{APIKey: "key", APISecret: "secret"}

func TestEnvCredentialStore(t *testing.T) {
	store, err := AuthConfig{Storage: CredentialStorageEnv, APIKey: "key", APISecret: "secret"}.NewCredentialStore()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	got, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != testCredentials {
		t.Errorf("credentials = %+v", got)
	}

	if err := store.Write(context.Background(), testCredentials); !errors.Is(err, ErrReadOnlyStore) {
		t.Errorf("write err = %v, want ErrReadOnlyStore", err)
	}
}

func TestEnvCredentialStore_Missing(t *testing.T) {
	store := &EnvCredentialStore{credentials: tokensource.Credentials{APIKey: "key"}}
	if _, err := store.Read(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("err = %v, want ErrNoCredentials", err)
	}
}

func TestFileCredentialStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	store, err := AuthConfig{Storage: CredentialStorageFile, File: path}.NewCredentialStore()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Read(ctx); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("read before write err = %v, want ErrNoCredentials", err)
	}

	if err := store.Write(ctx, testCredentials); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != testCredentials {
		t.Errorf("credentials = %+v", got)
	}

	if err := store.Write(ctx, tokensource.Credentials{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stat after clear err = %v, want not exist", err)
	}
	if err := store.Write(ctx, tokensource.Credentials{}); err != nil {
		t.Errorf("clearing twice: %v", err)
	}
}

func TestFileCredentialStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := &FileCredentialStore{path: path}
	if _, err := store.Read(context.Background()); err == nil || errors.Is(err, ErrNoCredentials) {
		t.Errorf("err = %v, want decode error", err)
	}
}

func TestKeyringCredentialStore(t *testing.T) {
	keyring.MockInit()

	store, err := AuthConfig{Storage: CredentialStorageKeyring, KeyringService: "twitterfeed-test"}.NewCredentialStore()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Read(ctx); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("read before write err = %v, want ErrNoCredentials", err)
	}

	if err := store.Write(ctx, testCredentials); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != testCredentials {
		t.Errorf("credentials = %+v", got)
	}

	if err := store.Write(ctx, tokensource.Credentials{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Read(ctx); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("read after clear err = %v, want ErrNoCredentials", err)
	}
}

func TestCredentialStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &FileCredentialStore{path: filepath.Join(t.TempDir(), "c.json")}
	if _, err := store.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewCredentialStore_Unknown(t *testing.T) {
	if _, err := (AuthConfig{Storage: "vault"}).NewCredentialStore(); err == nil {
		t.Fatal("expected error for unknown storage")
	}
}
