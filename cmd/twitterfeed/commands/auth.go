package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/FeyP/drupal-twitter-feed/internal/app"
	"github.com/FeyP/drupal-twitter-feed/internal/tokensource"
)

// readSecret is replaced in tests.
var readSecret = readSecureInput

// authCommand returns the 'auth' subcommand for managing API credentials.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage API credentials",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Verify and save an API key and secret",
				Action: authLoginAction,
			},
			{
				Name:   "logout",
				Usage:  "Clear saved credentials",
				Action: authLogoutAction,
			},
			{
				Name:   "check",
				Usage:  "Exchange the stored credentials for a bearer token",
				Action: authCheckAction,
			},
		},
	}
}

// writableStore returns the configured store, refusing the read-only env store.
func writableStore(cmd *cli.Command, action string) (*app.Config, app.CredentialStore, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Auth.Storage == app.CredentialStorageEnv {
		return nil, nil, fmt.Errorf("cannot %s with env storage (read-only). Configure file or keyring storage", action)
	}

	store, err := cfg.Auth.NewCredentialStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create credential store: %w", err)
	}
	return cfg, store, nil
}

func authLoginAction(ctx context.Context, cmd *cli.Command) error {
	cfg, store, err := writableStore(cmd, "login")
	if err != nil {
		return err
	}

	w := cmd.Root().Writer

	key, err := readSecret(ctx, "API key: ")
	if err != nil {
		return err
	}
	secret, err := readSecret(ctx, "API secret: ")
	if err != nil {
		return err
	}

	credentials := tokensource.Credentials{
		APIKey:    strings.TrimSpace(key),
		APISecret: strings.TrimSpace(secret),
	}
	if !credentials.Valid() {
		return errors.New("API key and secret cannot be empty")
	}

	if err := verifyCredentials(ctx, cfg, credentials); err != nil {
		return err
	}

	if err := store.Write(ctx, credentials); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Login Successful ===")
	fmt.Fprintf(w, "Credentials saved to %s storage\n", cfg.Auth.Storage)

	return nil
}

func authLogoutAction(ctx context.Context, cmd *cli.Command) error {
	_, store, err := writableStore(cmd, "logout")
	if err != nil {
		return err
	}

	// Empty credentials clear the store.
	if err := store.Write(ctx, tokensource.Credentials{}); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	w := cmd.Root().Writer
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Logout Successful ===")
	fmt.Fprintln(w, "Credentials cleared from configured storage")

	return nil
}

func authCheckAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	store, err := cfg.Auth.NewCredentialStore()
	if err != nil {
		return fmt.Errorf("failed to create credential store: %w", err)
	}

	credentials, err := store.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	if err := verifyCredentials(ctx, cfg, credentials); err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, "Credentials are valid")
	return err
}

// verifyCredentials performs one token exchange. The token is discarded.
func verifyCredentials(ctx context.Context, cfg *app.Config, credentials tokensource.Credentials) error {
	provider := tokensource.New(credentials,
		tokensource.WithHTTPClient(cfg.HTTPClient()),
		tokensource.WithEndpoint(oauth2.Endpoint{TokenURL: cfg.API.TokenURL, AuthStyle: oauth2.AuthStyleInHeader}),
		tokensource.WithUserAgent(cfg.API.UserAgent),
	)
	if _, err := provider.Token(ctx); err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}
	return nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// Goroutine+select pattern required because term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
