package app

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/FeyP/drupal-twitter-feed/internal/block"
	"github.com/FeyP/drupal-twitter-feed/internal/linkify"
	"github.com/FeyP/drupal-twitter-feed/internal/timeline"
	"github.com/FeyP/drupal-twitter-feed/internal/tokensource"
)

// EnvPrefix prefixes every environment variable read into the config.
// Nested keys are separated by a double underscore, e.g.
// TWITTERFEED_AUTH__API_KEY sets auth.api_key.
const EnvPrefix = "TWITTERFEED_"

// DefaultMaxTweets bounds the selectable tweet count when not configured.
const DefaultMaxTweets = 10

// CredentialStorageType selects where API credentials are read from.
type CredentialStorageType string

const (
	CredentialStorageEnv     CredentialStorageType = "env"
	CredentialStorageFile    CredentialStorageType = "file"
	CredentialStorageKeyring CredentialStorageType = "keyring"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig              `koanf:"server"`
	HTTP      HTTPConfig                `koanf:"http"`
	API       APIConfig                 `koanf:"api"`
	Auth      AuthConfig                `koanf:"auth"`
	MaxTweets int                       `koanf:"max_tweets" validate:"gte=0,lte=200"`
	Blocks    map[string]block.Settings `koanf:"blocks" validate:"dive"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// HTTPConfig configures the client used for upstream calls.
type HTTPConfig struct {
	// Timeout bounds each upstream request; zero disables the limit.
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// APIConfig locates the upstream API.
type APIConfig struct {
	BaseURL     string `koanf:"base_url" validate:"required,url"`
	TokenURL    string `koanf:"token_url" validate:"required,url"`
	UserAgent   string `koanf:"user_agent" validate:"required"`
	LinkBaseURL string `koanf:"link_base_url" validate:"required,url"`
}

// AuthConfig selects and configures the credential store.
type AuthConfig struct {
	Storage        CredentialStorageType `koanf:"storage" validate:"required,oneof=env file keyring"`
	APIKey         string                `koanf:"api_key"`
	APISecret      string                `koanf:"api_secret"`
	File           string                `koanf:"file" validate:"required_if=Storage file"`
	KeyringService string                `koanf:"keyring_service" validate:"required_if=Storage keyring"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that every block fits MaxTweets.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	var errs []error
	for id, settings := range c.Blocks {
		if err := settings.Validate(c.MaxTweets); err != nil {
			errs = append(errs, fmt.Errorf("blocks.%s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// HTTPClient returns the client shared by the token and timeline calls.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.HTTP.Timeout}
}

// NewRenderer wires a block renderer to the configured credential store.
func (c *Config) NewRenderer() (*block.Renderer, error) {
	store, err := c.Auth.NewCredentialStore()
	if err != nil {
		return nil, err
	}

	return block.NewRenderer(block.Config{
		Credentials: store,
		HTTPClient:  c.HTTPClient(),
		TokenURL:    c.API.TokenURL,
		APIBaseURL:  c.API.BaseURL,
		UserAgent:   c.API.UserAgent,
		LinkBaseURL: c.API.LinkBaseURL,
	}), nil
}

// defaults are the lowest-priority configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"server.addr":          "127.0.0.1:4000",
		"http.timeout":         "10s",
		"api.base_url":         timeline.DefaultBaseURL,
		"api.token_url":        tokensource.DefaultTokenURL,
		"api.user_agent":       tokensource.DefaultUserAgent,
		"api.link_base_url":    linkify.DefaultBaseURL,
		"auth.storage":         string(CredentialStorageEnv),
		"auth.keyring_service": "twitterfeed",
		"max_tweets":           DefaultMaxTweets,
	}
}

// LoadOptions describes the configuration sources in addition to defaults.
type LoadOptions struct {
	// Path of a .toml, .yaml or .yml file. Optional.
	Path string
	// EnvFile is a dotenv file whose variables act as if exported, without
	// overriding variables already present in Environ. Optional.
	EnvFile string
	// Environ returns the process environment, usually os.Environ.
	Environ func() []string
	// Overrides take precedence over every other source, e.g. CLI flags.
	Overrides map[string]any
}

// LoadConfig merges defaults, the config file, the environment and overrides,
// in increasing order of precedence, and validates the result.
func LoadConfig(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if opts.Path != "" {
		parser, err := parserFor(opts.Path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(opts.Path), parser); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", opts.Path, err)
		}
	}

	environ, err := withEnvFile(opts.Environ, opts.EnvFile)
	if err != nil {
		return nil, err
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
		EnvironFunc:   environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("loading overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// envKey maps TWITTERFEED_AUTH__API_KEY to auth.api_key.
func envKey(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.ReplaceAll(key, "__", "."), v
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (expected: .toml, .yaml, .yml)", filepath.Ext(path))
	}
}

// withEnvFile appends variables from a dotenv file that are not already set.
func withEnvFile(environ func() []string, envFile string) (func() []string, error) {
	if environ == nil {
		environ = func() []string { return nil }
	}
	if envFile == "" {
		return environ, nil
	}

	fromFile, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
	}

	return func() []string {
		vars := environ()
		set := make(map[string]bool, len(vars))
		for _, kv := range vars {
			name, _, _ := strings.Cut(kv, "=")
			set[name] = true
		}
		for name, value := range fromFile {
			if !set[name] {
				vars = append(vars, name+"="+value)
			}
		}
		return vars
	}, nil
}
