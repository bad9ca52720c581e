package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notegraph/internal/aigateway"
	"github.com/starford/notegraph/internal/autosave"
	"github.com/starford/notegraph/internal/backup"
	"github.com/starford/notegraph/internal/ratelimit"
	"github.com/starford/notegraph/internal/reconcile"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Store    StoreConfig       `yaml:"store"`
	Auth     AuthConfig        `yaml:"auth"`
	AI       AIConfig          `yaml:"ai"`
	Autosave AutosaveConfig    `yaml:"autosave"`
	Backup   BackupConfig      `yaml:"backup"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.AI.Validate(); err != nil {
		return err
	}
	if err := c.Autosave.Validate(); err != nil {
		return err
	}
	return c.Backup.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// Version is reported in backups as appVersion.
	Version string `yaml:"version"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c, validation.Field(&c.Version, validation.Required)); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// StoreConfig holds the SQLite database location.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// AIConfig configures the text transformation gateway. An empty APIKey
// leaves the gateway reporting NO_API_KEY.
type AIConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	Cache       AICacheConfig `yaml:"cache"`
}

// Validate validates the AI configuration.
func (c *AIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxRequests, validation.Required, validation.Min(1)),
		validation.Field(&c.Window, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Cache),
	)
}

// AICacheConfig enables the Redis result cache when Addr is set.
type AICacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Validate validates the cache configuration.
func (c AICacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DB, validation.Min(0)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// Enabled reports whether a cache address is configured.
func (c AICacheConfig) Enabled() bool { return c.Addr != "" }

// AutosaveConfig sets the idle gaps before drafts are saved.
type AutosaveConfig struct {
	ContentIdle time.Duration `yaml:"content_idle"`
	TitleIdle   time.Duration `yaml:"title_idle"`
}

// Validate validates the autosave configuration.
func (c *AutosaveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ContentIdle, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&c.TitleIdle, validation.Required, validation.Min(10*time.Millisecond)),
	)
}

// BackupConfig controls imports. InboxDir enables the drop-folder watcher.
type BackupConfig struct {
	MaxFileSize int64  `yaml:"max_file_size"`
	InboxDir    string `yaml:"inbox_dir"`
	InboxMode   string `yaml:"inbox_mode"`
	// InboxDuplicates is the duplicate policy for merge imports from the inbox.
	InboxDuplicates string `yaml:"inbox_duplicates"`
}

// Validate validates the backup configuration.
func (c *BackupConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxFileSize, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.InboxMode, validation.Required, validation.In(string(reconcile.ModeMerge), string(reconcile.ModeReplace))),
		validation.Field(&c.InboxDuplicates, validation.Required, validation.In(
			string(reconcile.DuplicatesSkip), string(reconcile.DuplicatesOverwrite), string(reconcile.DuplicatesKeepBoth))),
	)
}

// ImportOptions returns the reconcile options for inbox imports.
func (c *BackupConfig) ImportOptions() reconcile.Options {
	return reconcile.Options{Mode: reconcile.Mode(c.InboxMode), HandleDuplicates: reconcile.Duplicates(c.InboxDuplicates)}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:            8080,
				ShutdownTimeout: 10 * time.Second,
			},
			Version: "1.0.0",
		},
		Store: StoreConfig{
			Path: "./notegraph.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		AI: AIConfig{
			BaseURL:     aigateway.DefaultBaseURL,
			Model:       aigateway.DefaultModel,
			Timeout:     30 * time.Second,
			MaxRequests: ratelimit.DefaultMaxRequests,
			Window:      ratelimit.DefaultWindow,
			Cache:       AICacheConfig{TTL: 24 * time.Hour},
		},
		Autosave: AutosaveConfig{
			ContentIdle: autosave.DefaultContentDelay,
			TitleIdle:   autosave.DefaultTitleDelay,
		},
		Backup: BackupConfig{
			MaxFileSize:     backup.MaxFileSize,
			InboxMode:       string(reconcile.ModeMerge),
			InboxDuplicates: string(reconcile.DuplicatesSkip),
		},
	}
}
