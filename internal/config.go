package internal

import (
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/robfig/cron/v3"

	"github.com/starford/blockpad/internal/blocks"
	"github.com/starford/blockpad/internal/editor"
	"github.com/starford/blockpad/internal/plugin"
	"github.com/starford/blockpad/internal/translate"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app" toml:"app"`
	Storage   StorageConfig     `yaml:"storage" toml:"storage"`
	SQLite    SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth" toml:"auth"`
	Editor    EditorConfig      `yaml:"editor" toml:"editor"`
	Dev       DevConfig         `yaml:"dev" toml:"dev"`
	Events    EventsConfig      `yaml:"events" toml:"events"`
	Mirror    MirrorConfig      `yaml:"mirror" toml:"mirror"`
	Translate TranslateConfig   `yaml:"translate" toml:"translate"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.App, &c.Storage, &c.SQLite, &c.Auth, &c.Editor, &c.Dev, &c.Mirror, &c.Translate,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig holds the directory saved snapshots are written to.
type StorageConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
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

// EditorConfig describes the editing page and the tools it is built with.
// An empty Tools list selects the built-in stock setup.
type EditorConfig struct {
	HolderID      string        `yaml:"holder_id" toml:"holder_id"`
	TriggerID     string        `yaml:"trigger_id" toml:"trigger_id"`
	OutputID      string        `yaml:"output_id" toml:"output_id"`
	Autofocus     bool          `yaml:"autofocus" toml:"autofocus"`
	Placeholder   string        `yaml:"placeholder" toml:"placeholder"`
	DefaultBlock  string        `yaml:"default_block" toml:"default_block"`
	InlineToolbar []string      `yaml:"inline_toolbar" toml:"inline_toolbar"`
	Tools         []plugin.Spec `yaml:"tools" toml:"tools"`
	// Autosave is a cron schedule for saving dirty sessions. Empty
	// disables autosave.
	Autosave string `yaml:"autosave" toml:"autosave"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HolderID, validation.Required),
		validation.Field(&c.TriggerID, validation.Required),
		validation.Field(&c.OutputID, validation.Required),
		validation.Field(&c.DefaultBlock, validation.Required),
		validation.Field(&c.Autosave, validation.By(validSchedule)),
	)
}

func validSchedule(v any) error {
	spec, _ := v.(string)
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	return nil
}

// ToolTable resolves the configured tool declarations against the
// built-in catalog.
func (c *EditorConfig) ToolTable() (*plugin.Table, error) {
	if len(c.Tools) == 0 {
		return plugin.Build(blocks.Defaults()...), nil
	}
	entries, err := plugin.FromSpecs(c.Tools, blocks.Catalog())
	if err != nil {
		return nil, err
	}
	return plugin.Build(entries...), nil
}

// EditorSettings builds the per-session editor configuration.
func (c *EditorConfig) EditorSettings(tools *plugin.Table) editor.Config {
	inline := c.InlineToolbar
	if len(inline) == 0 && len(c.Tools) == 0 {
		inline = blocks.DefaultInlineToolbar
	}
	return editor.Config{
		Holder:        c.HolderID,
		Tools:         tools,
		InlineToolbar: inline,
		DefaultBlock:  c.DefaultBlock,
		Autofocus:     c.Autofocus,
		Placeholder:   c.Placeholder,
	}
}

// DevConfig enables the development front-end server. It is off unless
// StaticDir or ProxyTarget is set.
type DevConfig struct {
	Port        int    `yaml:"port" toml:"port"`
	ProxyPrefix string `yaml:"proxy_prefix" toml:"proxy_prefix"`
	ProxyTarget string `yaml:"proxy_target" toml:"proxy_target"`
	StaticDir   string `yaml:"static_dir" toml:"static_dir"`
}

// Enabled reports whether the dev server should run.
func (c *DevConfig) Enabled() bool {
	return c.StaticDir != "" || c.ProxyTarget != ""
}

// Address returns the dev server address.
func (c *DevConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the dev server configuration.
func (c *DevConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.StaticDir, validation.Required),
	)
}

// EventsConfig selects where lifecycle events are published. An empty
// NATSURL disables publishing.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url" toml:"nats_url"`
}

// MirrorConfig configures secondary copies of every saved document.
type MirrorConfig struct {
	Bucket    string `yaml:"bucket" toml:"bucket"`
	Prefix    string `yaml:"prefix" toml:"prefix"`
	Region    string `yaml:"region" toml:"region"`
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	BackupDir string `yaml:"backup_dir" toml:"backup_dir"`
}

// Validate validates the mirror configuration.
func (c *MirrorConfig) Validate() error {
	if c.Bucket != "" && c.Region == "" {
		return errors.New("mirror: region is required when bucket is set")
	}
	return nil
}

// TranslateConfig holds defaults for the /translate command.
type TranslateConfig struct {
	Model string `yaml:"model" toml:"model"`
}

// Validate validates the translate configuration.
func (c *TranslateConfig) Validate() error {
	if c.Model == "" {
		return nil
	}
	if _, ok := translate.LookupModel(c.Model); !ok {
		return fmt.Errorf("translate: unknown model %q", c.Model)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Path: "./documents",
		},
		SQLite: SQLiteConfig{
			Path: "./blockpad.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Editor: EditorConfig{
			HolderID:     "editorjs",
			TriggerID:    "save-button",
			OutputID:     "output",
			Autofocus:    true,
			DefaultBlock: "paragraph",
		},
		Dev: DevConfig{
			Port:        3000,
			ProxyPrefix: "/api",
		},
		Translate: TranslateConfig{
			Model: translate.DefaultModel,
		},
	}
}
