package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/yodaliu/jera/internal/habits"
	"github.com/yodaliu/jera/internal/period"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Habits   HabitsConfig      `yaml:"habits"`
	Periodic PeriodicConfig    `yaml:"periodic"`
	Render   RenderConfig      `yaml:"render"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Habits.Validate(); err != nil {
		return err
	}
	return c.Render.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
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

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
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
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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

// HabitsConfig locates habit metadata notes within the vault.
//
// Folder "/" scans the whole vault; an empty folder disables the habit
// directory entirely. Exclude lists filename substrings to skip,
// matched case-insensitively. Heading is the daily note section habit
// values are aggregated from. Keys remap the frontmatter property
// names habit metadata is read from.
type HabitsConfig struct {
	Folder  string      `yaml:"folder"`
	Exclude []string    `yaml:"exclude"`
	Heading string      `yaml:"heading"`
	Keys    habits.Keys `yaml:"keys"`
}

// Validate validates the habits configuration.
func (c *HabitsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Heading, validation.Required),
	)
}

// PeriodicConfig holds the per-granularity periodic note locations.
type PeriodicConfig struct {
	Daily   period.NotesConfig `yaml:"daily"`
	Weekly  period.NotesConfig `yaml:"weekly"`
	Monthly period.NotesConfig `yaml:"monthly"`
	Yearly  period.NotesConfig `yaml:"yearly"`
}

// RenderConfig holds the global default glyphs and colors used when
// neither a marker nor a habit note overrides them. Calendar glyphs
// left empty fall back to the built-in SVG shapes.
type RenderConfig struct {
	CheckedGlyph     string `yaml:"checked_glyph"`
	UncheckedGlyph   string `yaml:"unchecked_glyph"`
	RatedGlyph       string `yaml:"rated_glyph"`
	UnratedGlyph     string `yaml:"unrated_glyph"`
	CompletedGlyph   string `yaml:"completed_glyph"`
	UncompletedGlyph string `yaml:"uncompleted_glyph"`
	AccentColor      string `yaml:"accent_color"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AccentColor, validation.Required),
	)
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
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./jera.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Habits: HabitsConfig{
			Folder:  "Habits",
			Heading: "Habit Tracker",
			Keys:    habits.DefaultKeys(),
		},
		Periodic: PeriodicConfig{
			Daily: period.NotesConfig{
				Folder:  "Daily",
				Format:  "2006-01-02",
				Enabled: true,
			},
		},
		Render: RenderConfig{
			CheckedGlyph:   "✅",
			UncheckedGlyph: "❌",
			RatedGlyph:     "⭐",
			UnratedGlyph:   "☆",
			AccentColor:    "#483699",
		},
	}
}
