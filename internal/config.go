package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// projectNameRe restricts project names to what the service accepts as a
// collection identifier.
var projectNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Duration wraps time.Duration so YAML configs can say "30s" or "1m".
type Duration time.Duration

// UnmarshalYAML decodes a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Project   ProjectConfig     `yaml:"project"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	Remote    RemoteConfig      `yaml:"remote"`
	Sync      SyncConfig        `yaml:"sync"`
	State     StateConfig       `yaml:"state"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Project.Validate(); err != nil {
		return err
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	return c.State.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// ProjectConfig names the sync target on the remote service.
type ProjectConfig struct {
	Name string `yaml:"name"`
}

// Validate validates the project configuration.
func (c *ProjectConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.Match(projectNameRe)),
	)
}

// WorkspaceConfig holds the directory to synchronize and its scan rules.
type WorkspaceConfig struct {
	Path        string   `yaml:"path"`
	Ignore      []string `yaml:"ignore"`
	MaxFileSize int64    `yaml:"max_file_size"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MaxFileSize, validation.Min(int64(0))),
	)
}

// RemoteConfig holds the DevAssist endpoint and credential.
type RemoteConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Timeout Duration `yaml:"timeout"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.APIKey, validation.Required),
	); err != nil {
		return err
	}
	if c.Timeout.Std() <= 0 {
		return fmt.Errorf("remote: timeout must be positive")
	}
	return nil
}

// SyncConfig holds pass scheduling and parallelism.
type SyncConfig struct {
	Interval    Duration `yaml:"interval"`
	Concurrency int      `yaml:"concurrency"`
	Once        bool     `yaml:"-"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if c.Interval.Std() < time.Second {
		return fmt.Errorf("sync: interval must be at least 1s")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// StateConfig holds the local sync-state database location.
type StateConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the state configuration.
func (c *StateConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
// Project name, workspace path, and API key have no defaults: they come
// from flags, the environment, or a config file.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Workspace: WorkspaceConfig{
			Ignore:      []string{".git", ".devassist", ".env", "output", "dist", "target", "build"},
			MaxFileSize: 2 << 20,
		},
		Remote: RemoteConfig{
			BaseURL: "https://api.devassist.dev",
			Timeout: Duration(30 * time.Second),
		},
		Sync: SyncConfig{
			Interval:    Duration(30 * time.Second),
			Concurrency: 4,
		},
		State: StateConfig{
			Path: ".devassist/state.db",
		},
	}
}
