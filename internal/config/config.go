package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the bot configuration. Tokens never live in the file; they
// come from the environment (see Secrets).
type Config struct {
	Bot     BotConfig     `yaml:"bot"`
	Render  RenderConfig  `yaml:"render"`
	Archive ArchiveConfig `yaml:"archive"`
	Slack   SlackConfig   `yaml:"slack"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`

	Secrets Secrets `yaml:"-"`
}

// BotConfig holds chat command settings.
type BotConfig struct {
	Command        string `yaml:"command"`
	AttachmentName string `yaml:"attachment_name"`
	ReplyText      string `yaml:"reply_text"`
	MaxRenders     int    `yaml:"max_renders"`
}

// RenderConfig holds document generation settings.
type RenderConfig struct {
	Timezone string `yaml:"timezone"`
	PageSize int    `yaml:"page_size"`
}

// ArchiveConfig holds the offline history archive settings.
type ArchiveConfig struct {
	Path     string `yaml:"path"`
	LinkBase string `yaml:"link_base"`
}

// SlackConfig holds settings for rendering from a Slack workspace.
type SlackConfig struct {
	Workspace string `yaml:"workspace"` // subdomain used in message links
}

// ServerConfig holds network listener settings.
type ServerConfig struct {
	HealthPort int `yaml:"health_port"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Secrets holds credentials read from the environment.
type Secrets struct {
	DiscordToken string
	SlackToken   string
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Bot: BotConfig{
			Command:        "doc",
			AttachmentName: "summary_doc.md",
			ReplyText:      "Here's the generated summary doc",
			MaxRenders:     4,
		},
		Render: RenderConfig{
			Timezone: "Local",
			PageSize: 100,
		},
		Archive: ArchiveConfig{
			Path:     "./data/archive.db",
			LinkBase: "https://discord.com/channels",
		},
		Server: ServerConfig{
			HealthPort: 2223,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and parses a YAML config file, then reads secrets from the
// environment and an optional .env file next to the working directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	secrets, err := LoadSecrets(".env")
	if err != nil {
		return nil, err
	}
	cfg.Secrets = secrets

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadSecrets loads envFile into the process environment when it exists and
// returns the tokens found there. Variables already set take precedence.
func LoadSecrets(envFile string) (Secrets, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Secrets{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	discord := os.Getenv("DISCORD_TOKEN")
	if discord == "" {
		discord = os.Getenv("TOKEN")
	}
	return Secrets{
		DiscordToken: strings.TrimSpace(discord),
		SlackToken:   strings.TrimSpace(os.Getenv("SLACK_TOKEN")),
	}, nil
}

// Location returns the time zone used for day boundaries.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Render.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Bot),
		validation.Field(&c.Render),
		validation.Field(&c.Archive),
		validation.Field(&c.Slack),
		validation.Field(&c.Server),
		validation.Field(&c.Log),
	)
}

func (b BotConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Command, validation.Required, validation.Length(1, 32)),
		validation.Field(&b.AttachmentName,
			validation.Required,
			validation.By(func(v interface{}) error {
				if !strings.HasSuffix(v.(string), ".md") {
					return errors.New("must end in .md")
				}
				return nil
			}),
		),
		validation.Field(&b.ReplyText, validation.Required),
		validation.Field(&b.MaxRenders, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

func (r RenderConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Timezone,
			validation.Required,
			validation.By(func(v interface{}) error {
				_, err := time.LoadLocation(v.(string))
				return err
			}),
		),
		validation.Field(&r.PageSize, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

func (a ArchiveConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Path, validation.Required),
		validation.Field(&a.LinkBase, validation.Required, is.URL),
	)
}

func (s SlackConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Workspace, is.Subdomain),
	)
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.HealthPort, validation.Min(0), validation.Max(65535)),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}
