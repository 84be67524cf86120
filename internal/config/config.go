package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/haoyuedashi/meme-text-bot/internal/resolver"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Host    HostConfig    `yaml:"host"`
	Bot     BotConfig     `yaml:"bot"`
	Storage StorageConfig `yaml:"storage"`
}

// Duration decodes human-readable YAML values like "30s" or "2m",
// which time.Duration alone does not.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

type ServerConfig struct {
	Port         string   `yaml:"port"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	WebhookToken string   `yaml:"webhook_token"`
}

type HostConfig struct {
	APIBaseURL  string   `yaml:"api_base_url"`
	AccessToken string   `yaml:"access_token"`
	Timeout     Duration `yaml:"timeout"`
}

type BotConfig struct {
	CommandPrefix   string `yaml:"command_prefix"`
	HelpCommand     string `yaml:"help_command"`
	DefaultColor    string `yaml:"default_color"`
	DefaultSize     string `yaml:"default_size"`
	DefaultPosition string `yaml:"default_position"`
	AutoStroke      bool   `yaml:"auto_stroke"`
	StrokeWidth     int    `yaml:"stroke_width"`
	MaxTextLength   int    `yaml:"max_text_length"`
}

type StorageConfig struct {
	TempDir         string   `yaml:"temp_dir"`
	FontsDir        string   `yaml:"fonts_dir"`
	CleanupDays     int      `yaml:"cleanup_days"`
	DownloadTimeout Duration `yaml:"download_timeout"`
	MaxDownloadSize int64    `yaml:"max_download_size"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  Duration(10 * time.Second),
			WriteTimeout: Duration(10 * time.Second),
		},
		Host: HostConfig{
			APIBaseURL: "http://localhost:5700",
			Timeout:    Duration(10 * time.Second),
		},
		Bot: BotConfig{
			CommandPrefix:   "表情加字",
			HelpCommand:     "皓月表情加字帮助",
			DefaultColor:    "白色",
			DefaultSize:     "中字体",
			DefaultPosition: "下",
			AutoStroke:      true,
			StrokeWidth:     2,
			MaxTextLength:   50,
		},
		Storage: StorageConfig{
			TempDir:         "./temp",
			FontsDir:        "./fonts",
			CleanupDays:     2,
			DownloadTimeout: Duration(30 * time.Second),
			MaxDownloadSize: 10 * 1024 * 1024,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file
// (CONFIG_PATH or ./config.yaml), and environment variables, each layer
// overriding the previous one. A .env file is honored if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := defaults()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getDuration("READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getDuration("WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.WebhookToken = getEnv("WEBHOOK_TOKEN", cfg.Server.WebhookToken)

	cfg.Host.APIBaseURL = getEnv("HOST_API_URL", cfg.Host.APIBaseURL)
	cfg.Host.AccessToken = getEnv("HOST_ACCESS_TOKEN", cfg.Host.AccessToken)
	cfg.Host.Timeout = getDuration("HOST_TIMEOUT", cfg.Host.Timeout)

	cfg.Bot.CommandPrefix = getEnv("COMMAND_PREFIX", cfg.Bot.CommandPrefix)
	cfg.Bot.HelpCommand = getEnv("HELP_COMMAND", cfg.Bot.HelpCommand)
	cfg.Bot.DefaultColor = getEnv("DEFAULT_COLOR", cfg.Bot.DefaultColor)
	cfg.Bot.DefaultSize = getEnv("DEFAULT_SIZE", cfg.Bot.DefaultSize)
	cfg.Bot.DefaultPosition = getEnv("DEFAULT_POSITION", cfg.Bot.DefaultPosition)
	cfg.Bot.AutoStroke = getEnvAsBool("AUTO_STROKE", cfg.Bot.AutoStroke)
	cfg.Bot.StrokeWidth = getEnvAsInt("STROKE_WIDTH", cfg.Bot.StrokeWidth)
	cfg.Bot.MaxTextLength = getEnvAsInt("MAX_TEXT_LENGTH", cfg.Bot.MaxTextLength)

	cfg.Storage.TempDir = getEnv("TEMP_DIR", cfg.Storage.TempDir)
	cfg.Storage.FontsDir = getEnv("FONTS_DIR", cfg.Storage.FontsDir)
	cfg.Storage.CleanupDays = getEnvAsInt("CLEANUP_DAYS", cfg.Storage.CleanupDays)
	cfg.Storage.DownloadTimeout = getDuration("DOWNLOAD_TIMEOUT", cfg.Storage.DownloadTimeout)
	cfg.Storage.MaxDownloadSize = getEnvAsInt64("MAX_DOWNLOAD_SIZE", cfg.Storage.MaxDownloadSize)

	// Aliases like 下 normalize once at load so every downstream lookup
	// sees a canonical anchor.
	cfg.Bot.DefaultPosition = resolver.NormalizePosition(cfg.Bot.DefaultPosition)

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal Duration) Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return Duration(duration)
		}
	}
	return defaultVal
}
