package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config.yaml"

	defaultLogLevel          = "info"
	defaultClientSecretsPath = "client_secrets.json"
	defaultTokenPath         = "token.json"
	defaultAuthTimeout       = 5 * time.Minute
	defaultChunkSize         = 16 * 1024 * 1024
	defaultFFmpegCacheDir    = "ffmpeg_bin"
	defaultScratchDir        = "temp"
	defaultDownloadFormat    = "bestvideo+bestaudio/best"
)

var defaultArchiveURLs = map[string]string{
	"windows":     "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip",
	"darwin":      "https://evermeet.cx/ffmpeg/getrelease/zip",
	"linux/amd64": "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-amd64-static.tar.xz",
	"linux/arm64": "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-arm64-static.tar.xz",
}

type Config struct {
	LogLevel string         `yaml:"log_level"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg"`
	Download DownloadConfig `yaml:"download"`
}

type YouTubeConfig struct {
	ClientSecretsPath string `yaml:"client_secrets_path"`
	// ClientSecretsSecret is a Secret Manager version name. When set it takes
	// precedence over ClientSecretsPath.
	ClientSecretsSecret string        `yaml:"client_secrets_secret"`
	TokenPath           string        `yaml:"token_path"`
	CallbackPort        int           `yaml:"callback_port"`
	AuthTimeout         time.Duration `yaml:"auth_timeout"`
	ChunkSize           int           `yaml:"chunk_size"`
}

type FFmpegConfig struct {
	Binary     string `yaml:"binary"`
	CacheDir   string `yaml:"cache_dir"`
	ArchiveURL string `yaml:"archive_url"`
}

type DownloadConfig struct {
	ScratchDir string `yaml:"scratch_dir"`
	Format     string `yaml:"format"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return LoadFrom(DefaultConfigPath)
}

func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	applyDefaults(cfg)

	if err := expandPaths(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("No config file found, using defaults", "path", path)
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.LogLevel, "LOG_LEVEL")
	setFromEnv(&cfg.YouTube.ClientSecretsPath, "YOUTUBE_CLIENT_SECRETS")
	setFromEnv(&cfg.YouTube.ClientSecretsSecret, "YOUTUBE_CLIENT_SECRETS_SECRET")
	setFromEnv(&cfg.YouTube.TokenPath, "YOUTUBE_TOKEN_PATH")
	setFromEnv(&cfg.FFmpeg.CacheDir, "FFMPEG_CACHE_DIR")
	setFromEnv(&cfg.FFmpeg.ArchiveURL, "FFMPEG_ARCHIVE_URL")
	setFromEnv(&cfg.Download.ScratchDir, "SCRATCH_DIR")
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	applyYouTubeDefaults(cfg)
	applyFFmpegDefaults(cfg)
	applyDownloadDefaults(cfg)
}

func applyYouTubeDefaults(cfg *Config) {
	if cfg.YouTube.ClientSecretsPath == "" {
		cfg.YouTube.ClientSecretsPath = defaultClientSecretsPath
	}
	if cfg.YouTube.TokenPath == "" {
		cfg.YouTube.TokenPath = defaultTokenPath
	}
	if cfg.YouTube.AuthTimeout == 0 {
		cfg.YouTube.AuthTimeout = defaultAuthTimeout
	}
	if cfg.YouTube.ChunkSize <= 0 {
		cfg.YouTube.ChunkSize = defaultChunkSize
	}
}

func applyFFmpegDefaults(cfg *Config) {
	if cfg.FFmpeg.Binary == "" {
		cfg.FFmpeg.Binary = DefaultFFmpegBinary(runtime.GOOS)
	}
	if cfg.FFmpeg.CacheDir == "" {
		cfg.FFmpeg.CacheDir = defaultFFmpegCacheDir
	}
	if cfg.FFmpeg.ArchiveURL == "" {
		cfg.FFmpeg.ArchiveURL = DefaultArchiveURL(runtime.GOOS, runtime.GOARCH)
	}
}

func applyDownloadDefaults(cfg *Config) {
	if cfg.Download.ScratchDir == "" {
		cfg.Download.ScratchDir = defaultScratchDir
	}
	if cfg.Download.Format == "" {
		cfg.Download.Format = defaultDownloadFormat
	}
}

func expandPaths(cfg *Config) error {
	paths := []*string{
		&cfg.YouTube.ClientSecretsPath,
		&cfg.YouTube.TokenPath,
		&cfg.FFmpeg.CacheDir,
		&cfg.Download.ScratchDir,
	}
	for _, p := range paths {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// DefaultFFmpegBinary returns the executable name for goos.
func DefaultFFmpegBinary(goos string) string {
	if goos == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// DefaultArchiveURL returns the static ffmpeg build for the platform, or ""
// when none is known.
func DefaultArchiveURL(goos, goarch string) string {
	if url, ok := defaultArchiveURLs[goos+"/"+goarch]; ok {
		return url
	}
	return defaultArchiveURLs[goos]
}

func setFromEnv(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}
