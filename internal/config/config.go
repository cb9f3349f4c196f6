package config

import (
	"errors"
	"strings"
	"time"

	"cursor-keeper/internal/env"

	"github.com/spf13/viper"
)

/**
 * Product naming
 * @property {string} name - Artifact name prefix, e.g. "cursor"
 * @property {string} extension - Artifact extension including the dot, e.g. ".AppImage"
 */
type ProductConfig struct {
	Name      string `mapstructure:"name"`
	Extension string `mapstructure:"extension"`
}

/**
 * Well-known locations
 * @property {string} pointer - Active pointer (symlink) path
 * @property {string} downloads - Directory holding downloaded artifacts
 * @property {string} cache - Manifest cache file
 * @property {string} launcher - Desktop launcher descriptor
 */
type PathsConfig struct {
	Pointer   string `mapstructure:"pointer"`
	Downloads string `mapstructure:"downloads"`
	Cache     string `mapstructure:"cache"`
	Launcher  string `mapstructure:"launcher"`
}

type RemoteConfig struct {
	ManifestUrl string `mapstructure:"manifest_url"`
	UserAgent   string `mapstructure:"user_agent"`
	Platform    string `mapstructure:"platform"`
}

type CacheConfig struct {
	MaxAge time.Duration `mapstructure:"max_age"`
}

type TimeoutsConfig struct {
	Request  time.Duration `mapstructure:"request"`
	Download time.Duration `mapstructure:"download"`
	Extract  time.Duration `mapstructure:"extract"`
	Process  time.Duration `mapstructure:"process"`
}

type DownloadConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
}

/**
 * Server configuration parameters
 * @property {string} address - Server listening address (e.g. "127.0.0.1:8739")
 * @property {string} socket - Optional unix socket path served next to the TCP address
 * @property {string} mode - Gin mode (debug/release/test)
 */
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Socket  string `mapstructure:"socket"`
	Mode    string `mapstructure:"mode"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path, "console" for stderr
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type AppConfig struct {
	Product  ProductConfig  `mapstructure:"product"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
	Download DownloadConfig `mapstructure:"download"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

const (
	DefaultManifestUrl = "https://raw.githubusercontent.com/oslook/cursor-ai-downloads/refs/heads/main/version-history.json"
	DefaultUserAgent   = "Cursor-Updater/1.0"
	envPrefix          = "CURSOR_KEEPER"
)

var Config AppConfig

var configFile string

func setDefaults(v *viper.Viper) {
	v.SetDefault("product.name", "cursor")
	v.SetDefault("product.extension", ".AppImage")
	v.SetDefault("paths.pointer", "~/.local/bin/cursor.AppImage")
	v.SetDefault("paths.downloads", "~/.local/share/cursor-updater/app-images")
	v.SetDefault("paths.cache", "")
	v.SetDefault("paths.launcher", "~/.local/share/applications/cursor.desktop")
	v.SetDefault("remote.manifest_url", DefaultManifestUrl)
	v.SetDefault("remote.user_agent", DefaultUserAgent)
	v.SetDefault("remote.platform", "")
	v.SetDefault("cache.max_age", 15*time.Minute)
	v.SetDefault("timeouts.request", 10*time.Second)
	v.SetDefault("timeouts.download", 30*time.Second)
	v.SetDefault("timeouts.extract", 30*time.Second)
	v.SetDefault("timeouts.process", 10*time.Second)
	v.SetDefault("download.chunk_size", 8192)
	v.SetDefault("server.address", "127.0.0.1:8739")
	v.SetDefault("server.socket", "")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.path", "console")
}

/**
 * Load application configuration
 * @param {string} path - Explicit config file, empty to search "." and ~/.cursor-keeper
 * @returns {*AppConfig, error} Loaded configuration
 * @description
 * - Defaults < config.yaml < CURSOR_KEEPER_* environment variables
 * - A missing config file is not an error when no explicit path is given
 */
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(env.KeeperDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return collectConfig(&cfg), nil
}

func collectConfig(cfg *AppConfig) *AppConfig {
	if cfg.Product.Name == "" {
		cfg.Product.Name = "cursor"
	}
	if cfg.Remote.ManifestUrl == "" {
		cfg.Remote.ManifestUrl = DefaultManifestUrl
	}
	if cfg.Remote.UserAgent == "" {
		cfg.Remote.UserAgent = DefaultUserAgent
	}
	if cfg.Download.ChunkSize <= 0 {
		cfg.Download.ChunkSize = 8192
	}
	return cfg
}

/**
 * Set config file used by ReloadConfig, then reload
 */
func SetConfigFile(path string) error {
	configFile = path
	return ReloadConfig()
}

/**
 * Reload configuration into Config
 * @returns {error} Returns error when the config file exists but cannot be parsed
 */
func ReloadConfig() error {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return err
	}
	Config = *cfg
	return nil
}

func init() {
	cfg, err := LoadConfig("")
	if err == nil {
		Config = *cfg
		return
	}
	// a broken config.yaml must not prevent the built-in defaults from loading
	v := viper.New()
	setDefaults(v)
	if v.Unmarshal(&Config) == nil {
		collectConfig(&Config)
	}
}
