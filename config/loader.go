package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FREEMUSIC_API_BASE_URL
const EnvPrefix = "FREEMUSIC"

// Loader reads config.toml, .env files and FREEMUSIC_* variables
type Loader struct {
	v  *viper.Viper
	fs afero.Fs
}

// NewLoader creates a loader reading files from fs
func NewLoader(fs afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fs)
	return &Loader{v: v, fs: fs}
}

// Load reads the configuration. An explicit path must exist; otherwise the usual
// locations are searched and a missing file falls back to defaults.
func (l *Loader) Load(path string) (*Config, error) {
	if err := l.loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("toml")
		l.v.AddConfigPath("$HOME/.config/freemusic/")
		l.v.AddConfigPath("$HOME/.config/")
		l.v.AddConfigPath(".")
	}

	l.setDefaults()
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug().Msg("no config file found, using defaults")
	}

	return l.decode()
}

// Watch reloads the configuration whenever the file changes
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("ignoring invalid config change")
			return
		}
		log.Info().Str("file", e.Name).Msg("config reloaded")
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// ConfigFile returns the file that was read, if any
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := l.v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()
	l.v.SetDefault("api.base_url", d.API.BaseURL)
	l.v.SetDefault("api.cookie", d.API.Cookie)
	l.v.SetDefault("api.quality", d.API.Quality)
	l.v.SetDefault("api.timeout", d.API.Timeout.Std().String())
	l.v.SetDefault("api.search_limit", d.API.SearchLimit)
	l.v.SetDefault("database.dsn", d.Database.DSN)
	l.v.SetDefault("redis.url", d.Redis.URL)
	l.v.SetDefault("cache.url_ttl", d.Cache.URLTTL.Std().String())
	l.v.SetDefault("cache.lyric_ttl", d.Cache.LyricTTL.Std().String())
	l.v.SetDefault("cache.song_expiry", d.Cache.SongExpiry.Std().String())
	l.v.SetDefault("cache.history_limit", d.Cache.HistoryLimit)
	l.v.SetDefault("player.volume", d.Player.Volume)
	l.v.SetDefault("player.prefetch", d.Player.Prefetch)
	l.v.SetDefault("player.pause_on_disconnect", d.Player.PauseOnDisconnect)
	l.v.SetDefault("ui.page_size", d.UI.PageSize)
	l.v.SetDefault("ui.progress_bar_width", d.UI.ProgressBarWidth)
	l.v.SetDefault("ui.max_column_width", d.UI.MaxColumnWidth)
	l.v.SetDefault("ui.show_cover", d.UI.ShowCover)
	l.v.SetDefault("control.listen", d.Control.Listen)
	l.v.SetDefault("control.token", d.Control.Token)
	l.v.SetDefault("log.level", d.Log.Level)
	l.v.SetDefault("log.format", d.Log.Format)
	l.v.SetDefault("log.file", d.Log.File)
}

// loadDotEnv exports variables from a .env file without overriding the real environment
func (l *Loader) loadDotEnv(name string) error {
	data, err := afero.ReadFile(l.fs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	vars, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	for k, v := range vars {
		if _, set := os.LookupEnv(k); !set {
			_ = os.Setenv(k, v)
		}
	}
	return nil
}

// DefaultPath is where --init-config writes the configuration file
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "freemusic", "config.toml")
}
