package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"today/internal/views"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "today.db"
	DefaultLogName        = "today.log"
	appDirName            = "today"
	configEnv             = "TODAY_CONFIG"
)

type Keymap struct {
	Quit        string `toml:"quit"`
	Add         string `toml:"add"`
	Up          string `toml:"up"`
	Down        string `toml:"down"`
	Toggle      string `toml:"toggle"`
	Delete      string `toml:"delete"`
	Detail      string `toml:"detail"`
	Confirm     string `toml:"confirm"`
	Cancel      string `toml:"cancel"`
	Rename      string `toml:"rename"`
	ScreenLeft  string `toml:"screen_left"`
	ScreenRight string `toml:"screen_right"`
	ScreenUp    string `toml:"screen_up"`
	ScreenDown  string `toml:"screen_down"`
}

type Config struct {
	DBPath       string `toml:"db_path"`
	LogPath      string `toml:"log_path"`
	LogLevel     string `toml:"log_level"`
	Timezone     string `toml:"timezone"`
	FirstWeekday string `toml:"first_weekday"`
	TodayOrder   string `toml:"today_order"`
	Keys         Keymap `toml:"keys"`
}

// ResolveConfigPath prefers $TODAY_CONFIG, then the user config directory,
// then the working directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(configEnv)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first if
// the file does not exist. Relative data paths resolve next to the config.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolvePaths(path), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.LogPath == "" {
		cfg.LogPath = DefaultLogName
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg.resolvePaths(path), nil
}

func (c Config) resolvePaths(configPath string) Config {
	base := filepath.Dir(configPath)
	if !filepath.IsAbs(c.DBPath) && !strings.HasPrefix(c.DBPath, "file:") {
		c.DBPath = filepath.Join(base, c.DBPath)
	}
	if !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(base, c.LogPath)
	}
	return c
}

func (c Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Weekday(); err != nil {
		return err
	}
	if _, err := c.Order(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Location is the configured timezone; empty means the system's.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) Weekday() (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(c.FirstWeekday))
	if v == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == v {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("first_weekday %q is not a weekday", c.FirstWeekday)
}

func (c Config) Order() (views.TodayOrder, error) {
	return views.ParseTodayOrder(c.TodayOrder)
}

func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:       DefaultDBName,
		LogPath:      DefaultLogName,
		LogLevel:     "info",
		FirstWeekday: "sunday",
		TodayOrder:   string(views.OrderInterleaved),
		Keys: Keymap{
			Quit:        "q",
			Add:         "a",
			Up:          "k",
			Down:        "j",
			Toggle:      " ",
			Delete:      "d",
			Detail:      "i",
			Confirm:     "enter",
			Cancel:      "esc",
			Rename:      "r",
			ScreenLeft:  "h",
			ScreenRight: "l",
			ScreenUp:    "K",
			ScreenDown:  "J",
		},
	}
}
