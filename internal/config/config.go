package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appName   = "circuit-timer"
	envPrefix = "CIRCUIT_TIMER"
)

// Config is the resolved process configuration
type Config struct {
	DataDir string
	Catalog string
	Log     LogConfig
	Session SessionConfig
	Auth    AuthConfig
	Remote  RemoteConfig
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type SessionConfig struct {
	TickInterval time.Duration
	SaveInterval time.Duration
	SoundOn      bool
	WakeLock     bool
}

type AuthConfig struct {
	UserID string // Empty means signed out
}

type RemoteConfig struct {
	DSN     string
	Migrate bool
}

// Loader resolves configuration from defaults, an optional YAML file,
// CIRCUIT_TIMER_* environment variables and command-line flags, in
// increasing order of precedence.
type Loader struct {
	v     *viper.Viper
	flags *pflag.FlagSet
}

func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	flags := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	// Callers print Usage themselves on pflag.ErrHelp
	flags.Usage = func() {}
	flags.String("config", "", "path to a YAML config file")
	flags.String("data-dir", "", "directory for the local session store and preferences")
	flags.String("catalog", "", "YAML workout catalog (built-in routines when empty)")
	flags.String("log-file", "", "log file path")
	flags.Duration("tick-interval", time.Second, "countdown tick interval")
	flags.Duration("save-interval", 5*time.Second, "minimum time between session writes")
	flags.Bool("sound", true, "play countdown cues")
	flags.Bool("wake-lock", true, "keep the display awake during a session")
	flags.String("user", "", "signed-in user id; sessions sync to the remote store")
	flags.String("remote-dsn", "", "PostgreSQL DSN of the remote session store")
	flags.Bool("migrate", true, "apply remote schema migrations at startup")

	bind := map[string]string{
		"data_dir":              "data-dir",
		"catalog":               "catalog",
		"log.file":              "log-file",
		"session.tick_interval": "tick-interval",
		"session.save_interval": "save-interval",
		"session.sound_on":      "sound",
		"session.wake_lock":     "wake-lock",
		"auth.user_id":          "user",
		"remote.dsn":            "remote-dsn",
		"remote.migrate":        "migrate",
	}
	for key, flag := range bind {
		// Only fails for a nil flag
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return &Loader{v: v, flags: flags}
}

func setDefaults(v *viper.Viper) {
	dataDir := defaultDataDir()
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("catalog", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("session.tick_interval", time.Second)
	v.SetDefault("session.save_interval", 5*time.Second)
	v.SetDefault("session.sound_on", true)
	v.SetDefault("session.wake_lock", true)
	v.SetDefault("auth.user_id", "")
	v.SetDefault("remote.dsn", "")
	v.SetDefault("remote.migrate", true)
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, "."+appName)
}

// Load parses args (without the program name) and resolves the configuration
func (l *Loader) Load(args []string) (Config, error) {
	if err := l.flags.Parse(args); err != nil {
		return Config{}, err
	}

	if path, _ := l.flags.GetString("config"); path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName(appName)
		l.v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(dir, appName))
		}
		l.v.AddConfigPath(".")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := l.resolve()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// ConfigFile returns the file the configuration was read from, or ""
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Usage returns the flag help text
func (l *Loader) Usage() string {
	return l.flags.FlagUsages()
}

// WatchSound calls onChange with session.sound_on each time the config file
// changes on disk. Does nothing when no file was read.
func (l *Loader) WatchSound(onChange func(soundOn bool)) bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(l.v.GetBool("session.sound_on"))
	})
	l.v.WatchConfig()
	return true
}

func (l *Loader) resolve() Config {
	v := l.v
	cfg := Config{
		DataDir: v.GetString("data_dir"),
		Catalog: v.GetString("catalog"),
		Log: LogConfig{
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		Session: SessionConfig{
			TickInterval: v.GetDuration("session.tick_interval"),
			SaveInterval: v.GetDuration("session.save_interval"),
			SoundOn:      v.GetBool("session.sound_on"),
			WakeLock:     v.GetBool("session.wake_lock"),
		},
		Auth: AuthConfig{
			UserID: strings.TrimSpace(v.GetString("auth.user_id")),
		},
		Remote: RemoteConfig{
			DSN:     v.GetString("remote.dsn"),
			Migrate: v.GetBool("remote.migrate"),
		},
	}
	// The log follows the data dir unless placed explicitly
	if cfg.Log.File == "" && cfg.DataDir != "" {
		cfg.Log.File = filepath.Join(cfg.DataDir, appName+".log")
	}
	return cfg
}

func (c Config) validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.Session.TickInterval <= 0 {
		return fmt.Errorf("session.tick_interval must be positive, got %v", c.Session.TickInterval)
	}
	if c.Session.SaveInterval < 0 {
		return fmt.Errorf("session.save_interval must not be negative, got %v", c.Session.SaveInterval)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be positive, got %d", c.Log.MaxSizeMB)
	}
	return nil
}
