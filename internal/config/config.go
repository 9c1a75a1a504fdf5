package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration for the application.
type Config struct {
	Storage Storage
	Workers Workers
	UI      UI
	Player  string
	Logging Logging
	Flags   map[string]string
	Args    []string
}

type Storage struct {
	DBPath      string
	DownloadDir string
}

type Workers struct {
	MaxDownloads int
	MaxSyncs     int
	HTTPTimeout  time.Duration
}

type UI struct {
	MessageDuration time.Duration
	AutoPick        bool
}

type Logging struct {
	FilePath string
	Trace    bool
}

const (
	envDB              = "CASTAWAY_DB"
	envDownloadDir     = "CASTAWAY_DOWNLOAD_DIR"
	envPlayer          = "CASTAWAY_PLAYER"
	envMaxDownloads    = "CASTAWAY_MAX_DOWNLOADS"
	envMaxSyncs        = "CASTAWAY_MAX_SYNCS"
	envHTTPTimeout     = "CASTAWAY_HTTP_TIMEOUT"
	envMessageDuration = "CASTAWAY_MESSAGE_DURATION"
	envAutoPick        = "CASTAWAY_AUTO_PICK"
	envTrace           = "CASTAWAY_TRACE"
	envLogFile         = "CASTAWAY_LOG_FILE"
)

const (
	defaultPlayer          = "mpv --no-video"
	defaultMaxDownloads    = 3
	defaultMaxSyncs        = 4
	defaultHTTPTimeout     = 30 * time.Second
	defaultMessageDuration = 5 * time.Second
)

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)
	dataDir := defaultDataDir(env)

	fs := flag.NewFlagSet("castaway", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	db := fs.String("db", envOrDefault(env, envDB, filepath.Join(dataDir, "castaway.db")), "path to the sqlite database")
	downloads := fs.String("download-dir", envOrDefault(env, envDownloadDir, filepath.Join(dataDir, "episodes")), "directory episodes are downloaded into")
	player := fs.String("player", envOrDefault(env, envPlayer, defaultPlayer), "command used to play an episode (the file or URL is appended)")
	maxDownloads := fs.Int("max-downloads", envOrInt(env, envMaxDownloads, defaultMaxDownloads), "maximum parallel downloads")
	maxSyncs := fs.Int("max-syncs", envOrInt(env, envMaxSyncs, defaultMaxSyncs), "maximum parallel feed syncs")
	timeout := fs.Duration("http-timeout", envOrDuration(env, envHTTPTimeout, defaultHTTPTimeout), "timeout for feed requests")
	messageDuration := fs.Duration("message-duration", envOrDuration(env, envMessageDuration, defaultMessageDuration), "how long status messages stay visible")
	autoPick := fs.Bool("auto-pick", envOrBool(env, envAutoPick, true), "offer new episodes for download after a sync")
	trace := fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *maxDownloads < 1 {
		return Config{}, fmt.Errorf("max-downloads must be >= 1 (got %d)", *maxDownloads)
	}
	if *maxSyncs < 1 {
		return Config{}, fmt.Errorf("max-syncs must be >= 1 (got %d)", *maxSyncs)
	}
	if *timeout < 0 {
		return Config{}, fmt.Errorf("http-timeout must be >= 0 (got %s)", *timeout)
	}
	if *messageDuration <= 0 {
		return Config{}, fmt.Errorf("message-duration must be > 0 (got %s)", *messageDuration)
	}

	cfg := Config{
		Storage: Storage{
			DBPath:      *db,
			DownloadDir: *downloads,
		},
		Workers: Workers{
			MaxDownloads: *maxDownloads,
			MaxSyncs:     *maxSyncs,
			HTTPTimeout:  *timeout,
		},
		UI: UI{
			MessageDuration: *messageDuration,
			AutoPick:        *autoPick,
		},
		Player: *player,
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Flags: map[string]string{
			"db":               *db,
			"download-dir":     *downloads,
			"player":           *player,
			"max-downloads":    strconv.Itoa(*maxDownloads),
			"max-syncs":        strconv.Itoa(*maxSyncs),
			"http-timeout":     timeout.String(),
			"message-duration": messageDuration.String(),
			"auto-pick":        strconv.FormatBool(*autoPick),
			"trace":            strconv.FormatBool(*trace),
			"logFile":          *logFile,
		},
		Args: append([]string(nil), args...),
	}

	return cfg, nil
}

// defaultDataDir follows the XDG base directory layout, falling back to the
// working directory when no home is known.
func defaultDataDir(env map[string]string) string {
	if dir := strings.TrimSpace(env["XDG_DATA_HOME"]); dir != "" {
		return filepath.Join(dir, "castaway")
	}
	if home := strings.TrimSpace(env["HOME"]); home != "" {
		return filepath.Join(home, ".local", "share", "castaway")
	}
	return "castaway-data"
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate ensures required minimum configuration is present.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Storage.DBPath) == "" {
		return errors.New("database path must not be empty")
	}
	if strings.TrimSpace(cfg.Storage.DownloadDir) == "" {
		return errors.New("download directory must not be empty")
	}
	if len(strings.Fields(cfg.Player)) == 0 {
		return errors.New("player command must not be empty")
	}
	return nil
}
