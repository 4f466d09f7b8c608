package cfg

import (
	"cmp"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage and archive locations
	DataDir      string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory holding the SQLite database"`
	AnnexDir     string `long:"annex-dir" env:"ANNEX_DIR" description:"git-annex repository receiving archived episodes (required)" required:"true"`
	PodcastsFile string `long:"podcasts" env:"PODCASTS_CONFIG" description:"Podcast catalog YAML file (default: <data-dir>/podcasts.yml)"`

	// Application configuration
	Port              string  `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int     `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of podcasts synced concurrently"`
	SchedulerInterval int     `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"900" description:"Seconds between sync cycles"`
	FetchTimeout      int     `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"20" description:"Feed download timeout in seconds"`
	Cooldown          int     `long:"cooldown" env:"FETCH_COOLDOWN" default:"3600" description:"Minimum seconds between fetches of the same podcast"`
	FetchRate         float64 `long:"fetch-rate" env:"FETCH_RATE" default:"0" description:"Maximum feed downloads per second (0 disables pacing)"`
	ArchiverBinary    string  `long:"archiver" env:"ARCHIVER_BIN" default:"git-annex" description:"git-annex binary used to import feeds"`
	Once              bool    `long:"once" env:"SYNC_ONCE" description:"Run a single sync cycle and exit"`

	// Web UI authentication
	WebUser     string `long:"web-user" env:"WEB_USER" description:"Basic auth user for the web UI (optional)"`
	WebPassword string `long:"web-password" env:"WEB_PASSWORD" description:"Basic auth password for the web UI (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"podcast-annex/1.0" description:"User agent string for feed requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses flags and environment. It returns nil, nil when help was shown.
func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs is Load with explicit arguments; nil means os.Args.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DataDir:           raw.DataDir,
		AnnexDir:          raw.AnnexDir,
		PodcastsFile:      cmp.Or(raw.PodcastsFile, filepath.Join(raw.DataDir, "podcasts.yml")),
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		FetchTimeout:      raw.FetchTimeout,
		Cooldown:          raw.Cooldown,
		FetchRate:         raw.FetchRate,
		ArchiverBinary:    raw.ArchiverBinary,
		Once:              raw.Once,
		WebUser:           raw.WebUser,
		WebPassword:       raw.WebPassword,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	positiveFields := map[string]int{
		"worker count":       c.WorkerCount,
		"scheduler interval": c.SchedulerInterval,
		"fetch timeout":      c.FetchTimeout,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must be non-negative")
	}
	if c.FetchRate < 0 {
		return fmt.Errorf("fetch rate must be non-negative")
	}
	if (c.WebUser == "") != (c.WebPassword == "") {
		return fmt.Errorf("web user and web password must be set together")
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
