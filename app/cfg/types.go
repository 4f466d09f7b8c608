package cfg

import (
	"path/filepath"
	"time"
)

type Cfg struct {
	// Storage and archive locations
	DataDir      string
	AnnexDir     string
	PodcastsFile string

	// Application configuration
	Port              string
	WorkerCount       int
	SchedulerInterval int
	FetchTimeout      int
	Cooldown          int
	FetchRate         float64
	ArchiverBinary    string
	Once              bool

	// Web UI authentication
	WebUser     string
	WebPassword string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

func (c *Cfg) DatabasePath() string {
	return filepath.Join(c.DataDir, "podcasts.sqlite")
}

func (c *Cfg) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Cfg) CooldownDuration() time.Duration {
	return time.Duration(c.Cooldown) * time.Second
}

func (c *Cfg) SchedulerIntervalDuration() time.Duration {
	return time.Duration(c.SchedulerInterval) * time.Second
}

// WebAuthEnabled reports whether the UI requires basic auth.
func (c *Cfg) WebAuthEnabled() bool {
	return c.WebUser != "" && c.WebPassword != ""
}
