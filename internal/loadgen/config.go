package loadgen

import (
	"runtime"
	"time"
)

// Defaults applied to zero Config fields.
const (
	defaultDJs            = 1000
	defaultSnapshotsPerDJ = 3
	defaultTopN           = 100
	defaultTimeout        = 10 * time.Second
	defaultDrainTimeout   = 2 * time.Minute
	defaultDuplicateEvery = 10
	maxSubmitAttempts     = 8
	retryBackoff          = 25 * time.Millisecond
	drainPollInterval     = 50 * time.Millisecond
	maxReportedMismatches = 10
)

// Config holds the load test parameters.
type Config struct {
	BaseURL        string        // base URL of the service
	DJs            int           // synthetic DJs to create
	SnapshotsPerDJ int           // snapshots per DJ, submitted out of order
	DuplicateEvery int           // resubmit one snapshot of every Nth DJ; < 0 disables
	TopN           int           // leaderboard entries to check
	Workers        int           // concurrent HTTP workers
	Timeout        time.Duration // per-request timeout
	DrainTimeout   time.Duration // how long to wait for the queue to empty
	Seed           uint64        // 0 picks a time based seed
}

func (c Config) withDefaults() Config {
	if c.DJs <= 0 {
		c.DJs = defaultDJs
	}
	if c.SnapshotsPerDJ <= 0 {
		c.SnapshotsPerDJ = defaultSnapshotsPerDJ
	}
	if c.DuplicateEvery == 0 {
		c.DuplicateEvery = defaultDuplicateEvery
	}
	if c.TopN <= 0 {
		c.TopN = defaultTopN
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() * 2
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano()) //nolint:gosec // a seed, not a conversion of a count
	}
	return c
}

// Mismatch is one DJ whose served result disagrees with the local engine.
type Mismatch struct {
	DJID     string `json:"dj_id" yaml:"dj_id"`
	Field    string `json:"field" yaml:"field"`
	Expected string `json:"expected" yaml:"expected"`
	Actual   string `json:"actual" yaml:"actual"`
}

// Report summarises one run.
type Report struct {
	Seed               uint64         `json:"seed" yaml:"seed"`
	DJs                int            `json:"djs" yaml:"djs"`
	Generated          int            `json:"generated" yaml:"generated"`
	Accepted           int            `json:"accepted" yaml:"accepted"`
	Duplicates         int            `json:"duplicates" yaml:"duplicates"`
	Retries            int            `json:"retries" yaml:"retries"`
	Failed             int            `json:"failed" yaml:"failed"`
	Verified           int            `json:"verified" yaml:"verified"`
	Mismatches         int            `json:"mismatches" yaml:"mismatches"`
	LeaderboardEntries int            `json:"leaderboard_entries" yaml:"leaderboard_entries"`
	Duration           time.Duration  `json:"duration" yaml:"duration"`
	SnapshotsPerSecond float64        `json:"snapshots_per_second" yaml:"snapshots_per_second"`
	ByProfile          map[string]int `json:"by_profile" yaml:"by_profile"`
	Samples            []Mismatch     `json:"samples,omitempty" yaml:"samples,omitempty"`
}
