// Package config centralizes the tunables shared by the back-ends, in
// particular the indexed list and its background worker. Zero-value fields
// fall back to documented defaults, matching the BatcherConfig pattern in
// this module's teacher (microbatch.NewBatcher): a nil *Config is always
// valid.
package config

import (
	"time"

	"github.com/joeycumines/go-ordset/internal/telemetry"
)

// Config holds tunables for a Set. A nil *Config, or any zero field within
// one, uses the default documented below.
type Config struct {
	// NumThreads is the number of user goroutines that will register via
	// RegisterThread. Required for the indexed back-end (it sizes the RCU
	// and reclaim participant tables); ignored by back-ends that don't use
	// RCU. Defaults to 1.
	NumThreads int

	// IdxGap is the index's target sampling interval: roughly one index
	// entry is kept per IdxGap live nodes. Defaults to 4, matching IDX_GAP.
	IdxGap int

	// MaxGapFactor bounds the tolerated gap between adjacent index entries
	// as a multiple of IdxGap before the background worker restructures:
	// MaxGap = IdxGap * MaxGapFactor. Defaults to 10.
	MaxGapFactor int

	// GCThreshold is the number of retired nodes a participant accumulates
	// locally before attempting to splice them onto the global freelist.
	// Defaults to reclaim.DefaultThreshold (10).
	GCThreshold int

	// BackgroundInterval is the sleep duration between background worker
	// passes. Defaults to 250 microseconds, matching the source's
	// usleep(250).
	BackgroundInterval time.Duration

	// Logger receives structured events describing background worker
	// activity. Defaults to a discarding logger.
	Logger *telemetry.Logger
}

const (
	DefaultNumThreads         = 1
	DefaultIdxGap             = 4
	DefaultMaxGapFactor       = 10
	DefaultBackgroundInterval = 250 * time.Microsecond
)

// NumThreadsOrDefault returns c.NumThreads, or the default if c is nil or
// the field is <= 0, so the resolved value is always positive.
func (c *Config) NumThreadsOrDefault() int {
	if c == nil || c.NumThreads <= 0 {
		return DefaultNumThreads
	}
	return c.NumThreads
}

func (c *Config) IdxGapOrDefault() int {
	if c == nil || c.IdxGap <= 0 {
		return DefaultIdxGap
	}
	return c.IdxGap
}

func (c *Config) MaxGap() int {
	factor := DefaultMaxGapFactor
	if c != nil && c.MaxGapFactor > 0 {
		factor = c.MaxGapFactor
	}
	return c.IdxGapOrDefault() * factor
}

func (c *Config) GCThresholdOrDefault() int {
	if c == nil || c.GCThreshold <= 0 {
		return 0 // let reclaim.New apply its own default
	}
	return c.GCThreshold
}

func (c *Config) BackgroundIntervalOrDefault() time.Duration {
	if c == nil || c.BackgroundInterval <= 0 {
		return DefaultBackgroundInterval
	}
	return c.BackgroundInterval
}

// LoggerOrDefault returns c.Logger, or a discarding logger if unset.
func (c *Config) LoggerOrDefault() *telemetry.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}
	return telemetry.Discard()
}
