// Package health runs a cron-scheduled curve-staleness watchdog and
// reports process vitals for the admin server's /healthz endpoint.
package health

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/riskdesk/fi-risk-engine/internal/curve"
)

// Job is a unit of scheduled work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler wraps a robfig/cron instance with structured logging around
// each run.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler creates a scheduler with second-resolution cron specs.
func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "health_scheduler").Logger(),
	}
}

// Start starts the underlying cron runner.
func (s *Scheduler) Start() { s.cron.Start(); s.log.Info().Msg("health scheduler started") }

// Stop drains in-flight jobs and stops the runner.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("health scheduler stopped")
}

// AddJob registers job on the given cron spec.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("health job failed")
		}
	})
	return err
}

// StalenessWatchdog flags when the curve hasn't received a tick within
// maxAge, logging a warning so an operator notices a stalled feed
// before the admin /readyz probe starts failing externally.
type StalenessWatchdog struct {
	curve  *curve.Builder
	maxAge time.Duration
	log    zerolog.Logger
}

// NewStalenessWatchdog builds a watchdog over c.
func NewStalenessWatchdog(c *curve.Builder, maxAge time.Duration, log zerolog.Logger) *StalenessWatchdog {
	return &StalenessWatchdog{
		curve:  c,
		maxAge: maxAge,
		log:    log.With().Str("component", "staleness_watchdog").Logger(),
	}
}

// Name identifies the job in scheduler logs.
func (w *StalenessWatchdog) Name() string { return "curve_staleness_watchdog" }

// Run checks the curve's age and logs a warning if it exceeds maxAge.
func (w *StalenessWatchdog) Run() error {
	if !w.curve.Built() {
		w.log.Warn().Msg("curve has not received its first tick yet")
		return nil
	}
	age := time.Since(w.curve.AsOf())
	if age > w.maxAge {
		w.log.Warn().
			Dur("age", age).
			Dur("max_age", w.maxAge).
			Msg("curve tick is stale")
	}
	return nil
}

// Snapshot is a point-in-time process health reading.
type Snapshot struct {
	Status       string    `json:"status"`
	UptimeHours  float64   `json:"uptime_hours"`
	CPUPercent   float64   `json:"cpu_percent"`
	RAMPercent   float64   `json:"ram_percent"`
	CurveBuilt   bool      `json:"curve_built"`
	CurveAsOf    time.Time `json:"curve_as_of,omitempty"`
}

// Collector gathers Snapshot readings for the admin server.
type Collector struct {
	curve       *curve.Builder
	startupTime time.Time
	log         zerolog.Logger
}

// NewCollector builds a Collector over c, timestamping process start
// as now.
func NewCollector(c *curve.Builder, log zerolog.Logger) *Collector {
	return &Collector{
		curve:       c,
		startupTime: time.Now(),
		log:         log.With().Str("component", "health_collector").Logger(),
	}
}

// Snapshot reads current CPU/memory stats and curve state. CPU sampling
// blocks for 100ms, short enough not to stall a polling health-check
// caller.
func (c *Collector) Snapshot() Snapshot {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to read CPU percentage")
		cpuPercent = []float64{0}
	}
	memStat, err := mem.VirtualMemory()
	ramPercent := 0.0
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to read memory statistics")
	} else {
		ramPercent = memStat.UsedPercent
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	status := "healthy"
	if !c.curve.Built() {
		status = "degraded"
	}

	return Snapshot{
		Status:      status,
		UptimeHours: time.Since(c.startupTime).Hours(),
		CPUPercent:  cpuAvg,
		RAMPercent:  ramPercent,
		CurveBuilt:  c.curve.Built(),
		CurveAsOf:   c.curve.AsOf(),
	}
}
