package health

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the time between scheduled probes.
const DefaultInterval = 5 * time.Second

// Recorder receives every completed report.
type Recorder interface {
	RecordHealth(status, commentDB int, labels map[string]string) error
}

// Probe produces one report.
type Probe interface {
	Probe(ctx context.Context) Report
}

// Scheduler runs the prober on a fixed interval, writes the gauges and keeps
// the latest report for readers.
type Scheduler struct {
	probe    Probe
	recorder Recorder
	labels   map[string]string
	version  string
	interval time.Duration
	logger   *zap.Logger

	latest atomic.Pointer[Report]
}

// NewScheduler builds a Scheduler. labels are the constant build labels
// attached to both gauges.
func NewScheduler(
	probe Probe,
	recorder Recorder,
	version string,
	labels map[string]string,
	interval time.Duration,
	logger *zap.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		probe:    probe,
		recorder: recorder,
		labels:   labels,
		version:  version,
		interval: interval,
		logger:   logger,
	}
}

// Run probes immediately and then on every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Latest returns the most recent report, or an unavailable report before the
// first probe completes.
func (s *Scheduler) Latest() Report {
	if r := s.latest.Load(); r != nil {
		return *r
	}
	return Report{Version: s.version}
}

func (s *Scheduler) tick(ctx context.Context) {
	report := Report{Version: s.version}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("health tick panicked", zap.Any("panic", r))
			report = Report{Version: s.version}
		}
		s.latest.Store(&report)
		if s.recorder == nil {
			return
		}
		if err := s.recorder.RecordHealth(report.Status, report.DependentServices.CommentDB, s.labels); err != nil {
			s.logger.Error("record health gauges", zap.Error(err))
		}
	}()
	report = s.probe.Probe(ctx)
}
