// Package health probes the comment database and keeps the latest report
// for the healthcheck endpoint and the health gauges.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// LivenessQuery is a cheap read every reachable Postgres server answers.
const LivenessQuery = "SELECT datname FROM pg_database"

// Availability values.
const (
	Unavailable = 0
	Available   = 1
)

// DefaultTimeout bounds connection establishment and the liveness query.
const DefaultTimeout = 2 * time.Second

// Report is the structured health summary served by /healthcheck.
type Report struct {
	Status            int               `json:"status"`
	DependentServices DependentServices `json:"dependent_services"`
	Version           string            `json:"version"`
}

// DependentServices lists per-dependency availability.
type DependentServices struct {
	CommentDB int `json:"commentdb"`
}

// Conn is the part of a database connection the prober uses. *pgx.Conn
// satisfies it.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close(ctx context.Context) error
}

// Connector opens a fresh connection for each probe.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (Conn, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context) (Conn, error) {
	return f(ctx)
}

// NewPostgresConnector dials dsn with the given connect timeout. No pool is
// used so every probe exercises connection establishment.
func NewPostgresConnector(dsn string, timeout time.Duration) (ConnectorFunc, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse health dsn: %w", err)
	}
	if timeout > 0 {
		cfg.ConnectTimeout = timeout
	}
	return func(ctx context.Context) (Conn, error) {
		conn, err := pgx.ConnectConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		return conn, nil
	}, nil
}

// Prober classifies comment database availability.
type Prober struct {
	connector Connector
	version   string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewProber builds a Prober. version is echoed into every report.
func NewProber(connector Connector, version string, timeout time.Duration, logger *zap.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{connector: connector, version: version, timeout: timeout, logger: logger}
}

// Probe connects, runs LivenessQuery and always closes the connection. It
// never returns an error: any failure, including a panic, yields an
// unavailable report.
func (p *Prober) Probe(ctx context.Context) (report Report) {
	report = Report{Version: p.version}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("health probe panicked", zap.Any("panic", r))
			report = Report{Version: p.version}
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.connector.Connect(probeCtx)
	if err != nil {
		p.logger.Warn("comment database unreachable", zap.Error(err))
		return report
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer closeCancel()
		if err := conn.Close(closeCtx); err != nil {
			p.logger.Debug("closing health connection failed", zap.Error(err))
		}
	}()

	rows, err := conn.Query(probeCtx, LivenessQuery)
	if err != nil {
		p.logger.Warn("liveness query failed", zap.Error(err))
		return report
	}
	// Close drains the result set and surfaces late errors through Err.
	rows.Close()
	if err := rows.Err(); err != nil {
		p.logger.Warn("liveness query failed", zap.Error(err))
		return report
	}

	report.Status = Available
	report.DependentServices.CommentDB = Available
	return report
}
