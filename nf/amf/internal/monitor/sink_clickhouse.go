package monitor

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/fivegc/corenet/nf/amf/internal/config"
	"github.com/fivegc/corenet/nf/amf/internal/orchestrator"
)

// ClickHouseSink writes one row per stats tick to an amf_stats table.
type ClickHouseSink struct {
	conn driver.Conn
}

// NewClickHouseSink opens a connection pool against cfg. The caller should
// only construct this when cfg.Enabled is true.
func NewClickHouseSink(cfg config.ClickHouseConfig) (*ClickHouseSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addresses,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	return &ClickHouseSink{conn: conn}, nil
}

// WriteStats inserts a single snapshot row.
func (s *ClickHouseSink) WriteStats(ctx context.Context, snap orchestrator.Snapshot, systemLoad float64) error {
	return s.conn.Exec(ctx, `
		INSERT INTO amf_stats (
			timestamp, total_ue_contexts, active_sessions, registered_nfs,
			healthy_nfs, system_load
		) VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now(),
		snap.UeContexts,
		snap.ActiveSessions,
		snap.RegisteredNFs,
		snap.HealthyNFs,
		systemLoad,
	)
}

// Close releases the underlying connection pool.
func (s *ClickHouseSink) Close() error {
	return s.conn.Close()
}
