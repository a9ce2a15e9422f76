// Package warehouse provides connectivity to the MS SQL Server reporting
// warehouse. The API pushes nightly opportunity snapshots there so the BI
// team can report on pipeline movement without touching the primary database.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/presaleshub/crm-api/internal/config"
	"github.com/presaleshub/crm-api/internal/domain"
	"go.uber.org/zap"
)

const (
	// Retry configuration for connection attempts
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second

	// snapshotTable is the warehouse target for opportunity snapshots
	snapshotTable = "dbo.crm_opportunity_snapshot"
)

// Client provides access to the MS SQL Server reporting warehouse.
// It manages connection pooling and retries transient connection failures.
type Client struct {
	db           *sql.DB
	config       *config.WarehouseConfig
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus represents the health check result for the warehouse connection
type HealthStatus struct {
	Status     string        `json:"status"`
	Latency    time.Duration `json:"latency_ms"`
	Error      string        `json:"error,omitempty"`
	MaxOpen    int           `json:"max_open_connections"`
	Open       int           `json:"open_connections"`
	InUse      int           `json:"in_use"`
	Idle       int           `json:"idle"`
	WaitCount  int64         `json:"wait_count"`
	WaitTimeMs int64         `json:"wait_time_ms"`
}

// NewClient creates a warehouse client with the given configuration.
// Returns nil if the warehouse is not enabled or not configured; the API
// runs fine without it.
func NewClient(cfg *config.WarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Warehouse connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Warehouse enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	logger.Info("Initializing warehouse connection",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.ConnMaxLifetime),
		zap.Int("query_timeout_seconds", cfg.QueryTimeout),
	)

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	var db *sql.DB
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		logger.Info("Attempting warehouse connection",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultMaxRetries),
		)

		db, err = sql.Open("sqlserver", connStr)
		if err != nil {
			logger.Warn("Failed to open warehouse connection",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

		ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
		err = db.PingContext(ctx)
		cancel()

		if err != nil {
			logger.Warn("Warehouse ping failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			_ = db.Close()
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		logger.Info("Warehouse connection established successfully",
			zap.Int("attempts_taken", attempt),
		)

		return &Client{
			db:           db,
			config:       cfg,
			logger:       logger,
			queryTimeout: cfg.QueryTimeoutDuration(),
		}, nil
	}

	return nil, fmt.Errorf("failed to connect to warehouse after %d attempts: %w", defaultMaxRetries, err)
}

// buildConnectionString constructs a SQL Server connection string from the
// config. URL format expected: host:port/database or host:port.
func buildConnectionString(cfg *config.WarehouseConfig) (string, error) {
	urlParts := strings.SplitN(cfg.URL, "/", 2)
	hostPort := urlParts[0]
	database := ""
	if len(urlParts) > 1 {
		database = urlParts[1]
	}

	hostParts := strings.SplitN(hostPort, ":", 2)
	host := hostParts[0]
	port := "1433" // Default SQL Server port
	if len(hostParts) > 1 {
		port = hostParts[1]
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: query.Encode(),
	}

	return u.String(), nil
}

// Close gracefully closes the warehouse connection.
// Should be called during application shutdown.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	c.logger.Info("Closing warehouse connection")

	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close warehouse connection", zap.Error(err))
		return fmt.Errorf("failed to close warehouse connection: %w", err)
	}

	return nil
}

// HealthCheck performs a health check on the warehouse connection.
// Returns detailed status including connection pool statistics.
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if c == nil || c.db == nil {
		return &HealthStatus{
			Status: "disabled",
		}
	}

	start := time.Now()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	err := c.db.PingContext(ctx)
	latency := time.Since(start)

	stats := c.db.Stats()
	status := &HealthStatus{
		Latency:    latency,
		MaxOpen:    stats.MaxOpenConnections,
		Open:       stats.OpenConnections,
		InUse:      stats.InUse,
		Idle:       stats.Idle,
		WaitCount:  stats.WaitCount,
		WaitTimeMs: stats.WaitDuration.Milliseconds(),
	}

	if err != nil {
		c.logger.Warn("Warehouse health check failed",
			zap.Error(err),
			zap.Duration("latency", latency),
		)
		status.Status = "unhealthy"
		status.Error = err.Error()
	} else {
		status.Status = "healthy"
	}

	return status
}

// IsEnabled returns true if the client is initialized and ready for queries
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// UpsertOpportunitySnapshots pushes the current opportunity set into the
// warehouse snapshot table via MERGE. Rows are written one at a time; a
// single failing row aborts the run so a partial snapshot is never left
// looking complete.
func (c *Client) UpsertOpportunitySnapshots(ctx context.Context, opportunities []domain.Opportunity) (int, error) {
	if c == nil || c.db == nil {
		return 0, fmt.Errorf("warehouse client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	query := fmt.Sprintf(`MERGE %s AS target
USING (SELECT @p1 AS opportunity_id) AS source
ON target.opportunity_id = source.opportunity_id
WHEN MATCHED THEN UPDATE SET
	opportunity_name = @p2, client_name = @p3, amount = @p4, currency = @p5,
	pipeline_status = @p6, approval_stage = @p7, probability = @p8,
	owner_user_id = @p9, snapshot_at = @p10
WHEN NOT MATCHED THEN INSERT
	(opportunity_id, opportunity_name, client_name, amount, currency,
	 pipeline_status, approval_stage, probability, owner_user_id, snapshot_at)
VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10);`, snapshotTable)

	start := time.Now()
	snapshotAt := start.UTC()

	written := 0
	for i := range opportunities {
		opp := &opportunities[i]
		_, err := c.db.ExecContext(ctx, query,
			opp.ID,
			opp.OpportunityName,
			opp.ClientName,
			opp.Amount,
			opp.Currency,
			opp.PipelineStatus,
			string(opp.ApprovalStage),
			opp.Probability,
			opp.UserID,
			snapshotAt,
		)
		if err != nil {
			c.logger.Error("Warehouse snapshot upsert failed",
				zap.Uint("opportunity_id", opp.ID),
				zap.Int("written", written),
				zap.Error(err),
			)
			return written, fmt.Errorf("failed to upsert snapshot for opportunity %d: %w", opp.ID, err)
		}
		written++
	}

	c.logger.Info("Warehouse snapshot sync completed",
		zap.Int("rows", written),
		zap.Duration("duration", time.Since(start)),
	)

	return written, nil
}
