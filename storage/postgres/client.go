// Package postgres implements the record sink backed by PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"

	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/log"
	"github.com/basilisk-nexus/eventnexus/storage"
)

const (
	moduleName = "postgres"
)

// Client is a client for connecting to PostgreSQL.
type Client struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// pgxLogger routes pgx tracing through the eventnexus logger.
type pgxLogger struct {
	logger *log.Logger
}

func (l *pgxLogger) logFuncForLevel(level tracelog.LogLevel) func(string, ...interface{}) {
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		return l.logger.Debug
	case tracelog.LogLevelInfo:
		return l.logger.Info
	case tracelog.LogLevelWarn:
		return l.logger.Warn
	case tracelog.LogLevelError, tracelog.LogLevelNone:
		return l.logger.Error
	default:
		l.logger.Warn("Unknown log level", "unknown_level", level)
		return l.logger.Info
	}
}

// Log implements tracelog.Logger.
func (l *pgxLogger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]interface{}) {
	args := []interface{}{}
	for k, v := range data {
		args = append(args, k, v)
	}
	l.logFuncForLevel(level)(msg, args...)
}

// NewClient creates a new PostgreSQL client.
func NewClient(connString string, l *log.Logger) (*Client, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	// A pgx line is emitted only if it passes both this level and the
	// level of the underlying logger. "Info" logs every statement.
	config.ConnConfig.Tracer = &tracelog.TraceLog{
		LogLevel: tracelog.LogLevelWarn,
		Logger: &pgxLogger{
			logger: l.WithModule(moduleName).With("db", config.ConnConfig.Database),
		},
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}
	return &Client{
		pool:   pool,
		logger: l.WithModule(moduleName),
	}, nil
}

// SendBatch submits a batch of queries as one atomic transaction. Row counts
// are discarded.
func (c *Client) SendBatch(ctx context.Context, batch *storage.QueryBatch) error {
	if err := c.sendBatchFast(ctx, batch); err == nil {
		return nil
	}
	// The tx was reverted, so resubmitting is safe. The slow path names the
	// statement that failed.
	return c.sendBatchSlow(ctx, batch)
}

// sendBatchFast pipelines the whole batch in one roundtrip. pgx attributes
// any conversion or syntax error to the first query, so errors from here
// are not reported.
func (c *Client) sendBatchFast(ctx context.Context, batch *storage.QueryBatch) error {
	pgxBatch := batch.AsPgxBatch()
	// SendBatch runs the batch in an implicit transaction.
	batchResults := c.pool.SendBatch(ctx, &pgxBatch)
	defer common.CloseOrLog(batchResults, c.logger)

	for i := 0; i < pgxBatch.Len(); i++ {
		if _, err := batchResults.Exec(); err != nil {
			return fmt.Errorf("query %d %v: %w", i, batch.Queries()[i], err)
		}
	}
	return nil
}

// sendBatchSlow executes the batch one statement at a time.
func (c *Client) sendBatchSlow(ctx context.Context, batch *storage.QueryBatch) error {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	for i, q := range batch.Queries() {
		if _, err2 := tx.Exec(ctx, q.Cmd, q.Args...); err2 != nil {
			rollbackErr := ""
			if err3 := tx.Rollback(ctx); err3 != nil {
				rollbackErr = fmt.Sprintf("; also failed to rollback tx: %s", err3.Error())
			}
			return fmt.Errorf("query %d %v: %w%s", i, q, err2, rollbackErr)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		c.logger.Error("failed to submit tx",
			"error", err,
			"batch", batch.Queries(),
		)
		return err
	}
	return nil
}

// Query submits a new read query to PostgreSQL.
func (c *Client) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		c.logger.Error("failed to query db",
			"error", err,
			"query_cmd", sql,
			"query_args", args,
		)
		return nil, err
	}
	return rows, nil
}

// QueryRow submits a new read query for a single row to PostgreSQL.
func (c *Client) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return c.pool.QueryRow(ctx, sql, args...)
}

func (c *Client) Close() {
	c.pool.Close()
}

func (c *Client) Name() string {
	return moduleName
}

// listQualified runs a query returning (schema, name) pairs and joins them.
func (c *Client) listQualified(ctx context.Context, what string, sql string) ([]string, error) {
	rows, err := c.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var schema, name string
		if err = rows.Scan(&schema, &name); err != nil {
			return nil, err
		}
		names = append(names, fmt.Sprintf("%s.%s", schema, name))
	}
	return names, rows.Err()
}

// Wipe removes all tables, types and functions outside the Postgres
// internal schemas.
func (c *Client) Wipe(ctx context.Context) error {
	for _, obj := range []struct {
		what string
		drop string
		list string
	}{
		{"tables", "TABLE", listTables},
		{"types", "TYPE", listTypes},
		{"domains", "DOMAIN", listDomains},
		{"functions", "FUNCTION", listFunctions},
	} {
		names, err := c.listQualified(ctx, obj.what, obj.list)
		if err != nil {
			return err
		}
		for _, name := range names {
			c.logger.Info("dropping "+obj.what, "name", name)
			if _, err = c.pool.Exec(ctx, fmt.Sprintf("DROP %s %s CASCADE;", obj.drop, name)); err != nil {
				return err
			}
		}
	}
	return nil
}
