// Package bigquery wraps the BigQuery client used for order analytics: one
// dataset, a fixed set of tables, streaming inserts and parameterized reads.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

const metadataTimeout = 10 * time.Second

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errDatasetRequired   = errors.New("bigquery dataset is required")
	errTableRequired     = errors.New("bigquery table name is required")
	errNotInitialized    = errors.New("bigquery client not initialized")
)

// TableOption declares a table the client depends on.
type TableOption func(*tableSpec)

type tableSpec struct {
	name   string
	schema bigquery.Schema
	// partitioned by day on this column when the table is created
	partitionField string
}

// CreateIfMissing lets the client create the table with schema on startup.
func CreateIfMissing(schema bigquery.Schema, partitionField string) TableOption {
	return func(t *tableSpec) {
		t.schema = schema
		t.partitionField = partitionField
	}
}

type Client struct {
	bq      *bigquery.Client
	dataset *bigquery.Dataset
	tables  map[string]*tableSpec
	logg    *logger.Logger
}

// NewClient dials BigQuery and checks that the dataset and the order events
// table exist. Tables declared with CreateIfMissing are created instead of
// failing the check.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger, opts ...TableOption) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	spec, err := orderEventsSpec(cfg, opts...)
	if err != nil {
		return nil, err
	}

	bq, err := bigquery.NewClient(ctx, project, credentials(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	c := &Client{
		bq:      bq,
		dataset: bq.Dataset(datasetID),
		tables:  map[string]*tableSpec{spec.name: spec},
		logg:    logg,
	}
	if err := c.prepare(ctx); err != nil {
		_ = bq.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"dataset": datasetID, "table": spec.name}), "bigquery.client.ready")
	}
	return c, nil
}

func orderEventsSpec(cfg config.BigQueryConfig, opts ...TableOption) (*tableSpec, error) {
	name := strings.TrimSpace(cfg.OrderEventsTable)
	if name == "" {
		return nil, errTableRequired
	}
	spec := &tableSpec{name: name}
	for _, opt := range opts {
		opt(spec)
	}
	return spec, nil
}

func credentials(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func (c *Client) prepare(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		if notFound(err) {
			return fmt.Errorf("dataset %q does not exist", c.dataset.DatasetID)
		}
		return fmt.Errorf("checking dataset %q: %w", c.dataset.DatasetID, err)
	}
	for _, spec := range c.tables {
		if err := c.prepareTable(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) prepareTable(ctx context.Context, spec *tableSpec) error {
	table := c.dataset.Table(spec.name)
	_, err := table.Metadata(ctx)
	switch {
	case err == nil:
		return nil
	case !notFound(err):
		return fmt.Errorf("checking table %q: %w", spec.name, err)
	case spec.schema == nil:
		return fmt.Errorf("table %q does not exist", spec.name)
	}

	meta := &bigquery.TableMetadata{Schema: spec.schema}
	if spec.partitionField != "" {
		meta.TimePartitioning = &bigquery.TimePartitioning{Type: bigquery.DayPartitioningType, Field: spec.partitionField}
	}
	if err := table.Create(ctx, meta); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			return nil
		}
		return fmt.Errorf("creating table %q: %w", spec.name, err)
	}
	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "table", spec.name), "bigquery.table.created")
	}
	return nil
}

// Ping re-reads dataset and table metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.bq == nil {
		return errNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()
	if _, err := c.dataset.Metadata(ctx); err != nil {
		return fmt.Errorf("dataset %q: %w", c.dataset.DatasetID, err)
	}
	for name := range c.tables {
		if _, err := c.dataset.Table(name).Metadata(ctx); err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
	}
	return nil
}

// InsertRows streams rows into table. The returned error wraps any
// bigquery.PutMultiError so callers can inspect per-row failures.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.bq == nil {
		return errNotInitialized
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errTableRequired
	}
	if len(rows) == 0 {
		return nil
	}
	if err := c.dataset.Table(table).Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("bigquery insert into %s: %w", table, err)
	}
	return nil
}

// Query runs a parameterized statement.
func (c *Client) Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	if c == nil || c.bq == nil {
		return nil, errNotInitialized
	}
	if strings.TrimSpace(sql) == "" {
		return nil, errors.New("sql query is required")
	}
	q := c.bq.Query(sql)
	q.Parameters = params
	return q.Read(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.bq == nil {
		return nil
	}
	return c.bq.Close()
}

func notFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
