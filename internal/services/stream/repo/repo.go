// Package repo provides the stream storage: Postgres for landed rows and bookkeeping,
// ClickHouse for the append-only facts
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"insightmart/internal/core/stream"
	"insightmart/internal/core/validate"
	"insightmart/internal/modkit/repokit"
	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/store"
	"insightmart/internal/services/stream/domain"
)

// NewHybrid returns a binder that uses
// - Postgres for landed rows, cursors, rejects and the run log
// - ClickHouse for stream_prices and stream_news
func NewHybrid(ch store.Clickhouse) repokit.Binder[domain.StorageRepo] {
	return &hybridBinder{ch: ch}
}

type hybridBinder struct{ ch store.Clickhouse }

func (b *hybridBinder) Bind(q repokit.Queryer) domain.StorageRepo {
	return &hybridStore{pg: q, ch: b.ch}
}

type hybridStore struct {
	pg repokit.Queryer
	ch store.Clickhouse
}

var _ domain.StorageRepo = (*hybridStore)(nil)

// sink tables allowed in Seen
var sinkTables = map[string]bool{validate.TablePrices: true, validate.TableNews: true}

func (s *hybridStore) Cursor(ctx context.Context, name string) (*time.Time, error) {
	vals, err := store.Many(ctx, s.pg, func(row store.Row) (*time.Time, error) {
		var v *time.Time
		return v, row.Scan(&v)
	}, `SELECT value FROM mart_cursors WHERE name = $1`, name)
	if err != nil || len(vals) == 0 {
		return nil, err
	}
	return vals[0], nil
}

func (s *hybridStore) SetCursor(ctx context.Context, name string, v *time.Time) error {
	_, err := s.pg.Exec(ctx, `
		INSERT INTO mart_cursors (name, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, name, v)
	return err
}

func (s *hybridStore) Prices(ctx context.Context, after *time.Time) ([]stream.PriceRaw, error) {
	return store.Many(ctx, s.pg, func(row store.Row) (stream.PriceRaw, error) {
		var p stream.PriceRaw
		err := row.Scan(&p.ID, &p.Source, &p.Price, &p.Change24h, &p.EventTimestamp, &p.IngestionTimestamp)
		return p, err
	}, `
		SELECT id, COALESCE(source, ''), price, change_24h, event_timestamp, ingestion_timestamp
		  FROM bitcoin_prices_raw
		 WHERE $1::timestamptz IS NULL OR event_timestamp > $1
		 ORDER BY event_timestamp, id`, after)
}

func (s *hybridStore) News(ctx context.Context, after *time.Time) ([]stream.NewsRaw, error) {
	return store.Many(ctx, s.pg, func(row store.Row) (stream.NewsRaw, error) {
		var n stream.NewsRaw
		err := row.Scan(&n.ID, &n.Source, &n.Headline, &n.Description, &n.Category, &n.SourceName, &n.URL,
			&n.PublishedAt, &n.EventTimestamp, &n.IngestionTimestamp)
		return n, err
	}, `
		SELECT id, COALESCE(source, ''), COALESCE(headline, ''), COALESCE(description, ''),
		       COALESCE(category, ''), COALESCE(source_name, ''), COALESCE(url, ''),
		       published_at, event_timestamp, ingestion_timestamp
		  FROM news_events_raw
		 WHERE $1::timestamptz IS NULL OR event_timestamp > $1
		 ORDER BY event_timestamp, id`, after)
}

// SaveRejects records each reject once; a reject is never retried
func (s *hybridStore) SaveRejects(ctx context.Context, runID string, rs []stream.Reject) error {
	for _, r := range rs {
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "encode reject %s/%s", r.Source, r.EventID)
		}
		if _, err := s.pg.Exec(ctx, `
			INSERT INTO stream_rejects (source, event_id, reason, event_timestamp, payload, run_id, rejected_at)
			VALUES ($1, $2, $3, $4, $5::jsonb, $6::uuid, now())
			ON CONFLICT (source, event_id) DO NOTHING`,
			r.Source, r.EventID, r.Reason, r.EventTimestamp, string(payload), runID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *hybridStore) LastPrice(ctx context.Context) (*float64, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT price FROM stream_prices FINAL
		 ORDER BY event_timestamp DESC, id DESC
		 LIMIT 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	var p float64
	if err := rows.Scan(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *hybridStore) Seen(ctx context.Context, table string, ids []string) (map[string]bool, error) {
	if !sinkTables[table] {
		return nil, perr.InvalidArgf("stream: unknown sink table %q", table)
	}
	out := map[string]bool{}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.ch.Query(ctx, fmt.Sprintf(`SELECT DISTINCT id FROM %s WHERE has(?, id)`, table), ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

var priceColumns = []string{
	"id", "source", "price", "change_24h", "event_timestamp", "ingestion_timestamp",
	"volatility_category", "price_date", "price_hour", "day_of_week", "previous_price",
	"is_valid_record", "processed_at",
}

func (s *hybridStore) AppendPrices(ctx context.Context, fs []stream.PriceFact) error {
	rows := make([][]any, len(fs))
	for i, f := range fs {
		rows[i] = []any{
			f.ID, f.Source, f.Price, f.Change24h, f.EventTimestamp, f.IngestionTimestamp,
			f.Volatility, f.PriceDate, uint8(f.PriceHour), uint8(f.DayOfWeek), f.PreviousPrice,
			f.IsValid, f.ProcessedAt,
		}
	}
	return s.ch.Insert(ctx, validate.TablePrices, priceColumns, rows)
}

var newsColumns = []string{
	"id", "source", "headline", "description", "category", "source_name", "url", "published_at",
	"headline_words", "headline_length", "mentions_topic", "source_category",
	"event_timestamp", "ingestion_timestamp", "processed_at",
}

func (s *hybridStore) AppendNews(ctx context.Context, fs []stream.NewsFact) error {
	rows := make([][]any, len(fs))
	for i, f := range fs {
		rows[i] = []any{
			f.ID, f.Source, f.Headline, f.Description, f.Category, f.SourceName, f.URL, f.PublishedAt,
			uint32(f.HeadlineWords), f.HeadlineLength, f.MentionsTopic, f.SourceCategory,
			f.EventTimestamp, f.IngestionTimestamp, f.ProcessedAt,
		}
	}
	return s.ch.Insert(ctx, validate.TableNews, newsColumns, rows)
}

func (s *hybridStore) StartRun(ctx context.Context, run domain.RunLog) error {
	_, err := s.pg.Exec(ctx, `
		INSERT INTO mart_runs (run_id, kind, started_at, status) VALUES ($1::uuid, $2, $3, $4)`,
		run.ID, run.Kind, run.StartedAt, run.Status,
	)
	return err
}

func (s *hybridStore) FinishRun(ctx context.Context, run domain.RunLog) error {
	_, err := s.pg.Exec(ctx, `
		UPDATE mart_runs
		   SET finished_at = $2, status = $3,
		       selected = $4, upserted = $5, duplicates = $6, rejected = $7, failed_rules = $8,
		       cursor_value = $9, error = NULLIF($10, '')
		 WHERE run_id = $1::uuid`,
		run.ID, run.FinishedAt, run.Status,
		run.Selected, run.Appended, run.Duplicates, run.Rejected, run.FailedRules,
		run.Cursor, run.Error,
	)
	return err
}

func (s *hybridStore) SaveValidation(ctx context.Context, runID string, rs []validate.Result) error {
	for _, x := range rs {
		samples := x.Samples
		if samples == nil {
			samples = []string{}
		}
		if _, err := s.pg.Exec(ctx, `
			INSERT INTO mart_validation_results (run_id, rule, table_name, kind, severity, violations, samples)
			VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (run_id, rule) DO UPDATE SET
				violations = EXCLUDED.violations, samples = EXCLUDED.samples, severity = EXCLUDED.severity`,
			runID, x.Rule, x.Table, string(x.Kind), string(x.Severity), x.Violations, samples,
		); err != nil {
			return err
		}
	}
	return nil
}
