package module

import (
	"strconv"
	"time"

	"insightmart/internal/core/calendar"
	"insightmart/internal/core/dims"
	"insightmart/internal/core/history"
	"insightmart/internal/core/pipeline"
	"insightmart/internal/core/rules"
	"insightmart/internal/core/sales"
	"insightmart/internal/core/segments"
	"insightmart/internal/core/staging"
	"insightmart/internal/core/validate"
	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/config"
	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/net/http/bind"
	"insightmart/internal/services/build/guardrails"
	"insightmart/internal/services/build/repo"
	"insightmart/internal/services/build/service"
)

// Source names
const (
	SourcePostgres  = "postgres"
	SourceSnowflake = "snowflake"
)

// Options for the build module
type Options struct {
	Source   string `env:"SOURCE" validate:"oneof=postgres snowflake"`
	Schedule string `env:"SCHEDULE"`

	Precision    int    `env:"PRECISION" validate:"min=0,max=8"`
	Grain        string `env:"GRAIN" validate:"oneof=transaction line"`
	DiscountMode string `env:"DISCOUNT_MODE" validate:"oneof=category category_month"`
	DateLayouts  []string

	CalendarStart *time.Time
	CalendarEnd   *time.Time
	MarginDays    int `env:"CALENDAR_MARGIN_DAYS" validate:"min=0"`

	Tenure        []config.Pair
	SaleSize      []config.Pair
	Recency       []config.Pair
	ProductGroups []config.Pair
	SegmentLabels []string `env:"SEGMENT_LABELS" validate:"min=1"`
	AsOf          *time.Time

	TotalMin *float64
	TotalMax *float64
	Severity string

	CloseMissing bool
	Reseed       bool

	EnableLeases     bool
	LeaseKey         int64
	StatementTimeout time.Duration `env:"STATEMENT_TIMEOUT" validate:"min=0"`
	Retries          int           `env:"RETRIES" validate:"min=1"`
	RetryBase        time.Duration `env:"RETRY_BASE" validate:"min=0"`

	Snowflake repo.SnowflakeConfig `validate:"-"`
}

// FromConfig fills options from environment
// CORE_BUILD_SOURCE (default "postgres") picks where raw tables are read: "postgres" or "snowflake"
// CORE_BUILD_SCHEDULE (default "") is a cron expression or interval; empty runs once
// CORE_BUILD_GRAIN (default "transaction") and CORE_BUILD_DISCOUNT_MODE (default "category")
// CORE_BUILD_TENURE_BANDS, _SALE_SIZE_BANDS, _RECENCY_BANDS are "<6=New;<=12=Developing;*=Loyal" ladders
// CORE_BUILD_PRODUCT_GROUPS is "Nest*=Smart Home;...;*=Other", first match wins
// CORE_VALIDATE_SEVERITY overrides rule severities, "rule:warn,rule:fail"
// SNOWFLAKE_* addresses the snowflake source
func FromConfig(cfg config.Conf) (Options, error) {
	b := cfg.Prefix("CORE_BUILD_")
	o := Options{
		Source:   b.MayEnum("SOURCE", SourcePostgres, SourcePostgres, SourceSnowflake),
		Schedule: b.MayString("SCHEDULE", ""),

		Precision:    b.MayInt("PRECISION", 2),
		Grain:        b.MayString("GRAIN", string(sales.GrainTransaction)),
		DiscountMode: b.MayString("DISCOUNT_MODE", string(sales.DiscountByCategory)),
		DateLayouts:  b.MayCSV("DATE_LAYOUTS", staging.DefaultDateLayouts),

		CalendarStart: b.MayDate("CALENDAR_START"),
		CalendarEnd:   b.MayDate("CALENDAR_END"),
		MarginDays:    b.MayInt("CALENDAR_MARGIN_DAYS", 0),

		Tenure:        b.MayPairs("TENURE_BANDS", nil),
		SaleSize:      b.MayPairs("SALE_SIZE_BANDS", nil),
		Recency:       b.MayPairs("RECENCY_BANDS", nil),
		ProductGroups: b.MayPairs("PRODUCT_GROUPS", nil),
		SegmentLabels: b.MayCSV("SEGMENT_LABELS", rules.SegmentLabels),
		AsOf:          b.MayDate("AS_OF"),

		Severity: cfg.Prefix("CORE_VALIDATE_").MayString("SEVERITY", ""),

		CloseMissing: b.MayBool("CLOSE_MISSING", false),
		Reseed:       b.MayBool("RESEED", false),

		EnableLeases:     b.MayBool("LEASES", true),
		LeaseKey:         int64(b.MayInt("LEASE_KEY", int(guardrails.DefaultLeaseKey))),
		StatementTimeout: b.MayDuration("STATEMENT_TIMEOUT", 5*time.Minute),
		Retries:          b.MayInt("RETRIES", 3),
		RetryBase:        b.MayDuration("RETRY_BASE", 500*time.Millisecond),
	}

	var err error
	if o.TotalMin, err = mayFloat(b, "TOTAL_MIN"); err != nil {
		return o, err
	}
	if o.TotalMax, err = mayFloat(b, "TOTAL_MAX"); err != nil {
		return o, err
	}

	if o.Source == SourceSnowflake {
		sf := cfg.Prefix("SNOWFLAKE_")
		o.Snowflake = repo.SnowflakeConfig{
			Account:      sf.MayString("ACCOUNT", ""),
			User:         sf.MayString("USER", ""),
			Password:     sf.MayString("PASSWORD", ""),
			Database:     sf.MayString("DATABASE", ""),
			Schema:       sf.MayString("SCHEMA", "PUBLIC"),
			Warehouse:    sf.MayString("WAREHOUSE", ""),
			Role:         sf.MayString("ROLE", ""),
			QueryTimeout: sf.MayDuration("QUERY_TIMEOUT", 10*time.Minute),
			MaxOpenConns: sf.MayInt("MAX_OPEN_CONNS", 4),
			Tables: repo.SnowflakeTables{
				Customers: sf.MayString("CUSTOMERS_TABLE", repo.DefaultSnowflakeTables.Customers),
				Sales:     sf.MayString("SALES_TABLE", repo.DefaultSnowflakeTables.Sales),
				Coupons:   sf.MayString("COUPONS_TABLE", repo.DefaultSnowflakeTables.Coupons),
				Taxes:     sf.MayString("TAXES_TABLE", repo.DefaultSnowflakeTables.Taxes),
				Spend:     sf.MayString("SPEND_TABLE", repo.DefaultSnowflakeTables.Spend),
			},
		}
		if err := bind.Validate(o.Snowflake); err != nil {
			return o, err
		}
	}
	return o, bind.Validate(o)
}

func mayFloat(c config.Conf, key string) (*float64, error) {
	s := c.MayString(key, "")
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, perr.WithField(perr.InvalidArgf("invalid %s: %q", key, s), key)
	}
	return &v, nil
}

// bands parses a configured ladder, falling back to def when none is set
func bands(name string, pairs []config.Pair, def rules.Bands) (rules.Bands, error) {
	if len(pairs) == 0 {
		return def, nil
	}
	b, err := rules.ParseBands(config.Tuples(pairs))
	if err != nil {
		return rules.Bands{}, perr.WithField(err, name)
	}
	return b, nil
}

// Service turns options into the build service config
func (o Options) Service() (service.Config, error) {
	tenure, err := bands("TENURE_BANDS", o.Tenure, rules.Tenure)
	if err != nil {
		return service.Config{}, err
	}
	size, err := bands("SALE_SIZE_BANDS", o.SaleSize, rules.SaleSize)
	if err != nil {
		return service.Config{}, err
	}
	recency, err := bands("RECENCY_BANDS", o.Recency, rules.Recency)
	if err != nil {
		return service.Config{}, err
	}
	groups := rules.ProductGroups
	if len(o.ProductGroups) > 0 {
		groups = rules.ParseTable(rules.ProductGroups.Default(), config.Tuples(o.ProductGroups))
	}

	places := int32(o.Precision)
	p := pipeline.Options{
		Staging:   staging.Options{DateLayouts: o.DateLayouts, Precision: &places},
		Calendar:  calendar.Bounds{Start: o.CalendarStart, End: o.CalendarEnd, MarginDays: o.MarginDays},
		Customers: dims.CustomerOptions{Tenure: tenure},
		Products:  dims.ProductOptions{Groups: groups},
		Sales: sales.Options{
			Grain:        sales.Grain(o.Grain),
			DiscountMode: sales.DiscountMode(o.DiscountMode),
			Precision:    places,
			SaleSize:     size,
		},
		Segments: segments.Options{AsOf: o.AsOf, Recency: recency, Precision: places},
		History:  history.Options{CloseMissing: o.CloseMissing},
	}

	cat := pipeline.CatalogOf(p, validate.Catalog{
		SegmentNames:     o.SegmentLabels,
		Volatility:       rules.Volatility.Labels(),
		HeadlineLengths:  rules.HeadlineLength.Labels(),
		SourceCategories: rules.NewsSources.Values(),
		TotalMin:         o.TotalMin,
		TotalMax:         o.TotalMax,
	})
	overrides, err := validate.ParseOverrides(o.Severity)
	if err != nil {
		return service.Config{}, err
	}
	if p.Rules, err = validate.ApplySeverity(validate.Default(cat), overrides); err != nil {
		return service.Config{}, err
	}

	return service.Config{
		Pipeline:         p,
		Reseed:           o.Reseed,
		StatementTimeout: o.StatementTimeout,
		Retry: repokit.RetryPolicy{
			Attempts: o.Retries,
			Base:     o.RetryBase,
			Max:      o.RetryBase * 16,
		},
	}, nil
}
