package module

import (
	"time"

	"insightmart/internal/core/rules"
	"insightmart/internal/core/stream"
	"insightmart/internal/core/validate"
	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/config"
	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/net/http/bind"
	"insightmart/internal/services/stream/guardrails"
	"insightmart/internal/services/stream/service"
)

// Options for the stream module
type Options struct {
	Sources  []string `env:"SOURCES" validate:"min=1,dive,oneof=stream_prices stream_news"`
	Schedule string   `env:"SCHEDULE"`

	Volatility      []config.Pair
	HeadlineLengths []config.Pair
	Keywords        []string
	NewsSources     []config.Pair
	Severity        string

	EnableLeases     bool
	LeaseBase        int64
	StatementTimeout time.Duration `env:"STATEMENT_TIMEOUT" validate:"min=0"`
	Retries          int           `env:"RETRIES" validate:"min=1"`
	RetryBase        time.Duration `env:"RETRY_BASE" validate:"min=0"`
}

// FromConfig fills options from environment
// CORE_STREAM_SOURCES (default "stream_prices,stream_news") lists the sources to ingest
// CORE_STREAM_SCHEDULE (default "1m") is a cron expression or interval; "once" runs a single pass
// CORE_STREAM_VOLATILITY_BANDS (default "<=2=LOW_VOLATILITY;<=5=MEDIUM_VOLATILITY;*=HIGH_VOLATILITY")
// CORE_STREAM_HEADLINE_BANDS (default "<=5=SHORT;<=10=MEDIUM;*=LONG")
// CORE_STREAM_KEYWORDS is the topic keyword list, CORE_STREAM_NEWS_SOURCES the outlet table
// CORE_VALIDATE_SEVERITY overrides rule severities, shared with the build
func FromConfig(cfg config.Conf) (Options, error) {
	s := cfg.Prefix("CORE_STREAM_")
	o := Options{
		Sources:  s.MayCSV("SOURCES", []string{stream.SourcePrices, stream.SourceNews}),
		Schedule: s.MayString("SCHEDULE", "1m"),

		Volatility:      s.MayPairs("VOLATILITY_BANDS", nil),
		HeadlineLengths: s.MayPairs("HEADLINE_BANDS", nil),
		Keywords:        s.MayCSV("KEYWORDS", rules.TopicKeywords),
		NewsSources:     s.MayPairs("NEWS_SOURCES", nil),
		Severity:        cfg.Prefix("CORE_VALIDATE_").MayString("SEVERITY", ""),

		EnableLeases:     s.MayBool("LEASES", true),
		LeaseBase:        int64(s.MayInt("LEASE_BASE", int(guardrails.DefaultLeaseBase))),
		StatementTimeout: s.MayDuration("STATEMENT_TIMEOUT", time.Minute),
		Retries:          s.MayInt("RETRIES", 3),
		RetryBase:        s.MayDuration("RETRY_BASE", 250*time.Millisecond),
	}
	return o, bind.Validate(o)
}

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

// Service turns options into the stream service config.
// Build-only rules stay in the set; their tables never appear in a stream batch
func (o Options) Service() (service.Config, error) {
	vol, err := bands("VOLATILITY_BANDS", o.Volatility, rules.Volatility)
	if err != nil {
		return service.Config{}, err
	}
	length, err := bands("HEADLINE_BANDS", o.HeadlineLengths, rules.HeadlineLength)
	if err != nil {
		return service.Config{}, err
	}
	srcs := rules.NewsSources
	if len(o.NewsSources) > 0 {
		srcs = rules.ParseTable(rules.NewsSources.Default(), config.Tuples(o.NewsSources))
	}

	cat := validate.Catalog{
		TenureSegments:   rules.Tenure.Labels(),
		ProductGroups:    rules.ProductGroups.Values(),
		SaleSizes:        rules.SaleSize.Labels(),
		SegmentNames:     rules.SegmentLabels,
		ActivityStatuses: rules.Recency.Labels(),
		Volatility:       vol.Labels(),
		HeadlineLengths:  length.Labels(),
		SourceCategories: srcs.Values(),
	}
	overrides, err := validate.ParseOverrides(o.Severity)
	if err != nil {
		return service.Config{}, err
	}
	rs, err := validate.ApplySeverity(validate.Default(cat), overrides)
	if err != nil {
		return service.Config{}, err
	}

	return service.Config{
		Sources:          o.Sources,
		Prices:           stream.PriceOptions{Volatility: vol},
		News:             stream.NewsOptions{Length: length, Keywords: o.Keywords, Sources: srcs},
		Rules:            rs,
		StatementTimeout: o.StatementTimeout,
		Retry: repokit.RetryPolicy{
			Attempts: o.Retries,
			Base:     o.RetryBase,
			Max:      o.RetryBase * 16,
		},
	}, nil
}
