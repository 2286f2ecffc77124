package module

import (
	"context"
	"testing"

	"insightmart/internal/core/stream"
	"insightmart/internal/modkit"
	modreg "insightmart/internal/modkit/module"
	"insightmart/internal/platform/config"
	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/store"
	kit "insightmart/internal/platform/testkit"
)

func TestFromConfigDefaults(t *testing.T) {
	o, err := FromConfig(config.New())
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(o.Sources) != 2 || o.Schedule != "1m" || !o.EnableLeases {
		t.Fatalf("defaults = %+v", o)
	}
	cfg, err := o.Service()
	if err != nil {
		t.Fatalf("Service: %v", err)
	}
	if cfg.Prices.Volatility.Pick(6) != "HIGH_VOLATILITY" || cfg.News.Sources.Match("CoinDesk") != "CRYPTO" || len(cfg.News.Keywords) == 0 {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestFromConfigOverrides(t *testing.T) {
	t.Setenv("CORE_STREAM_SOURCES", "stream_news")
	t.Setenv("CORE_STREAM_VOLATILITY_BANDS", "<=1=CALM;*=WILD")
	t.Setenv("CORE_STREAM_NEWS_SOURCES", "*wire*=WIRE;*=ELSE")
	t.Setenv("CORE_STREAM_KEYWORDS", "eth, ether")

	o, err := FromConfig(config.New())
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	cfg, err := o.Service()
	if err != nil {
		t.Fatalf("Service: %v", err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0] != stream.SourceNews {
		t.Fatalf("sources = %v", cfg.Sources)
	}
	if cfg.Prices.Volatility.Pick(3) != "WILD" || cfg.News.Sources.Match("Newswire") != "WIRE" || cfg.News.Sources.Match("BBC") != "ELSE" {
		t.Fatalf("rule tables not parsed")
	}
	if len(cfg.News.Keywords) != 2 || cfg.News.Keywords[1] != "ether" {
		t.Fatalf("keywords = %v", cfg.News.Keywords)
	}
	for _, r := range cfg.Rules {
		if r.Name == "stream_prices_volatility_category" && (len(r.Values) != 2 || r.Values[1] != "WILD") {
			t.Fatalf("volatility labels = %v", r.Values)
		}
	}
}

func TestFromConfigErrors(t *testing.T) {
	t.Run("source", func(t *testing.T) {
		t.Setenv("CORE_STREAM_SOURCES", "stream_prices,stream_tweets")
		if _, err := FromConfig(config.New()); !perr.IsCode(err, perr.ErrorCodeValidation) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("bands", func(t *testing.T) {
		t.Setenv("CORE_STREAM_HEADLINE_BANDS", "five=SHORT")
		o, err := FromConfig(config.New())
		if err != nil {
			t.Fatalf("FromConfig: %v", err)
		}
		_, err = o.Service()
		if e, ok := perr.As(err); !ok || e.Field() != "HEADLINE_BANDS" {
			t.Fatalf("err = %v", err)
		}
	})
}

type nopDB struct{}

func (nopDB) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (nopDB) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (nopDB) QueryRow(context.Context, string, ...any) store.Row             { return nil }
func (nopDB) Tx(context.Context, func(store.RowQuerier) error) error         { return nil }

type nopCH struct{}

func (nopCH) Insert(context.Context, string, []string, [][]any) error   { return nil }
func (nopCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (nopCH) Exec(context.Context, string, ...any) error                { return nil }
func (nopCH) Close() error                                              { return nil }

func TestNewExposesRunner(t *testing.T) {
	m := New(modkit.Deps{Cfg: config.New(), PG: nopDB{}, CH: nopCH{}})
	if m.Name() != "stream" {
		t.Fatalf("name = %q", m.Name())
	}
	if p := modreg.MustPortsOf[Ports](m); p.Runner == nil {
		t.Fatalf("runner port missing")
	}
	kit.MustPanic(t, func() { New(modkit.Deps{Cfg: config.New(), PG: nopDB{}}) })
}
