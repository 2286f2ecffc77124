package store

import (
	"context"
	"errors"
	"testing"

	chx "insightmart/internal/platform/store/ch"
	"insightmart/internal/platform/testkit"
)

func TestOpenNothingEnabled(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.PG != nil || s.CH != nil {
		t.Fatalf("no backends expected")
	}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard on empty store: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenPGBadURL(t *testing.T) {
	_, err := Open(context.Background(), Config{PG: PGConfig{Enabled: true, URL: "://bad"}})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenCHError(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &openCHX, func(context.Context, chx.Config) (*chx.CH, error) {
		return nil, errors.New("no route")
	})
	_, err := Open(context.Background(), Config{CH: CHConfig{Enabled: true, URL: "clickhouse://x:9000"}})
	if err == nil || err.Error() != "no route" {
		t.Fatalf("err = %v", err)
	}
}

func TestOptionError(t *testing.T) {
	bad := func(*Store) error { return errors.New("bad option") }
	if _, err := Open(context.Background(), Config{}, bad); err == nil {
		t.Fatalf("option error should surface")
	}
}

func TestGuardAndClose(t *testing.T) {
	pg := &fakePinger{pingErr: errors.New("pg down")}
	s := &Store{PG: pg}
	err := s.Guard(context.Background())
	if err == nil || err.Error() != "pg: pg down" {
		t.Fatalf("Guard = %v", err)
	}
	pg.pingErr = nil
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard healthy = %v", err)
	}
	if err := s.Close(context.Background()); err != nil || !pg.closed {
		t.Fatalf("Close did not reach pg")
	}

	var nilStore *Store
	if nilStore.Guard(context.Background()) == nil {
		t.Fatalf("nil store should fail Guard")
	}
}
