package config

import (
	"testing"
	"time"

	kit "insightmart/internal/platform/testkit"
)

func TestPrefixChain(t *testing.T) {
	c := New().Prefix("CORE_").Prefix("BUILD_")
	if got := c.key("GRAIN"); got != "CORE_BUILD_GRAIN" {
		t.Fatalf("key() = %q", got)
	}
}

func TestMust(t *testing.T) {
	c := New().Prefix("M_")
	t.Setenv("M_URL", "  postgres://x ")
	t.Setenv("M_N", "7")
	t.Setenv("M_BAD", "x")
	t.Setenv("M_D", "90s")

	if got := c.MustString("URL"); got != "postgres://x" {
		t.Fatalf("MustString = %q", got)
	}
	if got := c.MustInt("N"); got != 7 {
		t.Fatalf("MustInt = %d", got)
	}
	if got := c.MustDuration("D"); got != 90*time.Second {
		t.Fatalf("MustDuration = %v", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
	kit.MustPanic(t, func() { _ = c.MustDuration("BAD") })
	kit.MustPanic(t, func() { c.Require("URL", "MISSING") })
	kit.MustNotPanic(t, func() { c.Require("URL", "N") })
}

func TestMayDefaults(t *testing.T) {
	c := New().Prefix("MAY_")
	t.Setenv("MAY_INT", "oops")
	t.Setenv("MAY_F", "0.25")
	t.Setenv("MAY_B", "true")
	t.Setenv("MAY_DUR", "nah")

	if got := c.MayString("NONE", "d"); got != "d" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayInt("INT", 3); got != 3 {
		t.Fatalf("MayInt garbage = %d", got)
	}
	if got := c.MayFloat64("F", 1); got != 0.25 {
		t.Fatalf("MayFloat64 = %v", got)
	}
	if !c.MayBool("B", false) {
		t.Fatalf("MayBool want true")
	}
	if got := c.MayDuration("DUR", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration garbage = %v", got)
	}
}

func TestMayDate(t *testing.T) {
	c := New().Prefix("CAL_")
	if c.MayDate("START") != nil {
		t.Fatalf("unset date should be nil")
	}
	t.Setenv("CAL_START", "2019-01-01")
	d := c.MayDate("START")
	if d == nil || d.Year() != 2019 || d.Location() != time.UTC {
		t.Fatalf("MayDate = %v", d)
	}
	t.Setenv("CAL_START", "01/01/2019")
	if c.MayDate("START") != nil {
		t.Fatalf("bad layout should be nil")
	}
}

func TestMayCSVAndPairs(t *testing.T) {
	c := New().Prefix("R_")
	t.Setenv("R_LIST", " a, ,b ")
	got := c.MayCSV("LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("MayCSV = %v", got)
	}

	t.Setenv("R_RULES", "nest*=Nest; junk ;*bag*=Bags, Totes")
	pairs := c.MayPairs("RULES", nil)
	if len(pairs) != 2 {
		t.Fatalf("MayPairs len = %d (%v)", len(pairs), pairs)
	}
	if pairs[0] != (Pair{Key: "nest*", Value: "Nest"}) || pairs[1] != (Pair{Key: "*bag*", Value: "Bags, Totes"}) {
		t.Fatalf("MayPairs = %v", pairs)
	}

	t.Setenv("R_BANDS", "<=12=Developing;*=Loyal")
	if b := c.MayPairs("BANDS", nil); len(b) != 2 || b[0] != (Pair{Key: "<=12", Value: "Developing"}) {
		t.Fatalf("MayPairs bands = %v", b)
	}

	def := []Pair{{Key: "x", Value: "y"}}
	if got := c.MayPairs("NONE", def); len(got) != 1 || got[0].Key != "x" {
		t.Fatalf("MayPairs default = %v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	if got := c.MayEnum("GRAIN", "transaction", "transaction", "line"); got != "transaction" {
		t.Fatalf("default = %q", got)
	}
	t.Setenv("E_GRAIN", "LINE")
	if got := c.MayEnum("GRAIN", "transaction", "transaction", "line"); got != "line" {
		t.Fatalf("case-insensitive = %q", got)
	}
	t.Setenv("E_GRAIN", "daily")
	kit.MustPanic(t, func() { _ = c.MayEnum("GRAIN", "transaction", "transaction", "line") })
}
