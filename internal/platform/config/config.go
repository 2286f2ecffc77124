// Package config reads application settings from prefixed environment variables
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"insightmart/internal/platform/logger"

	"github.com/rs/zerolog"
)

// DateLayout is the layout accepted by MayDate
const DateLayout = "2006-01-02"

// Conf is a prefixed view over the environment, e.g. New().Prefix("CORE_BUILD_")
type Conf struct{ prefix string }

// Pair is one KEY=VALUE entry read by MayPairs, order preserved
type Pair struct {
	Key   string
	Value string
}

// New returns the unprefixed root view
func New() Conf { return Conf{} }

// Prefix returns a child view with p appended to the prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) get(k string) string { return strings.TrimSpace(os.Getenv(c.key(k))) }

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string {
	v := c.get(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	return v
}

// MustInt panics when key is unset or not an integer
func (c Conf) MustInt(key string) int {
	s := c.MustString(key)
	v, err := strconv.Atoi(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid int value")
	}
	return v
}

// MustDuration panics when key is unset or not a Go duration
func (c Conf) MustDuration(key string) time.Duration {
	s := c.MustString(key)
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid duration")
	}
	return d
}

// Require panics on the first key that is unset
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if c.get(k) == "" {
			logger.Get().Panic().Str("key", c.key(k)).Msg("missing required env")
		}
	}
}

// MayString returns the value or def
func (c Conf) MayString(key, def string) string {
	if v := c.get(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def, warning on garbage
func (c Conf) MayInt(key string, def int) int {
	s := c.get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		c.warn(key, s).Int("default", def).Msg("invalid int; using default")
		return def
	}
	return v
}

// MayFloat64 returns the value or def, warning on garbage
func (c Conf) MayFloat64(key string, def float64) float64 {
	s := c.get(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.warn(key, s).Float64("default", def).Msg("invalid float; using default")
		return def
	}
	return v
}

// MayBool returns the value or def, warning on garbage
func (c Conf) MayBool(key string, def bool) bool {
	s := c.get(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		c.warn(key, s).Bool("default", def).Msg("invalid bool; using default")
		return def
	}
	return v
}

// MayDuration returns the value or def, warning on garbage
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.get(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		c.warn(key, s).Dur("default", def).Msg("invalid duration; using default")
		return def
	}
	return d
}

// MayDate parses a YYYY-MM-DD date in UTC. Unset or garbage yields nil
func (c Conf) MayDate(key string) *time.Time {
	s := c.get(key)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		c.warn(key, s).Msg("invalid date; ignoring")
		return nil
	}
	return &t
}

// MayCSV splits a comma separated value, dropping blanks
func (c Conf) MayCSV(key string, def []string) []string {
	s := c.get(key)
	if s == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayPairs reads "k1=v1;k2=v2" preserving order. Entries without '=' are skipped with a warning.
// Semicolons separate entries so values may contain commas; the last '=' splits an entry
// so keys like "<=12" survive
func (c Conf) MayPairs(key string, def []Pair) []Pair {
	s := c.get(key)
	if s == "" {
		return def
	}
	var out []Pair
	for _, p := range strings.Split(s, ";") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		i := strings.LastIndex(p, "=")
		if i < 0 {
			c.warn(key, p).Msg("pair without '='; skipping")
			continue
		}
		out = append(out, Pair{Key: strings.TrimSpace(p[:i]), Value: strings.TrimSpace(p[i+1:])})
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the value when it is one of allowed, def when unset, and panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}

func (c Conf) warn(key, val string) *zerolog.Event {
	return logger.Get().Warn().Str("key", c.key(key)).Str("value", val)
}

// Tuples flattens pairs for parsers that take [key, value] arrays
func Tuples(ps []Pair) [][2]string {
	out := make([][2]string, len(ps))
	for i, p := range ps {
		out[i] = [2]string{p.Key, p.Value}
	}
	return out
}
