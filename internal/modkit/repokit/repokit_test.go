package repokit

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/store"
	"insightmart/internal/platform/testkit"
)

type fakeQ struct{ execs []string }

func (f *fakeQ) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return nil, nil
}
func (f *fakeQ) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeQ) QueryRow(context.Context, string, ...any) store.Row        { return nil }

type fakeTx struct {
	fakeQ
	tx  *fakeQ
	txs int
}

func (f *fakeTx) Tx(_ context.Context, fn func(Queryer) error) error {
	f.txs++
	return fn(f.tx)
}

func TestBinder(t *testing.T) {
	b := BindFunc[string](func(q Queryer) string {
		if q == nil {
			return "nil"
		}
		return "bound"
	})
	if got := MustBind[string](b, &fakeQ{}); got != "bound" {
		t.Fatalf("MustBind = %q", got)
	}
	testkit.MustPanic(t, func() { MustBind[string](b, nil) })
}

func TestWithBeginHooksRunsHooksInsideTx(t *testing.T) {
	inner := &fakeTx{tx: &fakeQ{}}
	runner := WithBeginHooks(inner, StatementTimeout(0), StatementTimeout(2*time.Second))

	ran := false
	err := runner.Tx(context.Background(), func(q Queryer) error {
		ran = q == Queryer(inner.tx)
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("tx err=%v ran=%v", err, ran)
	}
	want := []string{"SET LOCAL statement_timeout = 0", "SET LOCAL statement_timeout = 2000"}
	if len(inner.tx.execs) != 2 || inner.tx.execs[0] != want[0] || inner.tx.execs[1] != want[1] {
		t.Fatalf("hook statements = %v", inner.tx.execs)
	}
	if len(inner.execs) != 0 {
		t.Fatalf("hooks leaked onto the pool: %v", inner.execs)
	}
}

func TestWithBeginHooksShortCircuits(t *testing.T) {
	inner := &fakeTx{tx: &fakeQ{}}
	boom := errors.New("boom")
	runner := WithBeginHooks(inner, func(context.Context, Queryer) error { return boom })
	err := runner.Tx(context.Background(), func(Queryer) error {
		t.Fatalf("fn must not run after a failing hook")
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	_, _ = runner.Exec(context.Background(), "select 1")
	if len(inner.execs) != 1 {
		t.Fatalf("Exec should delegate to inner")
	}
}

func TestRetry(t *testing.T) {
	testkit.Serial(t)
	var slept []time.Duration
	testkit.Swap(t, &sleep, func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})

	transient := perr.Newf(perr.ErrorCodeUnavailable, "pg down")
	cases := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"first try", []error{nil}, 1, false},
		{"recovers", []error{transient, transient, nil}, 3, false},
		{"exhausted", []error{transient, transient, transient, transient}, 3, true},
		{"not retryable", []error{perr.Newf(perr.ErrorCodeValidation, "bad"), nil}, 1, true},
	}
	for _, c := range cases {
		slept = nil
		calls := 0
		err := Retry(context.Background(), RetryPolicy{Attempts: 3, Base: 100 * time.Millisecond}, func(context.Context) error {
			e := c.errs[calls]
			calls++
			return e
		})
		if calls != c.wantCalls || (err != nil) != c.wantErr {
			t.Fatalf("%s: calls=%d err=%v", c.name, calls, err)
		}
		if len(slept) != max(c.wantCalls-1, 0) && !c.wantErr {
			t.Fatalf("%s: slept %v", c.name, slept)
		}
		for i, d := range slept {
			hi := (100 * time.Millisecond) << i
			if d < hi/2 || d > hi {
				t.Fatalf("%s: backoff %d = %v outside [%v, %v]", c.name, i, d, hi/2, hi)
			}
		}
	}
}

func TestSleepCtxCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if err := SleepCtx(ctx, 0); err != nil {
		t.Fatalf("zero sleep = %v", err)
	}
}

type fakeGuard struct{ err error }

func (f fakeGuard) Guard(context.Context) error { return f.err }

func TestMustGuard(t *testing.T) {
	testkit.MustNotPanic(t, func() { MustGuard(context.Background(), fakeGuard{}) })
	testkit.MustPanic(t, func() { MustGuard(context.Background(), fakeGuard{err: errors.New("pg: down")}) })
}
