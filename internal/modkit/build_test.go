package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "insightmart/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestBuildDefaults(t *testing.T) {
	b := Build()
	if b.Name != "" || b.Prefix != "" || len(b.Mw) != 0 || b.Ports != nil {
		t.Fatalf("unexpected defaults %+v", b)
	}
	r := phttp.AdaptChi(chi.NewRouter())
	if got := b.Subrouter(r); got != r {
		t.Fatalf("default subrouter should be identity")
	}
	b.Register(r)
}

func TestBuildAppliesOptionsInOrder(t *testing.T) {
	mark := func(v string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Order", v)
				next.ServeHTTP(w, r)
			})
		}
	}
	type port struct{ N int }

	registered := false
	b := Build(
		WithName("ops"),
		WithPrefix("/ops"),
		WithName("ops2"),
		WithMiddlewares(mark("a")),
		WithMiddlewares(mark("b")),
		WithPorts(port{N: 3}),
		WithRegister(func(r phttp.Router) {
			registered = true
			r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
		}),
	)
	if b.Name != "ops2" || b.Prefix != "/ops" {
		t.Fatalf("name/prefix = %q/%q", b.Name, b.Prefix)
	}
	if p, ok := b.Ports.(port); !ok || p.N != 3 {
		t.Fatalf("ports = %#v", b.Ports)
	}

	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	r.Route(b.Prefix, func(sub phttp.Router) {
		sub.Use(b.Mw...)
		b.Register(b.Subrouter(sub))
	})
	if !registered {
		t.Fatalf("register hook not called")
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/ping", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Values("X-Order"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("middleware order = %v", got)
	}
}

func TestDepsRequire(t *testing.T) {
	var d Deps
	for name, fn := range map[string]func(){
		"pg": func() { d.RequirePG("build") },
		"ch": func() { d.RequireCH("stream") },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: expected panic", name)
				}
			}()
			fn()
		}()
	}
}
