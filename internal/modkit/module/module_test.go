package module

import (
	"context"
	"strings"
	"testing"

	phttp "insightmart/internal/platform/net/http"
	"insightmart/internal/platform/testkit"
)

type RunnerPort interface {
	Run(ctx context.Context) error
}

type runner struct{ calls int }

func (r *runner) Run(context.Context) error { r.calls++; return nil }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) Name() string            { return m.name }
func (m fakeModule) Ports() any              { return m.ports }
func (m fakeModule) MountRoutes(phttp.Router) {}

func TestPortsOf(t *testing.T) {
	type Ports struct {
		Label  string
		Runner RunnerPort
	}
	type hidden struct {
		runner RunnerPort
	}
	r := &runner{}

	cases := []struct {
		name  string
		ports any
		ok    bool
	}{
		{"nil", nil, false},
		{"direct", RunnerPort(r), true},
		{"bundle", Ports{Label: "build", Runner: r}, true},
		{"unexported", hidden{runner: r}, false},
		{"scalar", 7, false},
	}
	for _, c := range cases {
		got, ok := PortsOf[RunnerPort](fakeModule{name: c.name, ports: c.ports})
		if ok != c.ok {
			t.Fatalf("%s: ok = %v", c.name, ok)
		}
		if ok && got != RunnerPort(r) {
			t.Fatalf("%s: wrong runner", c.name)
		}
	}
}

func TestMustPortsOfNamesModule(t *testing.T) {
	testkit.MustPanic(t, func() { MustPortsOf[RunnerPort](fakeModule{name: "stream"}) })

	defer func() {
		msg, _ := recover().(string)
		if !strings.Contains(msg, "stream") {
			t.Fatalf("panic = %q", msg)
		}
	}()
	MustPortsOf[RunnerPort](fakeModule{name: "stream"})
}
