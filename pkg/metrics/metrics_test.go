package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/Sternrassler/gateway-cache/pkg/cache"
	_ "github.com/Sternrassler/gateway-cache/pkg/policy"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestDocumentedMetricsRegistered(t *testing.T) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}

	// Vectors only appear once a label combination was used; plain
	// counters are always exported.
	for _, name := range []string{
		"cache_policy_stored_total",
		"cache_policy_failures_total",
	} {
		if !names[name] {
			t.Errorf("metric %s is not registered", name)
		}
	}
}

func TestRegisterBuildInfo(t *testing.T) {
	reg := prometheus.NewRegistry()

	if err := RegisterBuildInfo(reg); err != nil {
		t.Fatalf("RegisterBuildInfo() error = %v", err)
	}
	if err := RegisterBuildInfo(reg); err != nil {
		t.Errorf("second RegisterBuildInfo() error = %v, want nil", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "go_build_info" {
			found = true
		}
	}
	if !found {
		t.Error("go_build_info is not exported")
	}
}
