package output

import (
	"testing"

	"ittapi/config"

	otelLog "go.opentelemetry.io/otel/log"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

func findAttr(kvs []otelLog.KeyValue, key string) (otelLog.Value, bool) {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return otelLog.Value{}, false
}

func TestResolveOtelEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "https://logs.example.test/v1/logs")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://fallback.example.test")

	cfg := &config.Config{OtelEndpoint: "  https://explicit.example.test  ", OtelFromEnv: true}
	if got := resolveOtelEndpoint(cfg); got != "https://explicit.example.test" {
		t.Fatalf("expected explicit endpoint, got %q", got)
	}

	cfg = &config.Config{OtelFromEnv: true}
	if got := resolveOtelEndpoint(cfg); got != "https://logs.example.test/v1/logs" {
		t.Fatalf("expected logs env endpoint, got %q", got)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "")
	cfg = &config.Config{OtelFromEnv: true}
	if got := resolveOtelEndpoint(cfg); got != "https://fallback.example.test" {
		t.Fatalf("expected fallback env endpoint, got %q", got)
	}

	cfg = &config.Config{OtelFromEnv: false}
	if got := resolveOtelEndpoint(cfg); got != "" {
		t.Fatalf("expected empty endpoint when env fallback disabled, got %q", got)
	}
}

func TestOtelLoggerEndpointAndValidation(t *testing.T) {
	var nilLogger *otelLogger
	if got := nilLogger.Endpoint(); got != "" {
		t.Fatalf("expected empty endpoint for nil logger, got %q", got)
	}
	nilLogger.Emit("domain", Domain{Name: "ignored"})
	nilLogger.Shutdown()

	loggerNilCfg, err := newOtelLogger(nil)
	if err != nil {
		t.Fatalf("newOtelLogger(nil) returned error: %v", err)
	}
	if loggerNilCfg != nil {
		t.Fatal("expected nil logger for nil config")
	}

	_, err = newOtelLogger(&config.Config{
		OtelEndpoint:    "localhost:4318",
		OtelServiceName: "ittprobe",
		OtelTimeout:     1,
	})
	if err == nil {
		t.Fatal("expected validation error for endpoint without scheme")
	}
}

func TestOtelLoggerShutdownWithoutCollector(t *testing.T) {
	ol, err := newOtelLogger(&config.Config{
		OtelEndpoint:    "http://127.0.0.1:1/v1/logs",
		OtelServiceName: "ittprobe",
		OtelTimeout:     200_000_000,
	})
	if err != nil {
		t.Fatalf("newOtelLogger: %v", err)
	}
	if ol.Endpoint() != "http://127.0.0.1:1/v1/logs" {
		t.Fatalf("unexpected endpoint %q", ol.Endpoint())
	}
	ol.Emit("domain", Domain{Name: "test-domain", Created: true})
	ol.Shutdown()
}

func TestSemanticAttributesDomain(t *testing.T) {
	data := payloadToMap(Domain{Name: "Company.Product.Module", Created: true, Inert: true})
	kvs := semanticAttributes("domain", data)

	if v, ok := findAttr(kvs, "itt.domain.name"); !ok || v.AsString() != "Company.Product.Module" {
		t.Fatalf("missing domain name attribute: %v", kvs)
	}
	if v, ok := findAttr(kvs, "itt.domain.inert"); !ok || !v.AsBool() {
		t.Fatalf("missing inert attribute: %v", kvs)
	}
	if severityFor("domain", data) != otelLog.SeverityInfo {
		t.Fatal("created domain should log at info")
	}
	failed := payloadToMap(Domain{Name: "bad", Error: "contains a 0 byte"})
	if severityFor("domain", failed) != otelLog.SeverityWarn {
		t.Fatal("failed domain should log at warn")
	}
}

func TestSemanticAttributesBackendAndHost(t *testing.T) {
	backend := payloadToMap(Backend{EntryPoint: "__itt_domain_createA", Collector: `C:\itt\collector.dll`, Loaded: true})
	kvs := semanticAttributes("backend", backend)
	if v, ok := findAttr(kvs, "itt.entry_point"); !ok || v.AsString() != "__itt_domain_createA" {
		t.Fatalf("missing entry point attribute: %v", kvs)
	}
	if v, ok := findAttr(kvs, "itt.collector.loaded"); !ok || !v.AsBool() {
		t.Fatalf("missing loaded attribute: %v", kvs)
	}

	host := payloadToMap(map[string]interface{}{"hostname": "perf-01", "arch": "amd64", "os": "linux", "pid": float64(42)})
	kvs = semanticAttributes("host", host)
	if v, ok := findAttr(kvs, string(semconv.HostNameKey)); !ok || v.AsString() != "perf-01" {
		t.Fatalf("missing host name: %v", kvs)
	}
	if v, ok := findAttr(kvs, string(semconv.ProcessPIDKey)); !ok || v.AsInt64() != 42 {
		t.Fatalf("missing pid: %v", kvs)
	}
}

func TestSemanticAttributesMetrics(t *testing.T) {
	data := payloadToMap(Metrics{StartTime: "2026-10-18T00:00:00Z", DomainsCreated: 3})
	kvs := semanticAttributes("metrics", data)
	if v, ok := findAttr(kvs, "ittprobe.metrics.domains_created"); !ok || v.AsInt64() != 3 {
		t.Fatalf("missing created count: %v", kvs)
	}
	if semanticAttributes("unknown", data) != nil {
		t.Fatal("expected no attributes for unknown record type")
	}
}

func TestToLogKeyValuesSortedOrder(t *testing.T) {
	values := map[string]interface{}{
		"zeta":   1,
		"alpha":  2,
		"middle": 3,
	}
	kvs := toLogKeyValues(values)
	if len(kvs) != 3 {
		t.Fatalf("expected 3 key values, got %d", len(kvs))
	}
	if kvs[0].Key != "alpha" || kvs[1].Key != "middle" || kvs[2].Key != "zeta" {
		t.Fatalf("expected sorted keys, got order %q, %q, %q", kvs[0].Key, kvs[1].Key, kvs[2].Key)
	}
}
