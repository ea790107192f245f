package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"ittapi/config"
	"ittapi/logger"
	"ittapi/version"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otelLog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

type otelLogger struct {
	provider *sdklog.LoggerProvider
	logger   otelLog.Logger
	timeout  time.Duration
	endpoint string
}

func newOtelLogger(cfg *config.Config) (*otelLogger, error) {
	if cfg == nil {
		return nil, nil
	}
	endpoint := resolveOtelEndpoint(cfg)
	if endpoint == "" {
		return nil, nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("otel endpoint must include scheme (http or https)")
	}

	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(endpoint)}
	if len(cfg.OtelHeaders) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.OtelHeaders))
	}
	if cfg.OtelTimeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(cfg.OtelTimeout))
	}

	exp, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.OtelServiceName),
		semconv.ServiceVersionKey.String(version.Version),
	)
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	)

	return &otelLogger{
		provider: provider,
		logger:   provider.Logger("ittprobe"),
		timeout:  cfg.OtelTimeout,
		endpoint: endpoint,
	}, nil
}

func resolveOtelEndpoint(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	if endpoint := strings.TrimSpace(cfg.OtelEndpoint); endpoint != "" {
		return endpoint
	}
	if !cfg.OtelFromEnv {
		return ""
	}
	if endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT")); endpoint != "" {
		return endpoint
	}
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
}

func (o *otelLogger) Endpoint() string {
	if o == nil {
		return ""
	}
	return o.endpoint
}

func (o *otelLogger) Emit(recordType string, payload interface{}) {
	if o == nil || o.logger == nil {
		return
	}
	data := payloadToMap(payload)

	var record otelLog.Record
	now := time.Now()
	record.SetTimestamp(now)
	record.SetObservedTimestamp(now)
	record.SetEventName("ittprobe.record")
	record.SetSeverity(severityFor(recordType, data))
	record.AddAttributes(
		otelLog.String("record_type", recordType),
		otelLog.String("schema_version", SchemaVersion),
	)
	if attrs := semanticAttributes(recordType, data); len(attrs) > 0 {
		record.AddAttributes(attrs...)
	}
	if data != nil {
		record.SetBody(toLogValue(data))
	}

	o.logger.Emit(context.Background(), record)
}

func (o *otelLogger) Shutdown() {
	if o == nil || o.provider == nil {
		return
	}
	timeout := o.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := o.provider.Shutdown(ctx); err != nil {
		logger.Debugf("OTEL shutdown failed: %v", err)
	}
}

// severityFor raises failed domain creations and unloaded collectors to WARN.
func severityFor(recordType string, data map[string]interface{}) otelLog.Severity {
	switch recordType {
	case "domain":
		if created, ok := data["created"].(bool); ok && !created {
			return otelLog.SeverityWarn
		}
	case "backend":
		if loaded, ok := data["loaded"].(bool); ok && !loaded {
			return otelLog.SeverityWarn
		}
	}
	return otelLog.SeverityInfo
}

func toLogValue(value interface{}) otelLog.Value {
	switch v := value.(type) {
	case nil:
		return otelLog.Value{}
	case string:
		return otelLog.StringValue(v)
	case bool:
		return otelLog.BoolValue(v)
	case int:
		return otelLog.IntValue(v)
	case int64:
		return otelLog.Int64Value(v)
	case float64:
		return otelLog.Float64Value(v)
	case map[string]interface{}:
		return otelLog.MapValue(toLogKeyValues(v)...)
	case []interface{}:
		values := make([]otelLog.Value, 0, len(v))
		for _, item := range v {
			values = append(values, toLogValue(item))
		}
		return otelLog.SliceValue(values...)
	default:
		return otelLog.StringValue(fmt.Sprint(v))
	}
}

func toLogKeyValues(values map[string]interface{}) []otelLog.KeyValue {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	kvs := make([]otelLog.KeyValue, 0, len(values))
	for _, key := range keys {
		kvs = append(kvs, otelLog.KeyValue{Key: key, Value: toLogValue(values[key])})
	}
	return kvs
}

func semanticAttributes(recordType string, data map[string]interface{}) []otelLog.KeyValue {
	if len(data) == 0 {
		return nil
	}

	switch recordType {
	case "domain":
		var kvs []otelLog.KeyValue
		kvs = appendStringAttr(kvs, "itt.domain.name", getStringField(data, "name"))
		kvs = appendBoolAttr(kvs, "itt.domain.created", data["created"])
		kvs = appendBoolAttr(kvs, "itt.domain.inert", data["inert"])
		return kvs
	case "backend":
		var kvs []otelLog.KeyValue
		kvs = appendStringAttr(kvs, "itt.entry_point", getStringField(data, "entry_point"))
		kvs = appendStringAttr(kvs, "itt.collector.path", getStringField(data, "collector"))
		kvs = appendBoolAttr(kvs, "itt.collector.loaded", data["loaded"])
		return kvs
	case "host":
		var kvs []otelLog.KeyValue
		kvs = appendStringAttr(kvs, string(semconv.HostNameKey), getStringField(data, "hostname"))
		kvs = appendStringAttr(kvs, string(semconv.HostArchKey), getStringField(data, "arch"))
		kvs = appendStringAttr(kvs, string(semconv.OSTypeKey), getStringField(data, "os"))
		kvs = appendStringAttr(kvs, string(semconv.OSVersionKey), getStringField(data, "platform_version"))
		if pid, ok := getInt64Field(data, "pid"); ok {
			kvs = append(kvs, otelLog.Int64(string(semconv.ProcessPIDKey), pid))
		}
		return kvs
	case "metrics":
		var kvs []otelLog.KeyValue
		kvs = appendStringAttr(kvs, "ittprobe.metrics.start_time", getStringField(data, "start_time"))
		kvs = appendStringAttr(kvs, "ittprobe.metrics.end_time", getStringField(data, "end_time"))
		if n, ok := getInt64Field(data, "domains_created"); ok {
			kvs = append(kvs, otelLog.Int64("ittprobe.metrics.domains_created", n))
		}
		if n, ok := getInt64Field(data, "domains_failed"); ok {
			kvs = append(kvs, otelLog.Int64("ittprobe.metrics.domains_failed", n))
		}
		return kvs
	default:
		return nil
	}
}

func payloadToMap(payload interface{}) map[string]interface{} {
	switch v := payload.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return v
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil
		}
		return decoded
	}
}

func getStringField(values map[string]interface{}, key string) string {
	value, ok := values[key]
	if !ok || value == nil {
		return ""
	}
	if str, ok := value.(string); ok {
		return str
	}
	return fmt.Sprint(value)
}

func getInt64Field(values map[string]interface{}, key string) (int64, bool) {
	value, ok := values[key]
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func appendStringAttr(kvs []otelLog.KeyValue, key, value string) []otelLog.KeyValue {
	if value == "" {
		return kvs
	}
	return append(kvs, otelLog.String(key, value))
}

func appendBoolAttr(kvs []otelLog.KeyValue, key string, value interface{}) []otelLog.KeyValue {
	b, ok := value.(bool)
	if !ok {
		return kvs
	}
	return append(kvs, otelLog.Bool(key, b))
}
