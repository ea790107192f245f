package output

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"ittapi/config"
	"ittapi/logger"
	"ittapi/systeminfo"
)

// SchemaVersion is stamped on every report record.
const SchemaVersion = "1"

type Metrics struct {
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	DomainsCreated int    `json:"domains_created"`
	DomainsFailed  int    `json:"domains_failed"`
}

// Backend records how the ITT function table was obtained.
type Backend struct {
	EntryPoint string `json:"entry_point"`
	Collector  string `json:"collector,omitempty"`
	Loaded     bool   `json:"loaded"`
	Error      string `json:"error,omitempty"`
}

// Domain records the outcome of one domain creation.
type Domain struct {
	Name    string `json:"name"`
	Created bool   `json:"created"`
	Inert   bool   `json:"inert"`
	Error   string `json:"error,omitempty"`
}

// Writer streams probe records as NDJSON and mirrors them to OTLP when
// configured. Safe for concurrent use.
type Writer struct {
	file    *os.File
	buf     *bufio.Writer
	mu      sync.Mutex
	metrics *Metrics
	otel    *otelLogger
	closed  bool
}

func New(cfg *config.Config, m *Metrics) (*Writer, error) {
	f, err := os.OpenFile(cfg.OutputFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		file:    f,
		buf:     bufio.NewWriterSize(f, 64*1024),
		metrics: m,
	}
	otel, err := newOtelLogger(cfg)
	if err != nil {
		logger.Warnf("OTEL export disabled: %v", err)
	} else {
		w.otel = otel
	}
	return w, nil
}

func (w *Writer) WriteHost(info *systeminfo.SystemInfo) error {
	if info == nil {
		return nil
	}
	return w.write("host", info)
}

func (w *Writer) WriteBackend(b Backend) error {
	return w.write("backend", b)
}

func (w *Writer) WriteDomain(d Domain) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("write domain record: writer closed")
	}
	if w.metrics != nil {
		if d.Created {
			w.metrics.DomainsCreated++
		} else {
			w.metrics.DomainsFailed++
		}
	}
	if err := w.writeLocked("domain", d); err != nil {
		return err
	}
	return w.buf.Flush()
}

// Close writes the metrics record, flushes the report and shuts down OTLP
// export.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var firstErr error
	if w.metrics != nil {
		firstErr = w.writeLocked("metrics", w.metrics)
	}
	if err := w.buf.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	_ = w.file.Sync()
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if w.otel != nil {
		w.otel.Shutdown()
	}
	return firstErr
}

func (w *Writer) write(recordType string, payload interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("write %s record: writer closed", recordType)
	}
	if err := w.writeLocked(recordType, payload); err != nil {
		return err
	}
	return w.buf.Flush()
}

func (w *Writer) writeLocked(recordType string, payload interface{}) error {
	line, err := jsonMarshal(struct {
		RecordType    string      `json:"record_type"`
		SchemaVersion string      `json:"schema_version"`
		Payload       interface{} `json:"payload"`
	}{recordType, SchemaVersion, payload})
	if err != nil {
		return fmt.Errorf("encode %s record: %w", recordType, err)
	}
	if _, err := w.buf.Write(line); err != nil {
		return err
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	if w.otel != nil {
		w.otel.Emit(recordType, payload)
	}
	return nil
}
