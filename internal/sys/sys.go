// Package sys is the function table behind the itt facade. It resolves the
// ITT entry points exported by a collector library and falls back to an inert
// table when no collector is available.
//
// Which entry point is bound is decided at build time: unix builds resolve
// __itt_domain_create, windows builds resolve the narrow-string
// __itt_domain_createA. Nothing in this package dereferences the pointers
// returned by the collector.
package sys

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrNoCollector reports that no collector library is configured.
	ErrNoCollector = errors.New("no ITT collector configured")
	// ErrUnsupported reports that collectors cannot be opened on this platform.
	ErrUnsupported = errors.New("ITT collectors are not supported on " + runtime.GOOS)
)

// Domain is an opaque __itt_domain pointer owned by the collector. The zero
// value is the null handle produced by the inert table.
type Domain struct {
	addr uintptr
}

// Addr exposes the raw address for identity checks and diagnostics.
func (d Domain) Addr() uintptr {
	return d.addr
}

// Table holds the resolved native entry points.
type Table struct {
	// DomainCreate takes a NUL-terminated narrow string and returns the
	// collector's __itt_domain pointer, or 0.
	DomainCreate func(name *byte) uintptr
}

// Status describes how the current table was obtained.
type Status struct {
	Path   string
	Loaded bool
	Err    error
}

var inert = &Table{
	DomainCreate: func(*byte) uintptr { return 0 },
}

var (
	mu sync.Mutex
	// table is nil until the environment has been consulted or a table has
	// been installed.
	table  atomic.Pointer[Table]
	status Status
)

// Current returns the installed table. While none is installed it opens the
// collector named by INTEL_LIBITTNOTIFY64 (or INTEL_LIBITTNOTIFY32 on 32-bit
// targets); any failure leaves the inert table in place.
func Current() *Table {
	if t := table.Load(); t != nil {
		return t
	}
	mu.Lock()
	defer mu.Unlock()
	return loadLocked()
}

func loadLocked() *Table {
	if t := table.Load(); t != nil {
		return t
	}
	t, st := openFromEnv()
	status = st
	table.Store(t)
	return t
}

// CurrentStatus reports how the current table was obtained.
func CurrentStatus() Status {
	mu.Lock()
	defer mu.Unlock()
	loadLocked()
	return status
}

// Install replaces the current table. A nil table, or one without a
// DomainCreate entry, installs the inert table. The returned function
// restores the previous state; if the environment had not been consulted yet
// it will be on the next use.
func Install(t *Table) (restore func()) {
	if t == nil || t.DomainCreate == nil {
		t = inert
	}
	mu.Lock()
	prev, prevStatus := table.Load(), status
	status = Status{Loaded: t != inert}
	table.Store(t)
	mu.Unlock()

	return func() {
		mu.Lock()
		defer mu.Unlock()
		table.Store(prev)
		status = prevStatus
	}
}

// Open loads the collector library at path and resolves its entry points.
func Open(path string) (*Table, error) {
	if path == "" {
		return nil, ErrNoCollector
	}
	return open(path)
}

// DomainCreate performs the single native call that creates a domain. The
// result is wrapped as returned, null included.
func DomainCreate(name *byte) Domain {
	addr := Current().DomainCreate(name)
	runtime.KeepAlive(name)
	return Domain{addr: addr}
}

func openFromEnv() (*Table, Status) {
	path, err := collectorPath()
	if err != nil {
		return inert, Status{Err: err}
	}
	t, err := Open(path)
	if err != nil {
		return inert, Status{Path: path, Err: err}
	}
	return t, Status{Path: path, Loaded: true}
}

// EntryPoint names the native symbol this build binds for domain creation.
func EntryPoint() string {
	return domainCreateSymbol
}
