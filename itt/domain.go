// Package itt is a safe facade over the Intel ITT instrumentation API.
//
// A Domain tags trace data so that an analysis tool such as VTune can
// attribute it to a module or library of the program. Creating a domain never
// fails because the collector is missing: without a collector the handle is
// simply inert.
package itt

import (
	"errors"
	"fmt"

	"ittapi/internal/sys"
)

// ErrInvalidName is wrapped by the panic value of NewDomain when a name
// cannot be passed to the native API.
var ErrInvalidName = errors.New("unable to convert name to a NUL-terminated string; does it contain a 0 byte?")

// Domain enables tagging trace data for different modules or libraries in a
// program. See https://www.intel.com/content/www/us/en/docs/vtune-profiler/user-guide/current/domain-api.html
//
// Concurrency: a Domain is safe for concurrent use by multiple goroutines.
// This is not derived from the struct itself, which only holds a foreign
// pointer. It relies on the ITT documentation stating that __itt_domain is
// accessible by any thread in the process. The pointer is written once in
// NewDomain and never changed afterwards.
//
// There is no Close: the collector owns the native object for the lifetime of
// the process.
type Domain struct {
	handle sys.Domain
}

// NewDomain creates a domain named name. If no collector is loaded the call
// succeeds and the returned domain is inert.
//
// NewDomain panics if name contains a 0 byte.
func NewDomain(name string) *Domain {
	cname, err := sys.CString(name)
	if err != nil {
		panic(fmt.Errorf("itt: domain %q: %w", name, ErrInvalidName))
	}
	return &Domain{handle: sys.DomainCreate(cname)}
}

// ptr returns the __itt_domain pointer for event calls made by this package.
func (d *Domain) ptr() sys.Domain {
	return d.handle
}
