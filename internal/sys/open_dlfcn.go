//go:build darwin || freebsd || linux

package sys

import (
	"fmt"

	"github.com/ebitengine/purego"
)

func open(path string) (*Table, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("open collector %s: %w", path, err)
	}
	sym, err := purego.Dlsym(lib, domainCreateSymbol)
	if err != nil {
		_ = purego.Dlclose(lib)
		return nil, fmt.Errorf("resolve %s in %s: %w", domainCreateSymbol, path, err)
	}

	t := &Table{}
	purego.RegisterFunc(&t.DomainCreate, sym)
	return t, nil
}
