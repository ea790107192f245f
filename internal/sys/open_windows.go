//go:build windows

package sys

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

func open(path string) (*Table, error) {
	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("open collector %s: %w", path, err)
	}
	proc := dll.NewProc(domainCreateSymbol)
	if err := proc.Find(); err != nil {
		return nil, fmt.Errorf("resolve %s in %s: %w", domainCreateSymbol, path, err)
	}

	return &Table{
		DomainCreate: func(name *byte) uintptr {
			r1, _, _ := proc.Call(uintptr(unsafe.Pointer(name)))
			return r1
		},
	}, nil
}
