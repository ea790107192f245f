//go:build windows

package sys

import "golang.org/x/sys/windows"

// The A suffix selects the ANSI entry point; the W variant takes UTF-16.
const domainCreateSymbol = "__itt_domain_createA"

// CString converts s to a NUL-terminated byte string. It fails with EINVAL
// when s contains a NUL byte.
func CString(s string) (*byte, error) {
	return windows.BytePtrFromString(s)
}

// goString reads a NUL-terminated byte string.
func goString(p *byte) string {
	return windows.BytePtrToString(p)
}
