//go:build unix

package sys

import "golang.org/x/sys/unix"

const domainCreateSymbol = "__itt_domain_create"

// CString converts s to a NUL-terminated byte string. It fails with EINVAL
// when s contains a NUL byte.
func CString(s string) (*byte, error) {
	return unix.BytePtrFromString(s)
}

// goString reads a NUL-terminated byte string.
func goString(p *byte) string {
	return unix.BytePtrToString(p)
}
