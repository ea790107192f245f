//go:build unix && !(darwin || freebsd || linux)

package sys

func open(path string) (*Table, error) {
	return nil, ErrUnsupported
}
