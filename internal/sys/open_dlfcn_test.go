//go:build darwin || freebsd || linux

package sys

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// collectorSource stands in for a real collector. It returns a fixed address
// only when it receives the expected name so the test observes the string
// crossing the boundary intact.
const collectorSource = `
#include <string.h>

void *__itt_domain_create(const char *name) {
	if (name != 0 && strcmp(name, "test-domain") == 0) {
		return (void *)0x4242;
	}
	return (void *)0x1;
}
`

// buildLibrary compiles source into a shared library in a temp dir. The test
// is skipped when no C compiler is available.
func buildLibrary(t *testing.T, name, source string) string {
	t.Helper()
	var cc string
	for _, candidate := range []string{os.Getenv("CC"), "cc", "gcc", "clang"} {
		if candidate == "" {
			continue
		}
		if path, err := exec.LookPath(candidate); err == nil {
			cc = path
			break
		}
	}
	if cc == "" {
		t.Skip("no C compiler available to build the collector fixture")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, name+".c")
	if err := os.WriteFile(src, []byte(source), 0600); err != nil {
		t.Fatalf("write fixture source: %v", err)
	}
	lib := filepath.Join(dir, "lib"+name+".so")
	out, err := exec.Command(cc, "-shared", "-fPIC", "-o", lib, src).CombinedOutput()
	if err != nil {
		t.Skipf("cannot build fixture %s: %v\n%s", name, err, out)
	}
	return lib
}

func buildCollector(t *testing.T) string {
	t.Helper()
	return buildLibrary(t, "ittnotify_test", collectorSource)
}

func TestOpenResolvesDomainCreate(t *testing.T) {
	lib := buildCollector(t)

	tbl, err := Open(lib)
	if err != nil {
		t.Fatalf("Open(%s): %v", lib, err)
	}
	restore := Install(tbl)
	defer restore()
	if !CurrentStatus().Loaded {
		t.Fatal("expected opened collector to report loaded")
	}

	name, err := CString("test-domain")
	if err != nil {
		t.Fatalf("CString: %v", err)
	}
	if got := DomainCreate(name); got.Addr() != 0x4242 {
		t.Fatalf("expected 0x4242 from collector, got %#x", got.Addr())
	}

	other, _ := CString("other-domain")
	if got := DomainCreate(other); got.Addr() != 0x1 {
		t.Fatalf("expected 0x1 for a different name, got %#x", got.Addr())
	}
}

func TestOpenFromEnvLoadsCollector(t *testing.T) {
	lib := buildCollector(t)
	t.Setenv(CollectorEnvVar(), lib)

	tbl, st := openFromEnv()
	if tbl == inert || !st.Loaded || st.Err != nil || st.Path != lib {
		t.Fatalf("expected collector loaded from environment, got %+v", st)
	}
}

func TestOpenMissingSymbol(t *testing.T) {
	lib := buildLibrary(t, "unrelated", "int unrelated(void) { return 0; }\n")

	if _, err := Open(lib); err == nil {
		t.Fatalf("expected error resolving %s in library without it", domainCreateSymbol)
	}
}
