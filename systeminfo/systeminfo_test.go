package systeminfo

import (
	"errors"
	"runtime"
	"testing"

	"ittapi/internal/sys"
	"ittapi/logger"

	"github.com/shirou/gopsutil/v4/host"
)

func init() {
	logger.Init("error")
}

func TestGetSystemInfo(t *testing.T) {
	t.Setenv(sys.CollectorEnvVar(), "/opt/intel/libittnotify_collector.so")

	info := GetSystemInfo()
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Fatalf("unexpected platform: %+v", info)
	}
	if info.PointerBits != 32 && info.PointerBits != 64 {
		t.Fatalf("unexpected pointer width %d", info.PointerBits)
	}
	if info.CollectorEnv != "/opt/intel/libittnotify_collector.so" {
		t.Fatalf("collector env not captured: %q", info.CollectorEnv)
	}
	if info.EntryPoint != sys.EntryPoint() {
		t.Fatalf("unexpected entry point %q", info.EntryPoint)
	}
}

func TestGetSystemInfoHostFailure(t *testing.T) {
	old := hostInfoFn
	hostInfoFn = func() (*host.InfoStat, error) { return nil, errors.New("boom") }
	defer func() { hostInfoFn = old }()

	info := GetSystemInfo()
	if info.Platform != "" || info.Hostname != "" {
		t.Fatalf("expected empty host fields, got %+v", info)
	}
	if info.PID == 0 {
		t.Fatal("expected pid to be set")
	}
}
