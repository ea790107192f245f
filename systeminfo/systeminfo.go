package systeminfo

import (
	"math/bits"
	"os"
	"runtime"

	"ittapi/internal/sys"
	"ittapi/logger"

	"github.com/shirou/gopsutil/v4/host"
)

// SystemInfo describes the host a probe ran on and how the ITT collector is
// located there.
type SystemInfo struct {
	Hostname        string `json:"hostname,omitempty"`
	OS              string `json:"os"`
	Arch            string `json:"arch"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	KernelVersion   string `json:"kernel_version,omitempty"`
	PointerBits     int    `json:"pointer_bits"`
	PID             int    `json:"pid"`
	CollectorEnvVar string `json:"collector_env_var"`
	CollectorEnv    string `json:"collector_env,omitempty"`
	EntryPoint      string `json:"entry_point"`
}

var hostInfoFn = host.Info

// GetSystemInfo gathers host facts. Host query failures are logged and leave
// the corresponding fields empty.
func GetSystemInfo() *SystemInfo {
	envVar := sys.CollectorEnvVar()
	info := &SystemInfo{
		OS:              runtime.GOOS,
		Arch:            runtime.GOARCH,
		PointerBits:     bits.UintSize,
		PID:             os.Getpid(),
		CollectorEnvVar: envVar,
		CollectorEnv:    os.Getenv(envVar),
		EntryPoint:      sys.EntryPoint(),
	}

	hi, err := hostInfoFn()
	if err != nil {
		logger.Warnf("Failed to gather host information: %v", err)
		return info
	}
	info.Hostname = hi.Hostname
	info.Platform = hi.Platform
	info.PlatformVersion = hi.PlatformVersion
	info.KernelVersion = hi.KernelVersion
	return info
}
