// internal/platform/platform.go

// Package platform answers capability questions about the host the
// engine runs on. The answers are computed once per process.
package platform

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/host"
)

// EnvTransientRetry overrides the fingerprint check when set to a
// boolean value.
const EnvTransientRetry = "PULSAR_TRANSIENT_RETRY"

var (
	retryOnce sync.Once
	retryOn   bool
)

// TransientRetry reports whether load failures on this host are likely
// transient decoder quirks worth retrying. Embedded and mobile-ish
// platforms are prone to them; everywhere else a load failure is
// treated as terminal.
func TransientRetry() bool {
	retryOnce.Do(func() {
		retryOn = detectTransientRetry()
	})
	return retryOn
}

func detectTransientRetry() bool {
	if v := os.Getenv(EnvTransientRetry); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	info, err := host.Info()
	if err != nil {
		return false
	}
	return fingerprintTransient(info.Platform, info.KernelArch)
}

// fingerprintTransient matches platforms whose decoders are known to
// fail transiently under memory or IO pressure.
func fingerprintTransient(platform, arch string) bool {
	platform = strings.ToLower(platform)
	arch = strings.ToLower(arch)

	switch {
	case strings.Contains(platform, "android"):
		return true
	case strings.Contains(platform, "raspbian"),
		strings.Contains(platform, "raspberry"),
		strings.Contains(platform, "buildroot"):
		return true
	}
	// 32-bit ARM boards in general.
	return strings.HasPrefix(arch, "arm") && !strings.HasPrefix(arch, "arm64") && !strings.HasPrefix(arch, "aarch64")
}
