// internal/platform/platform_test.go
package platform

import "testing"

func TestFingerprintTransient(t *testing.T) {
	cases := []struct {
		platform string
		arch     string
		want     bool
	}{
		{"android", "aarch64", true},
		{"raspbian", "armv7l", true},
		{"buildroot", "armv6l", true},
		{"ubuntu", "x86_64", false},
		{"darwin", "arm64", false},
		{"debian", "aarch64", false},
		{"debian", "armv7l", true},
	}
	for _, c := range cases {
		if got := fingerprintTransient(c.platform, c.arch); got != c.want {
			t.Errorf("fingerprintTransient(%q, %q) = %v, want %v", c.platform, c.arch, got, c.want)
		}
	}
}

func TestDetectTransientRetry_EnvOverride(t *testing.T) {
	t.Setenv(EnvTransientRetry, "true")
	if !detectTransientRetry() {
		t.Error("override true not honored")
	}

	t.Setenv(EnvTransientRetry, "false")
	if detectTransientRetry() {
		t.Error("override false not honored")
	}
}
