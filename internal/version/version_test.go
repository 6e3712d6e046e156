package version

import (
	"testing"

	"github.com/google/uuid"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	// Test that fields are populated (even if "unknown")
	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.GitCommit == "" {
		t.Error("GitCommit should not be empty")
	}
	if info.BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
	if _, err := uuid.Parse(info.InstanceID); err != nil {
		t.Errorf("InstanceID should be a UUID, got %q: %v", info.InstanceID, err)
	}
	if info.Hostname == "" {
		t.Error("Hostname should not be empty")
	}

	// Subsequent calls return the cached instance ID
	info2 := GetInfo()
	if info.InstanceID != info2.InstanceID {
		t.Errorf("InstanceID should be cached, got %s then %s", info.InstanceID, info2.InstanceID)
	}
}

func TestDisplayVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
		{"1.2", "v1.2.0"},
		{"v2.0.0-rc.1", "v2.0.0-rc.1"},
		{"unknown", "unknown"},
		{"main-a1b2c3d", "main-a1b2c3d"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Info{Version: tt.input}.DisplayVersion()
			if got != tt.expected {
				t.Errorf("DisplayVersion(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		expected string
	}{
		{
			name: "full version info",
			info: Info{
				Version:   "1.2.3",
				GitCommit: "abc1234",
				BuildDate: "2026-10-15T10:00:00Z",
			},
			expected: "dbprobe version v1.2.3 (commit: abc1234, built: 2026-10-15T10:00:00Z)",
		},
		{
			name: "unknown values",
			info: Info{
				Version:   "unknown",
				GitCommit: "unknown",
				BuildDate: "unknown",
			},
			expected: "dbprobe version unknown (commit: unknown, built: unknown)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}
