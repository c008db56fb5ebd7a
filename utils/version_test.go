package utils

import "testing"

func TestCheckVersionStatus(t *testing.T) {
	cases := []struct {
		version    string
		wantStatus string
		wantSev    string
	}{
		{"8.16.2", "current", "none"},
		{"v8.16.2", "current", "none"},
		{"9.0.0", "current", "none"},
		{"8.12.0", "outdated", "info"},
		{"8.9.1", "outdated", "warning"},
		{"8.4.0", "deprecated", "critical"},
		{"not-a-version", "unknown", "info"},
	}
	for _, c := range cases {
		status, _, severity := CheckVersionStatus(c.version, nil)
		if status != c.wantStatus || severity != c.wantSev {
			t.Errorf("CheckVersionStatus(%q) = %s/%s, want %s/%s",
				c.version, status, severity, c.wantStatus, c.wantSev)
		}
	}
}

func TestGetUpgradeMessage(t *testing.T) {
	if msg := GetUpgradeMessage("8.16.2", nil); msg != "" {
		t.Fatalf("current version should have no message, got %q", msg)
	}
	if msg := GetUpgradeMessage("8.4.0", nil); msg == "" {
		t.Fatal("deprecated version should produce a message")
	}
}
