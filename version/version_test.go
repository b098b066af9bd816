package version

import (
	"strings"
	"testing"
)

func stubBuildVars(t *testing.T, version, commit, branch, buildTime, goVersion string) {
	t.Helper()
	origVersion, origCommit, origBranch, origBuildTime, origGoVersion :=
		Version, GitCommit, GitBranch, BuildTime, GoVersion
	t.Cleanup(func() {
		Version = origVersion
		GitCommit = origCommit
		GitBranch = origBranch
		BuildTime = origBuildTime
		GoVersion = origGoVersion
	})
	Version = version
	GitCommit = commit
	GitBranch = branch
	BuildTime = buildTime
	GoVersion = goVersion
}

func TestGetVersionInfoDevDefaults(t *testing.T) {
	stubBuildVars(t, "dev", "", "", "", "")

	info := GetVersionInfo()
	if info.Version != "dev" {
		t.Errorf("Version = %q, want %q", info.Version, "dev")
	}
	if info.IsRelease {
		t.Error("dev builds should not report IsRelease")
	}
	if info.BuildDate.IsZero() {
		t.Error("BuildDate should be filled in even without ldflags")
	}
}

func TestGetVersionInfoStampedBuild(t *testing.T) {
	stubBuildVars(t, "1.0.0", "abc1234", "main", "2024-01-15T10:30:00Z", "go1.26.0")

	info := GetVersionInfo()
	if !info.IsRelease {
		t.Error("1.0.0 should report IsRelease")
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("GitCommit = %q, want %q", info.GitCommit, "abc1234")
	}
	if info.GoVersion != "go1.26.0" {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, "go1.26.0")
	}
	if info.BuildDate.Year() != 2024 {
		t.Errorf("BuildDate year = %d, want 2024", info.BuildDate.Year())
	}
}

func TestGetVersionInfoDirtyVersion(t *testing.T) {
	stubBuildVars(t, "1.0.0-dirty", "", "", "", "")

	if GetVersionInfo().IsRelease {
		t.Error("a dirty version should not report IsRelease")
	}
}

func TestGetShortVersion(t *testing.T) {
	stubBuildVars(t, "1.0.0", "abc1234", "", "2024-01-01T00:00:00Z", "go1.26.0")

	if sv := GetShortVersion(); sv != "1.0.0-abc1234" {
		t.Errorf("GetShortVersion() = %q, want %q", sv, "1.0.0-abc1234")
	}
}

func TestGetFullVersionOmitsMainBranch(t *testing.T) {
	stubBuildVars(t, "1.0.0", "abc1234", "main", "2024-01-15T10:30:00Z", "go1.26.0")

	fv := GetFullVersion()
	if !strings.Contains(fv, "1.0.0") || !strings.Contains(fv, "abc1234") {
		t.Errorf("full version missing version or commit: %q", fv)
	}
	if strings.Contains(fv, "main") {
		t.Errorf("main branch should be omitted from %q", fv)
	}
	if !strings.Contains(fv, "built") {
		t.Errorf("full version should include a build timestamp, got %q", fv)
	}
}

func TestGetFullVersionIncludesFeatureBranch(t *testing.T) {
	stubBuildVars(t, "1.0.0", "abc1234", "feature/live-feed", "2024-01-15T10:30:00Z", "go1.26.0")

	if fv := GetFullVersion(); !strings.Contains(fv, "feature/live-feed") {
		t.Errorf("full version should include the feature branch, got %q", fv)
	}
}
