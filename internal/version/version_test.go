package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, v, commit, date string) {
	t.Helper()
	prevV, prevC, prevD := Version, Commit, Date
	Version, Commit, Date = v, commit, date
	t.Cleanup(func() { Version, Commit, Date = prevV, prevC, prevD })
}

func TestGetInfoReflectsLinkerValues(t *testing.T) {
	withBuild(t, "0.4.0", "9f1c2e7d0b3a", "2025-03-04T10:30:15Z")

	info := GetInfo()
	assert.Equal(t, Info{
		Version:   "0.4.0",
		Commit:    "9f1c2e7d0b3a",
		Date:      "2025-03-04T10:30:15Z",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}, info)
	assert.Equal(t, "0.4.0", info.Short())
}

func TestInfoString(t *testing.T) {
	cases := map[string]struct {
		info Info
		want string
	}{
		"long commit is shortened": {
			info: Info{Version: "0.4.0", Commit: "9f1c2e7d0b3a", Date: "2025-03-04", GoVersion: "go1.24.6", Platform: "linux/amd64"},
			want: "brief-to-plan 0.4.0 (9f1c2e7d) built 2025-03-04 with go1.24.6 for linux/amd64",
		},
		"short commit kept": {
			info: Info{Version: "0.4.0-rc1", Commit: "9f1c", Date: "2025-03-04", GoVersion: "go1.24.6", Platform: "darwin/arm64"},
			want: "brief-to-plan 0.4.0-rc1 (9f1c) built 2025-03-04 with go1.24.6 for darwin/arm64",
		},
		"unstamped build": {
			info: Info{Version: "dev", Commit: "unknown", Date: "unknown", GoVersion: "go1.24.6", Platform: "linux/arm64"},
			want: "brief-to-plan dev (unknown) built unknown with go1.24.6 for linux/arm64",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.info.String())
		})
	}
}

func TestUserAgent(t *testing.T) {
	withBuild(t, "1.2.3", "", "")
	assert.Equal(t, "brief-to-plan/1.2.3", UserAgent())
}
