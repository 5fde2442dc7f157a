package version

import (
	"encoding/json"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_IsNotEmpty(t *testing.T) {
	assert.NotEmpty(t, Version, "Version should not be empty")
}

func TestVersion_FollowsSemverOrDev(t *testing.T) {
	if Version == "dev" {
		t.Log("Version is 'dev' (development build without ldflags)")
		return
	}

	semverPattern := regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?$`)
	assert.True(t, semverPattern.MatchString(Version),
		"Version should follow semver format, got: %s", Version)
}

func TestString_ContainsAllBuildInfo(t *testing.T) {
	s := String()
	assert.Contains(t, s, "trailstore")
	assert.Contains(t, s, Version)
	assert.Contains(t, s, Commit)
}

func TestShort_ReturnsVersionOnly(t *testing.T) {
	assert.Equal(t, Version, Short())
}

func TestGetInfo_PopulatesPlatformFields(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestGetInfo_MarshalsToJSON(t *testing.T) {
	data, err := json.Marshal(GetInfo())
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "version")
	assert.Contains(t, decoded, "commit")
	assert.Contains(t, decoded, "go_version")
}
