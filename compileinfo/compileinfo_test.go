package compileinfo

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBuildInfo(t *testing.T) {
	info := fromBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.24.0",
		Path:      "github.com/carbocation/gelqc/cmd/gelqc",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	assert.Equal(t, "0123456789abcdef0123", info.Commit)
	assert.True(t, info.Modified)
	assert.Equal(t, "0123456789ab+dirty", info.Short())
	assert.Contains(t, info.String(), "modified after that commit")
}

func TestShortWithoutStamp(t *testing.T) {
	assert.Equal(t, "devel", CompileInfo{}.Short())
}
