package version

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GitCommit, info.GitCommit)
	assert.Equal(t, BuildTime, info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestInfo_String(t *testing.T) {
	info := Info{Version: "0.3.0", GitCommit: "abc123", BuildTime: "2026-10-01T09:00:00Z", GoVersion: "go1.25.1"}
	assert.Equal(t, "skillstack 0.3.0 (commit abc123, built 2026-10-01T09:00:00Z, go1.25.1)", info.String())
}

func TestInfo_JSON(t *testing.T) {
	info := Info{Version: "0.3.0", GitCommit: "abc123", BuildTime: "2026-10-01T09:00:00Z", GoVersion: "go1.25.1"}

	out, err := info.JSON()
	require.NoError(t, err)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, map[string]string{
		"version":   "0.3.0",
		"gitCommit": "abc123",
		"buildTime": "2026-10-01T09:00:00Z",
		"goVersion": "go1.25.1",
	}, parsed)
}
