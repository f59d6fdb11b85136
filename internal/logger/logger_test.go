package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	Info("artifact resolved", KeyRepository, "releases", KeyPath, "com/example/app/1.0/app-1.0.jar")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "artifact resolved")
	assert.Contains(t, out, "repository=releases")
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json")

	Info("deploy accepted", KeyRepository, "snapshots")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "deploy accepted", record["msg"])
	assert.Equal(t, "snapshots", record["repository"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text")

	Debug("should not appear")
	Info("should not appear either")
	Warn("warning line")
	Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "warning line")
	assert.Contains(t, out, "error line")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	SetLevel("DEBUG")
	assert.Equal(t, LevelDebug, GetLevel())

	Debug("debug line")
	assert.Contains(t, buf.String(), "debug line")

	// Invalid levels are ignored
	SetLevel("VERBOSE")
	assert.Equal(t, LevelDebug, GetLevel())
}

func TestSetFormatIgnoresInvalid(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	SetFormat("xml")

	Info("still text")
	assert.Contains(t, buf.String(), "[INFO]")
}
