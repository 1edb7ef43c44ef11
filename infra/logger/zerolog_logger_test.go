package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerJSON(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter("colgen", &buf)
	l.Debugw("iteration", map[string]any{"pool_size": 4})
	l.Infof("done in %d iterations", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "colgen", first["component"])
	assert.Equal(t, "debug", first["level"])
	assert.EqualValues(t, 4, first["pool_size"])
}

func TestZerologLoggerLevel(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_LEVEL", "warn")
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter("colgen", &buf)
	l.Infof("hidden")
	assert.Empty(t, buf.String())
	l.Warnf("shown")
	assert.Contains(t, buf.String(), "shown")
}
