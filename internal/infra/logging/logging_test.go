package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log := NewJSON(&buf, slog.LevelInfo, "endofday")
	log.Debug("hidden")
	log.Info("day closed", "day", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "day closed", entry["msg"])
	assert.Equal(t, "endofday", entry["service"])
	assert.EqualValues(t, 3, entry["day"])
}
