package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("production", "warn", &buf)

	log.Info().Msg("dropped")
	log.Warn().Str("bucket", "questbase").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "questbase", line["bucket"])
	assert.Equal(t, "questbase", line["service"])
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	log := newWithWriter("development", "loud", &bytes.Buffer{})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
