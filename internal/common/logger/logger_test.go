package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriterWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("evol-ledger", false, &buf)

	Warn().Str("user_id", "42").Msg("ledger record malformed")
	Debug().Msg("hidden at info level")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "evol-ledger", entry["service"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "42", entry["user_id"])
	assert.Equal(t, "ledger record malformed", entry["message"])
	assert.Contains(t, entry, "timestamp")
}
