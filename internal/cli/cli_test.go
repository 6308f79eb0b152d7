package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		backendFlag = ""
		statsTier = 0
		statsLimit = 10
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStatsOnMemoryBackend(t *testing.T) {
	out, err := run(t, "stats", "--backend", "memory", "--tier", "1", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Users: 0")
	assert.Contains(t, out, "TIER")
	assert.Contains(t, out, "Evol 7")
	assert.Contains(t, out, "leaderboard (0 users)")
}

func TestStatsRejectsUnknownTier(t *testing.T) {
	_, err := run(t, "stats", "--backend", "memory", "--tier", "9")
	assert.Error(t, err)
}

func TestMigrateRefusesMemoryBackend(t *testing.T) {
	_, err := run(t, "migrate", "--backend", "memory")
	assert.Error(t, err)
}
