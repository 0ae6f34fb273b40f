package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{
		BeginString:  "FIX.4.4",
		SenderCompID: "A",
		TargetCompID: "B",
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 10*time.Second, cfg.LogonTimeout)
	assert.Equal(t, cfg.HeartbeatInterval, cfg.TestRequestTimeout)
	assert.Equal(t, 1024, cfg.MaxGap)
	assert.Equal(t, "A->B", cfg.SessionID())
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing begin string", Config{SenderCompID: "A", TargetCompID: "B"}},
		{"missing identities", Config{BeginString: "FIX.4.4"}},
		{"same identities", Config{BeginString: "FIX.4.4", SenderCompID: "A", TargetCompID: "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	data := `
begin_string: FIX.4.4
sender_comp_id: ENGINE
target_comp_id: VENUE
initiator: true
heartbeat_interval: 45s
max_gap: 64
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ENGINE", cfg.SenderCompID)
	assert.Equal(t, "VENUE", cfg.TargetCompID)
	assert.True(t, cfg.Initiator)
	assert.Equal(t, 45*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 64, cfg.MaxGap)
	// Unspecified keys take defaults.
	assert.Equal(t, 10*time.Second, cfg.LogonTimeout)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
