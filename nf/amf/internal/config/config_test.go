package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().AMF.InstanceID, cfg.AMF.InstanceID)
}

func TestDefaultConfig_Validates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SBI.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_RequiresClickHouseAddressesWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClickHouse.Enabled = true
	cfg.ClickHouse.Addresses = nil
	assert.Error(t, cfg.Validate())
}
