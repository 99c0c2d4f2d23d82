package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DB.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DB.WriteQueueSize = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DB.FlushInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Bank.ReplayCacheSize = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Bank.MaxInstructions = 0
	assert.Error(t, cfg.Validate())
}
