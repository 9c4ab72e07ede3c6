package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"BUS_ENDPOINT", "BUS_TOPIC", "BUS_GROUP_ID", "STORE_HOST", "STORE_PORT",
		"STORE_TTL", "REF_SERVICE_URL", "REF_PAGE_SIZE", "LOG_LEVEL", "WORKER_ID",
		"BUMP_SIZE", "ADMIN_ADDR",
	}
	for _, k := range keys {
		old, ok := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if ok {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:9092", cfg.BusEndpoint)
	assert.Equal(t, "curve-ticks", cfg.BusTopic)
	assert.Equal(t, 6379, cfg.StorePort)
	assert.Equal(t, 0.0001, cfg.BumpSize)
	assert.NotEmpty(t, cfg.WorkerID)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("BUS_ENDPOINT", "broker:9999")
	os.Setenv("BUMP_SIZE", "0.0005")
	os.Setenv("WORKER_ID", "worker-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "broker:9999", cfg.BusEndpoint)
	assert.Equal(t, 0.0005, cfg.BumpSize)
	assert.Equal(t, "worker-1", cfg.WorkerID)
}

func TestValidate_RejectsNonPositiveBumpSize(t *testing.T) {
	cfg := &Config{BusEndpoint: "x", RefServiceURL: "y", BumpSize: 0}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsMissingBusEndpoint(t *testing.T) {
	cfg := &Config{RefServiceURL: "y", BumpSize: 0.0001}
	assert.Error(t, cfg.Validate())
}
