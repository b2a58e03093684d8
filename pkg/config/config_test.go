package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 5000, cfg.Bulk.BatchSize)
	assert.Equal(t, 1<<20, cfg.Bulk.MaxLineBytes)
	assert.Equal(t, 100, cfg.Pagination.DefaultSize)
	assert.Equal(t, 1000, cfg.Pagination.MaxSize)
	assert.Equal(t, BusGoChannel, cfg.Bus.Type)
	assert.Equal(t, "tagging.suggested", cfg.Suggestions.Topic)
	assert.Equal(t, "*/10 * * * *", cfg.Reconciler.Cron)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.False(t, cfg.Admin.ResetEnabled)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("BULK_BATCH_SIZE", "250")
	t.Setenv("BUS_TYPE", "NATS")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("EVENTS_RETRY_DELAY", "250ms")
	t.Setenv("ENABLE_ADMIN_RESET", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Bulk.BatchSize)
	assert.Equal(t, BusNATS, cfg.Bus.Type)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.Events.RetryDelay)
	assert.True(t, cfg.Admin.ResetEnabled)
}

func TestNonPositiveBatchSizeFallsBack(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("BULK_BATCH_SIZE", 0)

	assert.Equal(t, 5000, fromViper(v).Bulk.BatchSize)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
	assert.Equal(t, 3*time.Minute, parseDuration("3m", time.Second))
}
