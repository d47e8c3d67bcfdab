package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SLA_BUSINESS_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.SLA.OpenHour)
	assert.Equal(t, 17, cfg.SLA.CloseHour)
	assert.Equal(t, 0.25, cfg.SLA.AtRiskFraction)
	assert.Equal(t, 5*time.Minute, cfg.SLA.ReconcileInterval())
	assert.Equal(t, 30*time.Second, cfg.SLA.StatsCacheTTL())
	assert.Equal(t, 2*time.Minute, cfg.SLA.LockTTL())
	assert.Equal(t, 200, cfg.SLA.ReconcileBatchSize)
	assert.Empty(t, cfg.SLA.Holidays)
}

func TestLoad_SLAOverrides(t *testing.T) {
	t.Setenv("SLA_BUSINESS_TIMEZONE", "UTC")
	t.Setenv("SLA_BUSINESS_OPEN_HOUR", "8")
	t.Setenv("SLA_BUSINESS_CLOSE_HOUR", "18")
	t.Setenv("SLA_AT_RISK_FRACTION", "0.5")
	t.Setenv("SLA_HOLIDAYS", "2024-12-25, 2024-12-26")
	t.Setenv("SLA_STATS_CACHE_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.SLA.OpenHour)
	assert.Equal(t, 18, cfg.SLA.CloseHour)
	assert.Equal(t, 0.5, cfg.SLA.AtRiskFraction)
	require.Len(t, cfg.SLA.Holidays, 2)
	assert.Equal(t, "2024-12-26", cfg.SLA.Holidays[1].Format(time.DateOnly))
	assert.Zero(t, cfg.SLA.StatsCacheTTL())
	loc, err := cfg.SLA.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"at risk fraction above one", "SLA_AT_RISK_FRACTION", "1.5"},
		{"at risk fraction not a number", "SLA_AT_RISK_FRACTION", "lots"},
		{"holiday not a date", "SLA_HOLIDAYS", "christmas"},
		{"unknown time zone", "SLA_BUSINESS_TIMEZONE", "Mars/Olympus_Mons"},
		{"closing before opening", "SLA_BUSINESS_CLOSE_HOUR", "8"},
		{"redis db not a number", "REDIS_DB", "zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SLA_BUSINESS_TIMEZONE", "UTC")
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
