package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "mysql.internal")
	t.Setenv("LOTTERY_LEASE_TTL", "30s")
	t.Setenv("LOTTERY_REQUEUE_ON_FAILURE", "true")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "mysql.internal", cfg.Database.Host)
	require.Equal(t, "3306", cfg.Database.Port)
	require.Equal(t, 30*time.Second, cfg.Lottery.LeaseTTL)
	require.True(t, cfg.Lottery.RequeueOnFailure)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.ApiServer.AllowedOrigins)
	require.Equal(t, DefaultCatalog(), cfg.Catalog())
}

func TestLoad_Consumer(t *testing.T) {
	host, err := os.Hostname()
	require.NoError(t, err)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)

	// Two workers left at defaults never share a lease owner.
	require.True(t, strings.HasPrefix(first.Lottery.Consumer, host+"-"))
	require.NotEqual(t, first.Lottery.Consumer, second.Lottery.Consumer)

	t.Setenv("LOTTERY_CONSUMER", "worker-a")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "worker-a", cfg.Lottery.Consumer)
}
