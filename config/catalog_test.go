package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	err := os.WriteFile(path, []byte(`
[[game_type]]
key = "lottery_2m"
name = "2 minutes"
duration = "2m"
number_offset = 4000

[[bet_type]]
key = "lo_2_so"
family = "lo"
stake_style = "currency"
multiplier = 80
max_stake = 5000000
`), 0o600)
	require.NoError(t, err)

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	g, ok := c.GameType("lottery_2m")
	require.True(t, ok)
	require.Equal(t, 2*time.Minute, g.Duration.Duration)
	require.Equal(t, int64(4000), g.NumberOffset)

	b, ok := c.BetType("lo_2_so")
	require.True(t, ok)
	require.Equal(t, int64(80), b.Multiplier)
	require.Equal(t, int64(5000000), b.MaxStake)

	_, ok = c.BetType("point_lo_2_so")
	require.False(t, ok)
}

func TestCatalog_Validate(t *testing.T) {
	require.NoError(t, DefaultCatalog().Validate())

	tests := []struct {
		name    string
		catalog Catalog
	}{
		{
			name:    "no game type",
			catalog: Catalog{},
		},
		{
			name: "non-positive duration",
			catalog: Catalog{GameTypes: []GameType{
				{Key: "lottery_0m"},
			}},
		},
		{
			name: "point bet without price",
			catalog: Catalog{
				GameTypes: DefaultCatalog().GameTypes,
				BetTypes: []BetType{
					{Key: "point_lo", Family: BetFamilyLo, StakeStyle: StakeStylePoint, Multiplier: 99, MaxStake: 10},
				},
			},
		},
		{
			name: "unknown family",
			catalog: Catalog{
				GameTypes: DefaultCatalog().GameTypes,
				BetTypes: []BetType{
					{Key: "xien", Family: "xien", StakeStyle: StakeStyleCurrency, Multiplier: 10, MaxStake: 10},
				},
			},
		},
		{
			name: "no max stake",
			catalog: Catalog{
				GameTypes: DefaultCatalog().GameTypes,
				BetTypes: []BetType{
					{Key: "lo", Family: BetFamilyLo, StakeStyle: StakeStyleCurrency, Multiplier: 99},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.catalog.Validate())
		})
	}
}
