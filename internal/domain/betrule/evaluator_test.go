package betrule

import (
	"math"
	"testing"

	"github.com/questx-lab/lottery/config"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_WinCount(t *testing.T) {
	e := NewEvaluator(config.DefaultCatalog())

	tests := []struct {
		name         string
		betType      string
		numbers      []string
		specialPrize string
		endings      []string
		want         int
		wantErr      error
	}{
		{
			name:    "lo counts every matching ending",
			betType: "lo_2_so",
			numbers: []string{"12"},
			endings: []string{"12", "34", "12", "56", "12"},
			want:    3,
		},
		{
			name:    "lo sums over numbers",
			betType: "point_lo_2_so",
			numbers: []string{"12", "34", "99"},
			endings: []string{"12", "34", "12"},
			want:    3,
		},
		{
			name:    "lo without match",
			betType: "lo_2_so",
			numbers: []string{"00"},
			endings: []string{"12", "34"},
			want:    0,
		},
		{
			name:         "de matches last two digits of special prize",
			betType:      "de_dac_biet",
			numbers:      []string{"45", "12"},
			specialPrize: "12345",
			endings:      []string{"45", "45"},
			want:         1,
		},
		{
			name:         "de without match",
			betType:      "point_de_dac_biet",
			numbers:      []string{"44"},
			specialPrize: "12345",
			want:         0,
		},
		{
			name:    "de without special prize",
			betType: "de_dac_biet",
			numbers: []string{"45"},
			wantErr: ErrMissingSpecialPrize,
		},
		{
			name:    "unknown bet type",
			betType: "xien_2",
			numbers: []string{"12"},
			endings: []string{"12"},
			wantErr: ErrUnknownBetType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.WinCount(tt.betType, tt.numbers, tt.specialPrize, tt.endings)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_Payout(t *testing.T) {
	e := NewEvaluator(config.DefaultCatalog())

	tests := []struct {
		name     string
		betType  string
		stake    int64
		winCount int
		want     int64
	}{
		{name: "point lo", betType: "point_lo_2_so", stake: 10, winCount: 2, want: 10 * 99 * 2 * 1000},
		{name: "currency lo", betType: "lo_2_so", stake: 10000, winCount: 1, want: 10000 * 99},
		{name: "point de", betType: "point_de_dac_biet", stake: 1, winCount: 1, want: 99 * 1000},
		{name: "currency de", betType: "de_dac_biet", stake: 5000, winCount: 1, want: 5000 * 99},
		{name: "no win", betType: "lo_2_so", stake: 10000, winCount: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Payout(tt.betType, tt.stake, tt.winCount)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := e.Payout("unknown", 1, 1)
	require.ErrorIs(t, err, ErrUnknownBetType)
}

func TestEvaluator_Cost(t *testing.T) {
	e := NewEvaluator(config.DefaultCatalog())

	cost, err := e.Cost("point_lo_2_so", 10, 3)
	require.NoError(t, err)
	require.Equal(t, int64(10*3*27000), cost)

	cost, err = e.Cost("de_dac_biet", 5000, 2)
	require.NoError(t, err)
	require.Equal(t, int64(10000), cost)

	// A stake which would wrap the cost around is refused.
	_, err = e.Cost("lo_2_so", 3135946492530623775, 100)
	require.ErrorIs(t, err, ErrInvalidStake)

	_, err = e.Cost("lo_2_so", 0, 1)
	require.ErrorIs(t, err, ErrInvalidStake)

	rule, ok := config.DefaultCatalog().BetType("point_lo_2_so")
	require.True(t, ok)
	_, err = e.Cost("point_lo_2_so", rule.MaxStake+1, 1)
	require.ErrorIs(t, err, ErrInvalidStake)

	cost, err = e.Cost("point_lo_2_so", rule.MaxStake, 100)
	require.NoError(t, err)
	require.Equal(t, rule.MaxStake*100*27000, cost)
}

func TestEvaluator_Overflow(t *testing.T) {
	e := NewEvaluator(config.Catalog{BetTypes: []config.BetType{
		{Key: "huge", Family: config.BetFamilyLo, StakeStyle: config.StakeStylePoint,
			Multiplier: 99, PointPrice: 27000, MaxStake: math.MaxInt64},
	}})

	_, err := e.Cost("huge", 3135946492530623775, 100)
	require.ErrorIs(t, err, ErrAmountOverflow)

	_, err = e.Payout("huge", 3135946492530623775, 1)
	require.ErrorIs(t, err, ErrAmountOverflow)

	_, err = e.Payout("huge", math.MaxInt64/99/1000+1, 1)
	require.ErrorIs(t, err, ErrAmountOverflow)

	amount, err := e.Payout("huge", math.MaxInt64/99/1000, 1)
	require.NoError(t, err)
	require.Equal(t, int64(math.MaxInt64/99/1000*99*1000), amount)
}

func TestValidateNumbers(t *testing.T) {
	require.NoError(t, ValidateNumbers([]string{"00", "12", "99"}))
	require.Error(t, ValidateNumbers(nil))
	require.Error(t, ValidateNumbers([]string{"1"}))
	require.Error(t, ValidateNumbers([]string{"123"}))
	require.Error(t, ValidateNumbers([]string{"ab"}))
	require.Error(t, ValidateNumbers([]string{"12", "12"}))
}
