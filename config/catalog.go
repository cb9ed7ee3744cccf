package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	BetFamilyLo = "lo"
	BetFamilyDe = "de"

	StakeStylePoint    = "point"
	StakeStyleCurrency = "currency"
)

// Catalog lists the configured game types and bet types.
type Catalog struct {
	GameTypes []GameType `toml:"game_type"`
	BetTypes  []BetType  `toml:"bet_type"`
}

type GameType struct {
	Key      string   `toml:"key"`
	Name     string   `toml:"name"`
	Duration Duration `toml:"duration"`

	// NumberOffset is added to YYYYMMDD*10000 to form the first session number
	// of a day.
	NumberOffset int64 `toml:"number_offset"`
}

type BetType struct {
	Key        string `toml:"key"`
	Name       string `toml:"name"`
	Family     string `toml:"family"`
	StakeStyle string `toml:"stake_style"`
	Multiplier int64  `toml:"multiplier"`

	// PointPrice is the currency cost of one point, only used by point bets.
	PointPrice int64 `toml:"point_price"`

	// MaxStake bounds the stake of a single bet, in points or currency
	// depending on the stake style.
	MaxStake int64 `toml:"max_stake"`
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func DefaultCatalog() Catalog {
	return Catalog{
		GameTypes: []GameType{
			{Key: "lottery_1m", Name: "1 minute", Duration: Duration{time.Minute}, NumberOffset: 1000},
			{Key: "lottery_5m", Name: "5 minutes", Duration: Duration{5 * time.Minute}, NumberOffset: 2000},
			{Key: "lottery_30m", Name: "30 minutes", Duration: Duration{30 * time.Minute}, NumberOffset: 3000},
		},
		BetTypes: []BetType{
			{Key: "lo_2_so", Name: "Lo 2 so", Family: BetFamilyLo, StakeStyle: StakeStyleCurrency, Multiplier: 99, MaxStake: 100_000_000},
			{Key: "point_lo_2_so", Name: "Lo 2 so (diem)", Family: BetFamilyLo, StakeStyle: StakeStylePoint, Multiplier: 99, PointPrice: 27000, MaxStake: 100_000},
			{Key: "de_dac_biet", Name: "De dac biet", Family: BetFamilyDe, StakeStyle: StakeStyleCurrency, Multiplier: 99, MaxStake: 100_000_000},
			{Key: "point_de_dac_biet", Name: "De dac biet (diem)", Family: BetFamilyDe, StakeStyle: StakeStylePoint, Multiplier: 99, PointPrice: 27000, MaxStake: 100_000},
		},
	}
}

func LoadCatalog(path string) (Catalog, error) {
	var c Catalog
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Catalog{}, err
	}

	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}

	return c, nil
}

func (c Catalog) Validate() error {
	if len(c.GameTypes) == 0 {
		return fmt.Errorf("catalog has no game type")
	}

	seen := map[string]bool{}
	for _, g := range c.GameTypes {
		if g.Key == "" || g.Duration.Duration <= 0 {
			return fmt.Errorf("invalid game type %q", g.Key)
		}
		if seen[g.Key] {
			return fmt.Errorf("duplicated game type %q", g.Key)
		}
		seen[g.Key] = true
	}

	for _, b := range c.BetTypes {
		if b.Family != BetFamilyLo && b.Family != BetFamilyDe {
			return fmt.Errorf("bet type %q has invalid family %q", b.Key, b.Family)
		}
		if b.StakeStyle != StakeStylePoint && b.StakeStyle != StakeStyleCurrency {
			return fmt.Errorf("bet type %q has invalid stake style %q", b.Key, b.StakeStyle)
		}
		if b.Multiplier <= 0 {
			return fmt.Errorf("bet type %q has invalid multiplier", b.Key)
		}
		if b.StakeStyle == StakeStylePoint && b.PointPrice <= 0 {
			return fmt.Errorf("point bet type %q needs a point price", b.Key)
		}
		if b.MaxStake <= 0 {
			return fmt.Errorf("bet type %q needs a max stake", b.Key)
		}
	}

	return nil
}

func (c Catalog) GameType(key string) (GameType, bool) {
	for _, g := range c.GameTypes {
		if g.Key == key {
			return g, true
		}
	}

	return GameType{}, false
}

func (c Catalog) BetType(key string) (BetType, bool) {
	for _, b := range c.BetTypes {
		if b.Key == key {
			return b, true
		}
	}

	return BetType{}, false
}
