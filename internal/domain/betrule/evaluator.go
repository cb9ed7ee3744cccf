package betrule

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/questx-lab/lottery/config"
	"golang.org/x/exp/slices"
)

var (
	ErrUnknownBetType      = errors.New("unknown bet type")
	ErrMissingSpecialPrize = errors.New("missing special prize")
	ErrInvalidStake        = errors.New("invalid stake")
	ErrAmountOverflow      = errors.New("amount overflow")
)

// pointUnit converts a point payout to currency.
const pointUnit = 1000

type Evaluator struct {
	catalog config.Catalog
}

func NewEvaluator(catalog config.Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

func (e *Evaluator) rule(betType string) (config.BetType, error) {
	rule, ok := e.catalog.BetType(betType)
	if !ok {
		return config.BetType{}, fmt.Errorf("%w: %s", ErrUnknownBetType, betType)
	}

	return rule, nil
}

// WinCount returns how many times the chosen numbers hit the draw.
//
// A lo number wins once per drawn number ending with it. A de number wins
// once if it equals the last two digits of the special prize.
func (e *Evaluator) WinCount(betType string, numbers []string, specialPrize string, endings []string) (int, error) {
	rule, err := e.rule(betType)
	if err != nil {
		return 0, err
	}

	count := 0
	switch rule.Family {
	case config.BetFamilyLo:
		for _, n := range numbers {
			for _, ending := range endings {
				if n == ending {
					count++
				}
			}
		}

	case config.BetFamilyDe:
		if len(specialPrize) < 2 {
			return 0, ErrMissingSpecialPrize
		}

		target := specialPrize[len(specialPrize)-2:]
		if slices.Contains(numbers, target) {
			count = 1
		}

	default:
		return 0, fmt.Errorf("%w: %s has family %s", ErrUnknownBetType, betType, rule.Family)
	}

	return count, nil
}

// Payout returns the currency credited for winCount hits.
func (e *Evaluator) Payout(betType string, stake int64, winCount int) (int64, error) {
	rule, err := e.rule(betType)
	if err != nil {
		return 0, err
	}

	if winCount <= 0 {
		return 0, nil
	}

	if stake <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStake, stake)
	}

	factors := []int64{stake, rule.Multiplier, int64(winCount)}
	if rule.StakeStyle == config.StakeStylePoint {
		factors = append(factors, pointUnit)
	}

	return multiply(factors...)
}

// Cost returns the currency debited when placing a bet. The stake must not
// exceed the max stake of the bet type.
func (e *Evaluator) Cost(betType string, stake int64, numbers int) (int64, error) {
	rule, err := e.rule(betType)
	if err != nil {
		return 0, err
	}

	if stake <= 0 || stake > rule.MaxStake {
		return 0, fmt.Errorf("%w: %s accepts a stake from 1 to %d", ErrInvalidStake, betType, rule.MaxStake)
	}

	factors := []int64{stake, int64(numbers)}
	if rule.StakeStyle == config.StakeStylePoint {
		factors = append(factors, rule.PointPrice)
	}

	return multiply(factors...)
}

// multiply returns the product of non-negative factors, or ErrAmountOverflow
// if it does not fit in an int64.
func multiply(factors ...int64) (int64, error) {
	product := int64(1)
	for _, f := range factors {
		if f < 0 {
			return 0, fmt.Errorf("%w: negative factor %d", ErrAmountOverflow, f)
		}

		hi, lo := bits.Mul64(uint64(product), uint64(f))
		if hi != 0 || lo > math.MaxInt64 {
			return 0, ErrAmountOverflow
		}

		product = int64(lo)
	}

	return product, nil
}
