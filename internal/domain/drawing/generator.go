package drawing

import (
	"fmt"

	"github.com/questx-lab/lottery/pkg/crypto"
)

// Source returns uniform random integers in [0, n).
type Source interface {
	Intn(n int) int
}

type tier struct {
	count  int
	digits int
	set    func(*Result, []string)
}

var tiers = []tier{
	{1, 5, func(r *Result, v []string) { r.SpecialPrize = v[0] }},
	{1, 5, func(r *Result, v []string) { r.FirstPrize = v }},
	{2, 5, func(r *Result, v []string) { r.SecondPrize = v }},
	{6, 5, func(r *Result, v []string) { r.ThirdPrize = v }},
	{4, 4, func(r *Result, v []string) { r.FourthPrize = v }},
	{6, 4, func(r *Result, v []string) { r.FifthPrize = v }},
	{3, 3, func(r *Result, v []string) { r.SixthPrize = v }},
	{4, 2, func(r *Result, v []string) { r.SeventhPrize = v }},
}

// TotalNumbers is the number of numbers drawn per session.
const TotalNumbers = 27

type Generator struct {
	source Source
}

// NewGenerator returns a Generator reading from source, or from a
// cryptographically secure source if source is nil.
func NewGenerator(source Source) *Generator {
	if source == nil {
		source = crypto.Source{}
	}

	return &Generator{source: source}
}

// Generate draws every tier. Numbers are zero-padded to the digit count of
// their tier and unique within the tier.
func (g *Generator) Generate() Result {
	var result Result
	for _, t := range tiers {
		t.set(&result, g.generateTier(t.count, t.digits))
	}

	return result
}

func (g *Generator) generateTier(count, digits int) []string {
	max := 1
	for i := 0; i < digits; i++ {
		max *= 10
	}

	seen := make(map[int]bool, count)
	numbers := make([]string, 0, count)
	for len(numbers) < count {
		n := g.source.Intn(max)
		if seen[n] {
			continue
		}

		seen[n] = true
		numbers = append(numbers, fmt.Sprintf("%0*d", digits, n))
	}

	return numbers
}
