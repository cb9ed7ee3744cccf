package drawing

import (
	"github.com/fatih/structs"
	"github.com/mitchellh/mapstructure"
)

// Result holds the numbers of one draw, tier by tier.
type Result struct {
	SpecialPrize string   `structs:"special_prize" mapstructure:"special_prize" json:"special_prize"`
	FirstPrize   []string `structs:"first_prize" mapstructure:"first_prize" json:"first_prize"`
	SecondPrize  []string `structs:"second_prize" mapstructure:"second_prize" json:"second_prize"`
	ThirdPrize   []string `structs:"third_prize" mapstructure:"third_prize" json:"third_prize"`
	FourthPrize  []string `structs:"fourth_prize" mapstructure:"fourth_prize" json:"fourth_prize"`
	FifthPrize   []string `structs:"fifth_prize" mapstructure:"fifth_prize" json:"fifth_prize"`
	SixthPrize   []string `structs:"sixth_prize" mapstructure:"sixth_prize" json:"sixth_prize"`
	SeventhPrize []string `structs:"seventh_prize" mapstructure:"seventh_prize" json:"seventh_prize"`
}

// Numbers returns every drawn number in tier order, special prize first.
func (r Result) Numbers() []string {
	numbers := []string{}
	if r.SpecialPrize != "" {
		numbers = append(numbers, r.SpecialPrize)
	}

	for _, tier := range [][]string{
		r.FirstPrize, r.SecondPrize, r.ThirdPrize, r.FourthPrize,
		r.FifthPrize, r.SixthPrize, r.SeventhPrize,
	} {
		numbers = append(numbers, tier...)
	}

	return numbers
}

// Endings returns the last two digits of every drawn number, keeping the
// order of Numbers.
func (r Result) Endings() []string {
	numbers := r.Numbers()
	endings := make([]string, 0, len(numbers))
	for _, n := range numbers {
		endings = append(endings, LastTwoDigits(n))
	}

	return endings
}

func (r Result) ToMap() map[string]any {
	return structs.Map(r)
}

// FromMap decodes a Result from the results data of a session. Unknown keys
// such as draw metadata are ignored.
func FromMap(m map[string]any) (Result, error) {
	var r Result
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &r,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Result{}, err
	}

	if err := decoder.Decode(m); err != nil {
		return Result{}, err
	}

	return r, nil
}

func LastTwoDigits(n string) string {
	if len(n) <= 2 {
		return n
	}

	return n[len(n)-2:]
}
