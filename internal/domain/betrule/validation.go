package betrule

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

var twoDigits = regexp.MustCompile(`^[0-9]{2}$`)

// MaxNumbersPerBet bounds how many numbers a single bet can cover.
const MaxNumbersPerBet = 100

// ValidateNumbers checks that numbers is a non-empty list of distinct
// two-digit strings.
func ValidateNumbers(numbers []string) error {
	err := validation.Validate(numbers,
		validation.Required,
		validation.Length(1, MaxNumbersPerBet),
	)
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, n := range numbers {
		if err := validation.Validate(n, validation.Match(twoDigits).Error("must be a two-digit number")); err != nil {
			return fmt.Errorf("%s: %w", n, err)
		}

		if seen[n] {
			return fmt.Errorf("duplicated number %s", n)
		}
		seen[n] = true
	}

	return nil
}
