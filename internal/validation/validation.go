package validation

import (
	"errors"
	"strings"
	"unicode"
)

// Length bounds for city names and search queries, in runes.
const (
	MinQueryLength = 2
	MaxCityLength  = 100
)

// ErrCityEmpty is returned when a city name is empty or whitespace-only after trim.
var ErrCityEmpty = errors.New("city is required")

// ErrQueryTooShort is returned when a search query is below MinQueryLength.
var ErrQueryTooShort = errors.New("query must be at least 2 characters")

// ErrCityTooLong is returned when a city name exceeds MaxCityLength.
var ErrCityTooLong = errors.New("city name too long")

// ErrCityInvalidChars is returned when a city name contains disallowed characters.
var ErrCityInvalidChars = errors.New("city name contains invalid characters")

// ValidateCity trims the input, enforces length bounds, and restricts to
// allowed characters: letters (Unicode), digits, space, comma, period,
// apostrophe, hyphen. Returns the trimmed string or an error suitable for a
// 400 response.
func ValidateCity(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrCityEmpty
	}
	if len(r) > MaxCityLength {
		return "", ErrCityTooLong
	}
	for _, c := range r {
		if !isAllowedCityRune(c) {
			return "", ErrCityInvalidChars
		}
	}
	return s, nil
}

// ValidateSearchQuery applies ValidateCity rules plus the 2-rune minimum for
// the city search endpoint.
func ValidateSearchQuery(input string) (string, error) {
	s := strings.TrimSpace(input)
	if len([]rune(s)) < MinQueryLength {
		return "", ErrQueryTooShort
	}
	return ValidateCity(s)
}

// isAllowedCityRune returns true for letters (Unicode), digits, space, comma,
// period, apostrophe, hyphen.
func isAllowedCityRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '.', '\'', '-':
		return true
	}
	return false
}
