package password

import "unicode"

// Strength is an advisory classification of password quality. Only the
// minimum-length check (applied by callers, see Config in the root package)
// is a hard gate; Strength exists for scoring and UI feedback.
type Strength int

const (
	// StrengthWeak covers passwords drawing on a single character class.
	StrengthWeak Strength = iota
	// StrengthMedium covers passwords mixing two or three character classes.
	StrengthMedium
	// StrengthStrong requires at least one lowercase letter, one uppercase
	// letter, one digit, and one symbol.
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthStrong:
		return "strong"
	case StrengthMedium:
		return "medium"
	default:
		return "weak"
	}
}

// Score classifies plaintext by the character classes it draws on.
func Score(plaintext string) Strength {
	var lower, upper, digit, symbol bool
	for _, r := range plaintext {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	classes := 0
	for _, present := range []bool{lower, upper, digit, symbol} {
		if present {
			classes++
		}
	}

	switch {
	case lower && upper && digit && symbol:
		return StrengthStrong
	case classes >= 2:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}
