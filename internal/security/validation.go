// Package security validates untrusted input and masks credentials for display.
package security

import (
	"regexp"
	"strings"
	"unicode"

	"stock-forecaster/internal/errors"
)

// MaxSymbolLength bounds ticker symbols, exchange suffix included.
const MaxSymbolLength = 20

// MaxTextLength bounds free text submitted for sentiment scoring.
const MaxTextLength = 10000

var (
	// Tickers, exchange suffixes (RELIANCE.NS), indices (^GSPC) and FX pairs (EURUSD=X).
	symbolPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9&.=-]*$`)

	cmdInjectionPattern = regexp.MustCompile("[;|$`<>]")
)

// ValidateSymbol normalizes symbol and rejects anything that is not a
// plausible ticker. The returned error matches errors.ErrInvalidInput.
func ValidateSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	switch {
	case symbol == "":
		return "", errors.NewValidationError("symbol", symbol, "must not be empty")
	case len(symbol) > MaxSymbolLength:
		return "", errors.NewValidationError("symbol", symbol, "too long (max 20 characters)")
	case cmdInjectionPattern.MatchString(symbol):
		return "", errors.NewValidationError("symbol", symbol, "invalid characters detected")
	case !symbolPattern.MatchString(symbol):
		return "", errors.NewValidationError("symbol", symbol, "invalid symbol format")
	}
	return symbol, nil
}

// ValidateText sanitizes free text and enforces maxLen runes.
func ValidateText(field, text string, maxLen int) (string, error) {
	text = SanitizeText(text)
	if n := len([]rune(text)); maxLen > 0 && n > maxLen {
		return "", errors.NewValidationError(field, n, "text too long")
	}
	return text, nil
}

// SanitizeText removes control characters, keeping tabs and newlines.
func SanitizeText(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, text)
}

// MaskCredential masks a credential value for display.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
