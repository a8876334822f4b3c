// Package phone normalizes Brazilian phone numbers for channel addressing
// and advisory duplicate detection.
//
// Heuristics (Brazil):
//   - strip everything that is not a digit
//   - 10/11 digit numbers are assumed to be DDD+number and get the 55 prefix
//   - numbers already carrying a country code (>= 12 digits) are kept
//
// Mobile numbers may be stored with or without the ninth digit depending on
// which provider created the row, so duplicate detection compares against
// both variants rather than a single canonical form.
package phone

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalid is returned when a value cannot be normalized to a plausible
// international number.
var ErrInvalid = errors.New("invalid phone number")

// Normalize converts a raw phone string to international digits-only form
// (no '+'), e.g. "(11) 99999-8888" -> "5511999998888".
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalid
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	p := strings.TrimLeft(b.String(), "0")

	// DDD+number without country code.
	if len(p) == 10 || len(p) == 11 {
		p = "55" + p
	}
	if len(p) < 12 {
		return "", ErrInvalid
	}
	return p, nil
}

// Variants returns the normalized number plus its ninth-digit counterpart
// when the number is a Brazilian mobile. The first element is always the
// normalized input itself.
//
// 5511999998888 (13 digits, with ninth digit) also matches 551199998888;
// 551199998888 (12 digits) also matches 5511999998888.
func Variants(raw string) ([]string, error) {
	p, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	out := []string{p}
	if !strings.HasPrefix(p, "55") {
		return out, nil
	}
	switch len(p) {
	case 13:
		// 55 + DDD(2) + 9 + number(8): drop the ninth digit.
		if p[4] == '9' {
			out = append(out, p[:4]+p[5:])
		}
	case 12:
		// 55 + DDD(2) + number(8): insert the ninth digit.
		out = append(out, p[:4]+"9"+p[4:])
	}
	return out, nil
}
