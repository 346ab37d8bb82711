// Package core provides amount parsing and formatting utilities.
//
// This file contains functions for parsing monetary amounts from free-form
// user input and formatting them back for display.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts free-form user input to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// ignores currency symbols, grouping spaces and any other stray characters.
// Returns ErrInvalidAmount for input that does not reduce to a finite
// number greater than zero.
//
// Examples:
//
//	ParseAmount("12.34")       -> 12.34, nil
//	ParseAmount("12,34")       -> 12.34, nil
//	ParseAmount("1 234,50 ₴")  -> 1234.5, nil
//	ParseAmount("0")           -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// A leading minus must fail, not get stripped into a positive value.
	if strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	// Normalize the decimal comma, then keep digits and dots only.
	s = strings.Replace(s, ",", ".", 1)
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders an amount for display: grouped thousands, comma as
// the decimal separator, at most two fractional digits.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if hasFrac && len(fracPart) > 2 {
		s = strconv.FormatFloat(v, 'f', 2, 64)
		intPart, fracPart, _ = strings.Cut(s, ".")
		fracPart = strings.TrimRight(fracPart, "0")
	}

	var b strings.Builder
	if strings.HasPrefix(intPart, "-") {
		b.WriteByte('-')
		intPart = intPart[1:]
	}
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(d)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}
