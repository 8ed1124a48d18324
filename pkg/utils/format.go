// Package utils provides INR formatting and NSE calendar helpers.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatIndianCurrency formats a number in Indian currency format (lakhs, crores).
func FormatIndianCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	formatted := formatIndianNumber(parts[0])

	result := "₹" + formatted + "." + parts[1]
	if negative && result != "₹0.00" {
		result = "-" + result
	}
	return result
}

// formatIndianNumber groups an integer string as 1,00,00,000: three digits,
// then pairs.
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]

	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatQuantity formats a share count with Indian grouping. Fractional
// quantities keep four decimals.
func FormatQuantity(qty float64) string {
	if qty == math.Trunc(qty) {
		sign := ""
		if qty < 0 {
			sign, qty = "-", -qty
		}
		return sign + formatIndianNumber(fmt.Sprintf("%.0f", qty))
	}
	return fmt.Sprintf("%.4f", qty)
}

// FormatFraction formats a fraction as a percentage: 0.1234 -> "12.34%".
func FormatFraction(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatSignedFraction is FormatFraction with a leading + on gains.
func FormatSignedFraction(v float64) string {
	if v > 0 {
		return "+" + FormatFraction(v)
	}
	return FormatFraction(v)
}

// FormatLakhs formats a number in lakhs.
func FormatLakhs(amount float64) string {
	return fmt.Sprintf("%.2f L", amount/100000)
}

// FormatCrores formats a number in crores.
func FormatCrores(amount float64) string {
	return fmt.Sprintf("%.2f Cr", amount/10000000)
}

// FormatCompact formats a number in compact form (L/Cr).
func FormatCompact(amount float64) string {
	abs := math.Abs(amount)
	switch {
	case abs >= 10000000:
		return FormatCrores(amount)
	case abs >= 100000:
		return FormatLakhs(amount)
	}
	return FormatIndianCurrency(amount)
}
