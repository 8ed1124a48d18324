package utils

import (
	"math"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

// Property: INR formatting uses Indian digit grouping and preserves value.
func TestProperty_IndianCurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	indianPattern := regexp.MustCompile(`^(\d{1,2},)*\d{1,3}$`)

	properties.Property("valid Indian format", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatIndianCurrency(amount)
			body := strings.TrimPrefix(formatted, "-")
			if !strings.HasPrefix(body, "₹") {
				return false
			}
			if amount >= 0 && strings.HasPrefix(formatted, "-") {
				return false
			}
			if amount < 0 && body != "₹0.00" && !strings.HasPrefix(formatted, "-") {
				return false
			}
			parts := strings.Split(strings.TrimPrefix(body, "₹"), ".")
			return len(parts) == 2 && len(parts[1]) == 2 && indianPattern.MatchString(parts[0])
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("value preserved to the paisa", prop.ForAll(
		func(amount float64) bool {
			parsed := parseIndianCurrency(FormatIndianCurrency(amount))
			return math.Abs(parsed-amount) <= 0.0051
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("compact form picks the right unit", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatCompact(amount)
			abs := math.Abs(amount)
			switch {
			case abs >= 10000000:
				return strings.HasSuffix(formatted, " Cr")
			case abs >= 100000:
				return strings.HasSuffix(formatted, " L")
			}
			return strings.Contains(formatted, "₹")
		},
		gen.Float64Range(-1e10, 1e10),
	))

	properties.TestingRun(t)
}

func parseIndianCurrency(s string) float64 {
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(s, ",", "")

	var parsed float64
	for i, c := range s {
		if c == '.' {
			for j, d := range s[i+1:] {
				parsed += float64(d-'0') / math.Pow(10, float64(j+1))
			}
			break
		}
		parsed = parsed*10 + float64(c-'0')
	}
	if negative {
		parsed = -parsed
	}
	return parsed
}

func TestIndianNumberFormatExamples(t *testing.T) {
	testCases := []struct {
		amount   float64
		expected string
	}{
		{0, "₹0.00"},
		{1, "₹1.00"},
		{1000, "₹1,000.00"},
		{100000, "₹1,00,000.00"},
		{10000000, "₹1,00,00,000.00"},
		{-1234.56, "-₹1,234.56"},
		{12345678.90, "₹1,23,45,678.90"},
		{-0.001, "₹0.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatIndianCurrency(tc.amount))
		})
	}
}

func TestFractionAndQuantity(t *testing.T) {
	assert.Equal(t, "12.34%", FormatFraction(0.1234))
	assert.Equal(t, "+5.00%", FormatSignedFraction(0.05))
	assert.Equal(t, "-2.50%", FormatSignedFraction(-0.025))
	assert.Equal(t, "0.00%", FormatSignedFraction(0))

	assert.Equal(t, "1,25,000", FormatQuantity(125000))
	assert.Equal(t, "-150", FormatQuantity(-150))
	assert.Equal(t, "0.5000", FormatQuantity(0.5))

	assert.Equal(t, "2.50 Cr", FormatCompact(25000000))
	assert.Equal(t, "1.50 L", FormatCompact(150000))
}

func TestWeekdays(t *testing.T) {
	from := time.Date(2024, 1, 24, 0, 0, 0, 0, time.UTC) // Wednesday
	to := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
	republicDay := time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC)

	days := Weekdays(from, to, republicDay)
	var got []string
	for _, d := range days {
		got = append(got, FormatDate(d))
	}
	assert.Equal(t, []string{"24-Jan-2024", "25-Jan-2024", "29-Jan-2024", "30-Jan-2024"}, got)
	assert.True(t, IsWeekend(time.Date(2024, 1, 27, 0, 0, 0, 0, time.UTC)))
	assert.NotNil(t, IndiaLocation)
}
