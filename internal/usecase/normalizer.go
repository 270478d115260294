package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pharmalens/backend/internal/domain"
)

// DefaultSentinel replaces missing descriptive values
const DefaultSentinel = "Unspecified"

var (
	leadingDigits = regexp.MustCompile(`\d+`)

	groupingReplacer = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "")
)

// nullMarkers are the spreadsheet spellings of a missing value
var nullMarkers = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"n/a":  true,
}

// NormalizeOptions controls the cosmetic part of normalization
type NormalizeOptions struct {
	Sentinel   string
	Capitalize []domain.Field
}

func (o NormalizeOptions) sentinel() string {
	if o.Sentinel == "" {
		return DefaultSentinel
	}
	return o.Sentinel
}

// Normalize turns raw rows into clean rows. The input is not modified
// and normalizing an already clean table returns it unchanged.
func Normalize(products []domain.Product, opts NormalizeOptions) []domain.CleanProduct {
	sentinel := opts.sentinel()
	capitalize := make(map[domain.Field]bool, len(opts.Capitalize))
	for _, f := range opts.Capitalize {
		if f != domain.FieldName && f != domain.FieldPrice {
			capitalize[f] = true
		}
	}

	out := make([]domain.CleanProduct, len(products))
	for i, p := range products {
		p.Name = strings.TrimSpace(p.Name)
		for _, f := range domain.DescriptiveFields {
			v := strings.TrimSpace(p.Value(f))
			switch {
			case v == "" || nullMarkers[strings.ToLower(v)]:
				v = sentinel
			case capitalize[f] && v != sentinel:
				v = capitalizeFirst(v)
			}
			p.SetValue(f, v)
		}

		clean := domain.CleanProduct{Product: p}
		if v, ok := ExtractNumericPrice(p.Price); ok {
			clean.PriceValue = &v
		}
		out[i] = clean
	}
	return out
}

// capitalizeFirst upper-cases the first rune and lower-cases the rest
func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// ExtractNumericPrice reads the first number in a free text price.
//
// Either '.' or ',' may be the decimal separator. Spaces and apostrophes
// between digit groups are thousands grouping. When both separators occur
// the last one is decimal; a separator that occurs more than once is a
// thousands separator; a lone separator is decimal. ok is false when the
// text holds no digits.
func ExtractNumericPrice(s string) (value float64, ok bool) {
	m := firstNumber(s)
	if m == "" {
		return 0, false
	}
	m = groupingReplacer.Replace(m)

	dots := strings.Count(m, ".")
	commas := strings.Count(m, ",")

	switch {
	case dots > 0 && commas > 0:
		decimal := "."
		if strings.LastIndex(m, ",") > strings.LastIndex(m, ".") {
			decimal = ","
		}
		m = toDecimal(m, decimal)
	case dots > 1:
		m = strings.ReplaceAll(m, ".", "")
	case commas > 1:
		m = strings.ReplaceAll(m, ",", "")
	case commas == 1:
		m = strings.Replace(m, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// firstNumber returns the first number-shaped run of s: leading digits,
// then three-digit groups behind a space or apostrophe, then '.' or ','
// blocks. A group only counts when no further digit follows it, so
// "3 1500" stops after the 3.
func firstNumber(s string) string {
	loc := leadingDigits.FindStringIndex(s)
	if loc == nil {
		return ""
	}
	start, end := loc[0], loc[1]

	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if !isGroupingRune(r) {
			break
		}
		n := digitRun(s[end+size:])
		if n != 3 {
			break
		}
		end += size + n
	}

	for end+1 < len(s) && (s[end] == '.' || s[end] == ',') {
		n := digitRun(s[end+1:])
		if n == 0 {
			break
		}
		end += 1 + n
	}
	return s[start:end]
}

func isGroupingRune(r rune) bool {
	return r == ' ' || r == '\u00a0' || r == '\u202f' || r == '\''
}

// digitRun counts the ASCII digits at the start of s
func digitRun(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// toDecimal keeps the last decimal separator as '.' and drops every other separator
func toDecimal(m, decimal string) string {
	i := strings.LastIndex(m, decimal)
	intPart := strings.NewReplacer(".", "", ",", "").Replace(m[:i])
	fracPart := strings.NewReplacer(".", "", ",", "").Replace(m[i+1:])
	return intPart + "." + fracPart
}
