package vitals

import (
	"strings"

	"ubio-intake/internal/domain"
)

func digitsOnly(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Gender resolves sex from the 7th digit of a resident number
// (1/3/5 male, 2/4/6 female). Short or unknown input -> "".
func Gender(residentNumber string) string {
	d := digitsOnly(residentNumber)
	if len(d) < 7 {
		return ""
	}
	switch d[6] {
	case '1', '3', '5':
		return domain.GenderMale
	case '2', '4', '6':
		return domain.GenderFemale
	}
	return ""
}

// FormatResidentNumber XXXXXX-XXXXXXX, extra digits dropped
func FormatResidentNumber(v string) string {
	d := digitsOnly(v)
	if len(d) > 13 {
		d = d[:13]
	}
	if len(d) <= 6 {
		return d
	}
	return d[:6] + "-" + d[6:]
}

// FormatPhone XXX-XXXX-XXXX, extra digits dropped
func FormatPhone(v string) string {
	d := digitsOnly(v)
	if len(d) > 11 {
		d = d[:11]
	}
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 7:
		return d[:3] + "-" + d[3:]
	default:
		return d[:3] + "-" + d[3:7] + "-" + d[7:]
	}
}
