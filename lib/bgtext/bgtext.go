package bgtext

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	letterRunRegex  = regexp.MustCompile(`[a-zA-Zа-яА-ЯёЁ€]+\.?`)
	nonNumericRegex = regexp.MustCompile(`[^0-9.\-]`)
)

// NormalizeSpace collapses runs of whitespace (including non-breaking
// spaces) into single spaces and trims the ends.
func NormalizeSpace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Trim(whitespaceRegex.ReplaceAllString(s, " "), " ")
}

// ParseFloat parses a Bulgarian-formatted number such as "6,45 гр." or
// "5 838,00 лв.". Spaces act as thousands separators and the comma is the
// decimal separator. Currency symbols and unit suffixes are stripped.
func ParseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", " ")
	// strip letters and currency markers before removing spaces, so
	// "5 838,00 лв." keeps its thousands grouping intact until now
	s = letterRunRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = nonNumericRegex.ReplaceAllString(s, "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	return whitespaceRegex.ReplaceAllString(name, "")
}

// MatchKeyword reports whether the normalized name contains any of the
// given matchers. Matchers are expected to be pre-normalized.
func MatchKeyword(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// SplitDetailLine splits a "label: value" line on the first colon only,
// since values may themselves contain colons.
func SplitDetailLine(line string) (label, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}
