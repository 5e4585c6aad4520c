package casting

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Amount is a number that may arrive as a JSON number, a numeric string
// with currency symbols and separators, or null. Unparseable values decode
// to zero.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] != '"' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			*a = 0
			return nil
		}
		*a = Amount(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = Amount(ParseAmount(s))
	return nil
}

// ParseAmount extracts a number from free text such as "$2,500,000",
// "₹ 12.5 crore" or "3M". Returns 0 when no number is present.
func ParseAmount(s string) float64 {
	s = strings.ToLower(strings.TrimSpace(s))
	var digits strings.Builder
	rest := ""
scan:
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			digits.WriteRune(r)
		case r == '-' && digits.Len() == 0:
			digits.WriteRune(r)
		case r == ',' || r == '_' || r == ' ':
		default:
			if digits.Len() > 0 {
				rest = strings.TrimSpace(s[i:])
				break scan
			}
		}
	}
	value, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil {
		return 0
	}
	switch {
	case strings.HasPrefix(rest, "crore"), strings.HasPrefix(rest, "cr"):
		value *= 1e7
	case strings.HasPrefix(rest, "lakh"), strings.HasPrefix(rest, "lac"):
		value *= 1e5
	case strings.HasPrefix(rest, "b"):
		value *= 1e9
	case strings.HasPrefix(rest, "m"):
		value *= 1e6
	case strings.HasPrefix(rest, "k"), strings.HasPrefix(rest, "thousand"):
		value *= 1e3
	}
	return value
}

// Text is a string that tolerates numeric JSON values ("age_range": 30).
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	*t = Text(strings.Trim(string(data), "[]{}"))
	return nil
}

// StringList is a list of strings that also accepts a single comma-separated
// string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		var out StringList
		for _, part := range strings.Split(s, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		*l = out
		return nil
	}
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(StringList, 0, len(items))
	for _, item := range items {
		var s string
		switch v := item.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			continue
		}
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	*l = out
	return nil
}
