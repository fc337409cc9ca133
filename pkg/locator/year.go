package locator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Year is a calendar year kept in its decimal string form, which is what
// resource names are matched against.
type Year string

func (y Year) String() string { return string(y) }

// ParseYear accepts an integer or a numeric string.
func ParseYear(v any) (Year, error) {
	switch x := v.(type) {
	case int:
		return yearFromInt(int64(x))
	case int64:
		return yearFromInt(x)
	case float64:
		if x != math.Trunc(x) {
			return "", fmt.Errorf("year %v is not an integer", x)
		}
		return yearFromInt(int64(x))
	case json.Number:
		return ParseYear(x.String())
	case string:
		s := strings.TrimSpace(x)
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", fmt.Errorf("year %q is not numeric", x)
		}
		return yearFromInt(n)
	}
	return "", fmt.Errorf("unsupported year type %T", v)
}

func yearFromInt(n int64) (Year, error) {
	if n <= 0 {
		return "", fmt.Errorf("year %d is not positive", n)
	}
	return Year(strconv.FormatInt(n, 10)), nil
}
