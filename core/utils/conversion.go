package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToInt converts loosely typed upstream values to int.
// It handles integer and float types, numeric strings and byte slices.
// Unparseable input yields 0.
func ToInt(val any) int {
	switch v := val.(type) {
	case nil:
		return 0
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case uint:
		return int(v)
	case uint64:
		return int(v)
	case uint32:
		return int(v)
	case float64:
		return int(math.Round(v))
	case float32:
		return int(math.Round(float64(v)))
	case string:
		return atoi(v)
	case []byte:
		return atoi(string(v))
	default:
		return atoi(fmt.Sprintf("%v", v))
	}
}

func atoi(s string) int {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(math.Round(f))
	}
	return 0
}

// ToString converts various types to string.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts various types to bool.
// It handles bool, numeric types (1=true), and strings ("1", "true", "yes").
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int, int64, int32, uint, uint64, uint32, float64:
		return ToInt(v) == 1
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "1" || s == "true" || s == "yes"
	case []byte:
		return ToBool(string(v))
	default:
		return false
	}
}

// ParseClockSeconds parses durations written as "SS", "MM:SS" or "HH:MM:SS"
// (fractional seconds allowed) into whole seconds. Negative or malformed
// input yields 0.
func ParseClockSeconds(val any) int {
	s := strings.TrimSpace(ToString(val))
	if s == "" {
		return 0
	}
	if !strings.Contains(s, ":") {
		if n := ToInt(s); n > 0 {
			return n
		}
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}
	total := 0.0
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || f < 0 {
			return 0
		}
		total = total*60 + f
	}
	return int(math.Round(total))
}
