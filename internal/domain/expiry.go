package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expiry bounds, in seconds.
const (
	DefaultDownloadExpiry = 3600
	MaxDownloadExpiry     = 24 * 3600
	DefaultUploadExpiry   = 1800
)

// ErrInvalidExpiry is returned when an expiry value cannot be read as an integer.
var ErrInvalidExpiry = errors.New("expiry is not an integer")

// CoerceSeconds converts a decoded JSON value into a whole number of seconds.
// Integers, floats (truncated toward zero), booleans and numeric strings are
// accepted. Null, objects, arrays and non-numeric strings are rejected.
func CoerceSeconds(v any) (int, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return fromInt64(n)
		}
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidExpiry, t.String())
		}
		return fromFloat(f)
	case float64:
		return fromFloat(t)
	case int:
		return t, nil
	case int64:
		return fromInt64(t)
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidExpiry, t)
		}
		return fromInt64(n)
	case nil:
		return 0, fmt.Errorf("%w: null", ErrInvalidExpiry)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidExpiry, v)
	}
}

func fromInt64(n int64) (int, error) {
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidExpiry, n)
	}
	return int(n), nil
}

func fromFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidExpiry, f)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%w: %v out of range", ErrInvalidExpiry, f)
	}
	return int(math.Trunc(f)), nil
}

// DownloadExpiry resolves the GET grant window. Absent, unreadable or
// out-of-range values, anything outside (0, MaxDownloadExpiry], fall back
// to DefaultDownloadExpiry.
func DownloadExpiry(raw any, present bool) int {
	if !present {
		return DefaultDownloadExpiry
	}
	n, err := CoerceSeconds(raw)
	if err != nil || n <= 0 || n > MaxDownloadExpiry {
		return DefaultDownloadExpiry
	}
	return n
}

// UploadExpiry resolves the PUT grant window. The value is not range checked
// and an unreadable value is an error rather than a fallback.
func UploadExpiry(raw any, present bool) (int, error) {
	if !present {
		return DefaultUploadExpiry, nil
	}
	return CoerceSeconds(raw)
}
