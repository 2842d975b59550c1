package joined

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"
)

var ErrCast = errors.New("cast failed")

// CastFloat converts a provider statistic to float64. Null stays nil.
func CastFloat(s playerstat.Scalar) (*float64, error) {
	text, ok := s.Text()
	if !ok {
		return nil, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty value", ErrCast)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %q is not a number", ErrCast, text)
	}
	return &v, nil
}

// CastInt converts a provider identifier to int64. Integral floats such as "15.0" are accepted.
func CastInt(s playerstat.Scalar) (*int64, error) {
	text, ok := s.Text()
	if !ok {
		return nil, nil
	}
	text = strings.TrimSpace(text)
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &v, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrCast, text)
	}
	v := int64(f)
	return &v, nil
}

// CastMinutes accepts "MM:SS" (minutes + seconds/60) or a plain number.
func CastMinutes(s playerstat.Scalar) (*float64, error) {
	text, ok := s.Text()
	if !ok {
		return nil, nil
	}
	text = strings.TrimSpace(text)
	mm, ss, hasColon := strings.Cut(text, ":")
	if !hasColon {
		return CastFloat(s)
	}
	minutes, err := strconv.ParseFloat(mm, 64)
	if err != nil || minutes < 0 {
		return nil, fmt.Errorf("%w: %q minutes", ErrCast, text)
	}
	seconds, err := strconv.ParseFloat(ss, 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return nil, fmt.Errorf("%w: %q seconds", ErrCast, text)
	}
	v := minutes + seconds/60
	return &v, nil
}

// CastDate returns the provider date trimmed to its calendar day.
func CastDate(s playerstat.Scalar) (*string, error) {
	text, ok := s.Text()
	if !ok {
		return nil, nil
	}
	text = strings.TrimSpace(text)
	if len(text) < 10 {
		return nil, fmt.Errorf("%w: %q is not a date", ErrCast, text)
	}
	day := text[:10]
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil, fmt.Errorf("%w: %q is not a date", ErrCast, text)
	}
	return &day, nil
}
