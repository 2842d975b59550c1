package playerstat

import (
	"bytes"
	"strconv"
	"strings"
)

var nullLiteral = []byte("null")

// Scalar holds one provider value exactly as it was encoded on the wire.
// The zero value is JSON null.
type Scalar []byte

func ScalarOf(raw string) Scalar {
	return Scalar(raw)
}

func StringScalar(v string) Scalar {
	return Scalar(strconv.Quote(v))
}

func (s Scalar) IsNull() bool {
	trimmed := bytes.TrimSpace(s)
	return len(trimmed) == 0 || bytes.Equal(trimmed, nullLiteral)
}

// Text returns the value without JSON string quoting. ok is false for null.
func (s Scalar) Text() (string, bool) {
	if s.IsNull() {
		return "", false
	}
	trimmed := bytes.TrimSpace(s)
	if trimmed[0] == '"' {
		out, err := strconv.Unquote(string(trimmed))
		if err != nil {
			return strings.Trim(string(trimmed), `"`), true
		}
		return out, true
	}
	return string(trimmed), true
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.IsNull() {
		return nullLiteral, nil
	}
	return []byte(s), nil
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), nullLiteral) {
		*s = nil
		return nil
	}
	*s = append((*s)[:0], data...)
	return nil
}
