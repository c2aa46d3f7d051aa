package server

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Number is a float64 that marshals NaN and +/-Infinity as the literal
// strings "NaN", "Infinity", "-Infinity" instead of failing, since standard
// JSON has no representation for them and the caller needs to distinguish
// a genuine numeric anomaly from a parse failure. Finite values marshal as
// ordinary JSON numbers.
type Number float64

var (
	nanLiteral    = []byte(`"NaN"`)
	posInfLiteral = []byte(`"Infinity"`)
	negInfLiteral = []byte(`"-Infinity"`)
)

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return nanLiteral, nil
	case math.IsInf(f, 1):
		return posInfLiteral, nil
	case math.IsInf(f, -1):
		return negInfLiteral, nil
	default:
		return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler, accepting both the quoted
// literals this package emits and ordinary JSON numbers.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch s {
		case "NaN":
			*n = Number(math.NaN())
		case "Infinity":
			*n = Number(math.Inf(1))
		case "-Infinity":
			*n = Number(math.Inf(-1))
		default:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*n = Number(f)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}
