package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// OptionalNumber distinguishes an absent JSON field (or null) from a present
// one. Present values may be JSON numbers or numeric strings; they are kept
// raw until Int or Float parses them.
type OptionalNumber struct {
	Set bool
	Raw string
}

func (o *OptionalNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*o = OptionalNumber{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = OptionalNumber{Set: true, Raw: strings.TrimSpace(s)}
		return nil
	}
	*o = OptionalNumber{Set: true, Raw: string(b)}
	return nil
}

// Int parses the value as a whole number. ok is false when the field was
// absent; err is non-nil when it was present but not an integer.
func (o OptionalNumber) Int(field string) (value int, ok bool, err error) {
	if !o.Set {
		return 0, false, nil
	}
	n, perr := strconv.Atoi(o.Raw)
	if perr != nil {
		// Accept 30.0 style JSON numbers.
		f, ferr := strconv.ParseFloat(o.Raw, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != float64(int(f)) {
			return 0, true, &ValidationError{Message: field + " must be a whole number", Fields: map[string]string{field: "must be a whole number"}}
		}
		n = int(f)
	}
	return n, true, nil
}

// Float parses the value as a decimal number, with the same ok/err contract as Int.
func (o OptionalNumber) Float(field string) (value float64, ok bool, err error) {
	if !o.Set {
		return 0, false, nil
	}
	f, perr := strconv.ParseFloat(o.Raw, 64)
	if perr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, true, &ValidationError{Message: field + " must be a number", Fields: map[string]string{field: "must be a number"}}
	}
	return f, true, nil
}

// OptionalString distinguishes an absent JSON field from an empty string.
type OptionalString struct {
	Set   bool
	Value string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = OptionalString{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*o = OptionalString{Set: true, Value: s}
	return nil
}
