// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package confpanel

import (
	"math"
	"strconv"
	"strings"

	"github.com/hawk-tui/hawk-go/telemetry"
)

// Field declares one configuration key: its type, constraints, and
// presentation metadata.
type Field struct {
	Key         string
	Type        telemetry.FieldType
	Description string

	// Default seeds the value store when the field is first added.
	Default any

	Required bool

	// Min and Max bound integer and float fields. Nil means
	// unbounded on that side.
	Min *float64
	Max *float64

	// Options enumerates the legal values of an enum field.
	Options []string

	// RestartRequired marks fields whose changes only take effect
	// after an application restart.
	RestartRequired bool

	// Category groups fields in the consumer's rendering. Empty
	// defaults to "General".
	Category string

	// Validator, when set, runs last in the validation chain. It
	// must be fast and side-effect free.
	Validator func(value any) bool
}

// coerce converts value to the field's type. Returns the converted
// value and whether conversion succeeded. JSON decoding hands us
// float64 for every number, so integer fields accept integral floats;
// strings are parsed for numeric and boolean fields the way a config
// file or form would supply them.
func (f Field) coerce(value any) (any, bool) {
	switch f.Type {
	case telemetry.FieldInteger:
		switch v := value.(type) {
		case int:
			return int64(v), true
		case int64:
			return v, true
		case float64:
			if v != math.Trunc(v) {
				return nil, false
			}
			return int64(v), true
		case string:
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, false
			}
			return parsed, true
		default:
			return nil, false
		}

	case telemetry.FieldFloat:
		switch v := value.(type) {
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case float64:
			return v, true
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, false
			}
			return parsed, true
		default:
			return nil, false
		}

	case telemetry.FieldBoolean:
		switch v := value.(type) {
		case bool:
			return v, true
		case string:
			switch strings.ToLower(v) {
			case "true", "1", "yes", "on":
				return true, true
			case "false", "0", "no", "off":
				return false, true
			default:
				return nil, false
			}
		default:
			return nil, false
		}

	case telemetry.FieldString, telemetry.FieldEnum:
		v, ok := value.(string)
		if !ok {
			return nil, false
		}
		return v, true

	default:
		return value, true
	}
}

// validate runs the full chain on an already-coerced value: numeric
// bounds, enum membership, then the custom validator.
func (f Field) validate(value any) bool {
	if f.Min != nil || f.Max != nil {
		var numeric float64
		switch v := value.(type) {
		case int64:
			numeric = float64(v)
		case float64:
			numeric = v
		}
		if f.Min != nil && numeric < *f.Min {
			return false
		}
		if f.Max != nil && numeric > *f.Max {
			return false
		}
	}

	if f.Type == telemetry.FieldEnum && len(f.Options) > 0 {
		member := false
		for _, option := range f.Options {
			if value == option {
				member = true
				break
			}
		}
		if !member {
			return false
		}
	}

	if f.Validator != nil && !f.Validator(value) {
		return false
	}
	return true
}

// Float64 is a convenience for building Min/Max bounds inline.
func Float64(v float64) *float64 { return &v }
