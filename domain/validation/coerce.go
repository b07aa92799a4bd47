package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/onap/aai-gizmo-sub001/domain/schema"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// Directional markers accepted verbatim on boolean properties.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Coerce converts value to the scalar kind declared by t. Failures are
// BAD_REQUEST.
func Coerce(value any, t schema.PropType) (any, error) {
	out, err := coerceValue(value, t)
	if err != nil {
		return nil, apperror.NewBadRequest(err.Error())
	}
	return out, nil
}

func coerceValue(value any, t schema.PropType) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("null is not a valid %s", t)
	}
	switch t {
	case schema.PropBoolean:
		return coerceToBoolean(value)
	case schema.PropInteger, schema.PropLong:
		return coerceToInteger(value)
	case schema.PropFloat, schema.PropDouble:
		return coerceToFloat(value)
	case schema.PropString:
		return coerceToString(value)
	}
	return nil, fmt.Errorf("unsupported property type %q", t)
}

// coerceToBoolean accepts bools and the exact strings "true" and "false".
// "IN" and "OUT" are left as strings.
func coerceToBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch v {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case DirectionIn, DirectionOut:
			return v, nil
		}
		return nil, fmt.Errorf("invalid boolean value: %q", v)
	}
	return nil, fmt.Errorf("cannot convert %T to boolean", value)
}

func coerceToInteger(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < math.MaxInt64 {
			return int64(v), nil
		}
		return nil, fmt.Errorf("invalid integer value: %v", v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", v)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer value: %q", v)
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot convert %T to integer", value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number value: %s", v)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number value: %q", v)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot convert %T to number", value)
}

func coerceToString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	}
	return nil, fmt.Errorf("cannot convert %T to string", value)
}
