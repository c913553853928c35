package schema

import (
	"fmt"
	"math"
	"strconv"

	"github.com/vietddude/bridge/internal/core/domain"
)

// Coerce attempts a best-effort conversion of value toward the
// descriptor. It is only applied when a caller asks for it explicitly;
// Validate never coerces.
func Coerce(value any, d Descriptor) (any, error) {
	switch d.kind {
	case nodeAny:
		return value, nil

	case nodeScalar, nodeConstrained:
		out, err := coerceScalar(value, d.scalar)
		if err != nil {
			return nil, err
		}
		if d.kind == nodeConstrained {
			if num, ok := asFloat(out); ok && !d.constraint.Check(num) {
				return nil, fmt.Errorf("%w: coerced value %v violates constraint %s",
					domain.ErrValidation, out, renderConstraint(d.constraint))
			}
		}
		return out, nil

	case nodeList:
		items, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot coerce %T to list", domain.ErrValidation, value)
		}
		out := make([]any, len(items))
		for i, item := range items {
			c, err := Coerce(item, *d.elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = c
		}
		return out, nil

	case nodeMap:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot coerce %T to map", domain.ErrValidation, value)
		}
		out := make(map[string]any, len(m))
		for k, v := range m {
			c, err := Coerce(v, *d.value)
			if err != nil {
				return nil, fmt.Errorf("value for %q: %w", k, err)
			}
			out[k] = c
		}
		return out, nil

	case nodeUnion:
		for _, v := range d.variants {
			if c, err := Coerce(value, v); err == nil {
				return c, nil
			}
		}
		return nil, fmt.Errorf("%w: cannot coerce %T to %s", domain.ErrValidation, value, d)
	}

	return nil, fmt.Errorf("%w: cannot coerce to unrecognized descriptor", domain.ErrValidation)
}

func coerceScalar(value any, kind ScalarKind) (any, error) {
	switch kind {
	case ScalarString:
		switch v := value.(type) {
		case string:
			return v, nil
		case bool:
			return strconv.FormatBool(v), nil
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			return strconv.FormatFloat(v, 'g', -1, 64), nil
		}

	case ScalarInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int32:
			return int(v), nil
		case int64:
			return int(v), nil
		case float64:
			if v == math.Trunc(v) {
				return int(v), nil
			}
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n, nil
			}
		case bool:
			if v {
				return 1, nil
			}
			return 0, nil
		}

	case ScalarFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, nil
			}
		}

	case ScalarBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			switch v {
			case "true", "1":
				return true, nil
			case "false", "0":
				return false, nil
			}
		case int:
			switch v {
			case 1:
				return true, nil
			case 0:
				return false, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: cannot coerce %T to %s", domain.ErrValidation, value, kind)
}
