package schema

import (
	"fmt"
	"math"
	"reflect"

	"github.com/vietddude/bridge/internal/core/domain"
)

// Validate checks a value structurally against a descriptor. Under the
// simulator tier validation is permissive: unions, constraints and the
// "any" descriptor accept everything, so fast tests are never blocked
// by type strictness. Under mock and remote tiers the check is strict.
func Validate(value any, d Descriptor, tier domain.Tier) error {
	switch d.kind {
	case nodeAny:
		return nil

	case nodeScalar:
		return validateScalar(value, d.scalar)

	case nodeList:
		rv := reflect.ValueOf(value)
		if value == nil || rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return fmt.Errorf("%w: expected list, got %T", domain.ErrValidation, value)
		}
		for i := 0; i < rv.Len(); i++ {
			if err := Validate(rv.Index(i).Interface(), *d.elem, tier); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil

	case nodeMap:
		rv := reflect.ValueOf(value)
		if value == nil || rv.Kind() != reflect.Map {
			return fmt.Errorf("%w: expected map, got %T", domain.ErrValidation, value)
		}
		iter := rv.MapRange()
		for iter.Next() {
			if err := Validate(iter.Key().Interface(), *d.key, tier); err != nil {
				return fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			if err := Validate(iter.Value().Interface(), *d.value, tier); err != nil {
				return fmt.Errorf("value for %v: %w", iter.Key(), err)
			}
		}
		return nil

	case nodeUnion:
		if tier == domain.TierSimulator {
			return nil
		}
		for _, v := range d.variants {
			if Validate(value, v, tier) == nil {
				return nil
			}
		}
		return fmt.Errorf("%w: %T matches no union member of %s", domain.ErrValidation, value, d)

	case nodeConstrained:
		if err := validateScalar(value, d.scalar); err != nil {
			return err
		}
		if tier == domain.TierSimulator {
			return nil
		}
		num, ok := asFloat(value)
		if !ok {
			// Non-numeric constrained scalars carry no predicate.
			return nil
		}
		if !d.constraint.Check(num) {
			return fmt.Errorf("%w: %v violates constraint %s", domain.ErrValidation, value, renderConstraint(d.constraint))
		}
		return nil
	}

	if tier == domain.TierSimulator {
		return nil
	}
	return fmt.Errorf("%w: unrecognized descriptor", domain.ErrValidation)
}

func validateScalar(value any, kind ScalarKind) error {
	switch kind {
	case ScalarString:
		if _, ok := value.(string); ok {
			return nil
		}
	case ScalarInt:
		switch v := value.(type) {
		case int, int32, int64:
			return nil
		case float64:
			// JSON decoding hands integers back as float64.
			if v == math.Trunc(v) {
				return nil
			}
		}
	case ScalarFloat:
		switch value.(type) {
		case float32, float64, int, int64:
			return nil
		}
	case ScalarBool:
		if _, ok := value.(bool); ok {
			return nil
		}
	}
	return fmt.Errorf("%w: expected %s, got %T", domain.ErrValidation, kind, value)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func renderConstraint(c Constraint) string {
	min, max := "-inf", "+inf"
	if c.Min != nil {
		min = fmt.Sprintf("%g", *c.Min)
	}
	if c.Max != nil {
		max = fmt.Sprintf("%g", *c.Max)
	}
	return fmt.Sprintf("[%s, %s]", min, max)
}
