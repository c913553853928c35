package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vietddude/bridge/internal/core/domain"
)

// ErrDescriptorParse signals malformed wire type notation.
var ErrDescriptorParse = errors.New("descriptor parse error")

// WireAny is the degrade target for descriptors a tier cannot express.
const WireAny = "any"

// scalar kind <-> wire name, fixed both ways.
var scalarToWire = map[ScalarKind]string{
	ScalarString: "str",
	ScalarInt:    "int",
	ScalarFloat:  "float",
	ScalarBool:   "bool",
}

var wireToScalar = map[string]ScalarKind{
	"str":   ScalarString,
	"int":   ScalarInt,
	"float": ScalarFloat,
	"bool":  ScalarBool,
}

// ToWire renders a descriptor in wire type notation for a tier.
// Lossy tiers collapse unions and constraints but never change a
// scalar kind. Unsupported descriptors degrade to "any" unless strict
// is set, in which case they fail.
func ToWire(d Descriptor, tier domain.Tier, strict bool) (string, error) {
	switch d.kind {
	case nodeScalar:
		if name, ok := scalarToWire[d.scalar]; ok {
			return name, nil
		}
		if strict {
			return "", fmt.Errorf("%w: unsupported scalar kind %q", domain.ErrValidation, d.scalar)
		}
		return WireAny, nil
	case nodeAny:
		return WireAny, nil
	case nodeList:
		elem, err := ToWire(*d.elem, tier, strict)
		if err != nil {
			return "", err
		}
		return "list[" + elem + "]", nil
	case nodeMap:
		key, err := ToWire(*d.key, tier, strict)
		if err != nil {
			return "", err
		}
		value, err := ToWire(*d.value, tier, strict)
		if err != nil {
			return "", err
		}
		return "dict[" + key + "," + value + "]", nil
	case nodeUnion:
		if tier == domain.TierSimulator {
			return WireAny, nil
		}
		parts := make([]string, len(d.variants))
		for i, v := range d.variants {
			p, err := ToWire(v, tier, strict)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return "Union[" + strings.Join(parts, ",") + "]", nil
	case nodeConstrained:
		// The notation has no constraint syntax; keep the scalar kind.
		return ToWire(Scalar(d.scalar), tier, strict)
	}
	if strict {
		return "", fmt.Errorf("%w: unsupported descriptor", domain.ErrValidation)
	}
	return WireAny, nil
}

// FromWire parses wire type notation back into a descriptor.
// Malformed notation yields an error wrapping ErrDescriptorParse.
func FromWire(s string) (Descriptor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Descriptor{}, fmt.Errorf("%w: empty type", ErrDescriptorParse)
	}
	if s == WireAny {
		return Any(), nil
	}
	if kind, ok := wireToScalar[s]; ok {
		return Scalar(kind), nil
	}

	switch {
	case strings.HasPrefix(s, "list[") && strings.HasSuffix(s, "]"):
		elem, err := FromWire(s[len("list[") : len(s)-1])
		if err != nil {
			return Descriptor{}, err
		}
		return ListOf(elem), nil

	case strings.HasPrefix(s, "dict[") && strings.HasSuffix(s, "]"):
		parts, err := splitTopLevel(s[len("dict[") : len(s)-1])
		if err != nil {
			return Descriptor{}, err
		}
		if len(parts) != 2 {
			return Descriptor{}, fmt.Errorf("%w: dict needs key and value in %q", ErrDescriptorParse, s)
		}
		key, err := FromWire(parts[0])
		if err != nil {
			return Descriptor{}, err
		}
		value, err := FromWire(parts[1])
		if err != nil {
			return Descriptor{}, err
		}
		return MapOf(key, value), nil

	case strings.HasPrefix(s, "Union[") && strings.HasSuffix(s, "]"):
		parts, err := splitTopLevel(s[len("Union[") : len(s)-1])
		if err != nil {
			return Descriptor{}, err
		}
		if len(parts) < 2 {
			return Descriptor{}, fmt.Errorf("%w: union needs at least two members in %q", ErrDescriptorParse, s)
		}
		variants := make([]Descriptor, len(parts))
		for i, p := range parts {
			v, err := FromWire(p)
			if err != nil {
				return Descriptor{}, err
			}
			variants[i] = v
		}
		return UnionOf(variants...), nil
	}

	return Descriptor{}, fmt.Errorf("%w: unrecognized type notation %q", ErrDescriptorParse, s)
}

// splitTopLevel splits on commas that are not nested inside brackets.
func splitTopLevel(s string) ([]string, error) {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced brackets in %q", ErrDescriptorParse, s)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced brackets in %q", ErrDescriptorParse, s)
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty member in %q", ErrDescriptorParse, s)
		}
	}
	return parts, nil
}
