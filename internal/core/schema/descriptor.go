// Package schema translates between host type descriptors and the
// Python-style wire type notation the remote worker understands
// ("str", "int", "list[str]", "dict[str,int]", "Union[str,int]").
//
// Conversion strictness is parameterized by execution tier: the
// simulator accepts a loose "any" shape, the remote tier requires the
// canonical notation and validates values strictly.
package schema

import (
	"fmt"
	"strings"

	"github.com/vietddude/bridge/internal/core/domain"
)

// ScalarKind enumerates the host scalar kinds.
type ScalarKind string

const (
	ScalarString ScalarKind = "string"
	ScalarInt    ScalarKind = "integer"
	ScalarFloat  ScalarKind = "real"
	ScalarBool   ScalarKind = "boolean"
)

// node tags the variant held by a Descriptor.
type node int

const (
	nodeScalar node = iota
	nodeList
	nodeMap
	nodeUnion
	nodeConstrained
	nodeAny
)

// Constraint restricts a constrained scalar. Only numeric ranges are
// expressible; both bounds are inclusive.
type Constraint struct {
	Min *float64
	Max *float64
}

// Check reports whether v satisfies the constraint.
func (c Constraint) Check(v float64) bool {
	if c.Min != nil && v < *c.Min {
		return false
	}
	if c.Max != nil && v > *c.Max {
		return false
	}
	return true
}

// Descriptor is a recursive type descriptor: a scalar, list, map,
// union, constrained scalar, or the catch-all "any".
type Descriptor struct {
	kind       node
	scalar     ScalarKind
	elem       *Descriptor   // list element
	key, value *Descriptor   // map key/value
	variants   []Descriptor  // union members
	constraint Constraint    // constrained scalar bounds
}

// Constructors.

func Scalar(k ScalarKind) Descriptor { return Descriptor{kind: nodeScalar, scalar: k} }
func String() Descriptor             { return Scalar(ScalarString) }
func Int() Descriptor                { return Scalar(ScalarInt) }
func Float() Descriptor              { return Scalar(ScalarFloat) }
func Bool() Descriptor               { return Scalar(ScalarBool) }
func Any() Descriptor                { return Descriptor{kind: nodeAny} }

func ListOf(elem Descriptor) Descriptor {
	return Descriptor{kind: nodeList, elem: &elem}
}

func MapOf(key, value Descriptor) Descriptor {
	return Descriptor{kind: nodeMap, key: &key, value: &value}
}

func UnionOf(variants ...Descriptor) Descriptor {
	return Descriptor{kind: nodeUnion, variants: variants}
}

func Constrained(k ScalarKind, c Constraint) Descriptor {
	return Descriptor{kind: nodeConstrained, scalar: k, constraint: c}
}

// IsAny reports whether d is the catch-all descriptor.
func (d Descriptor) IsAny() bool { return d.kind == nodeAny }

// Equal reports semantic equality. Union member order is significant;
// constraints compare by bound values.
func Equal(a, b Descriptor) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case nodeScalar:
		return a.scalar == b.scalar
	case nodeAny:
		return true
	case nodeList:
		return Equal(*a.elem, *b.elem)
	case nodeMap:
		return Equal(*a.key, *b.key) && Equal(*a.value, *b.value)
	case nodeUnion:
		if len(a.variants) != len(b.variants) {
			return false
		}
		for i := range a.variants {
			if !Equal(a.variants[i], b.variants[i]) {
				return false
			}
		}
		return true
	case nodeConstrained:
		return a.scalar == b.scalar && boundEqual(a.constraint.Min, b.constraint.Min) &&
			boundEqual(a.constraint.Max, b.constraint.Max)
	}
	return false
}

func boundEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// String renders a diagnostic form of the descriptor.
func (d Descriptor) String() string {
	switch d.kind {
	case nodeScalar:
		return string(d.scalar)
	case nodeAny:
		return "any"
	case nodeList:
		return fmt.Sprintf("list(%s)", d.elem)
	case nodeMap:
		return fmt.Sprintf("map(%s,%s)", d.key, d.value)
	case nodeUnion:
		parts := make([]string, len(d.variants))
		for i, v := range d.variants {
			parts[i] = v.String()
		}
		return fmt.Sprintf("union(%s)", strings.Join(parts, ","))
	case nodeConstrained:
		return fmt.Sprintf("constrained(%s)", d.scalar)
	}
	return "invalid"
}

// Representable reports whether the descriptor survives a wire
// round-trip at the given tier without loss. Constrained scalars are
// never representable (the notation has no constraint syntax); unions
// collapse to "any" below the mock tier.
func Representable(d Descriptor, tier domain.Tier) bool {
	switch d.kind {
	case nodeScalar, nodeAny:
		return true
	case nodeList:
		return Representable(*d.elem, tier)
	case nodeMap:
		return Representable(*d.key, tier) && Representable(*d.value, tier)
	case nodeUnion:
		if tier == domain.TierSimulator {
			return false
		}
		for _, v := range d.variants {
			if !Representable(v, tier) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
