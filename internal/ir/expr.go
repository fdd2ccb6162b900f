package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a sealed interface for scalar operands (ranks, tags, roots).
// Implemented by the expression types and by *Sentinel.
type Value interface {
	fmt.Stringer
	value() // Sealed - only types in this package implement it
}

// Expr is a sealed interface for symbolic integer expressions.
//
// Expressions are kept as a small tree over {Lit, Sym, Mul} instead of being
// evaluated, because extents may name compile-time variables that are only
// known to the emitted program. An Expr is always renderable.
type Expr interface {
	Value
	expr()
}

// Lit is an integer literal.
type Lit int64

func (Lit) value() {}
func (Lit) expr() {}

func (l Lit) String() string {
	return strconv.FormatInt(int64(l), 10)
}

// Sym is a named variable of the emitted program, e.g. "n" or "dest".
type Sym string

func (Sym) value() {}
func (Sym) expr() {}

func (s Sym) String() string {
	return string(s)
}

// Mul is a product of factors. Build it with Product so that literal
// factors are folded and nested products are flattened.
type Mul struct {
	factors []Expr
}

func (Mul) value() {}
func (Mul) expr() {}

// Factors returns a copy of the product's factors.
func (m Mul) Factors() []Expr {
	out := make([]Expr, len(m.factors))
	copy(out, m.factors)
	return out
}

func (m Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		parts[i] = f.String()
	}
	return strings.Join(parts, "*")
}

// Product multiplies the given factors symbolically.
//
// Normal form:
//   - literal factors are folded into a single leading coefficient
//   - symbolic factors keep their argument order
//   - nested products are flattened
//   - a coefficient of 1 is dropped, a zero literal collapses to Lit(0)
//   - a product of one factor is that factor
//
// A literal that would overflow the coefficient is kept as its own factor,
// so the product stays exact.
//
// Product(Sym("n"), Lit(2)) is rendered "2*n". Product() is Lit(1).
// Factors must be non-nil.
func Product(factors ...Expr) Expr {
	coeff := int64(1)
	zero := false
	var literals, symbolic []Expr

	var collect func(Expr)
	collect = func(e Expr) {
		switch f := e.(type) {
		case Lit:
			if f == 0 {
				zero = true
				return
			}
			if p, ok := MulInt64(coeff, int64(f)); ok {
				coeff = p
				return
			}
			literals = append(literals, Lit(coeff))
			coeff = int64(f)
		case Mul:
			for _, inner := range f.factors {
				collect(inner)
			}
		case *Mul:
			collect(*f)
		default:
			symbolic = append(symbolic, e)
		}
	}
	for _, f := range factors {
		collect(f)
	}

	if zero {
		return Lit(0)
	}
	if coeff != 1 || len(literals) > 0 {
		literals = append(literals, Lit(coeff))
	}
	out := append(literals, symbolic...)
	switch len(out) {
	case 0:
		return Lit(1)
	case 1:
		return out[0]
	default:
		return Mul{factors: out}
	}
}

// MulInt64 returns a*b and reports whether the product fits in an int64.
func MulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

// Evaluate folds e to a number using env for symbol values.
// Returns false if a symbol is unbound or the value overflows int64.
func Evaluate(e Expr, env map[string]int64) (int64, bool) {
	switch x := e.(type) {
	case Lit:
		return int64(x), true
	case Sym:
		v, ok := env[string(x)]
		return v, ok
	case Mul:
		out := int64(1)
		for _, f := range x.factors {
			v, ok := Evaluate(f, env)
			if !ok {
				return 0, false
			}
			if out, ok = MulInt64(out, v); !ok {
				return 0, false
			}
		}
		return out, true
	case *Mul:
		return Evaluate(*x, env)
	default:
		return 0, false
	}
}

// SentinelKind identifies a reserved constant.
type SentinelKind int

const (
	// SentinelProcNull is the reserved rank meaning "no process".
	SentinelProcNull SentinelKind = iota + 1
	// SentinelStatusSize is the element count of one status record.
	SentinelStatusSize
)

// Sentinel is a reserved named constant of the message-passing runtime.
// Sentinels are owned by a Context and compared by identity.
type Sentinel struct {
	name string
	kind SentinelKind
}

func (*Sentinel) value() {}

// Name returns the binding spelling of the sentinel.
func (s *Sentinel) Name() string { return s.name }

// Kind returns which reserved constant this is.
func (s *Sentinel) Kind() SentinelKind { return s.kind }

func (s *Sentinel) String() string {
	if s == nil {
		return "<nil sentinel>"
	}
	return s.name
}
