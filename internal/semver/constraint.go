package semver

import "fmt"

// Op is a comparison operator bounding one side of a Constraint interval.
type Op int

const (
	// LT is the strict "<" operator.
	LT Op = iota
	// LE is the non-strict "<=" operator.
	LE
)

func (o Op) String() string {
	if o == LT {
		return "<"
	}
	return "<="
}

// strictest returns the operator that restricts the interval more: LT wins
// over LE, matching "strict wins" from spec §4.1.
func strictest(a, b Op) Op {
	if a == LT || b == LT {
		return LT
	}
	return LE
}

// Constraint is a half-open interval `lower op1 v op2 upper`.
// Invariant: Lower < Upper (enforced by constructors; Intersect returns ok=false
// rather than producing a violating Constraint).
type Constraint struct {
	Lower   Version
	LowerOp Op // operator between Lower and v: v must satisfy `Lower LowerOp v`
	Upper   Version
	UpperOp Op // operator between v and Upper: v must satisfy `v UpperOp Upper`
}

// New builds a Constraint, validating Lower < Upper.
func New(lower Version, lowerOp Op, upper Version, upperOp Op) (Constraint, error) {
	c := Constraint{Lower: lower, LowerOp: lowerOp, Upper: upper, UpperOp: upperOp}
	if !Less(lower, upper) {
		return Constraint{}, fmt.Errorf("semver: constraint lower bound %s must be < upper bound %s", lower, upper)
	}
	return c, nil
}

// Satisfies reports whether v falls within c: `lower op1 v && v op2 upper`.
func Satisfies(v Version, c Constraint) bool {
	lowOK := compareOp(c.Lower, v, c.LowerOp)
	highOK := compareOp(v, c.Upper, c.UpperOp)
	return lowOK && highOK
}

// compareOp tests `a op b`.
func compareOp(a, b Version, op Op) bool {
	c := Compare(a, b)
	if op == LT {
		return c < 0
	}
	return c <= 0
}

// Intersect computes the meet of two constraints: new lower is the max of
// the lowers (strict wins on ties), new upper is the min of the uppers
// (strict wins on ties). Returns ok=false if the resulting interval is
// empty (lower >= upper) — constraints form a meet-semilattice under this
// operation (§4.1).
func Intersect(a, b Constraint) (Constraint, bool) {
	lower, lowerOp := maxBound(a.Lower, a.LowerOp, b.Lower, b.LowerOp)
	upper, upperOp := minBound(a.Upper, a.UpperOp, b.Upper, b.UpperOp)

	if !Less(lower, upper) {
		return Constraint{}, false
	}
	return Constraint{Lower: lower, LowerOp: lowerOp, Upper: upper, UpperOp: upperOp}, true
}

// maxBound picks the tighter (larger) of two lower bounds; on a tie in the
// version value, the stricter operator wins.
func maxBound(av Version, aop Op, bv Version, bop Op) (Version, Op) {
	switch Compare(av, bv) {
	case 1:
		return av, aop
	case -1:
		return bv, bop
	default:
		return av, strictest(aop, bop)
	}
}

// minBound picks the tighter (smaller) of two upper bounds; on a tie in the
// version value, the stricter operator wins.
func minBound(av Version, aop Op, bv Version, bop Op) (Version, Op) {
	switch Compare(av, bv) {
	case -1:
		return av, aop
	case 1:
		return bv, bop
	default:
		return av, strictest(aop, bop)
	}
}

// String renders the constraint as "lower <=v< upper"-style text for
// diagnostics, e.g. "1.0.0 <= v < 2.0.0".
func (c Constraint) String() string {
	return fmt.Sprintf("%s %s v %s %s", c.Lower, c.LowerOp, c.UpperOp, c.Upper)
}
