// Package solidity serializes proofs, verifying keys and public inputs into
// the flat sequence of base-10 integers expected by an on-chain verifier.
package solidity

// Encoder is implemented by every value with a canonical integer form.
// Composite encoders concatenate their parts in declaration order.
type Encoder interface {
	Encode() []string
}

// FieldElement is satisfied by the base and scalar field elements of
// gnark-crypto (as pointers).
type FieldElement interface {
	IsZero() bool
	Text(base int) string
}

// Element encodes a field element as one decimal string.
type Element struct {
	V FieldElement
}

func (e Element) Encode() []string {
	if e.V.IsZero() {
		return []string{"0"}
	}
	return []string{e.V.Text(10)}
}

// E2 is an element c0 + c1*u of a degree-2 extension. It encodes as
// [c1, c0].
type E2 struct {
	C0, C1 Encoder
}

func (e E2) Encode() []string {
	return concat(e.C1.Encode(), e.C0.Encode())
}

// Affine encodes a short Weierstrass or twisted Edwards point as [x, y].
type Affine struct {
	X, Y Encoder
}

func (p Affine) Encode() []string {
	return concat(p.X.Encode(), p.Y.Encode())
}

// Projective encodes a point in projective or Jacobian form as [x, y, z].
type Projective struct {
	X, Y, Z Encoder
}

func (p Projective) Encode() []string {
	return concat(p.X.Encode(), p.Y.Encode(), p.Z.Encode())
}

// Seq flattens a list or fixed array of encoders.
type Seq []Encoder

func (s Seq) Encode() []string {
	out := make([]string, 0, len(s))
	for _, e := range s {
		out = append(out, e.Encode()...)
	}
	return out
}

func concat(parts ...[]string) []string {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]string, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
