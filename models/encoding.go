package models

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"golang.org/x/crypto/sha3"
)

// FieldSize is the byte length of an encoded scalar field element.
const FieldSize = 32

var (
	ErrInvalidEncoding  = errors.New("invalid field element encoding")
	ErrUnsupportedCurve = errors.New("unsupported curve")
)

// FieldBytes is the fixed 32-byte little-endian representation of a scalar
// field element.
type FieldBytes [FieldSize]byte

// ScalarField returns the modulus of the scalar field for the supported curves.
func ScalarField(curve ecc.ID) (*big.Int, error) {
	switch curve {
	case ecc.BN254, ecc.BLS12_381:
		return curve.ScalarField(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, curve)
	}
}

// ParseField parses a base-10 string into an element of the scalar field of
// curve. Signs, whitespace, leading "0x" and values >= modulus are rejected.
func ParseField(s string, curve ecc.ID) (*big.Int, error) {
	modulus, err := ScalarField(curve)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidEncoding)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidEncoding, s)
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidEncoding, s)
	}
	if v.Cmp(modulus) >= 0 {
		return nil, fmt.Errorf("%w: %q exceeds the %s scalar field", ErrInvalidEncoding, s, curve)
	}
	return v, nil
}

// EncodeField maps a decimal field element to its 32-byte little-endian form.
func EncodeField(s string, curve ecc.ID) (FieldBytes, error) {
	v, err := ParseField(s, curve)
	if err != nil {
		return FieldBytes{}, err
	}
	return FieldBytesFromBig(v), nil
}

// FieldBytesFromBig encodes a non-negative integer below 2^256.
func FieldBytesFromBig(v *big.Int) FieldBytes {
	var out FieldBytes
	be := v.Bytes()
	for i := range be {
		out[i] = be[len(be)-1-i]
	}
	return out
}

// Big decodes the little-endian bytes.
func (b FieldBytes) Big() *big.Int {
	be := make([]byte, FieldSize)
	for i := range b {
		be[FieldSize-1-i] = b[i]
	}
	return new(big.Int).SetBytes(be)
}

// Decimal returns the base-10 representation of the encoded value.
func (b FieldBytes) Decimal() string {
	return b.Big().String()
}

func (b FieldBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b[:])), nil
}

func (b *FieldBytes) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(raw) != FieldSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidEncoding, FieldSize, len(raw))
	}
	copy(b[:], raw)
	return nil
}

// NameToField maps an arbitrary holder name to a decimal field element:
// keccak256(name) reduced modulo the scalar field. Names that are already
// decimal field elements should be used as is.
func NameToField(name string, curve ecc.ID) (string, error) {
	modulus, err := ScalarField(curve)
	if err != nil {
		return "", err
	}
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	v := new(big.Int).SetBytes(h.Sum(nil))
	return v.Mod(v, modulus).String(), nil
}

// NewRandomness draws a uniformly random scalar field element.
func NewRandomness(curve ecc.ID) (string, error) {
	modulus, err := ScalarField(curve)
	if err != nil {
		return "", err
	}
	v, err := rand.Int(rand.Reader, modulus)
	if err != nil {
		return "", fmt.Errorf("failed to draw randomness: %w", err)
	}
	return v.String(), nil
}
