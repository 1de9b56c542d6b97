package common

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
)

// MaxComparisonBits bounds the operand width of IsLessBounded. With 64-bit
// operands the shifted difference stays below 2^65, far under the modulus
// of every supported scalar field.
const MaxComparisonBits = 64

// IsLessBounded returns 1 if a < b, 0 otherwise.
//
// Both operands are range checked to nbBits bits: values >= 2^nbBits make
// the constraint system unsatisfiable instead of wrapping around the field.
// The result is the top bit of b - a - 1 + 2^nbBits.
func IsLessBounded(api frontend.API, a, b frontend.Variable, nbBits int) (frontend.Variable, error) {
	if nbBits < 1 || nbBits > MaxComparisonBits {
		return nil, fmt.Errorf("comparison width must be in [1, %d], got %d", MaxComparisonBits, nbBits)
	}
	api.ToBinary(a, nbBits)
	api.ToBinary(b, nbBits)

	offset := new(big.Int).Lsh(big.NewInt(1), uint(nbBits))
	d := api.Add(api.Sub(b, a, 1), offset)
	bits := api.ToBinary(d, nbBits+1)

	return bits[nbBits], nil
}
