package common

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
)

// limbSize is the number of bytes packed into one field element when
// comparing byte strings. 16 bytes fit in any supported scalar field.
const limbSize = 16

// RangeCheckBytes re-allocates every byte through the uints API so that
// each value is constrained to [0, 256).
func RangeCheckBytes(api frontend.API, in []uints.U8) ([]uints.U8, error) {
	uapi, err := uints.New[uints.U32](api)
	if err != nil {
		return nil, err
	}
	out := make([]uints.U8, len(in))
	for i := range in {
		out[i] = uapi.ByteValueOf(in[i].Val)
	}
	return out, nil
}

// LittleEndianBytes decomposes v into nbBits bits (range checking it) and
// returns its little-endian encoding on size bytes, zero padded.
func LittleEndianBytes(api frontend.API, v frontend.Variable, nbBits, size int) ([]uints.U8, error) {
	if nbBits < 1 || nbBits > 8*size {
		return nil, fmt.Errorf("cannot encode %d bits on %d bytes", nbBits, size)
	}
	uapi, err := uints.New[uints.U32](api)
	if err != nil {
		return nil, err
	}

	bits := api.ToBinary(v, nbBits)
	out := make([]uints.U8, size)
	for i := range out {
		lo := 8 * i
		if lo >= nbBits {
			out[i] = uints.NewU8(0)
			continue
		}
		hi := min(lo+8, nbBits)
		out[i] = uapi.ByteValueOf(api.FromBinary(bits[lo:hi]...))
	}
	return out, nil
}

// PackLimbs packs range checked bytes into little-endian limbs of 16 bytes.
func PackLimbs(api frontend.API, in []uints.U8) []frontend.Variable {
	limbs := make([]frontend.Variable, 0, (len(in)+limbSize-1)/limbSize)
	for start := 0; start < len(in); start += limbSize {
		end := min(start+limbSize, len(in))
		acc := frontend.Variable(0)
		for i := start; i < end; i++ {
			shift := new(big.Int).Lsh(big.NewInt(1), uint(8*(i-start)))
			acc = api.Add(acc, api.Mul(in[i].Val, shift))
		}
		limbs = append(limbs, acc)
	}
	return limbs
}

// IsEqualBytes returns 1 if A and B hold the same bytes, 0 otherwise.
// Both inputs must be range checked.
func IsEqualBytes(api frontend.API, A, B []uints.U8) (frontend.Variable, error) {
	if len(A) != len(B) {
		return nil, fmt.Errorf("A and B must be of the same length")
	}
	limbsA := PackLimbs(api, A)
	limbsB := PackLimbs(api, B)

	eq := frontend.Variable(1)
	for i := range limbsA {
		eq = api.And(eq, api.IsZero(api.Sub(limbsA[i], limbsB[i])))
	}
	return eq, nil
}
