package common

import (
	"github.com/consensys/gnark/std/math/uints"
)

// Helper function to convert bytes to []uints.U8
func BytesToU8Array(s []byte) []uints.U8 {
	result := make([]uints.U8, len(s))
	for i, b := range s {
		result[i] = uints.NewU8(b)
	}
	return result
}

// Helper function to convert a 32-byte value to a fixed circuit array
func U8Array32(b [32]byte) [32]uints.U8 {
	var result [32]uints.U8
	for i := range b {
		result[i] = uints.NewU8(b[i])
	}
	return result
}
