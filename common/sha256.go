package common

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/sha2"
	"github.com/consensys/gnark/std/math/uints"
)

// SHA256 hashes the concatenation of the given chunks.
func SHA256(api frontend.API, chunks ...[]uints.U8) ([]uints.U8, error) {

	// Instantiate SHA256
	hash, err := sha2.New(api)
	if err != nil {
		return nil, err
	}

	for _, chunk := range chunks {
		hash.Write(chunk)
	}
	digest := hash.Sum()

	return digest, nil
}
