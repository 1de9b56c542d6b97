package solidity

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	gnarksolidity "github.com/consensys/gnark/backend/solidity"
	"github.com/mynextid/zk-age/protocol"
	"golang.org/x/crypto/sha3"
)

// ExportVerifier writes gnark's Solidity verifier contract for vk. Only
// BN254 keys can be verified on chain.
func ExportVerifier(w io.Writer, vk *protocol.VerifyingKey) error {
	if vk == nil || vk.VK == nil {
		return fmt.Errorf("solidity: missing verifying key")
	}
	if vk.Shape.Curve != ecc.BN254 {
		return fmt.Errorf("%w: %s has no EVM pairing precompile", ErrUnsupportedCurve, vk.Shape.Curve)
	}
	return vk.VK.ExportSolidity(w, gnarksolidity.WithHashToFieldFunction(sha3.NewLegacyKeccak256()))
}
