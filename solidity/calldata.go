package solidity

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/mynextid/zk-age/protocol"
	"golang.org/x/crypto/sha3"
)

// Calldata bundles everything a verifier contract call needs.
type Calldata struct {
	Shape        string   `json:"shape"`
	Proof        []string `json:"proof"`                 // A || B || C
	Commitments  []string `json:"commitments,omitempty"` // commitments || pok
	PublicInputs []string `json:"public_inputs"`
	VerifyingKey []string `json:"verifying_key"`
	// commitment wire points || G || GSigmaNeg per commitment key
	VerifyingKeyCommitments []string `json:"verifying_key_commitments,omitempty"`
	Fingerprint             string   `json:"vk_fingerprint"`
}

// NewCalldata encodes proof, the public inputs for cutoffYear and vk.
func NewCalldata(vk *protocol.VerifyingKey, cutoffYear uint64, proof groth16.Proof) (*Calldata, error) {
	if vk == nil || vk.VK == nil || proof == nil {
		return nil, fmt.Errorf("solidity: missing verifying key or proof")
	}
	proofInts, err := EncodeProof(proof)
	if err != nil {
		return nil, err
	}
	commitments, err := CommitmentsEncoder(proof)
	if err != nil {
		return nil, err
	}
	public, err := protocol.PublicWitness(vk.Shape, cutoffYear)
	if err != nil {
		return nil, err
	}
	publicInts, err := EncodePublicInputs(public)
	if err != nil {
		return nil, err
	}
	vkInts, err := EncodeVerifyingKey(vk.VK)
	if err != nil {
		return nil, err
	}
	vkCommitmentInts, err := EncodeVerifyingKeyCommitments(vk.VK)
	if err != nil {
		return nil, err
	}
	fingerprint, err := Fingerprint(append(append([]string{}, vkInts...), vkCommitmentInts...))
	if err != nil {
		return nil, err
	}
	return &Calldata{
		Shape:                   vk.Shape.Name(),
		Proof:                   proofInts,
		Commitments:             commitments.Encode(),
		PublicInputs:            publicInts,
		VerifyingKey:            vkInts,
		VerifyingKeyCommitments: vkCommitmentInts,
		Fingerprint:             fingerprint,
	}, nil
}

// Words packs decimal integers into 32-byte big-endian words.
func Words(ints []string) ([][32]byte, error) {
	out := make([][32]byte, len(ints))
	for i, s := range ints {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("solidity: %q is not an unsigned integer", s)
		}
		if v.BitLen() > 256 {
			return nil, fmt.Errorf("solidity: %q does not fit in uint256", s)
		}
		v.FillBytes(out[i][:])
	}
	return out, nil
}

// Fingerprint is keccak256 over the uint256 words of an encoded verifying
// key, as a 0x-prefixed hex string.
func Fingerprint(vkInts []string) (string, error) {
	words, err := Words(vkInts)
	if err != nil {
		return "", err
	}
	h := sha3.NewLegacyKeccak256()
	for i := range words {
		h.Write(words[i][:])
	}
	return "0x" + hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyingKeyFingerprint fingerprints the encoded verifying key followed
// by its commitment part.
func VerifyingKeyFingerprint(vk groth16.VerifyingKey) (string, error) {
	ints, err := EncodeVerifyingKey(vk)
	if err != nil {
		return "", err
	}
	commitments, err := EncodeVerifyingKeyCommitments(vk)
	if err != nil {
		return "", err
	}
	return Fingerprint(append(ints, commitments...))
}
