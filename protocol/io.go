package protocol

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
)

// MarshalProof returns the compressed binary form of proof.
func MarshalProof(proof groth16.Proof) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize proof: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalProof decodes a proof for curve. Points are checked to be on
// the curve and in the right subgroup.
func UnmarshalProof(curve ecc.ID, data []byte) (groth16.Proof, error) {
	proof := groth16.NewProof(curve)
	if _, err := proof.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: decode proof: %w", ErrVerify, err)
	}
	return proof, nil
}

// EncodeProof is MarshalProof in standard base64, as used by the HTTP API.
func EncodeProof(proof groth16.Proof) (string, error) {
	raw, err := MarshalProof(proof)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func DecodeProof(curve ecc.ID, s string) (groth16.Proof, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode proof: %w", ErrVerify, err)
	}
	return UnmarshalProof(curve, raw)
}
