// Package protocol implements the three-role age eligibility protocol on
// top of gnark's Groth16 backend.
package protocol

import (
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	groth16_bls12381 "github.com/consensys/gnark/backend/groth16/bls12-381"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/constraint"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
)

// ProvingKey is shared read-only by every holder proving against Shape.
type ProvingKey struct {
	Shape cae.Shape
	CS    constraint.ConstraintSystem
	PK    groth16.ProvingKey
}

// VerifyingKey is shared read-only by every verifier of Shape.
type VerifyingKey struct {
	Shape cae.Shape
	VK    groth16.VerifyingKey
}

// KeyPair is the output of Setup for one shape.
type KeyPair struct {
	ProvingKey   *ProvingKey
	VerifyingKey *VerifyingKey
}

// NewKeyPair assembles a key pair from deserialized artifacts and checks
// that they belong to shape.
func NewKeyPair(shape cae.Shape, ccs constraint.ConstraintSystem, pk groth16.ProvingKey, vk groth16.VerifyingKey) (*KeyPair, error) {
	if ccs == nil || pk == nil {
		return nil, fmt.Errorf("%w: missing artifact", ErrSetupFailed)
	}
	verifyingKey, err := NewVerifyingKey(shape, vk)
	if err != nil {
		return nil, err
	}
	if pk.CurveID() != shape.Curve {
		return nil, fmt.Errorf("%w: proving key is for %s, shape is %s", ErrSetupFailed, pk.CurveID(), shape.Curve)
	}
	return &KeyPair{
		ProvingKey:   &ProvingKey{Shape: shape, CS: ccs, PK: pk},
		VerifyingKey: verifyingKey,
	}, nil
}

// NewVerifyingKey checks that vk has the curve and public inputs of shape.
func NewVerifyingKey(shape cae.Shape, vk groth16.VerifyingKey) (*VerifyingKey, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if vk == nil {
		return nil, fmt.Errorf("%w: missing verifying key", ErrSetupFailed)
	}
	if vk.CurveID() != shape.Curve {
		return nil, fmt.Errorf("%w: verifying key is for %s, shape is %s", ErrSetupFailed, vk.CurveID(), shape.Curve)
	}
	got, err := NbPublicInputs(vk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSetupFailed, err)
	}
	if got != shape.NbPublicInputs() {
		return nil, fmt.Errorf("%w: verifying key has %d public inputs, shape has %d", ErrSetupFailed, got, shape.NbPublicInputs())
	}
	return &VerifyingKey{Shape: shape, VK: vk}, nil
}

// NbPublicInputs counts the public inputs of vk. G1.K starts with the
// constant term and ends with one point per commitment wire, neither of
// which is a public input.
func NbPublicInputs(vk groth16.VerifyingKey) (int, error) {
	var nbK, nbCommitments int
	switch k := vk.(type) {
	case *groth16_bn254.VerifyingKey:
		nbK, nbCommitments = len(k.G1.K), len(k.CommitmentKeys)
	case *groth16_bls12381.VerifyingKey:
		nbK, nbCommitments = len(k.G1.K), len(k.CommitmentKeys)
	default:
		return 0, fmt.Errorf("unsupported verifying key type %T", vk)
	}
	n := nbK - 1 - nbCommitments
	if n < 0 {
		return 0, fmt.Errorf("verifying key has %d K points for %d commitments", nbK, nbCommitments)
	}
	return n, nil
}
