package protocol

import (
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
)

// Compile builds the constraint system of shape from its placeholder
// circuit. No witness values are involved.
func Compile(shape cae.Shape) (constraint.ConstraintSystem, error) {
	placeholder, err := cae.NewPlaceholder(shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSetupFailed, err)
	}
	ccs, err := frontend.Compile(shape.Curve.ScalarField(), r1cs.NewBuilder, placeholder)
	if err != nil {
		return nil, fmt.Errorf("%w: compile circuit: %w", ErrSetupFailed, err)
	}
	return ccs, nil
}

// Setup compiles shape and runs the Groth16 key generation.
//
// The setup randomness is sampled and dropped inside the backend, so keys
// produced here come from a single party and are only fit for development.
// Production keys must come from a multi-party ceremony and be loaded with
// NewKeyPair; keeping that trapdoor out of reach is the caller's duty.
func Setup(shape cae.Shape) (*KeyPair, error) {
	ccs, err := Compile(shape)
	if err != nil {
		return nil, err
	}
	return SetupCompiled(shape, ccs)
}

// SetupCompiled runs the key generation for an already compiled shape.
func SetupCompiled(shape cae.Shape, ccs constraint.ConstraintSystem) (*KeyPair, error) {
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSetupFailed, err)
	}
	return NewKeyPair(shape, ccs, pk, vk)
}
