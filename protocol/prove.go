package protocol

import (
	"fmt"

	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"golang.org/x/crypto/sha3"
)

// Prove produces a Groth16 proof for one instance.
//
// Proving does not depend on eligibility: the circuit exposes the outcome
// as a public bit, so ineligible and non-member credentials still yield a
// proof, which Verify then rejects. ErrProveFailed is returned for
// malformed instances, shape mismatches and backend failures only.
func Prove(pk *ProvingKey, inst cae.Instance) (groth16.Proof, error) {
	if pk == nil || pk.CS == nil || pk.PK == nil {
		return nil, fmt.Errorf("%w: missing proving key", ErrProveFailed)
	}

	assignment, err := cae.NewAssignment(pk.Shape, inst)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProveFailed, err)
	}
	witness, err := frontend.NewWitness(assignment, pk.Shape.Curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%w: build witness: %w", ErrProveFailed, err)
	}

	proof, err := groth16.Prove(pk.CS, pk.PK, witness, proverOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProveFailed, err)
	}
	return proof, nil
}

// Commitments inside the proof are hashed to the field with Keccak-256,
// which is what the exported Solidity verifier recomputes.
func proverOptions() []backend.ProverOption {
	return []backend.ProverOption{backend.WithProverHashToFieldFunction(sha3.NewLegacyKeccak256())}
}

func verifierOptions() []backend.VerifierOption {
	return []backend.VerifierOption{backend.WithVerifierHashToFieldFunction(sha3.NewLegacyKeccak256())}
}
