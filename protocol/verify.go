package protocol

import (
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	groth16_bls12381 "github.com/consensys/gnark/backend/groth16/bls12-381"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
)

// Verify reports whether proof shows an eligible credential for cutoffYear.
//
// The eligibility bit of the public witness is always set to 1, so proofs
// of ineligible or unknown credentials return (false, nil). ErrVerify is
// returned when the key, proof or cutoff year cannot be checked at all.
func Verify(vk *VerifyingKey, cutoffYear uint64, proof groth16.Proof) (bool, error) {
	if vk == nil || vk.VK == nil {
		return false, fmt.Errorf("%w: missing verifying key", ErrVerify)
	}
	if proof == nil {
		return false, fmt.Errorf("%w: missing proof", ErrVerify)
	}
	if err := checkProof(vk, proof); err != nil {
		return false, err
	}

	public, err := PublicWitness(vk.Shape, cutoffYear)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrVerify, err)
	}
	if err := groth16.Verify(proof, vk.VK, public, verifierOptions()...); err != nil {
		return false, nil
	}
	return true, nil
}

// PublicWitness is the public input vector checked by Verify:
// [cutoffYear, 1].
func PublicWitness(shape cae.Shape, cutoffYear uint64) (witness.Witness, error) {
	if err := cae.CheckCutoff(shape, cutoffYear); err != nil {
		return nil, err
	}
	assignment := &cae.Circuit{
		CutoffYear: cutoffYear,
		Eligible:   1,
		YearBits:   shape.YearBits,
	}
	return frontend.NewWitness(assignment, shape.Curve.ScalarField(), frontend.PublicOnly())
}

// checkProof rejects proofs whose curve or commitment count cannot match vk.
func checkProof(vk *VerifyingKey, proof groth16.Proof) error {
	if proof.CurveID() != vk.Shape.Curve {
		return fmt.Errorf("%w: proof is for %s, key is for %s", ErrVerify, proof.CurveID(), vk.Shape.Curve)
	}
	var got, want int
	switch p := proof.(type) {
	case *groth16_bn254.Proof:
		k, ok := vk.VK.(*groth16_bn254.VerifyingKey)
		if !ok {
			return fmt.Errorf("%w: verifying key type %T", ErrVerify, vk.VK)
		}
		got, want = len(p.Commitments), len(k.CommitmentKeys)
	case *groth16_bls12381.Proof:
		k, ok := vk.VK.(*groth16_bls12381.VerifyingKey)
		if !ok {
			return fmt.Errorf("%w: verifying key type %T", ErrVerify, vk.VK)
		}
		got, want = len(p.Commitments), len(k.CommitmentKeys)
	default:
		return fmt.Errorf("%w: unsupported proof type %T", ErrVerify, proof)
	}
	if got != want {
		return fmt.Errorf("%w: proof has %d commitments, key expects %d", ErrVerify, got, want)
	}
	return nil
}
