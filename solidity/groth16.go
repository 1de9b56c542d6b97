package solidity

import (
	"errors"
	"fmt"

	frbls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	frbn254 "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bls12381 "github.com/consensys/gnark/backend/groth16/bls12-381"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/witness"
	"github.com/mynextid/zk-age/protocol"
)

var ErrUnsupportedCurve = errors.New("solidity: unsupported curve")

// ProofEncoder returns A || B || C.
func ProofEncoder(proof groth16.Proof) (Encoder, error) {
	switch p := proof.(type) {
	case *groth16_bn254.Proof:
		return Seq{BN254G1(&p.Ar), BN254G2(&p.Bs), BN254G1(&p.Krs)}, nil
	case *groth16_bls12381.Proof:
		return Seq{BLS12381G1(&p.Ar), BLS12381G2(&p.Bs), BLS12381G1(&p.Krs)}, nil
	default:
		return nil, fmt.Errorf("%w: proof type %T", ErrUnsupportedCurve, proof)
	}
}

// CommitmentsEncoder returns the Pedersen commitments of the proof followed
// by their proof of knowledge. It is empty for circuits without commitments.
func CommitmentsEncoder(proof groth16.Proof) (Encoder, error) {
	var out Seq
	switch p := proof.(type) {
	case *groth16_bn254.Proof:
		if len(p.Commitments) == 0 {
			return out, nil
		}
		for i := range p.Commitments {
			out = append(out, BN254G1(&p.Commitments[i]))
		}
		out = append(out, BN254G1(&p.CommitmentPok))
	case *groth16_bls12381.Proof:
		if len(p.Commitments) == 0 {
			return out, nil
		}
		for i := range p.Commitments {
			out = append(out, BLS12381G1(&p.Commitments[i]))
		}
		out = append(out, BLS12381G1(&p.CommitmentPok))
	default:
		return nil, fmt.Errorf("%w: proof type %T", ErrUnsupportedCurve, proof)
	}
	return out, nil
}

// VerifyingKeyEncoder returns alpha_g1 || beta_g2 || gamma_g2 || delta_g2 ||
// gamma_abc_g1, where gamma_abc_g1 holds the constant term followed by one
// point per public input.
func VerifyingKeyEncoder(vk groth16.VerifyingKey) (Encoder, error) {
	switch k := vk.(type) {
	case *groth16_bn254.VerifyingKey:
		n, err := protocol.NbPublicInputs(vk)
		if err != nil {
			return nil, err
		}
		return Seq{BN254G1(&k.G1.Alpha), BN254G2(&k.G2.Beta), BN254G2(&k.G2.Gamma), BN254G2(&k.G2.Delta), bn254G1Seq(k.G1.K[:n+1])}, nil
	case *groth16_bls12381.VerifyingKey:
		n, err := protocol.NbPublicInputs(vk)
		if err != nil {
			return nil, err
		}
		return Seq{BLS12381G1(&k.G1.Alpha), BLS12381G2(&k.G2.Beta), BLS12381G2(&k.G2.Gamma), BLS12381G2(&k.G2.Delta), bls12381G1Seq(k.G1.K[:n+1])}, nil
	default:
		return nil, fmt.Errorf("%w: verifying key type %T", ErrUnsupportedCurve, vk)
	}
}

// VerifyingKeyCommitmentsEncoder returns what a verifier needs on top of
// VerifyingKeyEncoder to check proof commitments: the K points of the
// commitment wires, then G || GSigmaNeg of every commitment key. It is
// empty for circuits without commitments.
func VerifyingKeyCommitmentsEncoder(vk groth16.VerifyingKey) (Encoder, error) {
	var out Seq
	switch k := vk.(type) {
	case *groth16_bn254.VerifyingKey:
		n, err := protocol.NbPublicInputs(vk)
		if err != nil {
			return nil, err
		}
		out = append(out, bn254G1Seq(k.G1.K[n+1:])...)
		for i := range k.CommitmentKeys {
			out = append(out, BN254G2(&k.CommitmentKeys[i].G), BN254G2(&k.CommitmentKeys[i].GSigmaNeg))
		}
	case *groth16_bls12381.VerifyingKey:
		n, err := protocol.NbPublicInputs(vk)
		if err != nil {
			return nil, err
		}
		out = append(out, bls12381G1Seq(k.G1.K[n+1:])...)
		for i := range k.CommitmentKeys {
			out = append(out, BLS12381G2(&k.CommitmentKeys[i].G), BLS12381G2(&k.CommitmentKeys[i].GSigmaNeg))
		}
	default:
		return nil, fmt.Errorf("%w: verifying key type %T", ErrUnsupportedCurve, vk)
	}
	return out, nil
}

// PublicInputsEncoder encodes the public part of a witness, in circuit order.
func PublicInputsEncoder(w witness.Witness) (Encoder, error) {
	public, err := w.Public()
	if err != nil {
		return nil, err
	}
	switch vec := public.Vector().(type) {
	case frbn254.Vector:
		out := make(Seq, len(vec))
		for i := range vec {
			out[i] = Element{&vec[i]}
		}
		return out, nil
	case frbls12381.Vector:
		out := make(Seq, len(vec))
		for i := range vec {
			out[i] = Element{&vec[i]}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: witness vector %T", ErrUnsupportedCurve, vec)
	}
}

// The Encode functions flatten the corresponding encoders.
func EncodeProof(proof groth16.Proof) ([]string, error) {
	e, err := ProofEncoder(proof)
	if err != nil {
		return nil, err
	}
	return e.Encode(), nil
}

func EncodeVerifyingKey(vk groth16.VerifyingKey) ([]string, error) {
	e, err := VerifyingKeyEncoder(vk)
	if err != nil {
		return nil, err
	}
	return e.Encode(), nil
}

func EncodeVerifyingKeyCommitments(vk groth16.VerifyingKey) ([]string, error) {
	e, err := VerifyingKeyCommitmentsEncoder(vk)
	if err != nil {
		return nil, err
	}
	return e.Encode(), nil
}

func EncodePublicInputs(w witness.Witness) ([]string, error) {
	e, err := PublicInputsEncoder(w)
	if err != nil {
		return nil, err
	}
	return e.Encode(), nil
}
