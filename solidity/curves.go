package solidity

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	tebn254 "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
)

func BN254G1(p *bn254.G1Affine) Encoder {
	return Affine{X: Element{&p.X}, Y: Element{&p.Y}}
}

func BN254G1Jac(p *bn254.G1Jac) Encoder {
	return Projective{X: Element{&p.X}, Y: Element{&p.Y}, Z: Element{&p.Z}}
}

func BN254G2(p *bn254.G2Affine) Encoder {
	return Affine{
		X: E2{C0: Element{&p.X.A0}, C1: Element{&p.X.A1}},
		Y: E2{C0: Element{&p.Y.A0}, C1: Element{&p.Y.A1}},
	}
}

func bn254G1Seq(points []bn254.G1Affine) Seq {
	out := make(Seq, len(points))
	for i := range points {
		out[i] = BN254G1(&points[i])
	}
	return out
}

func BLS12381G1(p *bls12381.G1Affine) Encoder {
	return Affine{X: Element{&p.X}, Y: Element{&p.Y}}
}

func BLS12381G2(p *bls12381.G2Affine) Encoder {
	return Affine{
		X: E2{C0: Element{&p.X.A0}, C1: Element{&p.X.A1}},
		Y: E2{C0: Element{&p.Y.A0}, C1: Element{&p.Y.A1}},
	}
}

func bls12381G1Seq(points []bls12381.G1Affine) Seq {
	out := make(Seq, len(points))
	for i := range points {
		out[i] = BLS12381G1(&points[i])
	}
	return out
}

// BabyJubjub points live on the twisted Edwards curve over the BN254
// scalar field.
func BabyJubjub(p *tebn254.PointAffine) Encoder {
	return Affine{X: Element{&p.X}, Y: Element{&p.Y}}
}

func BabyJubjubProj(p *tebn254.PointProj) Encoder {
	return Projective{X: Element{&p.X}, Y: Element{&p.Y}, Z: Element{&p.Z}}
}
