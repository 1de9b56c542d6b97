package solidity_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/issuer"
	"github.com/mynextid/zk-age/protocol"
	"github.com/mynextid/zk-age/solidity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cubicCircuit checks x^3 + x + 5 == y
type cubicCircuit struct {
	X frontend.Variable
	Y frontend.Variable `gnark:",public"`
}

func (c *cubicCircuit) Define(api frontend.API) error {
	x3 := api.Mul(c.X, c.X, c.X)
	api.AssertIsEqual(c.Y, api.Add(x3, c.X, 5))
	return nil
}

func cubicProof(t *testing.T) (groth16.Proof, groth16.VerifyingKey, frontend.Circuit) {
	t.Helper()
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &cubicCircuit{})
	require.NoError(t, err)
	pk, vk, err := groth16.Setup(ccs)
	require.NoError(t, err)

	assignment := &cubicCircuit{X: 3, Y: 35}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	require.NoError(t, err)
	proof, err := groth16.Prove(ccs, pk, w)
	require.NoError(t, err)
	return proof, vk, assignment
}

func TestGroth16Layouts(t *testing.T) {
	proof, vk, assignment := cubicProof(t)

	proofInts, err := solidity.EncodeProof(proof)
	require.NoError(t, err)
	require.Len(t, proofInts, 2+4+2)

	p := proof.(*groth16_bn254.Proof)
	assert.Equal(t, solidity.BN254G1(&p.Ar).Encode(), proofInts[:2])
	assert.Equal(t, solidity.BN254G2(&p.Bs).Encode(), proofInts[2:6])
	assert.Equal(t, solidity.BN254G1(&p.Krs).Encode(), proofInts[6:])

	commitments, err := solidity.CommitmentsEncoder(proof)
	require.NoError(t, err)
	assert.Empty(t, commitments.Encode())

	// alpha(2) + beta(4) + gamma(4) + delta(4) + K(constant + 1 public)
	vkInts, err := solidity.EncodeVerifyingKey(vk)
	require.NoError(t, err)
	require.Len(t, vkInts, 2+4+4+4+2*2)
	k := vk.(*groth16_bn254.VerifyingKey)
	assert.Equal(t, solidity.BN254G1(&k.G1.Alpha).Encode(), vkInts[:2])
	assert.Equal(t, solidity.BN254G2(&k.G2.Delta).Encode(), vkInts[10:14])

	vkCommitments, err := solidity.EncodeVerifyingKeyCommitments(vk)
	require.NoError(t, err)
	assert.Empty(t, vkCommitments)

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	require.NoError(t, err)
	public, err := solidity.EncodePublicInputs(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"35"}, public)
}

func TestEncodingDeterministic(t *testing.T) {
	proof, vk, _ := cubicProof(t)

	a, err := solidity.EncodeProof(proof)
	require.NoError(t, err)
	b, err := solidity.EncodeProof(proof)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	va, err := solidity.EncodeVerifyingKey(vk)
	require.NoError(t, err)
	vb, err := solidity.EncodeVerifyingKey(vk)
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}

func TestUnsupportedTypes(t *testing.T) {
	_, err := solidity.EncodeProof(groth16.NewProof(ecc.BW6_761))
	assert.ErrorIs(t, err, solidity.ErrUnsupportedCurve)
	_, err = solidity.EncodeVerifyingKey(groth16.NewVerifyingKey(ecc.BW6_761))
	assert.ErrorIs(t, err, solidity.ErrUnsupportedCurve)
}

func TestExportVerifier(t *testing.T) {
	_, vk, _ := cubicProof(t)

	var buf bytes.Buffer
	err := solidity.ExportVerifier(&buf, &protocol.VerifyingKey{Shape: cae.DefaultShape(1), VK: vk})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "pragma solidity")

	bls := &protocol.VerifyingKey{
		Shape: cae.Shape{Capacity: 1, YearBits: 16, Curve: ecc.BLS12_381},
		VK:    groth16.NewVerifyingKey(ecc.BLS12_381),
	}
	assert.ErrorIs(t, solidity.ExportVerifier(&buf, bls), solidity.ErrUnsupportedCurve)
}

var (
	eligibilityOnce sync.Once
	eligibilityKeys *protocol.KeyPair
	eligibilityErr  error
)

func TestCalldata(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping eligibility setup in short mode")
	}
	eligibilityOnce.Do(func() {
		_ = common.SetGnarkLogLevel("disabled")
		eligibilityKeys, eligibilityErr = protocol.Setup(cae.DefaultShape(3))
	})
	require.NoError(t, eligibilityErr)
	kp := eligibilityKeys

	iss, err := issuer.New("1", 3, ecc.BN254)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		year := fmt.Sprint(2005 + i)
		_, _, err := iss.IssueNew(year, year)
		require.NoError(t, err)
	}
	creds, err := iss.Ledger().Credentials()
	require.NoError(t, err)
	commitments, err := iss.Ledger().Commitments()
	require.NoError(t, err)

	proof, err := protocol.Prove(kp.ProvingKey, cae.Instance{CutoffYear: 2006, Commitments: commitments, Credential: creds[0]})
	require.NoError(t, err)

	cd, err := solidity.NewCalldata(kp.VerifyingKey, 2006, proof)
	require.NoError(t, err)
	assert.Equal(t, "age-eligibility-n3-y16-bn254", cd.Shape)
	assert.Len(t, cd.Proof, 8)
	assert.Equal(t, []string{"2006", "1"}, cd.PublicInputs)
	assert.NotEmpty(t, cd.Commitments)

	// gamma_abc covers the constant term and the public inputs only
	shape := kp.VerifyingKey.Shape
	require.Len(t, cd.VerifyingKey, 2+4+4+4+2*(shape.NbPublicInputs()+1))
	k := kp.VerifyingKey.VK.(*groth16_bn254.VerifyingKey)
	gammaABC := cd.VerifyingKey[14:]
	for i := 0; i <= shape.NbPublicInputs(); i++ {
		assert.Equal(t, solidity.BN254G1(&k.G1.K[i]).Encode(), gammaABC[2*i:2*i+2])
	}

	// the remaining K points come first, then G || GSigmaNeg per commitment key
	nbCommitmentWires := len(k.G1.K) - shape.NbPublicInputs() - 1
	require.Len(t, cd.VerifyingKeyCommitments, 2*nbCommitmentWires+8*len(k.CommitmentKeys))
	assert.Equal(t, solidity.BN254G1(&k.G1.K[len(k.G1.K)-1]).Encode(), cd.VerifyingKeyCommitments[2*nbCommitmentWires-2:2*nbCommitmentWires])
	last := k.CommitmentKeys[len(k.CommitmentKeys)-1]
	assert.Equal(t, solidity.BN254G2(&last.GSigmaNeg).Encode(), cd.VerifyingKeyCommitments[len(cd.VerifyingKeyCommitments)-4:])

	again, err := solidity.NewCalldata(kp.VerifyingKey, 2006, proof)
	require.NoError(t, err)
	assert.Equal(t, cd, again)

	fp, err := solidity.VerifyingKeyFingerprint(kp.VerifyingKey.VK)
	require.NoError(t, err)
	assert.Equal(t, fp, cd.Fingerprint)
}
