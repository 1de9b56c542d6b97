package protocol_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/issuer"
	"github.com/mynextid/zk-age/models"
	"github.com/mynextid/zk-age/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cutoffYear = 2006

var (
	keysOnce sync.Once
	keys     *protocol.KeyPair
	keysErr  error
)

// sharedKeys runs the setup once for the whole package.
func sharedKeys(t *testing.T) *protocol.KeyPair {
	t.Helper()
	keysOnce.Do(func() {
		_ = common.SetGnarkLogLevel("disabled")
		keys, keysErr = protocol.Setup(cae.DefaultShape(3))
	})
	require.NoError(t, keysErr)
	return keys
}

type fixture struct {
	creds       []models.Credential
	commitments []models.Commitment
}

// newFixture issues credentials born in 2005, 2006 and 2007.
func newFixture(t *testing.T) fixture {
	t.Helper()
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
	return fixture{creds: creds, commitments: commitments}
}

func (f fixture) instance(cred models.Credential) cae.Instance {
	return cae.Instance{CutoffYear: cutoffYear, Commitments: f.commitments, Credential: cred}
}

func TestScenarios(t *testing.T) {
	kp := sharedKeys(t)
	f := newFixture(t)

	outsider := f.creds[0]
	outsider.Randomness = "42"

	cases := []struct {
		name string
		cred models.Credential
		want bool
	}{
		{"A eligible", f.creds[0], true},
		{"B ineligible by threshold", f.creds[2], false},
		{"B' born on the cutoff year", f.creds[1], false},
		{"C non-member", outsider, false},
	}
	// one key pair serves every instance
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proof, err := protocol.Prove(kp.ProvingKey, f.instance(tc.cred))
			require.NoError(t, err)

			ok, err := protocol.Verify(kp.VerifyingKey, cutoffYear, proof)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestProofBoundToCutoff(t *testing.T) {
	kp := sharedKeys(t)
	f := newFixture(t)

	proof, err := protocol.Prove(kp.ProvingKey, f.instance(f.creds[0]))
	require.NoError(t, err)

	ok, err := protocol.Verify(kp.VerifyingKey, cutoffYear+1, proof)
	require.NoError(t, err)
	assert.False(t, ok)

	// replaying against the original input keeps working
	for i := 0; i < 2; i++ {
		ok, err = protocol.Verify(kp.VerifyingKey, cutoffYear, proof)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestProofSerialization(t *testing.T) {
	kp := sharedKeys(t)
	f := newFixture(t)

	proof, err := protocol.Prove(kp.ProvingKey, f.instance(f.creds[0]))
	require.NoError(t, err)

	encoded, err := protocol.EncodeProof(proof)
	require.NoError(t, err)
	decoded, err := protocol.DecodeProof(ecc.BN254, encoded)
	require.NoError(t, err)

	ok, err := protocol.Verify(kp.VerifyingKey, cutoffYear, decoded)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = protocol.DecodeProof(ecc.BN254, "not base64!")
	assert.ErrorIs(t, err, protocol.ErrVerify)
	_, err = protocol.UnmarshalProof(ecc.BN254, []byte{1, 2, 3})
	assert.ErrorIs(t, err, protocol.ErrVerify)
}

func TestProveFailures(t *testing.T) {
	kp := sharedKeys(t)
	f := newFixture(t)

	_, err := protocol.Prove(nil, f.instance(f.creds[0]))
	assert.ErrorIs(t, err, protocol.ErrProveFailed)

	short := f.instance(f.creds[0])
	short.Commitments = short.Commitments[:2]
	_, err = protocol.Prove(kp.ProvingKey, short)
	assert.ErrorIs(t, err, protocol.ErrProveFailed)
	assert.ErrorIs(t, err, cae.ErrShapeMismatch)

	bad := f.creds[0]
	bad.HolderName = "Alice"
	_, err = protocol.Prove(kp.ProvingKey, f.instance(bad))
	assert.ErrorIs(t, err, protocol.ErrProveFailed)
	assert.ErrorIs(t, err, models.ErrInvalidEncoding)
}

func TestVerifyErrors(t *testing.T) {
	kp := sharedKeys(t)
	f := newFixture(t)

	proof, err := protocol.Prove(kp.ProvingKey, f.instance(f.creds[0]))
	require.NoError(t, err)

	_, err = protocol.Verify(nil, cutoffYear, proof)
	assert.ErrorIs(t, err, protocol.ErrVerify)

	_, err = protocol.Verify(kp.VerifyingKey, cutoffYear, nil)
	assert.ErrorIs(t, err, protocol.ErrVerify)

	_, err = protocol.Verify(kp.VerifyingKey, 1<<16, proof)
	assert.ErrorIs(t, err, protocol.ErrVerify)
	assert.ErrorIs(t, err, cae.ErrYearOutOfRange)
}

func TestNewKeyPairChecksShape(t *testing.T) {
	kp := sharedKeys(t)
	pk, vk := kp.ProvingKey, kp.VerifyingKey

	_, err := protocol.NewKeyPair(pk.Shape, pk.CS, pk.PK, vk.VK)
	require.NoError(t, err)

	bls := cae.Shape{Capacity: 3, YearBits: 16, Curve: ecc.BLS12_381}
	_, err = protocol.NewKeyPair(bls, pk.CS, pk.PK, vk.VK)
	assert.ErrorIs(t, err, protocol.ErrSetupFailed)

	_, err = protocol.NewKeyPair(pk.Shape, nil, pk.PK, vk.VK)
	assert.ErrorIs(t, err, protocol.ErrSetupFailed)
}

// squareCircuit has a single public input and no commitments.
type squareCircuit struct {
	X frontend.Variable
	Y frontend.Variable `gnark:",public"`
}

func (c *squareCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.Y, api.Mul(c.X, c.X))
	return nil
}

func TestNbPublicInputs(t *testing.T) {
	kp := sharedKeys(t)

	// K also carries the commitment wire of the range checks
	k := kp.VerifyingKey.VK.(*groth16_bn254.VerifyingKey)
	require.NotEmpty(t, k.CommitmentKeys)
	assert.Equal(t, 2+1+len(k.CommitmentKeys), len(k.G1.K))

	n, err := protocol.NbPublicInputs(kp.VerifyingKey.VK)
	require.NoError(t, err)
	assert.Equal(t, kp.VerifyingKey.Shape.NbPublicInputs(), n)

	_, err = protocol.NbPublicInputs(groth16.NewVerifyingKey(ecc.BW6_761))
	assert.Error(t, err)
}

func TestNewKeyPairRejectsForeignKey(t *testing.T) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &squareCircuit{})
	require.NoError(t, err)
	pk, vk, err := groth16.Setup(ccs)
	require.NoError(t, err)

	n, err := protocol.NbPublicInputs(vk)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = protocol.NewKeyPair(cae.DefaultShape(3), ccs, pk, vk)
	assert.ErrorIs(t, err, protocol.ErrSetupFailed)
	assert.ErrorContains(t, err, "1 public inputs")

	_, err = protocol.NewVerifyingKey(cae.DefaultShape(3), vk)
	assert.ErrorIs(t, err, protocol.ErrSetupFailed)
}

func TestPublicWitness(t *testing.T) {
	shape := cae.DefaultShape(3)
	w, err := protocol.PublicWitness(shape, cutoffYear)
	require.NoError(t, err)

	pub, err := w.Public()
	require.NoError(t, err)
	vec, ok := pub.Vector().(fr.Vector)
	require.True(t, ok)
	require.Len(t, vec, 2)
	assert.Equal(t, uint64(cutoffYear), vec[0].Uint64())
	assert.Equal(t, uint64(1), vec[1].Uint64())

	_, err = protocol.PublicWitness(shape, 1<<16)
	assert.ErrorIs(t, err, cae.ErrYearOutOfRange)
}
