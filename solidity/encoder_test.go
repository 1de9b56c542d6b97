package solidity_test

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	tebn254 "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/mynextid/zk-age/solidity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fpElement(v uint64) *fp.Element {
	var e fp.Element
	e.SetUint64(v)
	return &e
}

func TestElementZero(t *testing.T) {
	var zero fp.Element
	assert.Equal(t, []string{"0"}, solidity.Element{V: &zero}.Encode())
	assert.Equal(t, []string{"12345"}, solidity.Element{V: fpElement(12345)}.Encode())
}

func TestE2ReversedOrder(t *testing.T) {
	e := solidity.E2{C0: solidity.Element{V: fpElement(1)}, C1: solidity.Element{V: fpElement(2)}}
	assert.Equal(t, []string{"2", "1"}, e.Encode())
}

func TestPointsAndSequences(t *testing.T) {
	x, y, z := solidity.Element{V: fpElement(3)}, solidity.Element{V: fpElement(4)}, solidity.Element{V: fpElement(5)}

	assert.Equal(t, []string{"3", "4"}, solidity.Affine{X: x, Y: y}.Encode())
	assert.Equal(t, []string{"3", "4", "5"}, solidity.Projective{X: x, Y: y, Z: z}.Encode())

	nested := solidity.Seq{x, solidity.Seq{y, z}, solidity.Seq{}}
	assert.Equal(t, []string{"3", "4", "5"}, nested.Encode())
}

func TestBN254Points(t *testing.T) {
	g1Jac, _, g1, g2 := bn254.Generators()

	assert.Equal(t, []string{"1", "2"}, solidity.BN254G1(&g1).Encode())

	enc := solidity.BN254G2(&g2).Encode()
	require.Len(t, enc, 4)
	assert.Equal(t, []string{
		g2.X.A1.String(), g2.X.A0.String(),
		g2.Y.A1.String(), g2.Y.A0.String(),
	}, enc)

	assert.Equal(t, []string{"1", "2", "1"}, solidity.BN254G1Jac(&g1Jac).Encode())
}

func TestBabyJubjub(t *testing.T) {
	base := tebn254.GetEdwardsCurve().Base
	assert.Equal(t, []string{base.X.String(), base.Y.String()}, solidity.BabyJubjub(&base).Encode())

	var proj tebn254.PointProj
	proj.FromAffine(&base)
	assert.Len(t, solidity.BabyJubjubProj(&proj).Encode(), 3)
}

func TestWordsAndFingerprint(t *testing.T) {
	words, err := solidity.Words([]string{"0", "1", "256"})
	require.NoError(t, err)
	require.Len(t, words, 3)
	assert.Equal(t, byte(1), words[1][31])
	assert.Equal(t, byte(1), words[2][30])

	_, err = solidity.Words([]string{"-1"})
	assert.Error(t, err)
	_, err = solidity.Words([]string{"115792089237316195423570985008687907853269984665640564039457584007913129639936"}) // 2^256
	assert.Error(t, err)

	a, err := solidity.Fingerprint([]string{"1", "2"})
	require.NoError(t, err)
	b, err := solidity.Fingerprint([]string{"1", "2"})
	require.NoError(t, err)
	c, err := solidity.Fingerprint([]string{"2", "1"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 66)
}
