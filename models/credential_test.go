package models_test

import (
	"crypto/sha256"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/mynextid/zk-age/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredential(t *testing.T) models.Credential {
	t.Helper()
	issuer, err := models.EncodeField("1", ecc.BN254)
	require.NoError(t, err)
	return models.Credential{
		IssuerID:   issuer,
		HolderName: "2005",
		DobYear:    "2005",
		Randomness: "123456789012345678901234567890",
	}
}

func TestEncodeFieldLittleEndian(t *testing.T) {
	b, err := models.EncodeField("258", ecc.BN254)
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), b[0])
	assert.Equal(t, byte(0x01), b[1])
	for i := 2; i < models.FieldSize; i++ {
		assert.Zero(t, b[i])
	}
	assert.Equal(t, "258", b.Decimal())
}

func TestEncodeFieldRejectsInvalid(t *testing.T) {
	modulus := ecc.BN254.ScalarField().String()
	for _, in := range []string{"", "-1", "+1", "12a", " 1", "0x10", modulus} {
		_, err := models.EncodeField(in, ecc.BN254)
		assert.ErrorIs(t, err, models.ErrInvalidEncoding, "input %q", in)
	}

	// r_bn254 - 1 is valid on BN254 and on the larger BLS12-381 field.
	below := ecc.BN254.ScalarField()
	below.Sub(below, big.NewInt(1))
	_, err := models.EncodeField(below.String(), ecc.BN254)
	assert.NoError(t, err)
	_, err = models.EncodeField(modulus, ecc.BLS12_381)
	assert.NoError(t, err)
}

func TestEncodeFieldUnsupportedCurve(t *testing.T) {
	_, err := models.EncodeField("1", ecc.BW6_761)
	assert.ErrorIs(t, err, models.ErrUnsupportedCurve)
}

func TestCommitMatchesPreimageHash(t *testing.T) {
	cred := testCredential(t)
	enc, err := cred.Encode(ecc.BN254)
	require.NoError(t, err)
	require.Len(t, enc.Preimage(), 4*models.FieldSize)

	c, err := cred.Commit(ecc.BN254)
	require.NoError(t, err)
	assert.Equal(t, models.Commitment(sha256.Sum256(enc.Preimage())), c)
}

func TestCommitDeterministic(t *testing.T) {
	cred := testCredential(t)
	a, err := cred.Commit(ecc.BN254)
	require.NoError(t, err)
	b, err := cred.Commit(ecc.BN254)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCommitFieldSensitivity(t *testing.T) {
	base := testCredential(t)
	ref, err := base.Commit(ecc.BN254)
	require.NoError(t, err)

	otherIssuer, err := models.EncodeField("2", ecc.BN254)
	require.NoError(t, err)

	variants := map[string]func(c *models.Credential){
		"issuer":     func(c *models.Credential) { c.IssuerID = otherIssuer },
		"name":       func(c *models.Credential) { c.HolderName = "2006" },
		"dob":        func(c *models.Credential) { c.DobYear = "2004" },
		"randomness": func(c *models.Credential) { c.Randomness = "1" },
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			got, err := c.Commit(ecc.BN254)
			require.NoError(t, err)
			assert.NotEqual(t, ref, got)
		})
	}
}

func TestCommitRejectsBadEncoding(t *testing.T) {
	cred := testCredential(t)
	cred.HolderName = "alice"
	_, err := cred.Commit(ecc.BN254)
	assert.ErrorIs(t, err, models.ErrInvalidEncoding)
}

func TestNameToField(t *testing.T) {
	a, err := models.NameToField("Alice", ecc.BN254)
	require.NoError(t, err)
	b, err := models.NameToField("Alice", ecc.BN254)
	require.NoError(t, err)
	c, err := models.NameToField("Bob", ecc.BN254)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	_, err = models.ParseField(a, ecc.BN254)
	assert.NoError(t, err)
}

func TestNewRandomness(t *testing.T) {
	a, err := models.NewRandomness(ecc.BN254)
	require.NoError(t, err)
	b, err := models.NewRandomness(ecc.BN254)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	_, err = models.ParseField(a, ecc.BN254)
	assert.NoError(t, err)
}

func TestCredentialJSON(t *testing.T) {
	cred := testCredential(t)
	data, err := json.Marshal(cred)
	require.NoError(t, err)

	var decoded models.Credential
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, cred, decoded)

	commitment, err := cred.Commit(ecc.BN254)
	require.NoError(t, err)
	text, err := commitment.MarshalText()
	require.NoError(t, err)
	var back models.Commitment
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, commitment, back)
	assert.Error(t, back.UnmarshalText([]byte("abcd")))
}
