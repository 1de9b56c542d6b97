package cae_test

import (
	"encoding/json"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, cae.DefaultShape(3).Validate())
	assert.NoError(t, cae.Shape{Capacity: 5, YearBits: 64, Curve: ecc.BLS12_381}.Validate())

	invalid := []cae.Shape{
		{Capacity: 0, YearBits: 16, Curve: ecc.BN254},
		{Capacity: cae.MaxCapacity + 1, YearBits: 16, Curve: ecc.BN254},
		{Capacity: 3, YearBits: 7, Curve: ecc.BN254},
		{Capacity: 3, YearBits: 65, Curve: ecc.BN254},
		{Capacity: 3, YearBits: 16, Curve: ecc.BW6_761},
	}
	for _, s := range invalid {
		assert.ErrorIs(t, s.Validate(), cae.ErrInvalidShape, "%+v", s)
	}
}

func TestShapeName(t *testing.T) {
	s := cae.DefaultShape(3)
	assert.Equal(t, "age-eligibility-n3-y16-bn254", s.Name())

	parsed, err := cae.ParseShapeName(s.Name())
	require.NoError(t, err)
	assert.Equal(t, s, parsed)

	bls := cae.Shape{Capacity: 5, YearBits: 32, Curve: ecc.BLS12_381}
	parsed, err = cae.ParseShapeName(bls.Name())
	require.NoError(t, err)
	assert.Equal(t, bls, parsed)

	for _, bad := range []string{"", "age-eligibility", "age-eligibility-n3-y16", "age-eligibility-nx-y16-bn254", "other-n3-y16-bn254"} {
		_, err := cae.ParseShapeName(bad)
		assert.ErrorIs(t, err, cae.ErrInvalidShape, bad)
	}
}

func TestShapeMaxYear(t *testing.T) {
	assert.Equal(t, uint64(65535), cae.DefaultShape(3).MaxYear())
	assert.Equal(t, ^uint64(0), cae.Shape{Capacity: 1, YearBits: 64, Curve: ecc.BN254}.MaxYear())
}

func TestShapeJSON(t *testing.T) {
	s := cae.Shape{Capacity: 4, YearBits: 12, Curve: ecc.BLS12_381}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"age-eligibility-n4-y12-bls12-381","capacity":4,"year_bits":12,"curve":"bls12-381"}`, string(data))

	var back cae.Shape
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}
