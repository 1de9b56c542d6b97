package cae

import (
	"errors"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/models"
)

// Digest is a SHA-256 commitment inside the circuit.
type Digest [models.DigestSize]uints.U8

// Circuit functions
// - recompute the commitment of the hidden credential with SHA-256
// - check that the commitment is one of the published ones (OR over all slots)
// - check that the birth year is strictly below the public cutoff year
// - expose the conjunction as the public Eligible bit
type Circuit struct {
	// Public input
	CutoffYear frontend.Variable `gnark:",public"`
	Eligible   frontend.Variable `gnark:",public"` // verifiers pin this to 1

	// Secret input
	Commitments []Digest                   `gnark:",secret"` // issuer's published commitments
	IssuerID    [models.FieldSize]uints.U8 `gnark:",secret"`
	HolderName  [models.FieldSize]uints.U8 `gnark:",secret"`
	DobYear     frontend.Variable          `gnark:",secret"`
	Randomness  [models.FieldSize]uints.U8 `gnark:",secret"`

	YearBits int `gnark:"-"`
}

// NewPlaceholder returns the circuit definition for shape, used for
// compilation and setup. It carries no witness values.
func NewPlaceholder(shape Shape) (*Circuit, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Circuit{
		Commitments: make([]Digest, shape.Capacity),
		YearBits:    shape.YearBits,
	}, nil
}

func (c *Circuit) Define(api frontend.API) error {
	if len(c.Commitments) == 0 {
		return errors.New("circuit needs at least one commitment slot")
	}

	issuerID, err := common.RangeCheckBytes(api, c.IssuerID[:])
	if err != nil {
		return err
	}
	holderName, err := common.RangeCheckBytes(api, c.HolderName[:])
	if err != nil {
		return err
	}
	randomness, err := common.RangeCheckBytes(api, c.Randomness[:])
	if err != nil {
		return err
	}
	// the hashed year bytes are derived from the compared value
	dobYear, err := common.LittleEndianBytes(api, c.DobYear, c.YearBits, models.FieldSize)
	if err != nil {
		return err
	}

	digest, err := common.SHA256(api, issuerID, holderName, dobYear, randomness)
	if err != nil {
		return err
	}

	// membership: at least one slot matches
	member := frontend.Variable(0)
	for i := range c.Commitments {
		slot, err := common.RangeCheckBytes(api, c.Commitments[i][:])
		if err != nil {
			return err
		}
		eq, err := common.IsEqualBytes(api, digest, slot)
		if err != nil {
			return err
		}
		member = api.Or(member, eq)
	}

	// threshold: dob < cutoff
	below, err := common.IsLessBounded(api, c.DobYear, c.CutoffYear, c.YearBits)
	if err != nil {
		return err
	}

	api.AssertIsEqual(c.Eligible, api.And(member, below))

	return nil
}
