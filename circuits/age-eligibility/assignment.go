package cae

import (
	"errors"
	"fmt"

	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/models"
)

var (
	ErrShapeMismatch  = errors.New("instance does not match circuit shape")
	ErrYearOutOfRange = errors.New("year out of range for circuit shape")
)

// Instance is one proof attempt: a private credential, the issuer's
// published commitments and the public cutoff year.
type Instance struct {
	CutoffYear  uint64
	Commitments []models.Commitment
	Credential  models.Credential
}

// NewAssignment validates the instance against shape and builds the full
// witness. The Eligible bit is computed natively, so the returned
// assignment always satisfies the circuit.
func NewAssignment(shape Shape, inst Instance) (*Circuit, error) {
	ev, err := Evaluate(shape, inst)
	if err != nil {
		return nil, err
	}
	enc, err := inst.Credential.Encode(shape.Curve)
	if err != nil {
		return nil, err
	}

	commitments := make([]Digest, len(inst.Commitments))
	for i, c := range inst.Commitments {
		commitments[i] = Digest(common.U8Array32(c))
	}
	eligible := 0
	if ev.Eligible() {
		eligible = 1
	}

	return &Circuit{
		CutoffYear:  inst.CutoffYear,
		Eligible:    eligible,
		Commitments: commitments,
		IssuerID:    common.U8Array32(enc.IssuerID),
		HolderName:  common.U8Array32(enc.HolderName),
		DobYear:     enc.DobYearInt(),
		Randomness:  common.U8Array32(enc.Randomness),
		YearBits:    shape.YearBits,
	}, nil
}

// CheckCutoff reports whether cutoff is representable by shape.
func CheckCutoff(shape Shape, cutoff uint64) error {
	if cutoff > shape.MaxYear() {
		return fmt.Errorf("%w: cutoff %d exceeds %d", ErrYearOutOfRange, cutoff, shape.MaxYear())
	}
	return nil
}
