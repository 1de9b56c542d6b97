package cae

import (
	"fmt"
	"math/big"
)

// Evaluation is the native outcome of the two circuit checks.
type Evaluation struct {
	Member      bool
	BelowCutoff bool
}

func (e Evaluation) Eligible() bool { return e.Member && e.BelowCutoff }

// Evaluate runs the eligibility checks outside the circuit. It fails on
// malformed input only; an ineligible credential is a valid evaluation.
func Evaluate(shape Shape, inst Instance) (Evaluation, error) {
	if err := shape.Validate(); err != nil {
		return Evaluation{}, err
	}
	if len(inst.Commitments) != shape.Capacity {
		return Evaluation{}, fmt.Errorf("%w: %d commitments, expected %d", ErrShapeMismatch, len(inst.Commitments), shape.Capacity)
	}
	if err := CheckCutoff(shape, inst.CutoffYear); err != nil {
		return Evaluation{}, err
	}
	enc, err := inst.Credential.Encode(shape.Curve)
	if err != nil {
		return Evaluation{}, err
	}
	dob := enc.DobYearInt()
	if dob.BitLen() > shape.YearBits {
		return Evaluation{}, fmt.Errorf("%w: birth year %s exceeds %d", ErrYearOutOfRange, dob, shape.MaxYear())
	}

	var ev Evaluation
	commitment := enc.Commitment()
	for _, c := range inst.Commitments {
		if c == commitment {
			ev.Member = true
		}
	}
	ev.BelowCutoff = dob.Cmp(new(big.Int).SetUint64(inst.CutoffYear)) < 0
	return ev, nil
}
