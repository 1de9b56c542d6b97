package cae

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/models"
)

const (
	// DefaultYearBits covers birth and cutoff years up to 65535.
	DefaultYearBits = 16
	MinYearBits     = 8
	MaxYearBits     = common.MaxComparisonBits
	MaxCapacity     = 16

	namePrefix = "age-eligibility"
)

var ErrInvalidShape = errors.New("invalid circuit shape")

// Shape fixes the structure of the eligibility circuit: the number of
// commitment slots, the width of the year comparison and the curve. A key
// pair is valid for exactly one shape.
type Shape struct {
	Capacity int
	YearBits int
	Curve    ecc.ID
}

// DefaultShape returns a BN254 shape with 16-bit years.
func DefaultShape(capacity int) Shape {
	return Shape{Capacity: capacity, YearBits: DefaultYearBits, Curve: ecc.BN254}
}

func (s Shape) Validate() error {
	if s.Capacity < 1 || s.Capacity > MaxCapacity {
		return fmt.Errorf("%w: capacity %d not in [1, %d]", ErrInvalidShape, s.Capacity, MaxCapacity)
	}
	if s.YearBits < MinYearBits || s.YearBits > MaxYearBits {
		return fmt.Errorf("%w: year bits %d not in [%d, %d]", ErrInvalidShape, s.YearBits, MinYearBits, MaxYearBits)
	}
	if _, err := models.ScalarField(s.Curve); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	return nil
}

// MaxYear is the largest year representable by the comparison gadget.
func (s Shape) MaxYear() uint64 {
	if s.YearBits >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(s.YearBits) - 1
}

// NbPublicInputs is the number of public inputs (cutoff year, eligibility bit).
func (s Shape) NbPublicInputs() int { return 2 }

// Name is a stable identifier such as "age-eligibility-n3-y16-bn254".
func (s Shape) Name() string {
	return fmt.Sprintf("%s-n%d-y%d-%s", namePrefix, s.Capacity, s.YearBits, curveName(s.Curve))
}

func (s Shape) String() string { return s.Name() }

// CurveName is the curve as it appears in Name, e.g. "bls12-381".
func (s Shape) CurveName() string { return curveName(s.Curve) }

// ParseShapeName is the inverse of Shape.Name.
func ParseShapeName(name string) (Shape, error) {
	rest, ok := strings.CutPrefix(name, namePrefix+"-")
	if !ok {
		return Shape{}, fmt.Errorf("%w: %q", ErrInvalidShape, name)
	}
	parts := strings.SplitN(rest, "-", 3)
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "n") || !strings.HasPrefix(parts[1], "y") {
		return Shape{}, fmt.Errorf("%w: %q", ErrInvalidShape, name)
	}
	capacity, err := strconv.Atoi(parts[0][1:])
	if err != nil {
		return Shape{}, fmt.Errorf("%w: %q", ErrInvalidShape, name)
	}
	yearBits, err := strconv.Atoi(parts[1][1:])
	if err != nil {
		return Shape{}, fmt.Errorf("%w: %q", ErrInvalidShape, name)
	}
	curve, err := ParseCurve(parts[2])
	if err != nil {
		return Shape{}, err
	}
	s := Shape{Capacity: capacity, YearBits: yearBits, Curve: curve}
	return s, s.Validate()
}

// ParseCurve accepts "bn254", "bls12-381" and "bls12_381".
func ParseCurve(name string) (ecc.ID, error) {
	id, err := ecc.IDFromString(strings.ReplaceAll(strings.ToLower(name), "-", "_"))
	if err != nil {
		return ecc.UNKNOWN, fmt.Errorf("%w: unknown curve %q", ErrInvalidShape, name)
	}
	if _, err := models.ScalarField(id); err != nil {
		return ecc.UNKNOWN, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	return id, nil
}

func curveName(id ecc.ID) string {
	return strings.ReplaceAll(id.String(), "_", "-")
}

type shapeJSON struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	YearBits int    `json:"year_bits"`
	Curve    string `json:"curve"`
}

func (s Shape) MarshalJSON() ([]byte, error) {
	return json.Marshal(shapeJSON{
		Name:     s.Name(),
		Capacity: s.Capacity,
		YearBits: s.YearBits,
		Curve:    curveName(s.Curve),
	})
}

func (s *Shape) UnmarshalJSON(data []byte) error {
	var raw shapeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	curve, err := ParseCurve(raw.Curve)
	if err != nil {
		return err
	}
	*s = Shape{Capacity: raw.Capacity, YearBits: raw.YearBits, Curve: curve}
	return s.Validate()
}
