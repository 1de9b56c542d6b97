package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
)

// DigestSize is the size of a SHA-256 commitment.
const DigestSize = sha256.Size

// Credential is the data an Issuer vouches for. The three decimal fields
// must be valid scalar field elements of the curve the credential is
// committed on.
type Credential struct {
	IssuerID   FieldBytes `json:"issuer_id"`
	HolderName string     `json:"holder_name"`
	DobYear    string     `json:"holder_dob_year"`
	Randomness string     `json:"randomness"`
}

// EncodedCredential holds the fixed-width preimage fields of a credential.
type EncodedCredential struct {
	IssuerID   FieldBytes
	HolderName FieldBytes
	DobYear    FieldBytes
	Randomness FieldBytes
}

// Encode validates and encodes every field against the scalar field of curve.
func (c Credential) Encode(curve ecc.ID) (*EncodedCredential, error) {
	name, err := EncodeField(c.HolderName, curve)
	if err != nil {
		return nil, fmt.Errorf("holder name: %w", err)
	}
	dob, err := EncodeField(c.DobYear, curve)
	if err != nil {
		return nil, fmt.Errorf("holder dob year: %w", err)
	}
	randomness, err := EncodeField(c.Randomness, curve)
	if err != nil {
		return nil, fmt.Errorf("randomness: %w", err)
	}
	return &EncodedCredential{
		IssuerID:   c.IssuerID,
		HolderName: name,
		DobYear:    dob,
		Randomness: randomness,
	}, nil
}

// Commit returns SHA-256(issuer_id || name || dob_year || randomness).
func (c Credential) Commit(curve ecc.ID) (Commitment, error) {
	enc, err := c.Encode(curve)
	if err != nil {
		return Commitment{}, err
	}
	return enc.Commitment(), nil
}

// DobYearInt returns the birth year as an integer.
func (e *EncodedCredential) DobYearInt() *big.Int {
	return e.DobYear.Big()
}

// Preimage is the 128-byte hash input.
func (e *EncodedCredential) Preimage() []byte {
	out := make([]byte, 0, 4*FieldSize)
	out = append(out, e.IssuerID[:]...)
	out = append(out, e.HolderName[:]...)
	out = append(out, e.DobYear[:]...)
	out = append(out, e.Randomness[:]...)
	return out
}

func (e *EncodedCredential) Commitment() Commitment {
	h := sha256.New()
	h.Write(e.IssuerID[:])
	h.Write(e.HolderName[:])
	h.Write(e.DobYear[:])
	h.Write(e.Randomness[:])

	var c Commitment
	copy(c[:], h.Sum(nil))
	return c
}

// Commitment is the published digest of a credential.
type Commitment [DigestSize]byte

func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

func (c Commitment) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Commitment) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid commitment: %w", err)
	}
	if len(raw) != DigestSize {
		return fmt.Errorf("invalid commitment: expected %d bytes, got %d", DigestSize, len(raw))
	}
	copy(c[:], raw)
	return nil
}
