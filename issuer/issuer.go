package issuer

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/mynextid/zk-age/models"
)

// Issuer signs off credentials under a fixed identifier and records them
// in its ledger.
type Issuer struct {
	ID     models.FieldBytes
	ledger *Ledger
}

// New creates an issuer whose identifier is the encoding of the decimal id.
func New(id string, capacity int, curve ecc.ID) (*Issuer, error) {
	ledger, err := NewLedger(capacity, curve)
	if err != nil {
		return nil, err
	}
	return NewWithLedger(id, ledger)
}

// NewWithLedger attaches an existing ledger, e.g. one loaded from disk.
func NewWithLedger(id string, ledger *Ledger) (*Issuer, error) {
	encoded, err := models.EncodeField(id, ledger.Curve())
	if err != nil {
		return nil, fmt.Errorf("issuer id: %w", err)
	}
	return &Issuer{ID: encoded, ledger: ledger}, nil
}

func (i *Issuer) Ledger() *Ledger { return i.ledger }

// IssueNew builds a credential with fresh randomness and issues it. A
// holder name that is not already a decimal field element is mapped with
// models.NameToField.
func (i *Issuer) IssueNew(holderName, dobYear string) (models.Credential, models.Commitment, error) {
	curve := i.ledger.Curve()
	name := holderName
	if _, err := models.ParseField(holderName, curve); err != nil {
		if name, err = models.NameToField(holderName, curve); err != nil {
			return models.Credential{}, models.Commitment{}, err
		}
	}
	randomness, err := models.NewRandomness(curve)
	if err != nil {
		return models.Credential{}, models.Commitment{}, err
	}
	cred := models.Credential{
		IssuerID:   i.ID,
		HolderName: name,
		DobYear:    dobYear,
		Randomness: randomness,
	}
	commitment, err := i.ledger.Issue(cred)
	if err != nil {
		return models.Credential{}, models.Commitment{}, err
	}
	return cred, commitment, nil
}
