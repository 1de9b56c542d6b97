// Package issuer keeps the bounded, append-only registry of issued
// credentials and publishes their commitments.
package issuer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/mynextid/zk-age/models"
)

var (
	// ErrMaxCapacityReached is returned by Issue once the ledger holds its capacity.
	ErrMaxCapacityReached = errors.New("issuer: max credentials reached")
	// ErrIncompleteRegistry is returned by the accessors until the ledger is full.
	ErrIncompleteRegistry = errors.New("issuer: incomplete credential registry")
)

// Entry is one issued credential and its commitment.
type Entry struct {
	Credential models.Credential `json:"credential"`
	Commitment models.Commitment `json:"commitment"`
}

// Ledger is safe for concurrent use. Issue is the only mutator.
type Ledger struct {
	mu       sync.Mutex
	capacity int
	curve    ecc.ID
	entries  []Entry
}

// NewLedger creates an empty ledger holding exactly capacity credentials
// committed on the scalar field of curve.
func NewLedger(capacity int, curve ecc.ID) (*Ledger, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("issuer: capacity must be positive, got %d", capacity)
	}
	if _, err := models.ScalarField(curve); err != nil {
		return nil, err
	}
	return &Ledger{
		capacity: capacity,
		curve:    curve,
		entries:  make([]Entry, 0, capacity),
	}, nil
}

func (l *Ledger) Capacity() int { return l.capacity }

func (l *Ledger) Curve() ecc.ID { return l.curve }

// Len returns the number of issued credentials.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Issue appends the credential and its commitment. The ledger is left
// untouched on error.
func (l *Ledger) Issue(cred models.Credential) (models.Commitment, error) {
	commitment, err := cred.Commit(l.curve)
	if err != nil {
		return models.Commitment{}, fmt.Errorf("issuer: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) >= l.capacity {
		return models.Commitment{}, ErrMaxCapacityReached
	}
	l.entries = append(l.entries, Entry{Credential: cred, Commitment: commitment})
	return commitment, nil
}

// Credentials returns the issued credentials in issuance order.
func (l *Ledger) Credentials() ([]models.Credential, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) != l.capacity {
		return nil, fmt.Errorf("%w: %d of %d issued", ErrIncompleteRegistry, len(l.entries), l.capacity)
	}
	out := make([]models.Credential, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Credential
	}
	return out, nil
}

// Commitments returns the published commitment array in issuance order.
func (l *Ledger) Commitments() ([]models.Commitment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) != l.capacity {
		return nil, fmt.Errorf("%w: %d of %d issued", ErrIncompleteRegistry, len(l.entries), l.capacity)
	}
	out := make([]models.Commitment, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Commitment
	}
	return out, nil
}

// Issued returns the commitments issued so far, complete or not.
func (l *Ledger) Issued() []models.Commitment {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Commitment, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Commitment
	}
	return out
}

type ledgerFile struct {
	Capacity int     `json:"capacity"`
	Curve    string  `json:"curve"`
	Entries  []Entry `json:"entries"`
}

// SaveToFile writes the ledger as JSON, overwriting path.
func (l *Ledger) SaveToFile(path string) error {
	l.mu.Lock()
	snapshot := ledgerFile{
		Capacity: l.capacity,
		Curve:    l.curve.String(),
		Entries:  append([]Entry(nil), l.entries...),
	}
	l.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		f.Close()
		return fmt.Errorf("issuer: failed to encode ledger: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("issuer: failed to write ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("issuer: failed to write ledger: %w", err)
	}
	return f.Close()
}

// LoadFromFile reads a ledger written by SaveToFile. Every stored
// commitment is recomputed and must match.
func LoadFromFile(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var stored ledgerFile
	if err := json.NewDecoder(f).Decode(&stored); err != nil {
		return nil, fmt.Errorf("issuer: failed to decode ledger: %w", err)
	}
	curve, err := ecc.IDFromString(stored.Curve)
	if err != nil {
		return nil, fmt.Errorf("issuer: %w", err)
	}
	l, err := NewLedger(stored.Capacity, curve)
	if err != nil {
		return nil, err
	}
	for i, e := range stored.Entries {
		commitment, err := l.Issue(e.Credential)
		if err != nil {
			return nil, fmt.Errorf("issuer: entry %d: %w", i, err)
		}
		if commitment != e.Commitment {
			return nil, fmt.Errorf("issuer: entry %d: stored commitment does not match credential", i)
		}
	}
	return l, nil
}
